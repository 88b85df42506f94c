package identity

import (
	"context"

	models "autohub/internal/domain/models/identity"
)

// AuthService handles login, signup and token-to-user resolution
type AuthService interface {
	// Login verifies credentials and issues an access token.
	// clientIP feeds the per-IP attempt throttle.
	Login(ctx context.Context, req *LoginRequest, clientIP string) (*LoginResponse, error)

	// Register files a registration request for developer review
	Register(ctx context.Context, req *RegisterRequest) (*models.RegistrationRequest, error)

	// GetUser loads a user by ID (token subject resolution)
	GetUser(ctx context.Context, id string) (*models.User, error)

	// EnsureDemoDeveloper creates the bootstrap developer account when
	// no developer exists yet
	EnsureDemoDeveloper(ctx context.Context) error
}

// LoginRequest represents a credential login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token and the authenticated user
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

// RegisterRequest represents a self-service signup
type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	CompanyTitle string `json:"company_title"`
}
