package identity

import (
	"context"

	models "autohub/internal/domain/models/identity"
)

// UserService handles account administration (developer-only surface)
type UserService interface {
	// ListUsers retrieves all accounts
	ListUsers(ctx context.Context) ([]models.User, error)

	// CreateUser provisions an account directly, bypassing the
	// registration queue
	CreateUser(ctx context.Context, actor *models.User, req *CreateUserRequest) (*models.User, error)

	// PromoteUser raises an employee to developer
	PromoteUser(ctx context.Context, actor *models.User, id string) (*models.User, error)

	// DemoteUser lowers a developer to employee. Demoting yourself or
	// the last developer is rejected.
	DemoteUser(ctx context.Context, actor *models.User, id string) (*models.User, error)

	// DeleteUser removes an account together with its requests and
	// their script tree nodes. Deleting yourself or the last developer
	// is rejected.
	DeleteUser(ctx context.Context, actor *models.User, id string) error

	// ListRegistrations retrieves signup requests, optionally filtered
	// by status
	ListRegistrations(ctx context.Context, status string) ([]models.RegistrationRequest, error)

	// ApproveRegistration turns a pending signup into an employee account
	ApproveRegistration(ctx context.Context, actor *models.User, id string) (*models.User, error)

	// RejectRegistration marks a pending signup rejected
	RejectRegistration(ctx context.Context, actor *models.User, id string) (*models.RegistrationRequest, error)
}

// CreateUserRequest represents a developer provisioning an account
type CreateUserRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	CompanyTitle string `json:"company_title"`
}
