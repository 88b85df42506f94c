package identity

import (
	"context"

	models "autohub/internal/domain/models/identity"
)

// RegistrationRepository defines data access operations for signup requests
type RegistrationRepository interface {
	// Create persists a new registration request
	Create(ctx context.Context, req *models.RegistrationRequest) error

	// GetByID retrieves a registration request by ID
	GetByID(ctx context.Context, id string) (*models.RegistrationRequest, error)

	// GetPendingByEmail finds a PENDING request for a normalized email
	GetPendingByEmail(ctx context.Context, email string) (*models.RegistrationRequest, error)

	// List retrieves registration requests, optionally filtered by status
	// (empty status means all), newest first
	List(ctx context.Context, status string) ([]models.RegistrationRequest, error)

	// Review transitions a request's status and stamps the reviewer and
	// review time, returning the stored row
	Review(ctx context.Context, id, status, reviewerID string) (*models.RegistrationRequest, error)
}
