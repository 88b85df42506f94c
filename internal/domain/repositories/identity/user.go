package identity

import (
	"context"

	models "autohub/internal/domain/models/identity"
)

// UserRepository defines data access operations for user accounts
type UserRepository interface {
	// Create persists a new user; ID and created_at are assigned by storage
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByEmail retrieves a user by normalized email
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// List retrieves all users ordered by creation time
	List(ctx context.Context) ([]models.User, error)

	// UpdateRole changes a user's role, returning the stored row
	UpdateRole(ctx context.Context, id, role string) (*models.User, error)

	// Update rewrites a user's mutable fields (everything but email and
	// created_at) for the row matching user.ID
	Update(ctx context.Context, user *models.User) error

	// Delete removes a user
	Delete(ctx context.Context, id string) error

	// CountByRole counts users holding a role
	CountByRole(ctx context.Context, role string) (int, error)
}
