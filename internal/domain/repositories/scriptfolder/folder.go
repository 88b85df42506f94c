package scriptfolder

import (
	"context"

	models "autohub/internal/domain/models/scriptfolder"
)

// FolderRepository defines data access operations for script collections
// and their request memberships
type FolderRepository interface {
	// Create persists a new collection; ID and created_at are assigned
	// by storage
	Create(ctx context.Context, folder *models.ScriptFolder) error

	// GetByID retrieves a collection by ID
	GetByID(ctx context.Context, id string) (*models.ScriptFolder, error)

	// List retrieves all collections, newest first
	List(ctx context.Context) ([]models.ScriptFolder, error)

	// Delete removes a collection; memberships cascade
	Delete(ctx context.Context, id string) error

	// AddItem records a request's membership; duplicates conflict
	AddItem(ctx context.Context, folderID, requestID string) error

	// RemoveItem drops a membership; missing memberships are NotFound
	RemoveItem(ctx context.Context, folderID, requestID string) error

	// ListRequestIDs lists the member request IDs of a collection
	ListRequestIDs(ctx context.Context, folderID string) ([]string, error)
}
