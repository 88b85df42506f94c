package scriptfolder

import (
	"context"

	models "autohub/internal/domain/models/scriptfolder"
	wrModels "autohub/internal/domain/models/workrequest"
)

// FolderService handles the flat script collections
type FolderService interface {
	// ListFolders retrieves all collections, newest first
	ListFolders(ctx context.Context) ([]models.ScriptFolder, error)

	// CreateFolder creates a collection owned by the acting user
	CreateFolder(ctx context.Context, actorID string, req *CreateFolderRequest) (*models.ScriptFolder, error)

	// DeleteFolder removes a collection and its memberships
	DeleteFolder(ctx context.Context, id string) error

	// AddRequest puts a request into a collection; both must exist and
	// repeated membership conflicts
	AddRequest(ctx context.Context, folderID, requestID string) error

	// RemoveRequest takes a request out of a collection
	RemoveRequest(ctx context.Context, folderID, requestID string) error

	// ListFolderRequests retrieves the member requests of a collection
	ListFolderRequests(ctx context.Context, folderID string) ([]wrModels.Request, error)
}

// CreateFolderRequest represents a collection creation request
type CreateFolderRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
}
