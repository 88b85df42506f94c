package scripttree

import (
	"context"
	"io"

	models "autohub/internal/domain/models/scripttree"
)

// TreeService handles script library business logic. Every structural
// mutation and every synchronize pass is serialized against the tree;
// reads see a consistent snapshot.
type TreeService interface {
	// GetTree synchronizes completed requests into the library, then
	// returns the nested tree rooted at the Scripts folder
	GetTree(ctx context.Context, actorID string) (*models.TreeNode, error)

	// Synchronize folds every completed request into the library:
	// a folder per request under Unsorted, a FILE child per result
	// file, orphaned request folders reattached. Idempotent.
	Synchronize(ctx context.Context, actorID string) error

	// CreateFolder creates a folder; parent defaults to the root
	CreateFolder(ctx context.Context, actorID string, req *CreateFolderRequest) (*models.Node, error)

	// LinkFile links a request's result into a folder as a FILE node;
	// parent defaults to the root, name defaults to the request title
	LinkFile(ctx context.Context, actorID string, req *LinkFileRequest) (*models.Node, error)

	// UpdateNode moves and/or renames a node in one step
	UpdateNode(ctx context.Context, id string, req *UpdateNodeRequest) (*models.Node, error)

	// DeleteNode removes a node and its whole subtree
	DeleteNode(ctx context.Context, id string) error

	// RemoveRequestNodes deletes the subtrees of every node that
	// references a request (request/user deletion cleanup)
	RemoveRequestNodes(ctx context.Context, requestID string) error

	// ExportArchive synchronizes, then streams the library as a zip
	ExportArchive(ctx context.Context, actorID string, w io.Writer) error
}

// CreateFolderRequest represents a folder creation request
type CreateFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"` // nil = under the root folder
}

// LinkFileRequest represents a file link request
type LinkFileRequest struct {
	RequestID string  `json:"request_id"`
	ParentID  *string `json:"parent_id,omitempty"` // nil = under the root folder
	Name      *string `json:"name,omitempty"`      // nil = request title
}

// UpdateNodeRequest represents a combined move/rename request.
// Nil fields are left unchanged.
type UpdateNodeRequest struct {
	Name     *string `json:"name,omitempty"`
	ParentID *string `json:"parent_id,omitempty"` // target folder ID
}
