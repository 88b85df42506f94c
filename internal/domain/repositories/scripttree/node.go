package scripttree

import (
	"context"

	models "autohub/internal/domain/models/scripttree"
)

// NodeRepository defines data access operations for script tree nodes
type NodeRepository interface {
	// LockTree serializes structural writers for the rest of the
	// current transaction
	LockTree(ctx context.Context) error

	// GetRoot retrieves the single parentless folder
	GetRoot(ctx context.Context) (*models.Node, error)

	// GetByID retrieves a node by ID
	GetByID(ctx context.Context, id string) (*models.Node, error)

	// GetChildren lists the immediate children of a folder
	GetChildren(ctx context.Context, parentID string) ([]models.Node, error)

	// GetAncestors returns the parent chain of a node, nearest first,
	// ending at the root
	GetAncestors(ctx context.Context, id string) ([]models.Node, error)

	// Insert persists a new node; ID and timestamps are assigned by storage
	Insert(ctx context.Context, node *models.Node) error

	// UpdateParentAndName repositions and/or renames a node and bumps
	// its updated_at, returning the stored row
	UpdateParentAndName(ctx context.Context, id string, parentID *string, name string) (*models.Node, error)

	// Delete removes a single node; callers delete descendants first
	Delete(ctx context.Context, id string) error

	// GetChildFolderByName finds a FOLDER child of parentID by exact name
	GetChildFolderByName(ctx context.Context, parentID, name string) (*models.Node, error)

	// GetFolderByRequest finds the FOLDER carrying a request ID, tree-wide
	GetFolderByRequest(ctx context.Context, requestID string) (*models.Node, error)

	// GetFileByRequest finds a FILE child of parentID carrying a request ID
	GetFileByRequest(ctx context.Context, parentID, requestID string) (*models.Node, error)

	// ListByRequest lists every node referencing a request
	ListByRequest(ctx context.Context, requestID string) ([]models.Node, error)

	// ListAll retrieves all nodes as a flat list
	ListAll(ctx context.Context) ([]models.Node, error)
}
