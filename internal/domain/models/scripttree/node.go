package scripttree

import (
	"time"
)

// Node kinds. Only FOLDER nodes may have children.
const (
	NodeTypeFolder = "FOLDER"
	NodeTypeFile   = "FILE"
)

// Well-known node names. The root is fixed; Unsorted is recreated
// lazily whenever a sync pass needs it.
const (
	RootFolderName     = "Scripts"
	UnsortedFolderName = "Unsorted"
)

// Node is one entry of the script library tree. ParentID is nil only
// for the root folder. RequestID links the node to the work request it
// came from: on a FOLDER it marks the per-request folder the sync pass
// maintains, on a FILE it identifies the request whose result file the
// node represents.
type Node struct {
	ID        string    `json:"id" db:"id"`
	ParentID  *string   `json:"parent_id" db:"parent_id"`
	Name      string    `json:"name" db:"name"`
	NodeType  string    `json:"node_type" db:"node_type"`
	RequestID *string   `json:"request_id,omitempty" db:"request_id"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsRoot reports whether the node is the parentless root folder.
func (n *Node) IsRoot() bool {
	return n.ParentID == nil && n.NodeType == NodeTypeFolder
}
