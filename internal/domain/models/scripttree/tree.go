package scripttree

import "time"

// TreeNode is the nested read model of the library. Folders always get
// a non-nil Children slice (empty ones drop the key via omitempty);
// files carry a Request snapshot instead. Child order is folders before
// files, each group ascending by case-insensitive name, which makes
// the marshaled tree byte-stable for a given node set.
type TreeNode struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	NodeType  string      `json:"node_type"`
	ParentID  *string     `json:"parent_id"`
	RequestID *string     `json:"request_id,omitempty"`
	CreatedBy string      `json:"created_by"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Children  []*TreeNode `json:"children,omitempty"`
	Request   *FileSource `json:"request,omitempty"`
}

// FileSource is the denormalized work-request snapshot embedded in
// FILE nodes. Payload bytes are deliberately excluded; the export
// endpoint is the only reader of file contents.
type FileSource struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Status      string          `json:"status"`
	ResultFiles []ResultFileRef `json:"result_files"`
}

// ResultFileRef identifies one result file of a request without its data.
type ResultFileRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
}
