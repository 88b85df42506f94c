package workrequest

import (
	"context"

	identityModels "autohub/internal/domain/models/identity"
	models "autohub/internal/domain/models/workrequest"
)

// RequestService handles work request business logic. Visibility rules
// live here: employees only ever see and touch their own requests,
// developers see everything.
type RequestService interface {
	// CreateRequest files a new request on behalf of actor. Requester
	// fields are forced to the actor; privileged fields submitted by
	// employees are dropped.
	CreateRequest(ctx context.Context, actor *identityModels.User, req *CreateRequestRequest) (*models.Request, error)

	// GetRequest retrieves one request subject to visibility rules
	GetRequest(ctx context.Context, actor *identityModels.User, id string) (*models.Request, error)

	// ListRequests retrieves visible requests newest first, optionally
	// filtered by status
	ListRequests(ctx context.Context, actor *identityModels.User, status string) ([]models.Request, error)

	// UpdateRequest applies a partial update subject to visibility and
	// privileged-field rules
	UpdateRequest(ctx context.Context, actor *identityModels.User, id string, req *UpdateRequestRequest) (*models.Request, error)

	// DeleteRequest removes a request and its script tree nodes
	DeleteRequest(ctx context.Context, id string) error

	// SubmitResultFiles appends delivered files, records the submission
	// event and notifies the requester
	SubmitResultFiles(ctx context.Context, actor *identityModels.User, id string, files []ResultFileUpload) (*models.Request, error)

	// DeleteResultFile removes one delivered file
	DeleteResultFile(ctx context.Context, requestID, fileID string) error

	// ListComments retrieves a request's comments oldest first, subject
	// to visibility rules
	ListComments(ctx context.Context, actor *identityModels.User, requestID string) ([]models.Comment, error)

	// AddComment appends a comment, snapshotting the actor's name
	AddComment(ctx context.Context, actor *identityModels.User, requestID string, req *AddCommentRequest) (*models.Comment, error)

	// AnalyzeRequest runs the AI analysis and stores its JSON verdict
	// on the request
	AnalyzeRequest(ctx context.Context, id string) (*models.Request, error)
}

// CreateRequestRequest represents a new work request
type CreateRequestRequest struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Priority    string             `json:"priority"`
	ProjectName *string            `json:"project_name,omitempty"`
	ToolVersion *string            `json:"tool_version,omitempty"`
	DueDate     *string            `json:"due_date,omitempty"`
	Attachments []AttachmentUpload `json:"attachments,omitempty"`
	// Privileged fields. Developers may file on behalf of another user
	// and preset the status; employee-submitted values are overridden
	// (and logged when they differ from the caller).
	RequesterID    *string `json:"requester_id,omitempty"`
	Status         *string `json:"status,omitempty"`
	DeveloperNotes *string `json:"developer_notes,omitempty"`
}

// AttachmentUpload is an inbound attachment payload
type AttachmentUpload struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// ResultFileUpload is an inbound result file payload
type ResultFileUpload struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// OptionalField tracks tri-state semantics for nullable text columns.
// This is transport-agnostic (no JSON tags) - handler maps from
// httputil.OptionalString.
//   - Present=false: field absent from request (don't change)
//   - Present=true, Value=nil: field is null (clear)
//   - Present=true, Value=&"text": field has value
type OptionalField struct {
	Present bool
	Value   *string
}

// UpdateRequestRequest represents a partial update. Pointer fields are
// unchanged when nil; OptionalField carries clear-vs-set for nullable
// columns. Privileged fields are dropped for employee actors.
type UpdateRequestRequest struct {
	Title       *string
	Description *string
	Priority    *string
	ProjectName OptionalField
	ToolVersion OptionalField
	DueDate     OptionalField
	// Privileged fields
	Status         *string
	DeveloperNotes OptionalField
	ResultScript   OptionalField
	ResultFileName OptionalField
	AIAnalysis     OptionalField
}

// AddCommentRequest represents a new comment
type AddCommentRequest struct {
	Content string `json:"content"`
}
