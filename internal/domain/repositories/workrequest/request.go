package workrequest

import (
	"context"

	models "autohub/internal/domain/models/workrequest"
)

// RequestRepository defines data access operations for work requests.
// Reads return requests with their child collections (result files,
// attachments, submission events) loaded.
type RequestRepository interface {
	// Create persists a new request; ID and timestamps are assigned by storage
	Create(ctx context.Context, req *models.Request) error

	// GetByID retrieves a request by ID
	GetByID(ctx context.Context, id string) (*models.Request, error)

	// List retrieves requests newest first. Empty status or requesterID
	// mean "any"; non-empty values filter.
	List(ctx context.Context, status, requesterID string) ([]models.Request, error)

	// Update persists the request's editable columns and bumps updated_at
	Update(ctx context.Context, req *models.Request) error

	// Delete removes a request; child rows go with it
	Delete(ctx context.Context, id string) error

	// AddResultFiles appends result files to a request, returning the
	// stored rows
	AddResultFiles(ctx context.Context, requestID string, files []models.ResultFile) ([]models.ResultFile, error)

	// DeleteResultFile removes one result file by ID
	DeleteResultFile(ctx context.Context, requestID, fileID string) error

	// AddSubmissionEvent records a result delivery
	AddSubmissionEvent(ctx context.Context, event *models.SubmissionEvent) error

	// AddAttachments appends requester-supplied attachments
	AddAttachments(ctx context.Context, requestID string, attachments []models.Attachment) ([]models.Attachment, error)

	// BumpUpdatedAt refreshes a request's updated_at timestamp
	BumpUpdatedAt(ctx context.Context, id string) error
}
