package workrequest

import (
	"context"

	models "autohub/internal/domain/models/workrequest"
)

// CommentRepository defines data access operations for request comments
type CommentRepository interface {
	// Create persists a new comment
	Create(ctx context.Context, comment *models.Comment) error

	// ListByRequest retrieves a request's comments oldest first
	ListByRequest(ctx context.Context, requestID string) ([]models.Comment, error)
}
