package workrequest

import (
	"context"
	"fmt"
	"log/slog"

	"autohub/internal/domain"
	models "autohub/internal/domain/models/workrequest"
	reqRepo "autohub/internal/domain/repositories/workrequest"

	"autohub/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCommentRepository implements the CommentRepository interface
type PostgresCommentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(config *postgres.RepositoryConfig) reqRepo.CommentRepository {
	return &PostgresCommentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create persists a new comment
func (r *PostgresCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (request_id, user_id, author_name, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, r.tables.Comments)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		comment.RequestID,
		comment.UserID,
		comment.AuthorName,
		comment.Content,
	).Scan(&comment.ID, &comment.CreatedAt)

	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("request %s: %w", comment.RequestID, domain.ErrNotFound)
		}
		return fmt.Errorf("create comment: %w", err)
	}

	return nil
}

// ListByRequest retrieves a request's comments oldest first
func (r *PostgresCommentRepository) ListByRequest(ctx context.Context, requestID string) ([]models.Comment, error) {
	query := fmt.Sprintf(`
		SELECT id, request_id, user_id, author_name, content, created_at
		FROM %s
		WHERE request_id = $1
		ORDER BY created_at ASC, id ASC
	`, r.tables.Comments)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var comment models.Comment
		err := rows.Scan(
			&comment.ID,
			&comment.RequestID,
			&comment.UserID,
			&comment.AuthorName,
			&comment.Content,
			&comment.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	// Return empty slice instead of nil
	if comments == nil {
		comments = []models.Comment{}
	}

	return comments, nil
}
