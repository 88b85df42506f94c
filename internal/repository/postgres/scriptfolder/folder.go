package scriptfolder

import (
	"context"
	"fmt"
	"log/slog"

	"autohub/internal/domain"
	models "autohub/internal/domain/models/scriptfolder"
	folderRepo "autohub/internal/domain/repositories/scriptfolder"

	"autohub/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

const folderColumns = "id, name, description, color, created_by, created_at"

// PostgresFolderRepository implements the FolderRepository interface
type PostgresFolderRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewFolderRepository creates a new script collection repository
func NewFolderRepository(config *postgres.RepositoryConfig) folderRepo.FolderRepository {
	return &PostgresFolderRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create persists a new collection
func (r *PostgresFolderRepository) Create(ctx context.Context, folder *models.ScriptFolder) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, description, color, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, color, created_at
	`, r.tables.ScriptFolders)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		folder.Name,
		folder.Description,
		folder.Color,
		folder.CreatedBy,
	).Scan(&folder.ID, &folder.Color, &folder.CreatedAt)

	if err != nil {
		return fmt.Errorf("create script folder: %w", err)
	}

	return nil
}

// GetByID retrieves a collection by ID
func (r *PostgresFolderRepository) GetByID(ctx context.Context, id string) (*models.ScriptFolder, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, folderColumns, r.tables.ScriptFolders)

	var folder models.ScriptFolder
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&folder.ID,
		&folder.Name,
		&folder.Description,
		&folder.Color,
		&folder.CreatedBy,
		&folder.CreatedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("script folder %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get script folder: %w", err)
	}

	return &folder, nil
}

// List retrieves all collections, newest first
func (r *PostgresFolderRepository) List(ctx context.Context) ([]models.ScriptFolder, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		ORDER BY created_at DESC
	`, folderColumns, r.tables.ScriptFolders)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list script folders: %w", err)
	}
	defer rows.Close()

	var folders []models.ScriptFolder
	for rows.Next() {
		var folder models.ScriptFolder
		err := rows.Scan(
			&folder.ID,
			&folder.Name,
			&folder.Description,
			&folder.Color,
			&folder.CreatedBy,
			&folder.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan script folder: %w", err)
		}
		folders = append(folders, folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate script folders: %w", err)
	}

	// Return empty slice instead of nil
	if folders == nil {
		folders = []models.ScriptFolder{}
	}

	return folders, nil
}

// Delete removes a collection; membership rows go via the FK cascade
func (r *PostgresFolderRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.ScriptFolders)

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete script folder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("script folder %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// AddItem records a request's membership in a collection
func (r *PostgresFolderRepository) AddItem(ctx context.Context, folderID, requestID string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (folder_id, request_id)
		VALUES ($1, $2)
	`, r.tables.ScriptFolderItems)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query, folderID, requestID)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      "request already in folder",
				ResourceType: "script_folder_item",
				ResourceID:   requestID,
			}
		}
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("script folder %s or request %s: %w", folderID, requestID, domain.ErrNotFound)
		}
		return fmt.Errorf("add script folder item: %w", err)
	}

	return nil
}

// RemoveItem drops a request's membership from a collection
func (r *PostgresFolderRepository) RemoveItem(ctx context.Context, folderID, requestID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE folder_id = $1 AND request_id = $2
	`, r.tables.ScriptFolderItems)

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, folderID, requestID)
	if err != nil {
		return fmt.Errorf("remove script folder item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item for request %s in folder %s: %w", requestID, folderID, domain.ErrNotFound)
	}

	return nil
}

// ListRequestIDs lists the member request IDs of a collection
func (r *PostgresFolderRepository) ListRequestIDs(ctx context.Context, folderID string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT request_id
		FROM %s
		WHERE folder_id = $1
		ORDER BY id
	`, r.tables.ScriptFolderItems)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, folderID)
	if err != nil {
		return nil, fmt.Errorf("list script folder items: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan script folder item: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate script folder items: %w", err)
	}

	// Return empty slice instead of nil
	if ids == nil {
		ids = []string{}
	}

	return ids, nil
}
