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

const requestColumns = `id, title, description, status, priority, project_name, tool_version,
		requester_id, requester_name, due_date, result_script, result_file_name,
		ai_analysis, developer_notes, created_at, updated_at`

// PostgresRequestRepository implements the RequestRepository interface
type PostgresRequestRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewRequestRepository creates a new work request repository
func NewRequestRepository(config *postgres.RepositoryConfig) reqRepo.RequestRepository {
	return &PostgresRequestRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create persists a new request
func (r *PostgresRequestRepository) Create(ctx context.Context, req *models.Request) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (title, description, status, priority, project_name, tool_version,
			requester_id, requester_name, due_date, result_script, result_file_name,
			ai_analysis, developer_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`, r.tables.Requests)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		req.Title,
		req.Description,
		req.Status,
		req.Priority,
		req.ProjectName,
		req.ToolVersion,
		req.RequesterID,
		req.RequesterName,
		req.DueDate,
		req.ResultScript,
		req.ResultFileName,
		req.AIAnalysis,
		req.DeveloperNotes,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.ResultFiles = []models.ResultFile{}
	req.Attachments = []models.Attachment{}
	req.SubmissionEvents = []models.SubmissionEvent{}

	return nil
}

// GetByID retrieves a request with its child collections
func (r *PostgresRequestRepository) GetByID(ctx context.Context, id string) (*models.Request, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, requestColumns, r.tables.Requests)

	var req models.Request
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&req.ID,
		&req.Title,
		&req.Description,
		&req.Status,
		&req.Priority,
		&req.ProjectName,
		&req.ToolVersion,
		&req.RequesterID,
		&req.RequesterName,
		&req.DueDate,
		&req.ResultScript,
		&req.ResultFileName,
		&req.AIAnalysis,
		&req.DeveloperNotes,
		&req.CreatedAt,
		&req.UpdatedAt,
	)

	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get request: %w", err)
	}

	if err := r.loadChildren(ctx, []*models.Request{&req}); err != nil {
		return nil, err
	}

	return &req, nil
}

// List retrieves requests newest first, with child collections loaded.
// Empty status or requesterID mean "any".
func (r *PostgresRequestRepository) List(ctx context.Context, status, requesterID string) ([]models.Request, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE 1=1
	`, requestColumns, r.tables.Requests)

	var args []any
	paramIndex := 1

	if status != "" {
		query += fmt.Sprintf(` AND status = $%d`, paramIndex)
		args = append(args, status)
		paramIndex++
	}
	if requesterID != "" {
		query += fmt.Sprintf(` AND requester_id = $%d`, paramIndex)
		args = append(args, requesterID)
	}

	query += ` ORDER BY created_at DESC, id DESC`

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var requests []models.Request
	for rows.Next() {
		var req models.Request
		err := rows.Scan(
			&req.ID,
			&req.Title,
			&req.Description,
			&req.Status,
			&req.Priority,
			&req.ProjectName,
			&req.ToolVersion,
			&req.RequesterID,
			&req.RequesterName,
			&req.DueDate,
			&req.ResultScript,
			&req.ResultFileName,
			&req.AIAnalysis,
			&req.DeveloperNotes,
			&req.CreatedAt,
			&req.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}

	// Return empty slice instead of nil
	if requests == nil {
		return []models.Request{}, nil
	}

	refs := make([]*models.Request, len(requests))
	for i := range requests {
		refs[i] = &requests[i]
	}
	if err := r.loadChildren(ctx, refs); err != nil {
		return nil, err
	}

	return requests, nil
}

// Update persists the request's editable columns and bumps updated_at
func (r *PostgresRequestRepository) Update(ctx context.Context, req *models.Request) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $2, description = $3, status = $4, priority = $5,
			project_name = $6, tool_version = $7, due_date = $8,
			result_script = $9, result_file_name = $10, ai_analysis = $11,
			developer_notes = $12, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, r.tables.Requests)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		req.ID,
		req.Title,
		req.Description,
		req.Status,
		req.Priority,
		req.ProjectName,
		req.ToolVersion,
		req.DueDate,
		req.ResultScript,
		req.ResultFileName,
		req.AIAnalysis,
		req.DeveloperNotes,
	).Scan(&req.UpdatedAt)

	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return fmt.Errorf("request %s: %w", req.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update request: %w", err)
	}

	return nil
}

// Delete removes a request; child rows cascade at the schema level
func (r *PostgresRequestRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Requests)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// AddResultFiles appends result files to a request
func (r *PostgresRequestRepository) AddResultFiles(ctx context.Context, requestID string, files []models.ResultFile) ([]models.ResultFile, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (request_id, name, mime_type, data)
		VALUES ($1, $2, $3, $4)
		RETURNING id, uploaded_at
	`, r.tables.ResultFiles)

	executor := postgres.GetExecutor(ctx, r.pool)
	stored := make([]models.ResultFile, 0, len(files))
	for _, file := range files {
		file.RequestID = requestID
		err := executor.QueryRow(ctx, query,
			requestID,
			file.Name,
			file.MimeType,
			file.Data,
		).Scan(&file.ID, &file.UploadedAt)
		if err != nil {
			if postgres.IsPgForeignKeyError(err) {
				return nil, fmt.Errorf("request %s: %w", requestID, domain.ErrNotFound)
			}
			return nil, fmt.Errorf("add result file: %w", err)
		}
		stored = append(stored, file)
	}

	return stored, nil
}

// DeleteResultFile removes one result file by ID
func (r *PostgresRequestRepository) DeleteResultFile(ctx context.Context, requestID, fileID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND request_id = $2`, r.tables.ResultFiles)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, fileID, requestID)
	if err != nil {
		return fmt.Errorf("delete result file: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("result file %s: %w", fileID, domain.ErrNotFound)
	}

	return nil
}

// AddSubmissionEvent records a result delivery
func (r *PostgresRequestRepository) AddSubmissionEvent(ctx context.Context, event *models.SubmissionEvent) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (request_id, kind, added_files)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, r.tables.SubmissionEvents)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		event.RequestID,
		event.Kind,
		event.AddedFiles,
	).Scan(&event.ID, &event.CreatedAt)

	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("request %s: %w", event.RequestID, domain.ErrNotFound)
		}
		return fmt.Errorf("add submission event: %w", err)
	}

	return nil
}

// AddAttachments appends requester-supplied attachments
func (r *PostgresRequestRepository) AddAttachments(ctx context.Context, requestID string, attachments []models.Attachment) ([]models.Attachment, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (request_id, name, mime_type, data)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, r.tables.Attachments)

	executor := postgres.GetExecutor(ctx, r.pool)
	stored := make([]models.Attachment, 0, len(attachments))
	for _, att := range attachments {
		att.RequestID = requestID
		err := executor.QueryRow(ctx, query,
			requestID,
			att.Name,
			att.MimeType,
			att.Data,
		).Scan(&att.ID, &att.CreatedAt)
		if err != nil {
			if postgres.IsPgForeignKeyError(err) {
				return nil, fmt.Errorf("request %s: %w", requestID, domain.ErrNotFound)
			}
			return nil, fmt.Errorf("add attachment: %w", err)
		}
		stored = append(stored, att)
	}

	return stored, nil
}

// BumpUpdatedAt refreshes a request's updated_at timestamp
func (r *PostgresRequestRepository) BumpUpdatedAt(ctx context.Context, id string) error {
	query := fmt.Sprintf(`UPDATE %s SET updated_at = NOW() WHERE id = $1`, r.tables.Requests)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("bump request updated_at: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// loadChildren attaches result files, attachments and submission events
// to the given requests in one batch per collection
func (r *PostgresRequestRepository) loadChildren(ctx context.Context, requests []*models.Request) error {
	ids := make([]string, len(requests))
	byID := make(map[string]*models.Request, len(requests))
	for i, req := range requests {
		ids[i] = req.ID
		byID[req.ID] = req
		req.ResultFiles = []models.ResultFile{}
		req.Attachments = []models.Attachment{}
		req.SubmissionEvents = []models.SubmissionEvent{}
	}

	executor := postgres.GetExecutor(ctx, r.pool)

	// Result files, oldest first so index 0 is the first delivery
	filesQuery := fmt.Sprintf(`
		SELECT id, request_id, name, mime_type, data, uploaded_at
		FROM %s
		WHERE request_id = ANY($1::uuid[])
		ORDER BY uploaded_at ASC, id ASC
	`, r.tables.ResultFiles)

	rows, err := executor.Query(ctx, filesQuery, ids)
	if err != nil {
		return fmt.Errorf("load result files: %w", err)
	}
	for rows.Next() {
		var file models.ResultFile
		if err := rows.Scan(&file.ID, &file.RequestID, &file.Name, &file.MimeType, &file.Data, &file.UploadedAt); err != nil {
			rows.Close()
			return fmt.Errorf("scan result file: %w", err)
		}
		if req, ok := byID[file.RequestID]; ok {
			req.ResultFiles = append(req.ResultFiles, file)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate result files: %w", err)
	}

	attachQuery := fmt.Sprintf(`
		SELECT id, request_id, name, mime_type, data, created_at
		FROM %s
		WHERE request_id = ANY($1::uuid[])
		ORDER BY created_at ASC, id ASC
	`, r.tables.Attachments)

	rows, err = executor.Query(ctx, attachQuery, ids)
	if err != nil {
		return fmt.Errorf("load attachments: %w", err)
	}
	for rows.Next() {
		var att models.Attachment
		if err := rows.Scan(&att.ID, &att.RequestID, &att.Name, &att.MimeType, &att.Data, &att.CreatedAt); err != nil {
			rows.Close()
			return fmt.Errorf("scan attachment: %w", err)
		}
		if req, ok := byID[att.RequestID]; ok {
			req.Attachments = append(req.Attachments, att)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate attachments: %w", err)
	}

	eventsQuery := fmt.Sprintf(`
		SELECT id, request_id, kind, added_files, created_at
		FROM %s
		WHERE request_id = ANY($1::uuid[])
		ORDER BY created_at ASC, id ASC
	`, r.tables.SubmissionEvents)

	rows, err = executor.Query(ctx, eventsQuery, ids)
	if err != nil {
		return fmt.Errorf("load submission events: %w", err)
	}
	for rows.Next() {
		var event models.SubmissionEvent
		if err := rows.Scan(&event.ID, &event.RequestID, &event.Kind, &event.AddedFiles, &event.CreatedAt); err != nil {
			rows.Close()
			return fmt.Errorf("scan submission event: %w", err)
		}
		if req, ok := byID[event.RequestID]; ok {
			req.SubmissionEvents = append(req.SubmissionEvents, event)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate submission events: %w", err)
	}

	return nil
}
