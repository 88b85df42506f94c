package identity

import (
	"context"
	"fmt"
	"log/slog"

	"autohub/internal/domain"
	models "autohub/internal/domain/models/identity"
	identityRepo "autohub/internal/domain/repositories/identity"

	"autohub/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

const registrationColumns = "id, email, password_hash, name, company_title, status, reviewed_by, reviewed_at, created_at"

// PostgresRegistrationRepository implements the RegistrationRepository interface
type PostgresRegistrationRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewRegistrationRepository creates a new registration request repository
func NewRegistrationRepository(config *postgres.RepositoryConfig) identityRepo.RegistrationRepository {
	return &PostgresRegistrationRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create persists a new registration request
func (r *PostgresRegistrationRepository) Create(ctx context.Context, req *models.RegistrationRequest) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (email, password_hash, name, company_title, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, r.tables.Registrations)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		req.Email,
		req.PasswordHash,
		req.Name,
		req.CompanyTitle,
		req.Status,
	).Scan(&req.ID, &req.CreatedAt)

	if err != nil {
		return fmt.Errorf("create registration request: %w", err)
	}

	return nil
}

// GetByID retrieves a registration request by ID
func (r *PostgresRegistrationRepository) GetByID(ctx context.Context, id string) (*models.RegistrationRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, registrationColumns, r.tables.Registrations)

	req, err := r.scanOne(ctx, query, id)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("registration request %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get registration request: %w", err)
	}

	return req, nil
}

// GetPendingByEmail finds a PENDING request for a normalized email
func (r *PostgresRegistrationRepository) GetPendingByEmail(ctx context.Context, email string) (*models.RegistrationRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE email = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, registrationColumns, r.tables.Registrations)

	req, err := r.scanOne(ctx, query, email, models.RegistrationPending)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("pending registration for '%s': %w", email, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get pending registration: %w", err)
	}

	return req, nil
}

// List retrieves registration requests newest first, optionally filtered by status
func (r *PostgresRegistrationRepository) List(ctx context.Context, status string) ([]models.RegistrationRequest, error) {
	var query string
	var args []any

	if status != "" {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE status = $1
			ORDER BY created_at DESC
		`, registrationColumns, r.tables.Registrations)
		args = []any{status}
	} else {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			ORDER BY created_at DESC
		`, registrationColumns, r.tables.Registrations)
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list registration requests: %w", err)
	}
	defer rows.Close()

	var requests []models.RegistrationRequest
	for rows.Next() {
		var req models.RegistrationRequest
		err := rows.Scan(
			&req.ID,
			&req.Email,
			&req.PasswordHash,
			&req.Name,
			&req.CompanyTitle,
			&req.Status,
			&req.ReviewedBy,
			&req.ReviewedAt,
			&req.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan registration request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registration requests: %w", err)
	}

	// Return empty slice instead of nil
	if requests == nil {
		requests = []models.RegistrationRequest{}
	}

	return requests, nil
}

// Review transitions a request's status and stamps the reviewer
func (r *PostgresRegistrationRepository) Review(ctx context.Context, id, status, reviewerID string) (*models.RegistrationRequest, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $2, reviewed_by = $3, reviewed_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, r.tables.Registrations, registrationColumns)

	req, err := r.scanOne(ctx, query, id, status, reviewerID)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("registration request %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("review registration request: %w", err)
	}

	return req, nil
}

// scanOne runs a query expected to yield a single registration row
func (r *PostgresRegistrationRepository) scanOne(ctx context.Context, query string, args ...any) (*models.RegistrationRequest, error) {
	var req models.RegistrationRequest
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, args...).Scan(
		&req.ID,
		&req.Email,
		&req.PasswordHash,
		&req.Name,
		&req.CompanyTitle,
		&req.Status,
		&req.ReviewedBy,
		&req.ReviewedAt,
		&req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
