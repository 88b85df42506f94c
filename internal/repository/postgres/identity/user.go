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

const userColumns = "id, email, password_hash, name, role, company_title, avatar_url, created_at"

// PostgresUserRepository implements the UserRepository interface
type PostgresUserRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(config *postgres.RepositoryConfig) identityRepo.UserRepository {
	return &PostgresUserRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create persists a new user
func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (email, password_hash, name, role, company_title, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, r.tables.Users)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Role,
		user.CompanyTitle,
		user.AvatarURL,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			existingID, queryErr := r.getIDByEmail(ctx, user.Email)
			if queryErr != nil {
				return fmt.Errorf("user with email '%s' already exists: %w", user.Email, domain.ErrConflict)
			}
			return &domain.ConflictError{
				Message:      fmt.Sprintf("user with email '%s' already exists", user.Email),
				ResourceType: "user",
				ResourceID:   existingID,
			}
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, userColumns, r.tables.Users)

	user, err := r.scanOne(ctx, query, id)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves a user by normalized email
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE email = $1
	`, userColumns, r.tables.Users)

	user, err := r.scanOne(ctx, query, email)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("user with email '%s': %w", email, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return user, nil
}

// List retrieves all users ordered by creation time
func (r *PostgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		ORDER BY created_at ASC
	`, userColumns, r.tables.Users)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.PasswordHash,
			&user.Name,
			&user.Role,
			&user.CompanyTitle,
			&user.AvatarURL,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	// Return empty slice instead of nil
	if users == nil {
		users = []models.User{}
	}

	return users, nil
}

// UpdateRole changes a user's role
func (r *PostgresUserRepository) UpdateRole(ctx context.Context, id, role string) (*models.User, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET role = $2
		WHERE id = $1
		RETURNING %s
	`, r.tables.Users, userColumns)

	user, err := r.scanOne(ctx, query, id, role)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("update user role: %w", err)
	}

	return user, nil
}

// Update rewrites a user's mutable fields for the row matching user.ID
func (r *PostgresUserRepository) Update(ctx context.Context, user *models.User) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET password_hash = $2, name = $3, role = $4, company_title = $5, avatar_url = $6
		WHERE id = $1
	`, r.tables.Users)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		user.ID,
		user.PasswordHash,
		user.Name,
		user.Role,
		user.CompanyTitle,
		user.AvatarURL,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", user.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a user
func (r *PostgresUserRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Users)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// CountByRole counts users holding a role
func (r *PostgresUserRepository) CountByRole(ctx context.Context, role string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE role = $1`, r.tables.Users)

	var count int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, role).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users by role: %w", err)
	}

	return count, nil
}

// getIDByEmail looks up the ID behind a unique-email conflict
func (r *PostgresUserRepository) getIDByEmail(ctx context.Context, email string) (string, error) {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE email = $1`, r.tables.Users)

	var id string
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, email).Scan(&id); err != nil {
		return "", fmt.Errorf("get existing user ID: %w", err)
	}

	return id, nil
}

// scanOne runs a query expected to yield a single user row
func (r *PostgresUserRepository) scanOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	var user models.User
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, args...).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Role,
		&user.CompanyTitle,
		&user.AvatarURL,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
