package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"autohub/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Users             string
	Registrations     string
	Requests          string
	ResultFiles       string
	Attachments       string
	SubmissionEvents  string
	Comments          string
	ScriptNodes       string
	ScriptFolders     string
	ScriptFolderItems string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Users:             fmt.Sprintf("%susers", prefix),
		Registrations:     fmt.Sprintf("%sregistration_requests", prefix),
		Requests:          fmt.Sprintf("%srequests", prefix),
		ResultFiles:       fmt.Sprintf("%sresult_files", prefix),
		Attachments:       fmt.Sprintf("%sattachments", prefix),
		SubmissionEvents:  fmt.Sprintf("%ssubmission_events", prefix),
		Comments:          fmt.Sprintf("%scomments", prefix),
		ScriptNodes:       fmt.Sprintf("%sscript_nodes", prefix),
		ScriptFolders:     fmt.Sprintf("%sscript_folders", prefix),
		ScriptFolderItems: fmt.Sprintf("%sscript_folder_items", prefix),
	}
}

// CreateConnectionPool creates a pgx connection pool with automatic
// PgBouncer compatibility.
//
// pgx defaults to prepared statements (QueryExecModeCacheStatement),
// which transaction-pooling PgBouncer (port 6543 on hosted Postgres)
// does not support. When that port is detected and the user has not
// overridden default_query_exec_mode in the connection string, the
// pool switches to QueryExecModeCacheDescribe: extended protocol,
// but only statement descriptions are cached, which poolers tolerate.
//
// Dynamic table prefixes (dev_, test_, prod_) stay safe under prepared
// statements because the SQL string is interpolated before it reaches
// the database; each environment simply gets its own statements.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	// Configure pool size
	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction from the context when one is
// present, otherwise the pool. Repositories call this so they
// automatically participate in surrounding transactions.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
