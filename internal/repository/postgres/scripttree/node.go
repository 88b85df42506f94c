package scripttree

import (
	"context"
	"fmt"
	"log/slog"

	"autohub/internal/domain"
	models "autohub/internal/domain/models/scripttree"
	treeRepo "autohub/internal/domain/repositories/scripttree"

	"autohub/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

// treeAdvisoryLockID keys the advisory lock serializing tree writers.
// ASCII "TREE".
const treeAdvisoryLockID = 0x54524545

const nodeColumns = "id, parent_id, name, node_type, request_id, created_by, created_at, updated_at"

// PostgresNodeRepository implements the NodeRepository interface
type PostgresNodeRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewNodeRepository creates a new script tree node repository
func NewNodeRepository(config *postgres.RepositoryConfig) treeRepo.NodeRepository {
	return &PostgresNodeRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// LockTree takes the tree-wide advisory lock. The lock is transaction
// scoped, so callers must be inside ExecTx; it releases on commit or
// rollback.
func (r *PostgresNodeRepository) LockTree(ctx context.Context) error {
	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", treeAdvisoryLockID); err != nil {
		return fmt.Errorf("lock tree: %w", err)
	}
	return nil
}

// GetRoot retrieves the parentless Scripts folder
func (r *PostgresNodeRepository) GetRoot(ctx context.Context) (*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE parent_id IS NULL AND node_type = 'FOLDER' AND name = $1
		ORDER BY created_at ASC
		LIMIT 1
	`, nodeColumns, r.tables.ScriptNodes)

	node, err := r.scanOne(ctx, query, models.RootFolderName)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("root folder: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get root: %w", err)
	}

	return node, nil
}

// GetByID retrieves a node by ID
func (r *PostgresNodeRepository) GetByID(ctx context.Context, id string) (*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, nodeColumns, r.tables.ScriptNodes)

	node, err := r.scanOne(ctx, query, id)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}

	return node, nil
}

// GetChildren lists the immediate children of a folder
func (r *PostgresNodeRepository) GetChildren(ctx context.Context, parentID string) ([]models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE parent_id = $1
		ORDER BY created_at ASC, id ASC
	`, nodeColumns, r.tables.ScriptNodes)

	return r.scanMany(ctx, query, parentID)
}

// GetAncestors returns the parent chain of a node, nearest first
func (r *PostgresNodeRepository) GetAncestors(ctx context.Context, id string) ([]models.Node, error) {
	query := fmt.Sprintf(`
		WITH RECURSIVE ancestors AS (
			SELECT n.id, n.parent_id, n.name, n.node_type, n.request_id, n.created_by, n.created_at, n.updated_at, 1 AS depth
			FROM %s n
			WHERE n.id = (SELECT parent_id FROM %s WHERE id = $1)
			UNION ALL
			SELECT p.id, p.parent_id, p.name, p.node_type, p.request_id, p.created_by, p.created_at, p.updated_at, a.depth + 1
			FROM %s p
			JOIN ancestors a ON p.id = a.parent_id
		)
		SELECT id, parent_id, name, node_type, request_id, created_by, created_at, updated_at
		FROM ancestors
		ORDER BY depth ASC
	`, r.tables.ScriptNodes, r.tables.ScriptNodes, r.tables.ScriptNodes)

	return r.scanMany(ctx, query, id)
}

// Insert persists a new node; ID and timestamps come back from storage
func (r *PostgresNodeRepository) Insert(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (parent_id, name, node_type, request_id, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, r.tables.ScriptNodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		node.ParentID,
		node.Name,
		node.NodeType,
		node.RequestID,
		node.CreatedBy,
	).Scan(&node.ID, &node.CreatedAt, &node.UpdatedAt)

	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("parent folder: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("insert node: %w", err)
	}

	return nil
}

// UpdateParentAndName repositions and/or renames a node
func (r *PostgresNodeRepository) UpdateParentAndName(ctx context.Context, id string, parentID *string, name string) (*models.Node, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_id = $2, name = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, r.tables.ScriptNodes, nodeColumns)

	node, err := r.scanOne(ctx, query, id, parentID, name)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		if postgres.IsPgForeignKeyError(err) {
			return nil, fmt.Errorf("parent folder: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("update node: %w", err)
	}

	return node, nil
}

// Delete removes a single node. The parent_id self-reference is
// RESTRICT, so callers must have deleted the children already.
func (r *PostgresNodeRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.ScriptNodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// GetChildFolderByName finds a FOLDER child by exact name
func (r *PostgresNodeRepository) GetChildFolderByName(ctx context.Context, parentID, name string) (*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE parent_id = $1 AND node_type = 'FOLDER' AND name = $2
		ORDER BY created_at ASC
		LIMIT 1
	`, nodeColumns, r.tables.ScriptNodes)

	node, err := r.scanOne(ctx, query, parentID, name)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("folder '%s': %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get child folder by name: %w", err)
	}

	return node, nil
}

// GetFolderByRequest finds the FOLDER carrying a request ID, tree-wide
func (r *PostgresNodeRepository) GetFolderByRequest(ctx context.Context, requestID string) (*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE node_type = 'FOLDER' AND request_id = $1
		ORDER BY created_at ASC
		LIMIT 1
	`, nodeColumns, r.tables.ScriptNodes)

	node, err := r.scanOne(ctx, query, requestID)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("folder for request %s: %w", requestID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder by request: %w", err)
	}

	return node, nil
}

// GetFileByRequest finds a FILE child of parentID carrying a request ID
func (r *PostgresNodeRepository) GetFileByRequest(ctx context.Context, parentID, requestID string) (*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE parent_id = $1 AND node_type = 'FILE' AND request_id = $2
		ORDER BY created_at ASC
		LIMIT 1
	`, nodeColumns, r.tables.ScriptNodes)

	node, err := r.scanOne(ctx, query, parentID, requestID)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("file for request %s: %w", requestID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get file by request: %w", err)
	}

	return node, nil
}

// ListByRequest lists every node referencing a request
func (r *PostgresNodeRepository) ListByRequest(ctx context.Context, requestID string) ([]models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE request_id = $1
		ORDER BY created_at ASC, id ASC
	`, nodeColumns, r.tables.ScriptNodes)

	return r.scanMany(ctx, query, requestID)
}

// ListAll retrieves all nodes as a flat list
func (r *PostgresNodeRepository) ListAll(ctx context.Context) ([]models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		ORDER BY created_at ASC, id ASC
	`, nodeColumns, r.tables.ScriptNodes)

	return r.scanMany(ctx, query)
}

// scanOne runs a query expected to yield a single node row
func (r *PostgresNodeRepository) scanOne(ctx context.Context, query string, args ...any) (*models.Node, error) {
	var node models.Node
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, args...).Scan(
		&node.ID,
		&node.ParentID,
		&node.Name,
		&node.NodeType,
		&node.RequestID,
		&node.CreatedBy,
		&node.CreatedAt,
		&node.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// scanMany runs a query yielding zero or more node rows
func (r *PostgresNodeRepository) scanMany(ctx context.Context, query string, args ...any) ([]models.Node, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		var node models.Node
		err := rows.Scan(
			&node.ID,
			&node.ParentID,
			&node.Name,
			&node.NodeType,
			&node.RequestID,
			&node.CreatedBy,
			&node.CreatedAt,
			&node.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}

	// Return empty slice instead of nil
	if nodes == nil {
		nodes = []models.Node{}
	}

	return nodes, nil
}
