package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates tables and indexes if they don't exist. It runs
// at server boot and from the seed command, so it must stay idempotent.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, tablePrefix string) error {
	// Enable UUID extension
	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\""); err != nil {
		return err
	}

	createUsers := `
		CREATE TABLE IF NOT EXISTS ` + tables.Users + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'EMPLOYEE',
			company_title TEXT,
			avatar_url TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createUsers); err != nil {
		return err
	}

	// reviewed_by is SET NULL so deleting a reviewer never blocks on
	// the registrations they processed.
	createRegistrations := `
		CREATE TABLE IF NOT EXISTS ` + tables.Registrations + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			name TEXT NOT NULL,
			company_title TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'PENDING',
			reviewed_by UUID REFERENCES ` + tables.Users + `(id) ON DELETE SET NULL,
			reviewed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createRegistrations); err != nil {
		return err
	}

	createRequests := `
		CREATE TABLE IF NOT EXISTS ` + tables.Requests + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'PENDING',
			priority TEXT NOT NULL DEFAULT 'medium',
			project_name TEXT,
			tool_version TEXT,
			requester_id UUID NOT NULL,
			requester_name TEXT NOT NULL,
			due_date TEXT,
			result_script TEXT,
			result_file_name TEXT,
			ai_analysis TEXT,
			developer_notes TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createRequests); err != nil {
		return err
	}

	createResultFiles := `
		CREATE TABLE IF NOT EXISTS ` + tables.ResultFiles + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			request_id UUID NOT NULL REFERENCES ` + tables.Requests + `(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			mime_type TEXT NOT NULL DEFAULT 'text/plain',
			data TEXT NOT NULL,
			uploaded_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createResultFiles); err != nil {
		return err
	}

	createAttachments := `
		CREATE TABLE IF NOT EXISTS ` + tables.Attachments + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			request_id UUID NOT NULL REFERENCES ` + tables.Requests + `(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			mime_type TEXT NOT NULL DEFAULT 'application/octet-stream',
			data TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createAttachments); err != nil {
		return err
	}

	createSubmissionEvents := `
		CREATE TABLE IF NOT EXISTS ` + tables.SubmissionEvents + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			request_id UUID NOT NULL REFERENCES ` + tables.Requests + `(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			added_files INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createSubmissionEvents); err != nil {
		return err
	}

	createComments := `
		CREATE TABLE IF NOT EXISTS ` + tables.Comments + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			request_id UUID NOT NULL REFERENCES ` + tables.Requests + `(id) ON DELETE CASCADE,
			user_id UUID REFERENCES ` + tables.Users + `(id) ON DELETE SET NULL,
			author_name TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createComments); err != nil {
		return err
	}

	// parent_id is RESTRICT: subtree deletes walk children bottom-up
	// themselves. request_id and created_by are not foreign keys; tree
	// nodes may outlive the rows they point at and the sync pass heals
	// the difference.
	createScriptNodes := `
		CREATE TABLE IF NOT EXISTS ` + tables.ScriptNodes + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			parent_id UUID REFERENCES ` + tables.ScriptNodes + `(id) ON DELETE RESTRICT,
			name TEXT NOT NULL,
			node_type TEXT NOT NULL,
			request_id UUID,
			created_by UUID NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createScriptNodes); err != nil {
		return err
	}

	// created_by is not a foreign key; collections outlive their creator
	createScriptFolders := `
		CREATE TABLE IF NOT EXISTS ` + tables.ScriptFolders + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name TEXT NOT NULL,
			description TEXT,
			color TEXT DEFAULT '#6366f1',
			created_by UUID NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createScriptFolders); err != nil {
		return err
	}

	createScriptFolderItems := `
		CREATE TABLE IF NOT EXISTS ` + tables.ScriptFolderItems + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			folder_id UUID NOT NULL REFERENCES ` + tables.ScriptFolders + `(id) ON DELETE CASCADE,
			request_id UUID NOT NULL REFERENCES ` + tables.Requests + `(id) ON DELETE CASCADE,
			UNIQUE (folder_id, request_id)
		)
	`
	if _, err := pool.Exec(ctx, createScriptFolderItems); err != nil {
		return err
	}

	// Create indexes
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `registration_requests_status ON ` + tables.Registrations + `(status)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `registration_requests_email ON ` + tables.Registrations + `(email)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `requests_status ON ` + tables.Requests + `(status)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `requests_requester ON ` + tables.Requests + `(requester_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `result_files_request ON ` + tables.ResultFiles + `(request_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `attachments_request ON ` + tables.Attachments + `(request_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `submission_events_request ON ` + tables.SubmissionEvents + `(request_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `comments_request ON ` + tables.Comments + `(request_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `script_nodes_parent ON ` + tables.ScriptNodes + `(parent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `script_nodes_request ON ` + tables.ScriptNodes + `(request_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `script_folder_items_folder ON ` + tables.ScriptFolderItems + `(folder_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `script_folder_items_request ON ` + tables.ScriptFolderItems + `(request_id)`,
	}

	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// DropAllTables drops all tables in reverse dependency order
func DropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	tableNames := []string{
		tables.ScriptFolderItems,
		tables.ScriptFolders,
		tables.ScriptNodes,
		tables.Comments,
		tables.SubmissionEvents,
		tables.Attachments,
		tables.ResultFiles,
		tables.Requests,
		tables.Registrations,
		tables.Users,
	}

	for _, table := range tableNames {
		dropSQL := "DROP TABLE IF EXISTS " + table + " CASCADE"
		if _, err := pool.Exec(ctx, dropSQL); err != nil {
			return err
		}
	}

	return nil
}

// ClearData removes all rows while keeping the schema. Script nodes
// are truncated because their self-referencing foreign key is RESTRICT
// and row-by-row deletes would need bottom-up ordering.
func ClearData(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	statements := []string{
		"TRUNCATE " + tables.ScriptNodes,
		"DELETE FROM " + tables.ScriptFolderItems,
		"DELETE FROM " + tables.ScriptFolders,
		"DELETE FROM " + tables.Comments,
		"DELETE FROM " + tables.SubmissionEvents,
		"DELETE FROM " + tables.Attachments,
		"DELETE FROM " + tables.ResultFiles,
		"DELETE FROM " + tables.Requests,
		"DELETE FROM " + tables.Registrations,
		"DELETE FROM " + tables.Users,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}
