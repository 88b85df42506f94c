package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	// Read environment to determine table prefix
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev" // Default to dev
	}

	var prefix string
	if env == "prod" {
		prefix = ""
	} else {
		prefix = env + "_"
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close() }() // Error ignored: script exiting

	// Drop all tables with environment-specific prefix
	dropSQL := fmt.Sprintf(`
		DROP TABLE IF EXISTS %sscript_folder_items CASCADE;
		DROP TABLE IF EXISTS %sscript_folders CASCADE;
		DROP TABLE IF EXISTS %sscript_nodes CASCADE;
		DROP TABLE IF EXISTS %scomments CASCADE;
		DROP TABLE IF EXISTS %ssubmission_events CASCADE;
		DROP TABLE IF EXISTS %sresult_files CASCADE;
		DROP TABLE IF EXISTS %sattachments CASCADE;
		DROP TABLE IF EXISTS %srequests CASCADE;
		DROP TABLE IF EXISTS %sregistration_requests CASCADE;
		DROP TABLE IF EXISTS %susers CASCADE;
	`, prefix, prefix, prefix, prefix, prefix, prefix, prefix, prefix, prefix, prefix)

	if _, err := db.Exec(dropSQL); err != nil {
		log.Fatalf("Failed to drop tables: %v", err)
	}

	fmt.Printf("All tables dropped successfully (prefix: %s)\n", prefix)
}
