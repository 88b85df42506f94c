package main

import (
	"context"
	_ "embed"
	"flag"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"autohub/internal/config"
	identityModels "autohub/internal/domain/models/identity"
	identitySvc "autohub/internal/domain/services/identity"
	sfSvc "autohub/internal/domain/services/scriptfolder"
	wrSvc "autohub/internal/domain/services/workrequest"
	"autohub/internal/notify"
	"autohub/internal/repository/postgres"
	postgresIdentity "autohub/internal/repository/postgres/identity"
	postgresScriptfolder "autohub/internal/repository/postgres/scriptfolder"
	postgresScripttree "autohub/internal/repository/postgres/scripttree"
	postgresWorkrequest "autohub/internal/repository/postgres/workrequest"
	"autohub/internal/service/ai"
	serviceIdentity "autohub/internal/service/identity"
	serviceScriptfolder "autohub/internal/service/scriptfolder"
	serviceScripttree "autohub/internal/service/scripttree"
	serviceWorkrequest "autohub/internal/service/workrequest"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

type seedFixtures struct {
	Users    []seedUser    `yaml:"users"`
	Requests []seedRequest `yaml:"requests"`
	Folders  []seedFolder  `yaml:"folders"`
}

type seedUser struct {
	Email        string `yaml:"email"`
	Password     string `yaml:"password"`
	Name         string `yaml:"name"`
	Role         string `yaml:"role"`
	CompanyTitle string `yaml:"company_title"`
}

type seedRequest struct {
	Title       string     `yaml:"title"`
	Description string     `yaml:"description"`
	Priority    string     `yaml:"priority"`
	Requester   string     `yaml:"requester"`
	ProjectName string     `yaml:"project_name"`
	ToolVersion string     `yaml:"tool_version"`
	DueDate     string     `yaml:"due_date"`
	Completed   bool       `yaml:"completed"`
	Attachments []seedFile `yaml:"attachments"`
	ResultFiles []seedFile `yaml:"result_files"`
}

type seedFile struct {
	Name     string `yaml:"name"`
	MimeType string `yaml:"mime_type"`
	Data     string `yaml:"data"`
}

type seedFolder struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Color       string   `yaml:"color"`
	Requests    []string `yaml:"requests"`
}

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed demo data (for use with shell scripts)")
	clearData := flag.Bool("clear-data", false, "Clear all requests and script library data (keep schema and accounts)")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("🚫 BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if *clearData {
		log.Printf("🧹 Clearing data only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else if *schemaOnly {
		log.Printf("🏗️  Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else {
		log.Printf("🌱 Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	}

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Drop tables if requested
	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	// Run schema to ensure tables exist
	log.Println("📋 Ensuring database schema is up to date...")
	if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	// Exit early if schema-only mode (server bootstraps the demo developer itself)
	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	// Exit early if clear-data mode (just clear and exit)
	if *clearData {
		log.Println("🧹 Clearing existing requests and script library data...")
		if err := clearDomainData(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		log.Println("✅ Data cleared successfully")
		return
	}

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	userRepo := postgresIdentity.NewUserRepository(repoConfig)
	registrationRepo := postgresIdentity.NewRegistrationRepository(repoConfig)
	requestRepo := postgresWorkrequest.NewRequestRepository(repoConfig)
	commentRepo := postgresWorkrequest.NewCommentRepository(repoConfig)
	nodeRepo := postgresScripttree.NewNodeRepository(repoConfig)
	folderRepo := postgresScriptfolder.NewFolderRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Create services. The throttle and notifier are live but harmless
	// here: nothing logs in, and demo addresses fall back to the console.
	throttle := serviceIdentity.NewMemoryThrottle(cfg.MaxLoginAttempts, loginWindow(cfg))
	notifier := notify.NewSMTPNotifier(cfg, logger)
	templates, err := notify.NewTemplateRegistry()
	if err != nil {
		log.Fatalf("Failed to load notification templates: %v", err)
	}
	analyzer := ai.NewGeminiAnalyzer(cfg, logger)
	var issuer serviceIdentity.TokenIssuer // seeding never issues tokens
	authService := serviceIdentity.NewAuthService(userRepo, registrationRepo, issuer, throttle, cfg, logger)
	treeService := serviceScripttree.NewTreeService(nodeRepo, requestRepo, txManager, logger)
	folderService := serviceScriptfolder.NewFolderService(folderRepo, requestRepo, logger)
	requestService := serviceWorkrequest.NewRequestService(requestRepo, commentRepo, userRepo, treeService, notifier, templates, analyzer, txManager, logger)
	userService := serviceIdentity.NewUserService(userRepo, registrationRepo, requestRepo, treeService, logger)

	// Clear existing data so reseeding stays idempotent
	log.Println("⚠️  Clearing existing requests and script library data...")
	if err := clearDomainData(ctx, pool, tables); err != nil {
		log.Printf("Warning: Could not clear data: %v", err)
	}

	// Bootstrap the demo developer; it is the acting account for the seed
	if err := authService.EnsureDemoDeveloper(ctx); err != nil {
		log.Fatalf("Failed to ensure demo developer: %v", err)
	}
	demoDev, err := userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(cfg.DemoDeveloperEmail)))
	if err != nil {
		log.Fatalf("Failed to load demo developer: %v", err)
	}
	log.Printf("👤 Acting as %s (%s)", demoDev.Name, demoDev.Email)

	// Parse fixtures
	var fixtures seedFixtures
	if err := yaml.Unmarshal(fixturesYAML, &fixtures); err != nil {
		log.Fatalf("Failed to parse fixtures: %v", err)
	}

	// Seed users
	log.Println("👥 Seeding users...")
	usersByEmail := map[string]*identityModels.User{demoDev.Email: demoDev}
	for _, data := range fixtures.Users {
		email := strings.ToLower(strings.TrimSpace(data.Email))
		if existing, err := userRepo.GetByEmail(ctx, email); err == nil {
			log.Printf("  ⏭️  User %s already exists", email)
			usersByEmail[email] = existing
			continue
		}

		user, err := userService.CreateUser(ctx, demoDev, &identitySvc.CreateUserRequest{
			Email:        data.Email,
			Password:     data.Password,
			Name:         data.Name,
			Role:         data.Role,
			CompanyTitle: data.CompanyTitle,
		})
		if err != nil {
			log.Fatalf("❌ Failed to create user '%s': %v", data.Email, err)
		}
		usersByEmail[email] = user
		log.Printf("  ✅ Created %s user %s", user.Role, user.Email)
	}

	// Seed requests, delivering result files for the completed ones
	log.Println("📝 Seeding work requests...")
	requestIDsByTitle := make(map[string]string, len(fixtures.Requests))
	for i, data := range fixtures.Requests {
		requester, ok := usersByEmail[strings.ToLower(data.Requester)]
		if !ok {
			log.Fatalf("❌ Request '%s' references unknown requester %s", data.Title, data.Requester)
		}

		createReq := &wrSvc.CreateRequestRequest{
			Title:       data.Title,
			Description: data.Description,
			Priority:    data.Priority,
			ProjectName: stringPtr(data.ProjectName),
			ToolVersion: stringPtr(data.ToolVersion),
			DueDate:     stringPtr(data.DueDate),
		}
		for _, att := range data.Attachments {
			createReq.Attachments = append(createReq.Attachments, wrSvc.AttachmentUpload{
				Name:     att.Name,
				MimeType: att.MimeType,
				Data:     att.Data,
			})
		}

		request, err := requestService.CreateRequest(ctx, requester, createReq)
		if err != nil {
			log.Fatalf("❌ Failed to create request '%s': %v", data.Title, err)
		}
		requestIDsByTitle[data.Title] = request.ID

		if data.Completed {
			files := make([]wrSvc.ResultFileUpload, 0, len(data.ResultFiles))
			for _, rf := range data.ResultFiles {
				files = append(files, wrSvc.ResultFileUpload{
					Name:     rf.Name,
					MimeType: rf.MimeType,
					Data:     rf.Data,
				})
			}
			if _, err := requestService.SubmitResultFiles(ctx, demoDev, request.ID, files); err != nil {
				log.Fatalf("❌ Failed to deliver results for '%s': %v", data.Title, err)
			}

			completed := "COMPLETED"
			if _, err := requestService.UpdateRequest(ctx, demoDev, request.ID, &wrSvc.UpdateRequestRequest{Status: &completed}); err != nil {
				log.Fatalf("❌ Failed to complete request '%s': %v", data.Title, err)
			}
		}

		log.Printf("  ✅ Created request %d/%d: %s (completed: %v)", i+1, len(fixtures.Requests), data.Title, data.Completed)
	}

	// Seed script collections
	log.Println("📁 Seeding script collections...")
	for _, data := range fixtures.Folders {
		folder, err := folderService.CreateFolder(ctx, demoDev.ID, &sfSvc.CreateFolderRequest{
			Name:        data.Name,
			Description: stringPtr(data.Description),
			Color:       stringPtr(data.Color),
		})
		if err != nil {
			log.Fatalf("❌ Failed to create collection '%s': %v", data.Name, err)
		}

		for _, title := range data.Requests {
			requestID, ok := requestIDsByTitle[title]
			if !ok {
				log.Fatalf("❌ Collection '%s' references unknown request '%s'", data.Name, title)
			}
			if err := folderService.AddRequest(ctx, folder.ID, requestID); err != nil {
				log.Fatalf("❌ Failed to add '%s' to collection '%s': %v", title, data.Name, err)
			}
		}

		log.Printf("  ✅ Created collection: %s (%d requests)", data.Name, len(data.Requests))
	}

	// Fold completed requests into the script library
	log.Println("🌳 Synchronizing script library...")
	tree, err := treeService.GetTree(ctx, demoDev.ID)
	if err != nil {
		log.Fatalf("Failed to synchronize script library: %v", err)
	}
	log.Printf("  ✅ Library root '%s' has %d entries", tree.Name, len(tree.Children))

	log.Println("🎉 Seeding complete!")
}

// dropAllTables drops all tables in reverse dependency order
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.ScriptFolderItems,
		tables.ScriptFolders,
		tables.ScriptNodes,
		tables.Comments,
		tables.SubmissionEvents,
		tables.ResultFiles,
		tables.Attachments,
		tables.Requests,
		tables.Registrations,
		tables.Users,
	}

	for _, table := range tableNames {
		dropSQL := "DROP TABLE IF EXISTS " + table + " CASCADE"
		if _, err := pool.Exec(ctx, dropSQL); err != nil {
			return err
		}
		log.Printf("  ✓ Dropped %s", table)
	}

	return nil
}

// clearDomainData removes requests, registrations and the script library
// but keeps accounts. One TRUNCATE across all tables because script nodes
// reference themselves with ON DELETE RESTRICT.
func clearDomainData(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	truncateSQL := "TRUNCATE " + strings.Join([]string{
		tables.ScriptFolderItems,
		tables.ScriptFolders,
		tables.ScriptNodes,
		tables.Comments,
		tables.SubmissionEvents,
		tables.ResultFiles,
		tables.Attachments,
		tables.Requests,
		tables.Registrations,
	}, ", ") + " CASCADE"

	_, err := pool.Exec(ctx, truncateSQL)
	return err
}

// loginWindow converts the config's window seconds into a duration
func loginWindow(cfg *config.Config) time.Duration {
	return time.Duration(cfg.LoginWindowSeconds) * time.Second
}

// stringPtr returns a pointer to s, or nil when s is empty
func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
