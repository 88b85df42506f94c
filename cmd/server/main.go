package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"autohub/internal/auth"
	"autohub/internal/config"
	"autohub/internal/handler"
	"autohub/internal/middleware"
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

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logOutput := io.Writer(os.Stdout)
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, cfg.MaxLogFiles)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOutput = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger) // Set as default logger

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"auth_mode", cfg.AuthMode,
	)

	// Token verification and issuance. Local mode signs its own HS256
	// tokens; jwks mode trusts an external identity provider and never
	// issues tokens itself.
	localTokens := auth.NewLocalTokenService(cfg.JWTSecret, cfg.AccessTokenExpireMinutes, logger)

	var verifier auth.TokenVerifier = localTokens
	var issuer serviceIdentity.TokenIssuer = localTokens
	if cfg.AuthMode == "jwks" {
		jwksVerifier, err := auth.NewJWKSVerifier(cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWKS verifier: %v", err)
		}
		verifier = jwksVerifier
		issuer = nil
	}
	defer verifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Ensure the schema exists before any repository touches it
	if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to ensure database schema: %v", err)
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

	// Login throttle: redis-backed when configured so attempts are shared
	// across instances, in-memory otherwise
	window := time.Duration(cfg.LoginWindowSeconds) * time.Second
	var throttle serviceIdentity.LoginThrottle
	if cfg.RedisURL != "" {
		throttle, err = serviceIdentity.NewRedisThrottle(cfg.RedisURL, cfg.MaxLoginAttempts, window)
		if err != nil {
			log.Fatalf("Failed to connect login throttle to redis: %v", err)
		}
		logger.Info("login throttle backed by redis")
	} else {
		throttle = serviceIdentity.NewMemoryThrottle(cfg.MaxLoginAttempts, window)
	}

	// Create services
	notifier := notify.NewSMTPNotifier(cfg, logger)
	templates, err := notify.NewTemplateRegistry()
	if err != nil {
		log.Fatalf("Failed to load notification templates: %v", err)
	}
	analyzer := ai.NewGeminiAnalyzer(cfg, logger)
	treeService := serviceScripttree.NewTreeService(nodeRepo, requestRepo, txManager, logger)
	folderService := serviceScriptfolder.NewFolderService(folderRepo, requestRepo, logger)
	requestService := serviceWorkrequest.NewRequestService(requestRepo, commentRepo, userRepo, treeService, notifier, templates, analyzer, txManager, logger)
	authService := serviceIdentity.NewAuthService(userRepo, registrationRepo, issuer, throttle, cfg, logger)
	userService := serviceIdentity.NewUserService(userRepo, registrationRepo, requestRepo, treeService, logger)

	// Bootstrap the demo developer so a fresh install is usable
	if err := authService.EnsureDemoDeveloper(ctx); err != nil {
		log.Fatalf("Failed to ensure demo developer: %v", err)
	}

	// Create handlers
	metaHandler := handler.NewMetaHandler()
	authHandler := handler.NewAuthHandler(authService, logger)
	userHandler := handler.NewUserHandler(userService, logger)
	registrationHandler := handler.NewRegistrationHandler(userService, logger)
	requestHandler := handler.NewRequestHandler(requestService, logger)
	treeHandler := handler.NewTreeHandler(treeService, logger)
	scriptFolderHandler := handler.NewScriptFolderHandler(folderService, logger)
	notificationHandler := handler.NewNotificationHandler(notifier, logger)

	logger.Info("services initialized",
		"ai_analysis", analyzer.Enabled(),
	)

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Root and health check
	mux.HandleFunc("GET /{$}", metaHandler.Root)
	mux.HandleFunc("GET /health", metaHandler.Health)

	// Auth routes
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)

	// User routes
	mux.HandleFunc("GET /api/users/me", userHandler.Me)
	mux.HandleFunc("GET /api/users", userHandler.ListUsers)
	mux.HandleFunc("POST /api/users", userHandler.CreateUser)
	mux.HandleFunc("POST /api/users/{id}/promote", userHandler.PromoteUser)
	mux.HandleFunc("POST /api/users/{id}/demote", userHandler.DemoteUser)
	mux.HandleFunc("DELETE /api/users/{id}", userHandler.DeleteUser)

	// Registration review routes
	mux.HandleFunc("GET /api/registration-requests", registrationHandler.ListRegistrations)
	mux.HandleFunc("POST /api/registration-requests/{id}/approve", registrationHandler.ApproveRegistration)
	mux.HandleFunc("POST /api/registration-requests/{id}/reject", registrationHandler.RejectRegistration)

	// Work request routes
	mux.HandleFunc("GET /api/requests", requestHandler.ListRequests)
	mux.HandleFunc("POST /api/requests", requestHandler.CreateRequest)
	mux.HandleFunc("GET /api/requests/{id}", requestHandler.GetRequest)
	mux.HandleFunc("PUT /api/requests/{id}", requestHandler.UpdateRequest)
	mux.HandleFunc("DELETE /api/requests/{id}", requestHandler.DeleteRequest)
	mux.HandleFunc("POST /api/requests/{id}/result-files", requestHandler.SubmitResultFiles)
	mux.HandleFunc("DELETE /api/requests/{id}/result-files/{fileID}", requestHandler.DeleteResultFile)
	mux.HandleFunc("GET /api/requests/{id}/comments", requestHandler.ListComments)
	mux.HandleFunc("POST /api/requests/{id}/comments", requestHandler.AddComment)
	mux.HandleFunc("POST /api/requests/{id}/analyze", requestHandler.AnalyzeRequest)

	// Script collection routes
	mux.HandleFunc("GET /api/script-folders", scriptFolderHandler.ListFolders)
	mux.HandleFunc("POST /api/script-folders", scriptFolderHandler.CreateFolder)
	mux.HandleFunc("DELETE /api/script-folders/{id}", scriptFolderHandler.DeleteFolder)
	mux.HandleFunc("POST /api/script-folders/{id}/add-request/{requestID}", scriptFolderHandler.AddRequest)
	mux.HandleFunc("DELETE /api/script-folders/{id}/remove-request/{requestID}", scriptFolderHandler.RemoveRequest)
	mux.HandleFunc("GET /api/script-folders/{id}/requests", scriptFolderHandler.ListFolderRequests)

	// Script tree routes
	mux.HandleFunc("GET /api/script-tree", treeHandler.GetTree)
	mux.HandleFunc("POST /api/script-tree/folder", treeHandler.CreateFolder)
	mux.HandleFunc("POST /api/script-tree/file", treeHandler.LinkFile)
	mux.HandleFunc("GET /api/script-tree/export", treeHandler.Export)
	mux.HandleFunc("PUT /api/script-tree/{id}", treeHandler.UpdateNode)
	mux.HandleFunc("DELETE /api/script-tree/{id}", treeHandler.DeleteNode)

	// Notification routes
	mux.HandleFunc("POST /api/notifications/email", notificationHandler.SendEmail)

	// Build middleware chain
	var httpHandler http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	httpHandler = middleware.AuthMiddleware(verifier, authService, logger)(httpHandler)
	httpHandler = middleware.Recovery(logger)(httpHandler)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	httpHandler = corsHandler.Handler(httpHandler)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled so large archive downloads aren't cut off
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
