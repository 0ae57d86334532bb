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

	"lectern/internal/auth"
	"lectern/internal/config"
	"lectern/internal/handler"
	"lectern/internal/middleware"
	"lectern/internal/plan"
	"lectern/internal/repository/postgres"
	"lectern/internal/service"

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

	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, 10)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger) // Set as default logger

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier for provider authentication
	jwtVerifier, err := auth.NewJWTVerifier(cfg.ProviderJWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

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

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	bookRepo := postgres.NewBookRepository(repoConfig)
	segmentRepo := postgres.NewSegmentRepository(repoConfig)
	sessionRepo := postgres.NewSessionRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Initialize plan registry and quota ledger
	planRegistry, err := plan.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize plan registry: %v", err)
	}
	// Plan resolution prefers the JWT's plan claim (set by the auth
	// middleware); tokens without one fall back to the provider admin API.
	planResolver := &plan.ClaimResolver{
		Fallback: plan.NewProviderResolver(cfg.ProviderURL, cfg.ProviderKey, logger),
	}
	ledger := plan.NewLedger(planResolver, planRegistry, bookRepo, sessionRepo, logger)
	logger.Info("plan registry initialized")

	// Create services
	bookService := service.NewBookService(bookRepo, segmentRepo, txManager, ledger, logger)
	searchService := service.NewSearchService(segmentRepo, logger)
	sessionService := service.NewSessionService(sessionRepo, bookRepo, txManager, ledger, logger)

	// Create handlers
	bookHandler := handler.NewBookHandler(bookService, logger)
	searchHandler := handler.NewSearchHandler(searchService, logger)
	sessionHandler := handler.NewSessionHandler(sessionService, logger)
	quotaHandler := handler.NewQuotaHandler(ledger, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", bookHandler.HealthCheck)

	// Book routes
	mux.HandleFunc("GET /api/books", bookHandler.ListBooks)
	mux.HandleFunc("POST /api/books", bookHandler.IngestBook)
	mux.HandleFunc("GET /api/books/{slug}", bookHandler.GetBookBySlug)
	mux.HandleFunc("GET /api/books/{id}/segments", bookHandler.GetSegments)
	mux.HandleFunc("GET /api/books/{id}/search", searchHandler.SearchSegments)

	// Voice session routes
	mux.HandleFunc("POST /api/sessions", sessionHandler.StartSession)
	mux.HandleFunc("POST /api/sessions/{id}/end", sessionHandler.EndSession)
	mux.HandleFunc("GET /api/sessions", sessionHandler.ListSessions)

	// Quota routes
	mux.HandleFunc("GET /api/me/quota", quotaHandler.GetQuota)

	// Build middleware chain
	var httpHandler http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	httpHandler = middleware.AuthMiddleware(jwtVerifier)(httpHandler)
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
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
