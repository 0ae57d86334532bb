package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"lectern/internal/config"
	"lectern/internal/domain/services"
	"lectern/internal/plan"
	"lectern/internal/repository/postgres"
	"lectern/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed books")
	clearData := flag.Bool("clear-data", false, "Clear all books, segments and sessions (keep schema)")
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
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	// Exit early if schema-only mode
	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	// Exit early if clear-data mode (just clear and exit)
	if *clearData {
		log.Println("🧹 Clearing existing books, segments and sessions...")
		if err := clearAllData(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		log.Println("✅ Data cleared successfully")
		return
	}

	// Owner for seeded books. Seeding goes through the normal ingestion
	// path, so quota enforcement applies: use a static pro plan to avoid
	// tripping the free-tier document limit.
	ownerID := os.Getenv("SEED_OWNER_ID")
	if ownerID == "" {
		ownerID = "00000000-0000-0000-0000-000000000001"
	}

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

	planRegistry, err := plan.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize plan registry: %v", err)
	}
	ledger := plan.NewLedger(&plan.StaticResolver{Tier: plan.TierPro}, planRegistry, bookRepo, sessionRepo, logger)

	bookService := service.NewBookService(bookRepo, segmentRepo, txManager, ledger, logger)

	// Seed books
	log.Println("📝 Seeding sample books...")

	books := getSeedBooks(ownerID)

	for i, req := range books {
		result, err := bookService.Ingest(ctx, req)
		if err != nil {
			log.Printf("❌ Failed to ingest book '%s': %v", req.Title, err)
			continue
		}

		log.Printf("✅ Ingested book %d/%d: %s (ID: %s, Segments: %d, Outcome: %s)",
			i+1, len(books), result.Book.Title, result.Book.ID, result.SegmentCount, result.Outcome)
	}

	log.Println("🎉 Seeding complete!")
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	// Enable UUID extension
	_, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"")
	if err != nil {
		return err
	}

	// Create books table
	createBooks := `
		CREATE TABLE IF NOT EXISTS ` + tables.Books + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			owner_id UUID NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			author TEXT NOT NULL,
			persona TEXT,
			file_url TEXT NOT NULL,
			file_key TEXT NOT NULL,
			cover_url TEXT,
			cover_key TEXT,
			file_size BIGINT NOT NULL DEFAULT 0,
			total_segments INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createBooks); err != nil {
		return err
	}

	// Create book segments table
	createSegments := `
		CREATE TABLE IF NOT EXISTS ` + tables.Segments + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			book_id UUID NOT NULL REFERENCES ` + tables.Books + `(id) ON DELETE CASCADE,
			owner_id UUID NOT NULL,
			segment_index INTEGER NOT NULL,
			page_number INTEGER,
			content TEXT NOT NULL,
			word_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(book_id, segment_index)
		)
	`
	if _, err := pool.Exec(ctx, createSegments); err != nil {
		return err
	}

	// Create voice sessions table
	createSessions := `
		CREATE TABLE IF NOT EXISTS ` + tables.Sessions + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			owner_id UUID NOT NULL,
			book_id UUID NOT NULL REFERENCES ` + tables.Books + `(id) ON DELETE CASCADE,
			started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			ended_at TIMESTAMPTZ,
			duration_seconds INTEGER NOT NULL DEFAULT 0,
			billing_period_start TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createSessions); err != nil {
		return err
	}

	// Create indexes. The GIN index backs the ranked full-text search tier.
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `books_owner ON ` + tables.Books + `(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `segments_book_page ON ` + tables.Segments + `(book_id, page_number)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `segments_content_fts ON ` + tables.Segments + ` USING GIN (to_tsvector('english', content))`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `sessions_owner_period ON ` + tables.Sessions + `(owner_id, billing_period_start)`,
	}

	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// dropAllTables drops all tables in reverse order (to respect foreign keys)
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.Sessions,
		tables.Segments,
		tables.Books,
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

// clearAllData clears all books, segments and sessions
func clearAllData(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	// Sessions and segments cascade from books, but delete explicitly so
	// partial schemas still clear cleanly
	for _, table := range []string{tables.Sessions, tables.Segments, tables.Books} {
		if _, err := pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func getSeedBooks(ownerID string) []*services.IngestRequest {
	persona := "A patient narrator with a dry sense of humor"
	return []*services.IngestRequest{
		{
			OwnerID:  ownerID,
			Title:    "The Clockmaker's Apprentice.pdf",
			Author:   "E. R. Hartwell",
			Persona:  &persona,
			FileURL:  "https://storage.example.com/seed/clockmakers-apprentice.pdf",
			FileKey:  "seed/clockmakers-apprentice.pdf",
			FileSize: 482133,
			Pages: []string{
				"The workshop smelled of brass filings and lamp oil. Tobias had swept the same floor every morning for three years, and every morning Master Alden pretended not to notice the gears missing from the scrap bin. An apprentice who did not steal time, the old man liked to say, would never learn to keep it.",
				"On the morning the letter arrived, the great regulator clock in the front window stopped for the first time in forty years. Tobias watched its pendulum hang dead still and felt, absurdly, that the whole street had gone quiet with it.",
				"The letter bore the seal of the Horological Society. Master Alden read it twice, folded it, and dropped it into the forge. Pack your tools, he said. We leave for the capital tonight.",
			},
		},
		{
			OwnerID:  ownerID,
			Title:    "Field Notes from a Quiet Coast.pdf",
			Author:   "Mina Okafor",
			FileURL:  "https://storage.example.com/seed/field-notes-quiet-coast.pdf",
			FileKey:  "seed/field-notes-quiet-coast.pdf",
			FileSize: 215840,
			Pages: []string{
				"Day one. The tide pools north of the headland hold more life than the guidebooks admit. I counted eleven species of nudibranch before breakfast, and the herring gulls have already learned which pocket holds the sandwiches.",
				"Day four. Rain all morning. The lighthouse keeper says the seals haul out on the far skerry only when a storm is coming. The barometer agrees with the seals.",
			},
		},
	}
}
