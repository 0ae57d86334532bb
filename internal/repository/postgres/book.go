package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lectern/internal/domain"
	"lectern/internal/domain/models"
	"lectern/internal/domain/repositories"
)

// PostgresBookRepository implements the BookRepository interface
type PostgresBookRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewBookRepository creates a new book repository
func NewBookRepository(config *RepositoryConfig) repositories.BookRepository {
	return &PostgresBookRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const bookColumns = `id, owner_id, slug, title, author, persona, file_url, file_key,
	cover_url, cover_key, file_size, total_segments, created_at, updated_at`

func scanBook(row pgx.Row) (*models.Book, error) {
	var book models.Book
	err := row.Scan(
		&book.ID,
		&book.OwnerID,
		&book.Slug,
		&book.Title,
		&book.Author,
		&book.Persona,
		&book.FileURL,
		&book.FileKey,
		&book.CoverURL,
		&book.CoverKey,
		&book.FileSize,
		&book.TotalSegments,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// CreateUnderQuota inserts a book only while the owner is under maxBooks.
// Must run inside a transaction: pg_advisory_xact_lock serializes concurrent
// ingestions for the same owner so the count cannot go stale between the
// check and the insert.
func (r *PostgresBookRepository) CreateUnderQuota(ctx context.Context, book *models.Book, maxBooks int) (bool, error) {
	executor := GetExecutor(ctx, r.pool)

	if _, err := executor.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, book.OwnerID); err != nil {
		return false, fmt.Errorf("acquire owner lock: %w", err)
	}

	if maxBooks >= 0 {
		var count int
		countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE owner_id = $1`, r.tables.Books)
		if err := executor.QueryRow(ctx, countQuery, book.OwnerID).Scan(&count); err != nil {
			return false, fmt.Errorf("count books: %w", err)
		}
		if count >= maxBooks {
			return false, nil
		}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, owner_id, slug, title, author, persona, file_url, file_key,
		                cover_url, cover_key, file_size, total_segments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`, r.tables.Books)

	err := executor.QueryRow(ctx, query,
		book.ID,
		book.OwnerID,
		book.Slug,
		book.Title,
		book.Author,
		book.Persona,
		book.FileURL,
		book.FileKey,
		book.CoverURL,
		book.CoverKey,
		book.FileSize,
		book.TotalSegments,
		book.CreatedAt,
		book.UpdatedAt,
	).Scan(&book.CreatedAt, &book.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			// The failed INSERT has aborted the surrounding transaction;
			// the existing row must be read outside it. A lookup failure
			// still yields a typed conflict so callers can resolve the
			// race to the existing book.
			conflict := &domain.ConflictError{
				Message:      fmt.Sprintf("book '%s' already exists", book.Slug),
				ResourceType: "book",
			}
			if existingID, queryErr := r.getExistingBookID(ctx, book.Slug); queryErr == nil {
				conflict.ResourceID = existingID
			}
			return false, conflict
		}
		return false, fmt.Errorf("create book: %w", err)
	}

	return true, nil
}

// getExistingBookID finds the ID of the book holding a slug. It queries the
// pool directly, never a context transaction: its only caller runs inside a
// transaction that a unique violation has already aborted.
func (r *PostgresBookRepository) getExistingBookID(ctx context.Context, slug string) (string, error) {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE slug = $1`, r.tables.Books)

	var id uuid.UUID
	if err := r.pool.QueryRow(ctx, query, slug).Scan(&id); err != nil {
		return "", fmt.Errorf("find existing book: %w", err)
	}
	return id.String(), nil
}

// GetByID retrieves a book by ID
func (r *PostgresBookRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, bookColumns, r.tables.Books)

	executor := GetExecutor(ctx, r.pool)
	book, err := scanBook(executor.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("book %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get book: %w", err)
	}

	return book, nil
}

// GetBySlug retrieves a book by its unique slug
func (r *PostgresBookRepository) GetBySlug(ctx context.Context, slug string) (*models.Book, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE slug = $1
	`, bookColumns, r.tables.Books)

	executor := GetExecutor(ctx, r.pool)
	book, err := scanBook(executor.QueryRow(ctx, query, slug))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("book '%s': %w", slug, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get book by slug: %w", err)
	}

	return book, nil
}

// List returns all books newest first, optionally filtered by a
// case-insensitive match over title and author. The search string is
// regex-escaped before matching so user input stays literal.
func (r *PostgresBookRepository) List(ctx context.Context, search string) ([]models.Book, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
	`, bookColumns, r.tables.Books)

	var args []interface{}
	if search != "" {
		query += ` WHERE title ~* $1 OR author ~* $1`
		args = append(args, regexp.QuoteMeta(search))
	}
	query += ` ORDER BY created_at DESC`

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, *book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}

	return books, nil
}

// CountByOwner counts books owned by the given identity
func (r *PostgresBookRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE owner_id = $1`, r.tables.Books)

	var count int
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, ownerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return count, nil
}

// SetTotalSegments records the segment-count summary on the parent book.
// Last-write-wins; ingestion runs once per book.
func (r *PostgresBookRepository) SetTotalSegments(ctx context.Context, bookID uuid.UUID, total int) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET total_segments = $1, updated_at = NOW()
		WHERE id = $2
	`, r.tables.Books)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, total, bookID)
	if err != nil {
		return fmt.Errorf("set total segments: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("book %s: %w", bookID, domain.ErrNotFound)
	}

	return nil
}
