package repositories

import (
	"context"

	"github.com/google/uuid"
	"lectern/internal/domain/models"
)

// BookRepository defines persistence operations for books.
type BookRepository interface {
	// CreateUnderQuota inserts a new book only if the owner currently holds
	// fewer than maxBooks books (maxBooks < 0 means unbounded). Must run
	// inside a transaction: the count and insert serialize on a store-side
	// lock so concurrent calls for one owner never overshoot the limit.
	// Returns (false, nil) when the quota denies the insert. A slug
	// collision maps to a ConflictError carrying the existing book's ID.
	CreateUnderQuota(ctx context.Context, book *models.Book, maxBooks int) (bool, error)

	// GetByID retrieves a book by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error)

	// GetBySlug retrieves a book by its unique slug
	GetBySlug(ctx context.Context, slug string) (*models.Book, error)

	// List returns all books, newest first. A non-empty search string
	// filters case-insensitively over title and author.
	List(ctx context.Context, search string) ([]models.Book, error)

	// CountByOwner counts books owned by the given identity
	CountByOwner(ctx context.Context, ownerID string) (int, error)

	// SetTotalSegments records the segment-count summary on the parent book.
	// Last-write-wins; ingestion runs once per book.
	SetTotalSegments(ctx context.Context, bookID uuid.UUID, total int) error
}
