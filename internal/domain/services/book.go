package services

import (
	"context"

	"github.com/google/uuid"
	"lectern/internal/domain/models"
)

// IngestRequest carries everything needed to ingest one document: metadata,
// file references and the decoded per-page raw text. PDF decoding happens
// upstream; this core receives plain text.
type IngestRequest struct {
	OwnerID  string   `json:"-"`
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Persona  *string  `json:"persona,omitempty"`
	FileURL  string   `json:"file_url"`
	FileKey  string   `json:"file_key"`
	CoverURL *string  `json:"cover_url,omitempty"`
	CoverKey *string  `json:"cover_key,omitempty"`
	FileSize int64    `json:"file_size"`
	Pages    []string `json:"pages"`
}

// BookService handles book ingestion and lookups.
type BookService interface {
	// Ingest segments the request's pages, creates the book under the
	// owner's document quota and persists the segment batch. A title whose
	// slug already exists returns the existing book tagged AlreadyExists,
	// not an error.
	Ingest(ctx context.Context, req *IngestRequest) (*models.IngestResult, error)

	// GetBySlug retrieves a book by its slug
	GetBySlug(ctx context.Context, slug string) (*models.Book, error)

	// List returns all books, optionally filtered by a search string over
	// title and author
	List(ctx context.Context, search string) ([]models.Book, error)

	// GetSegments fetches a book's segments by index range, enforcing that
	// the requester owns the book
	GetSegments(ctx context.Context, ownerID string, bookID uuid.UUID, fromIndex, toIndex int) ([]models.BookSegment, error)
}
