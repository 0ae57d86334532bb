package repositories

import (
	"context"

	"github.com/google/uuid"
	"lectern/internal/domain/models"
)

// SegmentRepository defines persistence operations for book segments.
type SegmentRepository interface {
	// CreateBatch inserts all segments as one unit. If any row violates the
	// (book_id, segment_index) uniqueness invariant the whole call fails with
	// a conflict and no partial write is left visible. Callers run this
	// inside a transaction via TransactionManager.
	CreateBatch(ctx context.Context, segments []models.BookSegment) error

	// GetRange fetches a book's segments with fromIndex <= segment_index <= toIndex,
	// ordered by ascending index.
	GetRange(ctx context.Context, bookID uuid.UUID, fromIndex, toIndex int) ([]models.BookSegment, error)

	// SearchRanked runs relevance-scored full-text search over one book's
	// segments, ordered by descending score. Errors from this primitive are
	// the caller's signal to fall back, not to fail the overall query.
	SearchRanked(ctx context.Context, bookID uuid.UUID, query string, limit int) ([]models.BookSegment, error)

	// SearchKeywords matches segments whose content contains any of the
	// given pattern's alternatives, case-insensitively, ordered by ascending
	// segment index. The pattern is a regex of OR-joined literal keywords.
	SearchKeywords(ctx context.Context, bookID uuid.UUID, pattern string, limit int) ([]models.BookSegment, error)
}
