package services

import (
	"context"

	"github.com/google/uuid"
	"lectern/internal/domain/models"
)

// SearchService answers "find the passages most relevant to this query"
// against one book's segments.
type SearchService interface {
	// Search runs the two-tier retrieval: ranked full-text search first,
	// deterministic keyword fallback when the ranked tier yields nothing.
	// Result count is best-effort and may be smaller than limit; degraded
	// backends produce an empty result, never an error.
	Search(ctx context.Context, bookID uuid.UUID, query string, limit int) ([]models.BookSegment, error)
}
