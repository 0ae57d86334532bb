package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"lectern/internal/config"
	"lectern/internal/domain"
	"lectern/internal/domain/models"
	"lectern/internal/domain/repositories"
	"lectern/internal/domain/services"
)

// Keywords at or below this length are too common to narrow a fallback
// search, so they are dropped from the pattern.
const minKeywordLength = 3

// searchService implements the two-tier retrieval algorithm: a ranked
// full-text tier backed by the store's text index, and a deterministic
// keyword-regex fallback that keeps retrieval working when the index is
// missing or the ranked tier errors. The fallback trades relevance ranking
// for guaranteed recall and document reading order.
type searchService struct {
	segments repositories.SegmentRepository
	logger   *slog.Logger
}

// NewSearchService creates a new search service
func NewSearchService(segments repositories.SegmentRepository, logger *slog.Logger) services.SearchService {
	return &searchService{
		segments: segments,
		logger:   logger,
	}
}

// Search runs the ranked tier and falls back to keyword matching when it
// yields zero results, including when it errors.
func (s *searchService) Search(ctx context.Context, bookID uuid.UUID, query string, limit int) ([]models.BookSegment, error) {
	opts := models.SearchOptions{
		BookID: bookID,
		Query:  strings.TrimSpace(query),
		Limit:  limit,
	}
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if len(opts.Query) > config.MaxSearchQueryLength {
		return nil, fmt.Errorf("%w: query exceeds %d characters", domain.ErrValidation, config.MaxSearchQueryLength)
	}

	results, err := s.segments.SearchRanked(ctx, opts.BookID, opts.Query, opts.Limit)
	if err != nil {
		// Degraded, not broken: a missing text index or transient store
		// failure on this tier must not fail the overall call.
		s.logger.Warn("ranked search unavailable, falling back to keyword match",
			"book_id", opts.BookID,
			"error", err,
		)
		results = nil
	}
	if len(results) > 0 {
		return results, nil
	}

	pattern := keywordPattern(opts.Query)
	if pattern == "" {
		// All keywords filtered out; an empty pattern would match every
		// segment, so short-circuit instead.
		return []models.BookSegment{}, nil
	}

	return s.segments.SearchKeywords(ctx, opts.BookID, pattern, opts.Limit)
}

// keywordPattern splits the query into whitespace-delimited keywords, drops
// those shorter than minKeywordLength, escapes each for literal matching
// and joins them with regex OR.
func keywordPattern(query string) string {
	var keywords []string
	for _, word := range strings.Fields(query) {
		if len(word) >= minKeywordLength {
			keywords = append(keywords, regexp.QuoteMeta(word))
		}
	}
	return strings.Join(keywords, "|")
}
