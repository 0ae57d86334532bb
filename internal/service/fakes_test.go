package service

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"lectern/internal/domain"
	"lectern/internal/domain/models"
	"lectern/internal/domain/repositories"
	"lectern/internal/plan"

	"github.com/google/uuid"
)

// In-memory fakes backing the service tests. CreateUnderQuota and
// CreateUnderLimit hold a mutex across their count-then-insert, matching the
// atomicity contract of the real store operations.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testLedger(t interface{ Fatalf(string, ...interface{}) }, tier plan.Tier, books repositories.BookRepository, sessions repositories.SessionRepository) *plan.Ledger {
	registry, err := plan.NewRegistry()
	if err != nil {
		t.Fatalf("load plan registry: %v", err)
	}
	return plan.NewLedger(&plan.StaticResolver{Tier: tier}, registry, books, sessions, testLogger())
}

type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

type fakeBookRepo struct {
	mu    sync.Mutex
	books map[uuid.UUID]*models.Book
}

func newFakeBookRepo() *fakeBookRepo {
	return &fakeBookRepo{books: make(map[uuid.UUID]*models.Book)}
}

func (r *fakeBookRepo) CreateUnderQuota(ctx context.Context, book *models.Book, maxBooks int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	owned := 0
	for _, b := range r.books {
		if b.Slug == book.Slug {
			return false, &domain.ConflictError{
				Message:      "book '" + book.Slug + "' already exists",
				ResourceType: "book",
				ResourceID:   b.ID.String(),
			}
		}
		if b.OwnerID == book.OwnerID {
			owned++
		}
	}
	if maxBooks >= 0 && owned >= maxBooks {
		return false, nil
	}

	copied := *book
	r.books[book.ID] = &copied
	return true, nil
}

func (r *fakeBookRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.books[id]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (r *fakeBookRepo) GetBySlug(ctx context.Context, slug string) (*models.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.books {
		if b.Slug == slug {
			copied := *b
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeBookRepo) List(ctx context.Context, search string) ([]models.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Book
	lower := strings.ToLower(search)
	for _, b := range r.books {
		if search == "" ||
			strings.Contains(strings.ToLower(b.Title), lower) ||
			strings.Contains(strings.ToLower(b.Author), lower) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeBookRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, b := range r.books {
		if b.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func (r *fakeBookRepo) SetTotalSegments(ctx context.Context, bookID uuid.UUID, total int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[bookID]
	if !ok {
		return domain.ErrNotFound
	}
	b.TotalSegments = total
	return nil
}

type fakeSegmentRepo struct {
	mu       sync.Mutex
	segments []models.BookSegment

	rankedResults []models.BookSegment
	rankedErr     error
}

func (r *fakeSegmentRepo) CreateBatch(ctx context.Context, segments []models.BookSegment) error {
	if len(segments) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[int]bool)
	for _, existing := range r.segments {
		if existing.BookID == segments[0].BookID {
			seen[existing.SegmentIndex] = true
		}
	}
	for _, seg := range segments {
		if seen[seg.SegmentIndex] {
			return &domain.ConflictError{
				Message:      "segment batch collides with existing indexes",
				ResourceType: "segment",
				ResourceID:   seg.ID.String(),
			}
		}
		seen[seg.SegmentIndex] = true
	}
	r.segments = append(r.segments, segments...)
	return nil
}

func (r *fakeSegmentRepo) GetRange(ctx context.Context, bookID uuid.UUID, fromIndex, toIndex int) ([]models.BookSegment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.BookSegment
	for _, seg := range r.segments {
		if seg.BookID == bookID && seg.SegmentIndex >= fromIndex && seg.SegmentIndex <= toIndex {
			out = append(out, seg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SegmentIndex < out[j].SegmentIndex })
	return out, nil
}

func (r *fakeSegmentRepo) SearchRanked(ctx context.Context, bookID uuid.UUID, query string, limit int) ([]models.BookSegment, error) {
	if r.rankedErr != nil {
		return nil, r.rankedErr
	}
	if len(r.rankedResults) > limit {
		return r.rankedResults[:limit], nil
	}
	return r.rankedResults, nil
}

func (r *fakeSegmentRepo) SearchKeywords(ctx context.Context, bookID uuid.UUID, pattern string, limit int) ([]models.BookSegment, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.BookSegment
	for _, seg := range r.segments {
		if seg.BookID == bookID && re.MatchString(seg.Content) {
			out = append(out, seg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SegmentIndex < out[j].SegmentIndex })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.VoiceSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*models.VoiceSession)}
}

func (r *fakeSessionRepo) CreateUnderLimit(ctx context.Context, session *models.VoiceSession, maxSessions int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if maxSessions >= 0 {
		count := 0
		for _, s := range r.sessions {
			if s.OwnerID == session.OwnerID && s.BillingPeriodStart.Equal(session.BillingPeriodStart) {
				count++
			}
		}
		if count >= maxSessions {
			return false, nil
		}
	}

	copied := *session
	r.sessions[session.ID] = &copied
	return true, nil
}

func (r *fakeSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.VoiceSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (r *fakeSessionRepo) End(ctx context.Context, id uuid.UUID, endedAt time.Time, durationSeconds int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	ended := endedAt
	s.EndedAt = &ended
	s.DurationSeconds = durationSeconds
	s.UpdatedAt = endedAt
	return nil
}

func (r *fakeSessionRepo) CountInPeriod(ctx context.Context, ownerID string, periodStart time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, s := range r.sessions {
		if s.OwnerID == ownerID && s.BillingPeriodStart.Equal(periodStart) {
			count++
		}
	}
	return count, nil
}

func (r *fakeSessionRepo) ListEndedInPeriod(ctx context.Context, ownerID string, periodStart time.Time) ([]models.VoiceSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.VoiceSession
	for _, s := range r.sessions {
		if s.OwnerID == ownerID && s.EndedAt != nil && s.BillingPeriodStart.Equal(periodStart) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}
