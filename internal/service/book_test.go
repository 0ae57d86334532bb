package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"lectern/internal/domain"
	"lectern/internal/domain/models"
	"lectern/internal/domain/services"
	"lectern/internal/plan"

	"github.com/google/uuid"
)

const testOwner = "owner-1"

func ingestRequest(title string) *services.IngestRequest {
	return &services.IngestRequest{
		OwnerID:  testOwner,
		Title:    title,
		Author:   "Test Author",
		FileURL:  "https://storage.example.com/books/test.pdf",
		FileKey:  "books/test.pdf",
		FileSize: 1024,
		Pages: []string{
			"The morning sun cast long shadows across the cobblestone streets.",
			"She had received the letter three days ago and read it twice since.",
		},
	}
}

func newBookService(t *testing.T, tier plan.Tier) (services.BookService, *fakeBookRepo, *fakeSegmentRepo) {
	t.Helper()
	books := newFakeBookRepo()
	segments := &fakeSegmentRepo{}
	ledger := testLedger(t, tier, books, newFakeSessionRepo())
	svc := NewBookService(books, segments, fakeTxManager{}, ledger, testLogger())
	return svc, books, segments
}

func TestIngest_CreatesBookWithSegments(t *testing.T) {
	svc, books, segments := newBookService(t, plan.TierStandard)

	result, err := svc.Ingest(context.Background(), ingestRequest("The Clockmaker's Apprentice.pdf"))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if result.Outcome != models.IngestOutcomeCreated {
		t.Errorf("outcome = %q, want %q", result.Outcome, models.IngestOutcomeCreated)
	}
	if result.Book.Slug != "the-clockmakers-apprentice" {
		t.Errorf("slug = %q, want %q", result.Book.Slug, "the-clockmakers-apprentice")
	}
	if result.SegmentCount != 2 {
		t.Errorf("segment count = %d, want 2", result.SegmentCount)
	}

	stored, err := books.GetByID(context.Background(), result.Book.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.TotalSegments != 2 {
		t.Errorf("stored TotalSegments = %d, want 2", stored.TotalSegments)
	}

	rows, err := segments.GetRange(context.Background(), result.Book.ID, 0, 10)
	if err != nil {
		t.Fatalf("GetRange() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("stored segments = %d, want 2", len(rows))
	}
	for i, row := range rows {
		if row.SegmentIndex != i {
			t.Errorf("segment %d has index %d", i, row.SegmentIndex)
		}
		if row.PageNumber == nil || *row.PageNumber != i+1 {
			t.Errorf("segment %d page = %v, want %d", i, row.PageNumber, i+1)
		}
		if row.OwnerID != testOwner {
			t.Errorf("segment %d owner = %q, want %q", i, row.OwnerID, testOwner)
		}
	}
}

func TestIngest_FreePlanDocumentQuota(t *testing.T) {
	svc, _, _ := newBookService(t, plan.TierFree)
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, ingestRequest("First Book.pdf")); err != nil {
		t.Fatalf("first Ingest() error = %v", err)
	}

	_, err := svc.Ingest(ctx, ingestRequest("Second Book.pdf"))
	if err == nil {
		t.Fatal("second Ingest() succeeded, want quota error")
	}
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("error = %v, want ErrQuotaExceeded", err)
	}

	var quotaErr *domain.QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("error %v is not a QuotaExceededError", err)
	}
	if quotaErr.Plan != "free" {
		t.Errorf("plan = %q, want %q", quotaErr.Plan, "free")
	}
	if quotaErr.Limit != 1 {
		t.Errorf("limit = %d, want 1", quotaErr.Limit)
	}
	if quotaErr.Resource != plan.ResourceBook {
		t.Errorf("resource = %q, want %q", quotaErr.Resource, plan.ResourceBook)
	}
}

func TestIngest_DuplicateTitleReturnsExisting(t *testing.T) {
	svc, _, _ := newBookService(t, plan.TierStandard)
	ctx := context.Background()

	first, err := svc.Ingest(ctx, ingestRequest("Moby Dick.pdf"))
	if err != nil {
		t.Fatalf("first Ingest() error = %v", err)
	}

	// Same title with different casing and extension collapses to the same
	// slug.
	req := ingestRequest("Moby   Dick")
	second, err := svc.Ingest(ctx, req)
	if err != nil {
		t.Fatalf("second Ingest() error = %v", err)
	}

	if second.Outcome != models.IngestOutcomeAlreadyExists {
		t.Errorf("outcome = %q, want %q", second.Outcome, models.IngestOutcomeAlreadyExists)
	}
	if second.Book.ID != first.Book.ID {
		t.Errorf("book ID = %s, want existing %s", second.Book.ID, first.Book.ID)
	}
	if second.SegmentCount != first.SegmentCount {
		t.Errorf("segment count = %d, want %d", second.SegmentCount, first.SegmentCount)
	}
}

// racingBookRepo simulates a concurrent ingestion winning the slug between
// the service's pre-check and its insert: the first GetBySlug misses even
// though the book is already stored, so creation hits the uniqueness
// conflict and the service must resolve the race to the existing book.
type racingBookRepo struct {
	*fakeBookRepo
	missed bool
}

func (r *racingBookRepo) GetBySlug(ctx context.Context, slug string) (*models.Book, error) {
	if !r.missed {
		r.missed = true
		return nil, domain.ErrNotFound
	}
	return r.fakeBookRepo.GetBySlug(ctx, slug)
}

func TestIngest_ConcurrentSlugRaceResolvesToExisting(t *testing.T) {
	ctx := context.Background()
	books := &racingBookRepo{fakeBookRepo: newFakeBookRepo()}
	segments := &fakeSegmentRepo{}
	ledger := testLedger(t, plan.TierStandard, books, newFakeSessionRepo())
	svc := NewBookService(books, segments, fakeTxManager{}, ledger, testLogger())

	existing := &models.Book{
		ID:            uuid.New(),
		OwnerID:       "concurrent-owner",
		Slug:          "moby-dick",
		Title:         "Moby Dick.pdf",
		Author:        "Herman Melville",
		TotalSegments: 4,
	}
	if _, err := books.fakeBookRepo.CreateUnderQuota(ctx, existing, -1); err != nil {
		t.Fatalf("seed existing book: %v", err)
	}

	result, err := svc.Ingest(ctx, ingestRequest("Moby Dick.pdf"))
	if err != nil {
		t.Fatalf("Ingest() error = %v, want the race resolved to the existing book", err)
	}

	if result.Outcome != models.IngestOutcomeAlreadyExists {
		t.Errorf("outcome = %q, want %q", result.Outcome, models.IngestOutcomeAlreadyExists)
	}
	if result.Book.ID != existing.ID {
		t.Errorf("book ID = %s, want existing %s", result.Book.ID, existing.ID)
	}
	if result.SegmentCount != existing.TotalSegments {
		t.Errorf("segment count = %d, want %d", result.SegmentCount, existing.TotalSegments)
	}
}

func TestIngest_Validation(t *testing.T) {
	svc, _, _ := newBookService(t, plan.TierStandard)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*services.IngestRequest)
	}{
		{"missing title", func(r *services.IngestRequest) { r.Title = "" }},
		{"missing author", func(r *services.IngestRequest) { r.Author = "" }},
		{"missing file url", func(r *services.IngestRequest) { r.FileURL = "" }},
		{"missing file key", func(r *services.IngestRequest) { r.FileKey = "" }},
		{"negative file size", func(r *services.IngestRequest) { r.FileSize = -1 }},
		{"title too long", func(r *services.IngestRequest) { r.Title = strings.Repeat("x", 300) }},
		{"symbol-only title", func(r *services.IngestRequest) { r.Title = "!!!" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := ingestRequest("Valid Title.pdf")
			tt.mutate(req)
			_, err := svc.Ingest(ctx, req)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("Ingest() error = %v, want ErrValidation", err)
			}
		})
	}

	t.Run("missing owner", func(t *testing.T) {
		req := ingestRequest("Valid Title.pdf")
		req.OwnerID = ""
		_, err := svc.Ingest(ctx, req)
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("Ingest() error = %v, want ErrUnauthorized", err)
		}
	})
}

func TestGetSegments_OwnershipAndRange(t *testing.T) {
	svc, _, _ := newBookService(t, plan.TierStandard)
	ctx := context.Background()

	result, err := svc.Ingest(ctx, ingestRequest("Owned Book.pdf"))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	bookID := result.Book.ID

	if _, err := svc.GetSegments(ctx, "someone-else", bookID, 0, 1); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("foreign owner error = %v, want ErrForbidden", err)
	}

	if _, err := svc.GetSegments(ctx, testOwner, bookID, 2, 1); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("inverted range error = %v, want ErrValidation", err)
	}

	if _, err := svc.GetSegments(ctx, testOwner, uuid.New(), 0, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown book error = %v, want ErrNotFound", err)
	}

	rows, err := svc.GetSegments(ctx, testOwner, bookID, 0, 0)
	if err != nil {
		t.Fatalf("GetSegments() error = %v", err)
	}
	if len(rows) != 1 || rows[0].SegmentIndex != 0 {
		t.Errorf("GetSegments(0, 0) = %d rows, want the single first segment", len(rows))
	}
}
