package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"lectern/internal/config"
	"lectern/internal/domain"
	"lectern/internal/domain/models"
	"lectern/internal/domain/repositories"
	"lectern/internal/domain/services"
	"lectern/internal/plan"
	"lectern/internal/segmenter"
)

// bookService implements the BookService interface
type bookService struct {
	books     repositories.BookRepository
	segments  repositories.SegmentRepository
	txManager repositories.TransactionManager
	ledger    *plan.Ledger
	logger    *slog.Logger
}

// NewBookService creates a new book service
func NewBookService(
	books repositories.BookRepository,
	segments repositories.SegmentRepository,
	txManager repositories.TransactionManager,
	ledger *plan.Ledger,
	logger *slog.Logger,
) services.BookService {
	return &bookService{
		books:     books,
		segments:  segments,
		txManager: txManager,
		ledger:    ledger,
		logger:    logger,
	}
}

// Ingest segments the request's pages and persists the book with its
// segment batch in one transaction. Quota admission and book creation are a
// single atomic store operation, so concurrent ingestions for one owner
// cannot overshoot the plan's document limit.
func (s *bookService) Ingest(ctx context.Context, req *services.IngestRequest) (*models.IngestResult, error) {
	if req.OwnerID == "" {
		return nil, fmt.Errorf("%w: missing owner identity", domain.ErrUnauthorized)
	}
	if err := s.validateIngestRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	slug := segmenter.Slug(req.Title)
	if slug == "" {
		return nil, fmt.Errorf("%w: title yields an empty slug", domain.ErrValidation)
	}

	// Duplicate titles resolve to the existing book, not an error.
	if existing, err := s.books.GetBySlug(ctx, slug); err == nil {
		return &models.IngestResult{
			Outcome:      models.IngestOutcomeAlreadyExists,
			Book:         existing,
			SegmentCount: existing.TotalSegments,
		}, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check existing book: %w", err)
	}

	pageSegments, err := segmenter.SplitPages(req.Pages, segmenter.DefaultSegmentSize, segmenter.DefaultOverlapSize)
	if err != nil {
		return nil, err
	}

	tier, limits, err := s.ledger.Resolve(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	book := &models.Book{
		ID:        uuid.New(),
		OwnerID:   req.OwnerID,
		Slug:      slug,
		Title:     req.Title,
		Author:    req.Author,
		Persona:   req.Persona,
		FileURL:   req.FileURL,
		FileKey:   req.FileKey,
		CoverURL:  req.CoverURL,
		CoverKey:  req.CoverKey,
		FileSize:  req.FileSize,
		CreatedAt: now,
		UpdatedAt: now,
	}

	rows := make([]models.BookSegment, len(pageSegments))
	for i, seg := range pageSegments {
		page := seg.PageNumber
		rows[i] = models.BookSegment{
			ID:           uuid.New(),
			BookID:       book.ID,
			OwnerID:      req.OwnerID,
			SegmentIndex: seg.SegmentIndex,
			PageNumber:   &page,
			Content:      seg.Content,
			WordCount:    seg.WordCount,
			CreatedAt:    now,
		}
	}

	var quotaDenied bool
	txErr := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		created, err := s.books.CreateUnderQuota(txCtx, book, limits.MaxBooks)
		if err != nil {
			return err
		}
		if !created {
			quotaDenied = true
			return fmt.Errorf("book quota: %w", domain.ErrQuotaExceeded)
		}

		if err := s.segments.CreateBatch(txCtx, rows); err != nil {
			return err
		}

		if err := s.books.SetTotalSegments(txCtx, book.ID, len(rows)); err != nil {
			return err
		}
		book.TotalSegments = len(rows)
		return nil
	})

	if txErr != nil {
		if quotaDenied {
			return nil, &domain.QuotaExceededError{
				Plan:     string(tier),
				Resource: plan.ResourceBook,
				Limit:    limits.MaxBooks,
			}
		}

		// A concurrent ingestion may have claimed the slug after our
		// pre-check; resolve the race to the existing book.
		var conflictErr *domain.ConflictError
		if errors.As(txErr, &conflictErr) && conflictErr.ResourceType == "book" {
			existing, err := s.books.GetBySlug(ctx, slug)
			if err != nil {
				return nil, txErr
			}
			return &models.IngestResult{
				Outcome:      models.IngestOutcomeAlreadyExists,
				Book:         existing,
				SegmentCount: existing.TotalSegments,
			}, nil
		}
		return nil, txErr
	}

	s.logger.Info("book ingested",
		"id", book.ID,
		"slug", slug,
		"owner_id", req.OwnerID,
		"pages", len(req.Pages),
		"segments", len(rows),
		"plan", tier,
	)

	return &models.IngestResult{
		Outcome:      models.IngestOutcomeCreated,
		Book:         book,
		SegmentCount: len(rows),
	}, nil
}

// GetBySlug retrieves a book by its slug
func (s *bookService) GetBySlug(ctx context.Context, slug string) (*models.Book, error) {
	if slug == "" {
		return nil, fmt.Errorf("%w: slug is required", domain.ErrValidation)
	}
	return s.books.GetBySlug(ctx, slug)
}

// List returns all books, optionally filtered
func (s *bookService) List(ctx context.Context, search string) ([]models.Book, error) {
	return s.books.List(ctx, search)
}

// GetSegments fetches a book's segments by index range. The requester must
// own the book.
func (s *bookService) GetSegments(ctx context.Context, ownerID string, bookID uuid.UUID, fromIndex, toIndex int) ([]models.BookSegment, error) {
	if fromIndex < 0 || toIndex < fromIndex {
		return nil, fmt.Errorf("%w: invalid segment range [%d, %d]", domain.ErrValidation, fromIndex, toIndex)
	}

	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book.OwnerID != ownerID {
		return nil, fmt.Errorf("access denied to book %s: %w", bookID, domain.ErrForbidden)
	}

	return s.segments.GetRange(ctx, bookID, fromIndex, toIndex)
}

func (s *bookService) validateIngestRequest(req *services.IngestRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Title,
			validation.Required,
			validation.Length(1, config.MaxBookTitleLength),
		),
		validation.Field(&req.Author,
			validation.Required,
			validation.Length(1, config.MaxAuthorNameLength),
		),
		validation.Field(&req.FileURL, validation.Required),
		validation.Field(&req.FileKey, validation.Required),
		validation.Field(&req.FileSize, validation.Min(0)),
	)
}
