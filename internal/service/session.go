package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"lectern/internal/domain"
	"lectern/internal/domain/models"
	"lectern/internal/domain/repositories"
	"lectern/internal/domain/services"
	"lectern/internal/plan"
)

// sessionService implements the SessionService interface
type sessionService struct {
	sessions  repositories.SessionRepository
	books     repositories.BookRepository
	txManager repositories.TransactionManager
	ledger    *plan.Ledger
	logger    *slog.Logger
}

// NewSessionService creates a new session service
func NewSessionService(
	sessions repositories.SessionRepository,
	books repositories.BookRepository,
	txManager repositories.TransactionManager,
	ledger *plan.Ledger,
	logger *slog.Logger,
) services.SessionService {
	return &sessionService{
		sessions:  sessions,
		books:     books,
		txManager: txManager,
		ledger:    ledger,
		logger:    logger,
	}
}

// Start admits the owner against the sessions-per-month quota and records a
// new open session. Admission and creation execute as one atomic store
// operation; two concurrent starts at limit-1 admit at most one.
func (s *sessionService) Start(ctx context.Context, ownerID string, bookID uuid.UUID) (*services.StartSessionResult, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: missing owner identity", domain.ErrUnauthorized)
	}

	if _, err := s.books.GetByID(ctx, bookID); err != nil {
		return nil, err
	}

	tier, limits, err := s.ledger.Resolve(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &models.VoiceSession{
		ID:                 uuid.New(),
		OwnerID:            ownerID,
		BookID:             bookID,
		StartedAt:          now,
		DurationSeconds:    0,
		BillingPeriodStart: plan.CurrentPeriodStart(now),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	var created bool
	txErr := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.sessions.CreateUnderLimit(txCtx, session, limits.MaxSessionsPerMonth)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	if !created {
		return nil, &domain.QuotaExceededError{
			Plan:     string(tier),
			Resource: plan.ResourceSession,
			Limit:    limits.MaxSessionsPerMonth,
		}
	}

	s.logger.Info("voice session started",
		"session_id", session.ID,
		"owner_id", ownerID,
		"book_id", bookID,
		"plan", tier,
		"billing_period", session.BillingPeriodStart,
	)

	return &services.StartSessionResult{
		SessionID:          session.ID,
		MaxDurationMinutes: limits.MaxSessionMinutes,
	}, nil
}

// End closes a session with its final duration. The duration comes from the
// caller and is not reconciled against ended_at - started_at; a second End
// silently overwrites the first.
func (s *sessionService) End(ctx context.Context, ownerID string, sessionID uuid.UUID, durationSeconds int) error {
	if durationSeconds < 0 {
		return fmt.Errorf("%w: duration cannot be negative", domain.ErrValidation)
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.OwnerID != ownerID {
		return fmt.Errorf("access denied to session %s: %w", sessionID, domain.ErrForbidden)
	}

	if err := s.sessions.End(ctx, sessionID, time.Now(), durationSeconds); err != nil {
		return err
	}

	s.logger.Info("voice session ended",
		"session_id", sessionID,
		"owner_id", ownerID,
		"duration_seconds", durationSeconds,
	)
	return nil
}

// History lists the owner's ended sessions for the current billing period.
// Plans without history retention get an empty list.
func (s *sessionService) History(ctx context.Context, ownerID string) ([]models.VoiceSession, error) {
	_, limits, err := s.ledger.Resolve(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !limits.SessionHistory {
		return []models.VoiceSession{}, nil
	}

	return s.sessions.ListEndedInPeriod(ctx, ownerID, plan.CurrentPeriodStart(time.Now()))
}
