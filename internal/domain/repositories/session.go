package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"lectern/internal/domain/models"
)

// SessionRepository defines persistence operations for voice sessions.
type SessionRepository interface {
	// CreateUnderLimit inserts a new session only if the owner holds fewer
	// than maxSessions sessions in the session's billing period. Count and
	// insert execute atomically against the store; concurrent calls for one
	// owner never overshoot the limit. maxSessions < 0 means unbounded.
	// Returns (false, nil) when the quota denies the insert.
	CreateUnderLimit(ctx context.Context, session *models.VoiceSession, maxSessions int) (bool, error)

	// GetByID retrieves a session by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.VoiceSession, error)

	// End sets ended_at and the final duration on a session. Ending an
	// already-ended session overwrites the previous values.
	End(ctx context.Context, id uuid.UUID, endedAt time.Time, durationSeconds int) error

	// CountInPeriod counts sessions owned by the identity whose stored
	// billing_period_start equals periodStart.
	CountInPeriod(ctx context.Context, ownerID string, periodStart time.Time) (int, error)

	// ListEndedInPeriod returns the owner's ended sessions for the given
	// billing period, newest first.
	ListEndedInPeriod(ctx context.Context, ownerID string, periodStart time.Time) ([]models.VoiceSession, error)
}
