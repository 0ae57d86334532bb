package services

import (
	"context"

	"github.com/google/uuid"
	"lectern/internal/domain/models"
)

// StartSessionResult is returned on successful session admission. The max
// duration lets the caller enforce a client-side cutoff.
type StartSessionResult struct {
	SessionID          uuid.UUID `json:"session_id"`
	MaxDurationMinutes int       `json:"max_duration_minutes"`
}

// SessionService tracks voice-session lifecycle subject to quota admission.
type SessionService interface {
	// Start admits the owner against the sessions-per-month quota and
	// records a new open session.
	Start(ctx context.Context, ownerID string, bookID uuid.UUID) (*StartSessionResult, error)

	// End closes a session with its final duration. Unknown IDs fail with
	// NotFound. A second End overwrites the first; callers must not close
	// twice.
	End(ctx context.Context, ownerID string, sessionID uuid.UUID, durationSeconds int) error

	// History lists the owner's ended sessions for the current billing
	// period. Plans without history retention get an empty list.
	History(ctx context.Context, ownerID string) ([]models.VoiceSession, error)
}
