package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// VoiceSession records one voice conversation against a book. A session with
// no EndedAt is open. BillingPeriodStart is stamped at creation time and is
// the key used for monthly quota counting; it is never re-derived later.
type VoiceSession struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	OwnerID            string     `json:"owner_id" db:"owner_id"`
	BookID             uuid.UUID  `json:"book_id" db:"book_id"`
	StartedAt          time.Time  `json:"started_at" db:"started_at"`
	EndedAt            *time.Time `json:"ended_at,omitempty" db:"ended_at"`
	DurationSeconds    int        `json:"duration_seconds" db:"duration_seconds"`
	BillingPeriodStart time.Time  `json:"billing_period_start" db:"billing_period_start"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// DurationDisplay renders the session's duration as m:ss for history views.
func (s *VoiceSession) DurationDisplay() string {
	return fmt.Sprintf("%d:%02d", s.DurationSeconds/60, s.DurationSeconds%60)
}
