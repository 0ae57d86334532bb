package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"lectern/internal/domain"
	"lectern/internal/domain/models"
	"lectern/internal/domain/repositories"
)

// PostgresSessionRepository implements the SessionRepository interface
type PostgresSessionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(config *RepositoryConfig) repositories.SessionRepository {
	return &PostgresSessionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const sessionColumns = `id, owner_id, book_id, started_at, ended_at, duration_seconds,
	billing_period_start, created_at, updated_at`

// CreateUnderLimit inserts a session only while the owner is under
// maxSessions for the session's billing period. Must run inside a
// transaction: pg_advisory_xact_lock serializes concurrent admissions for
// the same owner so the count cannot go stale between the check and the
// insert. maxSessions < 0 admits unconditionally.
func (r *PostgresSessionRepository) CreateUnderLimit(ctx context.Context, session *models.VoiceSession, maxSessions int) (bool, error) {
	executor := GetExecutor(ctx, r.pool)

	if _, err := executor.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, session.OwnerID); err != nil {
		return false, fmt.Errorf("acquire owner lock: %w", err)
	}

	if maxSessions >= 0 {
		count, err := r.countInPeriod(ctx, session.OwnerID, session.BillingPeriodStart)
		if err != nil {
			return false, err
		}
		if count >= maxSessions {
			return false, nil
		}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, owner_id, book_id, started_at, duration_seconds,
		                billing_period_start, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, r.tables.Sessions)

	err := executor.QueryRow(ctx, query,
		session.ID,
		session.OwnerID,
		session.BookID,
		session.StartedAt,
		session.DurationSeconds,
		session.BillingPeriodStart,
		session.CreatedAt,
		session.UpdatedAt,
	).Scan(&session.CreatedAt, &session.UpdatedAt)

	if err != nil {
		// A foreign key violation means the referenced book vanished between
		// the service's existence check and the insert.
		if IsPgForeignKeyError(err) {
			return false, fmt.Errorf("book %s: %w", session.BookID, domain.ErrNotFound)
		}
		return false, fmt.Errorf("create session: %w", err)
	}

	return true, nil
}

// GetByID retrieves a session by ID
func (r *PostgresSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.VoiceSession, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, sessionColumns, r.tables.Sessions)

	var session models.VoiceSession
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.OwnerID,
		&session.BookID,
		&session.StartedAt,
		&session.EndedAt,
		&session.DurationSeconds,
		&session.BillingPeriodStart,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	return &session, nil
}

// End sets ended_at and the final duration. A second call overwrites the
// first; re-entrancy is the caller's hazard to manage.
func (r *PostgresSessionRepository) End(ctx context.Context, id uuid.UUID, endedAt time.Time, durationSeconds int) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET ended_at = $1, duration_seconds = $2, updated_at = NOW()
		WHERE id = $3
	`, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, endedAt, durationSeconds, id)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// CountInPeriod counts sessions owned by the identity in the given billing period
func (r *PostgresSessionRepository) CountInPeriod(ctx context.Context, ownerID string, periodStart time.Time) (int, error) {
	return r.countInPeriod(ctx, ownerID, periodStart)
}

func (r *PostgresSessionRepository) countInPeriod(ctx context.Context, ownerID string, periodStart time.Time) (int, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s
		WHERE owner_id = $1 AND billing_period_start = $2
	`, r.tables.Sessions)

	var count int
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, ownerID, periodStart).Scan(&count); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}

// ListEndedInPeriod returns the owner's ended sessions for the billing
// period, newest first.
func (r *PostgresSessionRepository) ListEndedInPeriod(ctx context.Context, ownerID string, periodStart time.Time) ([]models.VoiceSession, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = $1 AND billing_period_start = $2 AND ended_at IS NOT NULL
		ORDER BY started_at DESC
	`, sessionColumns, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ownerID, periodStart)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.VoiceSession{}
	for rows.Next() {
		var s models.VoiceSession
		err := rows.Scan(
			&s.ID,
			&s.OwnerID,
			&s.BookID,
			&s.StartedAt,
			&s.EndedAt,
			&s.DurationSeconds,
			&s.BillingPeriodStart,
			&s.CreatedAt,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}
