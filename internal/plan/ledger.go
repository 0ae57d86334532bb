package plan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lectern/internal/domain"
	"lectern/internal/domain/repositories"
)

// Resource kinds billed against plan limits.
const (
	ResourceBook    = "book"
	ResourceSession = "session"
)

// Admission is the result of a quota check.
type Admission struct {
	Allowed bool   `json:"allowed"`
	Plan    Tier   `json:"plan"`
	Limit   int    `json:"limit"`
	Used    int    `json:"used"`
	Limits  Limits `json:"limits"`
}

// Ledger computes the current billing period, counts resource usage within
// it and compares against the owner's plan limits.
//
// Admit* perform a plain check and are safe to use for rendering quota
// state. Creation paths must not rely on them alone: the count and the
// insert are separate store calls, so two concurrent admissions could both
// pass at limit-1. Enforcement on creation goes through the repositories'
// atomic CreateUnderQuota/CreateUnderLimit operations, which serialize the
// re-count and insert inside one transaction.
type Ledger struct {
	resolver Resolver
	registry *Registry
	books    repositories.BookRepository
	sessions repositories.SessionRepository
	logger   *slog.Logger
}

// NewLedger creates a quota ledger.
func NewLedger(
	resolver Resolver,
	registry *Registry,
	books repositories.BookRepository,
	sessions repositories.SessionRepository,
	logger *slog.Logger,
) *Ledger {
	return &Ledger{
		resolver: resolver,
		registry: registry,
		books:    books,
		sessions: sessions,
		logger:   logger,
	}
}

// CurrentPeriodStart returns the first instant of now's calendar month in
// local reference time. This value is stamped on usage events at creation;
// counting always scopes to the currently computed period.
func CurrentPeriodStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// Resolve returns the owner's tier and its limits.
func (l *Ledger) Resolve(ctx context.Context, ownerID string) (Tier, Limits, error) {
	tier, err := l.resolver.Resolve(ctx, ownerID)
	if err != nil {
		return TierFree, Limits{}, fmt.Errorf("resolve plan: %w", err)
	}
	return tier, l.registry.Limits(tier), nil
}

// AdmitBook checks the stored-document quota for the owner.
func (l *Ledger) AdmitBook(ctx context.Context, ownerID string) (*Admission, error) {
	tier, limits, err := l.Resolve(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	used, err := l.books.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("count books: %w", err)
	}

	return &Admission{
		Allowed: limits.MaxBooks == Unlimited || used < limits.MaxBooks,
		Plan:    tier,
		Limit:   limits.MaxBooks,
		Used:    used,
		Limits:  limits,
	}, nil
}

// AdmitSession checks the sessions-per-billing-period quota for the owner.
func (l *Ledger) AdmitSession(ctx context.Context, ownerID string) (*Admission, error) {
	tier, limits, err := l.Resolve(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	used, err := l.sessions.CountInPeriod(ctx, ownerID, CurrentPeriodStart(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}

	return &Admission{
		Allowed: limits.MaxSessionsPerMonth == Unlimited || used < limits.MaxSessionsPerMonth,
		Plan:    tier,
		Limit:   limits.MaxSessionsPerMonth,
		Used:    used,
		Limits:  limits,
	}, nil
}

// Denied builds the typed quota error for a failed admission.
func (a *Admission) Denied(resource string) error {
	return &domain.QuotaExceededError{
		Plan:     string(a.Plan),
		Resource: resource,
		Limit:    a.Limit,
	}
}
