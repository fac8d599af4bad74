// Package quota enforces the per-membership daily analysis limit.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/domain"
)

// ErrCommitRejected is returned by an AccountStore when the conditional
// increment did not apply because the limit was already reached.
var ErrCommitRejected = errors.New("daily count increment rejected")

// AccountStore is the account collaborator the gate reads and commits through.
type AccountStore interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// IncrementDailyCount atomically applies: if the stored date is not today,
	// count = 1 and date = today; otherwise count + 1. With limit >= 0 the update
	// only applies while the effective count is below limit, otherwise it
	// returns ErrCommitRejected.
	IncrementDailyCount(ctx context.Context, id string, today time.Time, limit int) (*domain.User, error)
	ResetAllDailyCounts(ctx context.Context) (int64, error)
}

// LimitFunc maps a tier to its daily limit; negative means unlimited.
type LimitFunc func(domain.Membership) int

// Gate decides admission and records consumption.
type Gate struct {
	store    AccountStore
	location *time.Location
	now      func() time.Time
	limits   LimitFunc
}

type Option func(*Gate)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// WithLocation sets the zone whose calendar day the quota follows.
func WithLocation(loc *time.Location) Option {
	return func(g *Gate) {
		if loc != nil {
			g.location = loc
		}
	}
}

// WithLimits overrides the membership limit table.
func WithLimits(f LimitFunc) Option {
	return func(g *Gate) { g.limits = f }
}

func NewGate(store AccountStore, opts ...Option) *Gate {
	g := &Gate{
		store:    store,
		location: time.UTC,
		now:      time.Now,
		limits:   domain.Membership.DailyLimit,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Now returns the current time in the gate's location.
func (g *Gate) Now() time.Time {
	return g.now().In(g.location)
}

// Today returns the current calendar date in the gate's location.
func (g *Gate) Today() time.Time {
	return domain.DateOf(g.Now())
}

// Check evaluates the quota for userID without side effects.
func (g *Gate) Check(ctx context.Context, userID string) (domain.QuotaStatus, *domain.User, error) {
	user, err := g.store.FindByID(ctx, userID)
	if err != nil {
		return domain.QuotaStatus{}, nil, err
	}
	return g.Evaluate(*user), user, nil
}

// Evaluate computes the status of a user snapshot for today.
func (g *Gate) Evaluate(user domain.User) domain.QuotaStatus {
	limit := g.limits(user.Membership)
	used := user.EffectiveCount(g.Today())

	if limit < 0 {
		return domain.QuotaStatus{Allowed: true, Membership: user.Membership, Limit: limit, Used: used, Remaining: -1}
	}
	return domain.QuotaStatus{
		Allowed:    used < limit,
		Membership: user.Membership,
		Limit:      limit,
		Used:       used,
		Remaining:  max(limit-used, 0),
	}
}

// Denied builds the quota error for a rejected status.
func Denied(user domain.User, status domain.QuotaStatus) error {
	return &domain.QuotaExceededError{
		UserID:     user.ID,
		Membership: status.Membership,
		Limit:      status.Limit,
		Used:       status.Used,
	}
}

// Commit records one successful analysis. A concurrent request that reached
// the limit first turns this into a QuotaExceededError.
func (g *Gate) Commit(ctx context.Context, user domain.User) (*domain.User, error) {
	limit := g.limits(user.Membership)
	updated, err := g.store.IncrementDailyCount(ctx, user.ID, g.Today(), limit)
	if errors.Is(err, ErrCommitRejected) {
		return nil, &domain.QuotaExceededError{
			UserID:     user.ID,
			Membership: user.Membership,
			Limit:      limit,
			Used:       limit,
		}
	}
	if err != nil {
		return nil, fmt.Errorf("increment daily count: %w", err)
	}
	return updated, nil
}

// Remaining returns the quota left after a commit, -1 for unlimited tiers.
func (g *Gate) Remaining(user domain.User) int {
	return g.Evaluate(user).Remaining
}

// ResetAll runs the housekeeping sweep. Correctness never depends on it.
func (g *Gate) ResetAll(ctx context.Context) (int64, error) {
	return g.store.ResetAllDailyCounts(ctx)
}
