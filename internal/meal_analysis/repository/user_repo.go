package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/domain"
	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/quota"
)

// Querier is the subset of *pgxpool.Pool the user repository needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// UserRepository keeps account quota state in PostgreSQL
type UserRepository struct {
	db Querier
}

var _ quota.AccountStore = (*UserRepository)(nil)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db Querier) *UserRepository {
	return &UserRepository{db: db}
}

const selectUser = `
select id, membership, daily_request_count, last_request_date
from users
where id = $1`

// FindByID loads the quota snapshot of a user
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, selectUser, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// The date comparison and the limit check happen in one statement, so two
// concurrent commits can never both pass a full counter.
const incrementDailyCount = `
update users
set
  daily_request_count = case
    when last_request_date is distinct from $2::date then 1
    else daily_request_count + 1
  end,
  last_request_date = $2::date,
  updated_at = now()
where id = $1
  and ($3::int < 0 or last_request_date is distinct from $2::date or daily_request_count < $3::int)
returning id, membership, daily_request_count, last_request_date`

// IncrementDailyCount applies the conditional daily increment
func (r *UserRepository) IncrementDailyCount(ctx context.Context, id string, today time.Time, limit int) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, incrementDailyCount, id, domain.DateOf(today), limit))
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to increment daily count: %w", err)
	}
	// No row updated: either the user is gone or the limit was reached.
	if _, err := r.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, quota.ErrCommitRejected
}

// ResetAllDailyCounts zeroes every non-zero counter
func (r *UserRepository) ResetAllDailyCounts(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `update users set daily_request_count = 0, updated_at = now() where daily_request_count <> 0`)
	if err != nil {
		return 0, fmt.Errorf("failed to reset daily counts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// EnsureUser creates a FREE account for id when none exists
func (r *UserRepository) EnsureUser(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: user id required", domain.ErrInvalidInput)
	}
	const q = `
insert into users (id, membership, daily_request_count)
values ($1, $2, 0)
on conflict (id) do nothing`
	if _, err := r.db.Exec(ctx, q, id, string(domain.MembershipFree)); err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}
	return nil
}

// SetMembership assigns a tier, creating the account when it does not exist.
// The daily counter is left as is.
func (r *UserRepository) SetMembership(ctx context.Context, id string, m domain.Membership) error {
	if id == "" {
		return fmt.Errorf("%w: user id required", domain.ErrInvalidInput)
	}
	if !m.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownMembership, m)
	}
	const q = `
insert into users (id, membership, daily_request_count)
values ($1, $2, 0)
on conflict (id) do update set membership = excluded.membership, updated_at = now()`
	if _, err := r.db.Exec(ctx, q, id, string(m)); err != nil {
		return fmt.Errorf("failed to set membership: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u          domain.User
		membership string
		last       *time.Time
	)
	if err := row.Scan(&u.ID, &membership, &u.DailyRequestCount, &last); err != nil {
		return nil, err
	}
	m, err := domain.ParseMembership(membership)
	if err != nil {
		return nil, err
	}
	u.Membership = m
	if last != nil {
		d := domain.DateOf(*last)
		u.LastRequestDate = &d
	}
	return &u, nil
}
