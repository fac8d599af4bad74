package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/domain"
	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/quota"
)

const (
	userKeyPrefix = "bloomi:user:" // Hash per user: bloomi:user:{user_id}
	redisDate     = "2006-01-02"

	fieldMembership = "membership"
	fieldCount      = "daily_request_count"
	fieldLastDate   = "last_request_date"

	resetScanBatch = 500
)

// Return codes of incrementScript besides the new count.
const (
	scriptUserMissing = -1
	scriptRejected    = -2
)

// incrementScript runs the same compare-and-increment as the SQL store.
// KEYS[1] user hash, ARGV[1] today (YYYY-MM-DD), ARGV[2] limit (<0 unlimited).
var incrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
local last = redis.call('HGET', KEYS[1], 'last_request_date')
local count = tonumber(redis.call('HGET', KEYS[1], 'daily_request_count') or '0') or 0
local limit = tonumber(ARGV[2])
if last ~= ARGV[1] then
  count = 0
end
if limit >= 0 and count >= limit then
  return -2
end
count = count + 1
redis.call('HSET', KEYS[1], 'daily_request_count', count, 'last_request_date', ARGV[1])
return count
`)

// RedisUserRepository keeps account quota state in Redis hashes
type RedisUserRepository struct {
	client *redis.Client
}

var _ quota.AccountStore = (*RedisUserRepository)(nil)

// NewRedisUserRepository creates a new RedisUserRepository
func NewRedisUserRepository(client *redis.Client) *RedisUserRepository {
	return &RedisUserRepository{client: client}
}

// FindByID loads the quota snapshot of a user
func (r *RedisUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	fields, err := r.client.HGetAll(ctx, r.userKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrUserNotFound
	}
	return userFromHash(id, fields)
}

// IncrementDailyCount applies the conditional daily increment atomically
func (r *RedisUserRepository) IncrementDailyCount(ctx context.Context, id string, today time.Time, limit int) (*domain.User, error) {
	day := domain.DateOf(today).Format(redisDate)
	res, err := incrementScript.Run(ctx, r.client, []string{r.userKey(id)}, day, limit).Int64()
	if err != nil {
		return nil, fmt.Errorf("failed to increment daily count: %w", err)
	}
	switch res {
	case scriptUserMissing:
		return nil, domain.ErrUserNotFound
	case scriptRejected:
		return nil, quota.ErrCommitRejected
	}
	return r.FindByID(ctx, id)
}

// ResetAllDailyCounts zeroes the counter of every stored user
func (r *RedisUserRepository) ResetAllDailyCounts(ctx context.Context) (int64, error) {
	var (
		cursor uint64
		reset  int64
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, userKeyPrefix+"*", resetScanBatch).Result()
		if err != nil {
			return reset, fmt.Errorf("failed to scan users: %w", err)
		}
		if len(keys) > 0 {
			pipe := r.client.Pipeline()
			for _, key := range keys {
				pipe.HSet(ctx, key, fieldCount, 0)
			}
			if _, err := pipe.Exec(ctx); err != nil {
				return reset, fmt.Errorf("failed to reset daily counts: %w", err)
			}
			reset += int64(len(keys))
		}
		cursor = next
		if cursor == 0 {
			return reset, nil
		}
	}
}

// EnsureUser creates a FREE account for id when none exists
func (r *RedisUserRepository) EnsureUser(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: user id required", domain.ErrInvalidInput)
	}
	key := r.userKey(id)
	pipe := r.client.TxPipeline()
	pipe.HSetNX(ctx, key, fieldMembership, string(domain.MembershipFree))
	pipe.HSetNX(ctx, key, fieldCount, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}
	return nil
}

// SetMembership assigns a tier, creating the account when it does not exist.
// The daily counter is left as is.
func (r *RedisUserRepository) SetMembership(ctx context.Context, id string, m domain.Membership) error {
	if id == "" {
		return fmt.Errorf("%w: user id required", domain.ErrInvalidInput)
	}
	if !m.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownMembership, m)
	}
	key := r.userKey(id)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, fieldMembership, string(m))
	pipe.HSetNX(ctx, key, fieldCount, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set membership: %w", err)
	}
	return nil
}

func (r *RedisUserRepository) userKey(id string) string {
	return userKeyPrefix + id
}

func userFromHash(id string, fields map[string]string) (*domain.User, error) {
	m, err := domain.ParseMembership(fields[fieldMembership])
	if err != nil {
		return nil, err
	}
	u := &domain.User{ID: id, Membership: m}

	if v := fields[fieldCount]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", fieldCount, v, err)
		}
		u.DailyRequestCount = n
	}
	if v := fields[fieldLastDate]; v != "" {
		d, err := time.Parse(redisDate, v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", fieldLastDate, v, err)
		}
		u.LastRequestDate = &d
	}
	return u, nil
}
