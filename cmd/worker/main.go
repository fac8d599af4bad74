package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/bloomi-app/bloomi-backend/config"
	"github.com/bloomi-app/bloomi-backend/internal/bootstrap"
	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/domain"
	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/quota"
	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/repository"
)

const usage = "usage: worker <migrate|reset-quotas|set-membership <user-id> <FREE|TIER1|TIER2|TIER3>>"

// accountStore is what the worker needs from either user repository.
type accountStore interface {
	quota.AccountStore
	SetMembership(ctx context.Context, id string, m domain.Membership) error
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "migrate":
		RunMigrate(ctx, cfg)
	case "reset-quotas":
		RunResetQuotas(ctx, cfg)
	case "set-membership":
		if len(os.Args) != 4 {
			log.Fatal(usage)
		}
		RunSetMembership(ctx, cfg, os.Args[2], os.Args[3])
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func RunMigrate(ctx context.Context, cfg *config.Config) {
	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: cfg.Database.DSN})
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("schema up to date")
}

// RunResetQuotas runs the nightly counter sweep once, e.g. from an external scheduler.
func RunResetQuotas(ctx context.Context, cfg *config.Config) {
	store, closeStore := openAccountStore(ctx, cfg)
	defer closeStore()

	n, err := quota.NewGate(store).ResetAll(ctx)
	if err != nil {
		log.Fatalf("reset quotas: %v", err)
	}
	log.Printf("reset daily counters for %d accounts", n)
}

// RunSetMembership assigns a tier to an account, creating it if needed.
func RunSetMembership(ctx context.Context, cfg *config.Config, userID, tier string) {
	m, err := domain.ParseMembership(tier)
	if err != nil {
		log.Fatalf("set membership: %v", err)
	}

	store, closeStore := openAccountStore(ctx, cfg)
	defer closeStore()

	if err := store.SetMembership(ctx, userID, m); err != nil {
		log.Fatalf("set membership: %v", err)
	}
	log.Printf("user %s is now %s (daily limit %d)", userID, m, m.DailyLimit())
}

func openAccountStore(ctx context.Context, cfg *config.Config) (accountStore, func()) {
	if cfg.Quota.Store == config.QuotaStoreRedis {
		rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		return repository.NewRedisUserRepository(rdb), func() { _ = rdb.Close() }
	}

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: cfg.Database.DSN})
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	return repository.NewUserRepository(pool), pool.Close
}
