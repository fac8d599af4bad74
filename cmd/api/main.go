package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bloomi-app/bloomi-backend/config"
	"github.com/bloomi-app/bloomi-backend/internal/auth"
	"github.com/bloomi-app/bloomi-backend/internal/bootstrap"
	cronjob "github.com/bloomi-app/bloomi-backend/internal/meal_analysis/cron"
	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/imaging"
	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/quota"
	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/repository"
	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/service"
	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/vision"
	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/vision/openai"
	"github.com/bloomi-app/bloomi-backend/internal/storage/postgres"
	s3storage "github.com/bloomi-app/bloomi-backend/internal/storage/s3"
)

// accountStore is what both user repositories provide.
type accountStore interface {
	quota.AccountStore
	auth.UserEnsurer
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{
		DSN:      cfg.Database.DSN,
		MaxConns: int32(cfg.Database.MaxConns),
		MinConns: int32(cfg.Database.MinConns),
	})
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	sqlDB, err := postgres.NewConnection(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("sql db: %v", err)
	}
	defer sqlDB.Close()

	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var accounts accountStore
	switch cfg.Quota.Store {
	case config.QuotaStoreRedis:
		accounts = repository.NewRedisUserRepository(rdb)
	default:
		accounts = repository.NewUserRepository(pool)
	}

	loc, _ := cfg.Quota.Location()
	gate := quota.NewGate(accounts, quota.WithLocation(loc))

	registry := vision.NewRegistry(openai.NewClient(openai.Config{
		APIKey:            cfg.Vision.APIKey,
		BaseURL:           cfg.Vision.BaseURL,
		Model:             cfg.Vision.Model,
		MaxTokens:         cfg.Vision.MaxTokens,
		Temperature:       cfg.Vision.Temperature,
		Timeout:           cfg.Vision.Timeout,
		RequestsPerSecond: cfg.Vision.RequestsPerSecond,
		Burst:             cfg.Vision.Burst,
	}))
	registry.SetDefault(cfg.Vision.Provider)
	provider, err := registry.Default()
	if err != nil {
		log.Fatalf("vision provider %q: %v", cfg.Vision.Provider, err)
	}

	images, err := s3storage.New(ctx, s3storage.Config{
		Bucket:        cfg.Storage.Bucket,
		Region:        cfg.Storage.Region,
		Endpoint:      cfg.Storage.Endpoint,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
		PublicRead:    cfg.Storage.PublicRead,
	})
	if err != nil {
		log.Fatalf("s3: %v", err)
	}

	meals := service.NewMealAnalysisService(
		gate,
		imaging.NewOptimizer(),
		images,
		provider,
		repository.NewMealRecordRepository(sqlDB),
	)

	deps := bootstrap.RouterDeps{
		ServiceName:    cfg.App.ServiceName,
		Version:        cfg.App.Version,
		ProviderID:     provider.ID(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		DB:             pool,
		Redis:          rdb,
		Meals:          meals,
		Users:          accounts,
	}
	if cfg.Firebase.Enabled() {
		client, err := auth.InitializeFirebase(ctx, &cfg.Firebase)
		if err != nil {
			log.Fatalf("firebase: %v", err)
		}
		deps.Verifier = client
	} else {
		log.Println("Firebase not configured, authenticating with X-User-Id")
	}

	scheduler := cronjob.NewScheduler(gate, cfg.Quota.ResetCron, loc)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("cron: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           bootstrap.BuildRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("%s %s listening on %s (quota store: %s)", cfg.App.ServiceName, cfg.App.Version, srv.Addr, cfg.Quota.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
