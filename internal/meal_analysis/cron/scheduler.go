package cronjob

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bloomi-app/bloomi-backend/internal/logger"
	"github.com/bloomi-app/bloomi-backend/internal/trace"
)

// DefaultResetSchedule fires at midnight. The expression has a seconds field.
const DefaultResetSchedule = "0 0 0 * * *"

const resetTimeout = 5 * time.Minute

// Resetter zeroes every account's daily counter.
type Resetter interface {
	ResetAll(ctx context.Context) (int64, error)
}

type Scheduler struct {
	cron     *cron.Cron
	resetter Resetter
	schedule string
}

// NewScheduler builds a scheduler that fires in loc.
func NewScheduler(resetter Resetter, schedule string, loc *time.Location) *Scheduler {
	if schedule == "" {
		schedule = DefaultResetSchedule
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		resetter: resetter,
		schedule: schedule,
	}
}

// Start registers the nightly reset and starts the cron loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.RunNightlyReset); err != nil {
		log.Printf("Failed to create cron job: %v", err)
		return err
	}

	log.Printf("Cron scheduler started (quota reset at %q)", s.schedule)
	s.cron.Start()
	return nil
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// RunNightlyReset zeroes the counters once. The lazy day rollover in the
// quota gate keeps quotas correct even if this run is missed.
func (s *Scheduler) RunNightlyReset() {
	ctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
	defer cancel()

	ctx, _ = trace.Ensure(ctx)
	l := logger.New(ctx)

	start := time.Now()
	n, err := s.resetter.ResetAll(ctx)
	if err != nil {
		l.LogError("quota_reset", err)
		return
	}
	l.LogInfof("quota_reset", "accounts=%d duration=%s", n, time.Since(start).Round(time.Millisecond))
}
