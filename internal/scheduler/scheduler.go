// Package scheduler drives the periodic batch jobs: the half-hourly
// recent-play sync and the start-of-month baseline initialization. All
// schedules evaluate in UTC.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"osu-push-tracker/internal/syncer"
)

// Cron expressions, UTC.
const (
	recentSyncSpec   = "0,30 * * * *" // minute 0 and 30 of every hour
	baselineInitSpec = "0 0 1 * *"    // midnight on the 1st of each month
)

// BatchRunner is the batch surface of the sync pipeline.
type BatchRunner interface {
	SyncAllRecent(ctx context.Context) (*syncer.RunResult, error)
	InitMonthlyBaselines(ctx context.Context) (*syncer.RunResult, error)
}

// Scheduler owns the cron instance and the job wiring.
type Scheduler struct {
	cron   *cron.Cron
	runner BatchRunner
	logger *log.Logger
}

// New creates a Scheduler. Jobs whose previous run is still in flight are
// skipped rather than stacked; a slow sync must not pile queue pressure onto
// the rate-limited API client. A nil logger falls back to a default stdout
// logger.
func New(runner BatchRunner, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.New(os.Stdout, "[scheduler] ", log.LstdFlags)
	}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger))),
	)
	return &Scheduler{cron: c, runner: runner, logger: logger}
}

// Start registers the jobs and launches the cron loop. Jobs run with the
// given context; cancelling it makes in-flight batches wind down early.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(recentSyncSpec, func() { s.runRecentSync(ctx) }); err != nil {
		return fmt.Errorf("register recent sync job: %w", err)
	}
	if _, err := s.cron.AddFunc(baselineInitSpec, func() { s.runBaselineInit(ctx) }); err != nil {
		return fmt.Errorf("register baseline init job: %w", err)
	}

	s.cron.Start()
	s.logger.Printf("scheduler started: recent sync %q, baseline init %q (UTC)", recentSyncSpec, baselineInitSpec)
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Println("scheduler stopped")
}

func (s *Scheduler) runRecentSync(ctx context.Context) {
	started := time.Now()
	result, err := s.runner.SyncAllRecent(ctx)
	if err != nil {
		s.logger.Printf("recent sync failed: %v", err)
		return
	}
	s.logger.Printf("recent sync done in %s: %d players, %d plays ingested, %d errors",
		time.Since(started).Round(time.Millisecond), result.Players, result.PlaysIngested, len(result.Errors))
}

func (s *Scheduler) runBaselineInit(ctx context.Context) {
	started := time.Now()
	result, err := s.runner.InitMonthlyBaselines(ctx)
	if err != nil {
		s.logger.Printf("baseline init failed: %v", err)
		return
	}
	s.logger.Printf("baseline init done in %s: %d players, %d baselines, %d errors",
		time.Since(started).Round(time.Millisecond), result.Players, result.Baselines, len(result.Errors))
}
