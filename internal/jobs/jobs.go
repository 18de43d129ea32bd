// Package jobs runs background work on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	applog "blossoms/internal/log"
)

// Reconciler is the order reconciliation the scheduler drives.
type Reconciler interface {
	ReconcileDeliveries(ctx context.Context, now time.Time) (int64, error)
}

type Scheduler struct {
	cron *cron.Cron
	rec  Reconciler
	now  func() time.Time
	// ctx bounds each run; cancelled on Stop.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler registers the reconciliation job on spec, a standard five
// field cron expression evaluated in server-local time. A run that is still
// going when the next one is due makes that next run skip.
func NewScheduler(spec string, rec Reconciler) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{rec: rec, now: time.Now, ctx: ctx, cancel: cancel}
	logger := cron.PrintfLogger(slog.NewLogLogger(applog.Logger().Handler(), slog.LevelWarn))
	s.cron = cron.New(cron.WithLogger(logger), cron.WithChain(
		cron.Recover(logger),
		cron.SkipIfStillRunning(logger),
	))
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(s.ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("jobs.NewScheduler: schedule %q: %w", spec, err)
	}
	return s, nil
}

// RunOnce performs one reconciliation pass and logs its outcome. Failures are
// not retried; the next scheduled run covers the same orders.
func (s *Scheduler) RunOnce(ctx context.Context) (int64, error) {
	started := s.now()
	n, err := s.rec.ReconcileDeliveries(ctx, started)
	if err != nil {
		applog.Error(nil, "orders.reconcile.fail", err, nil)
		return 0, err
	}
	applog.Info(nil, "orders.reconcile", map[string]any{
		"modified": n,
		"as_of":    started.UTC().Format(time.RFC3339),
		"took_ms":  time.Since(started).Milliseconds(),
	})
	return n, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling and waits for a running pass up to ctx's deadline.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return fmt.Errorf("jobs.Stop: %w", ctx.Err())
	}
}

// Next reports when the job fires next; zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
