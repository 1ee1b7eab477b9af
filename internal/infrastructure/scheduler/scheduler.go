package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SweepFunc runs one reminder sweep.
type SweepFunc func(ctx context.Context) error

// SweepScheduler triggers a sweep on a cron spec. A run still in progress
// when the next tick fires causes that tick to be skipped. Every run's
// context is cancelled by Stop.
type SweepScheduler struct {
	cronEngine *cron.Cron
	spec       string
	timeout    time.Duration
	sweep      SweepFunc
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewSweepScheduler(spec string, timeout time.Duration, sweep SweepFunc) *SweepScheduler {
	logger := cron.VerbosePrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelInfo))
	ctx, cancel := context.WithCancel(context.Background())
	return &SweepScheduler{
		cronEngine: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		spec:    spec,
		timeout: timeout,
		sweep:   sweep,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start registers the job and starts the cron engine.
func (s *SweepScheduler) Start() error {
	if _, err := s.cronEngine.AddFunc(s.spec, s.run); err != nil {
		return fmt.Errorf("add sweep job %q: %w", s.spec, err)
	}
	s.cronEngine.Start()
	slog.Info("sweep scheduler started", "spec", s.spec, "timeout", s.timeout)
	return nil
}

func (s *SweepScheduler) run() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	start := time.Now()
	if err := s.sweep(ctx); err != nil {
		slog.Error("scheduled sweep failed", "err", err, "elapsed", time.Since(start))
		return
	}
	slog.Info("scheduled sweep done", "elapsed", time.Since(start))
}

// Stop prevents new runs, cancels a running sweep and waits for it to
// return, or for ctx.
func (s *SweepScheduler) Stop(ctx context.Context) {
	done := s.cronEngine.Stop()
	s.cancel()
	select {
	case <-done.Done():
		slog.Info("sweep scheduler stopped")
	case <-ctx.Done():
		slog.Warn("sweep scheduler stop timed out")
	}
}
