package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-form-dispatch/internal/app"
	"github.com/go-form-dispatch/internal/application/reminder"
	"github.com/go-form-dispatch/internal/config"
	"github.com/go-form-dispatch/internal/infrastructure/scheduler"
	"github.com/go-form-dispatch/internal/pkg/logging"
	"github.com/joho/godotenv"
)

func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	limit := flag.Int("limit", 0, "remind at most this many items per sweep (0 = all)")
	flag.Parse()

	envErr := godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(logging.New(os.Stdout, cfg.AppEnv, cfg.LogLevel))
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}

	services := app.New(context.Background(), cfg, false)

	sweep := func(ctx context.Context) error {
		settings, err := services.Settings.Snapshot(ctx)
		if err != nil {
			return err
		}
		report, err := services.Reminders.RunReminderSweep(ctx, settings, reminder.SweepOptions{
			Limit:     *limit,
			RateLimit: services.RateLimit,
		})
		if err != nil {
			return err
		}
		slog.Info("sweep report",
			"due", report.DueCount,
			"reminded", len(report.RemindedIDs),
			"failed", len(report.Dispatch.Failed),
			"stamp_failures", len(report.StampFailures),
		)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		runCtx, cancel := context.WithTimeout(ctx, cfg.SweepTimeout)
		defer cancel()
		if err := sweep(runCtx); err != nil {
			slog.Error("sweep failed", "err", err)
			os.Exit(1)
		}
		return
	}

	s := scheduler.NewSweepScheduler(cfg.SweepCron, cfg.SweepTimeout, sweep)
	if err := s.Start(); err != nil {
		slog.Error("scheduler not started", "err", err)
		os.Exit(1)
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.Stop(stopCtx)
}
