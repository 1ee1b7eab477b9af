package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-form-dispatch/internal/app"
	"github.com/go-form-dispatch/internal/config"
	jwtinfra "github.com/go-form-dispatch/internal/infrastructure/jwt"
	"github.com/go-form-dispatch/internal/pkg/logging"
	transporthttp "github.com/go-form-dispatch/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(logging.New(os.Stdout, cfg.AppEnv, cfg.LogLevel))
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}

	services := app.New(context.Background(), cfg, true)

	// Without keys the admin endpoints reject every request.
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		slog.Warn("JWT provider not available, admin endpoints disabled", "err", err)
	}

	done := make(chan struct{})
	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		Verification: services.Verification,
		Dispatch:     services.Dispatch,
		Reminders:    services.Reminders,
		Settings:     services.Settings,
		JWTProvider:  jwtProvider,
		Done:         done,
	})

	// A paced dispatch of a large list can take minutes; WriteTimeout leaves room for it.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.SweepTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	close(done)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", "err", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
