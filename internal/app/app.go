// Package app builds the application services from configuration. Both the
// API and the sweeper binaries start from here.
package app

import (
	"context"
	"log/slog"

	"github.com/go-form-dispatch/internal/application/dispatch"
	"github.com/go-form-dispatch/internal/application/reminder"
	"github.com/go-form-dispatch/internal/application/settings"
	"github.com/go-form-dispatch/internal/application/verification"
	"github.com/go-form-dispatch/internal/config"
	"github.com/go-form-dispatch/internal/domain"
	"github.com/go-form-dispatch/internal/infrastructure/dynamo"
	s3infra "github.com/go-form-dispatch/internal/infrastructure/s3"
	"github.com/go-form-dispatch/internal/infrastructure/smtp"
	"github.com/go-form-dispatch/internal/infrastructure/sns"
)

type App struct {
	Verification verification.Service
	Dispatch     dispatch.Service
	Reminders    reminder.Service
	Settings     settings.Service
	RateLimit    domain.RateLimit
}

// New wires DynamoDB, SMTP and the optional report sinks into the services.
// bootstrap creates missing tables first.
func New(ctx context.Context, cfg *config.Config, bootstrap bool) *App {
	dynamoClient := dynamo.NewClient(cfg)
	if bootstrap {
		dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)
	}
	codes := dynamo.NewVerificationRepo(dynamoClient, cfg.DynamoTables.VerificationCodes, cfg.Verification.Retention)
	items := dynamo.NewItemRepo(dynamoClient, cfg.DynamoTables.Items, cfg.DynamoTables.ItemUpdates)
	settingsRepo := dynamo.NewSettingsRepo(dynamoClient, cfg.DynamoTables.Settings)

	mailer := smtp.NewMailer(cfg)

	settingsSvc := settings.NewService(settings.ServiceDeps{
		Store:    settingsRepo,
		Defaults: Defaults(cfg),
	})
	dispatchSvc := dispatch.NewService(dispatch.ServiceDeps{
		Transport:   mailer,
		Subscribers: items,
		Sinks:       reportSinks(cfg),
		SendTimeout: cfg.Dispatch.SendTimeout,
	})
	return &App{
		Verification: verification.NewService(verification.ServiceDeps{
			Codes:        codes,
			Mailer:       mailer,
			TTL:          cfg.Verification.CodeTTL,
			EmailTimeout: cfg.Verification.EmailTimeout,
		}),
		Dispatch: dispatchSvc,
		Reminders: reminder.NewService(reminder.ServiceDeps{
			Items:      items,
			Dispatcher: dispatchSvc,
			Renderer:   reminder.PlainRenderer{BaseURL: cfg.Verification.PublicBaseURL},
		}),
		Settings:  settingsSvc,
		RateLimit: domain.RateLimit{MaxPerWindow: cfg.Dispatch.MaxPerWindow, Window: cfg.Dispatch.Window},
	}
}

// Defaults converts the env defaults into a settings snapshot.
func Defaults(cfg *config.Config) domain.Settings {
	return domain.Settings{
		DistributionPolicy:     domain.DistributionPolicy(cfg.Defaults.DistributionPolicy),
		ReminderIntervalDays:   cfg.Defaults.ReminderIntervalDays,
		VerificationCodeLength: cfg.Defaults.VerificationCodeLength,
		NotificationEmails:     cfg.Defaults.NotificationEmails,
	}
}

func reportSinks(cfg *config.Config) []dispatch.ReportSink {
	var sinks []dispatch.ReportSink
	if cfg.ReportBucket != "" {
		sinks = append(sinks, s3infra.NewReportArchive(s3infra.NewClient(cfg), cfg.ReportBucket))
	}
	if cfg.ReportTopicARN != "" {
		if p, err := sns.NewReportPublisher(cfg); err == nil {
			sinks = append(sinks, p)
		} else {
			slog.Warn("report publisher not available", "err", err)
		}
	}
	return sinks
}
