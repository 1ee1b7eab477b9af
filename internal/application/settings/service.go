package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-form-dispatch/internal/domain"
)

type settingsStore interface {
	Get(ctx context.Context) (*domain.Settings, error)
}

// Service produces the settings snapshot each operation runs against.
type Service interface {
	Snapshot(ctx context.Context) (domain.Settings, error)
}

type ServiceDeps struct {
	Store    settingsStore
	Defaults domain.Settings
}

type service struct {
	store    settingsStore
	defaults domain.Settings
}

func NewService(deps ServiceDeps) Service {
	return &service{store: deps.Store, defaults: deps.Defaults}
}

// Snapshot reads the stored row and fills blank fields from the defaults.
// A stored reminder interval of zero is kept: it means reminders are off.
func (s *service) Snapshot(ctx context.Context) (domain.Settings, error) {
	if s.store == nil {
		return s.defaults, nil
	}
	stored, err := s.store.Get(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			slog.Debug("no stored settings, using defaults")
			return s.defaults, nil
		}
		return domain.Settings{}, fmt.Errorf("%w: load settings: %v", domain.ErrStorage, err)
	}

	out := *stored
	if out.DistributionPolicy == "" {
		out.DistributionPolicy = s.defaults.DistributionPolicy
	}
	if !out.DistributionPolicy.Valid() {
		slog.Warn("stored distribution policy unknown, using default", "policy", out.DistributionPolicy)
		out.DistributionPolicy = s.defaults.DistributionPolicy
	}
	if out.VerificationCodeLength == 0 {
		out.VerificationCodeLength = s.defaults.VerificationCodeLength
	}
	if len(out.NotificationEmails) == 0 {
		out.NotificationEmails = s.defaults.NotificationEmails
	}
	return out, nil
}
