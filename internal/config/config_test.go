package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, 15*time.Minute, cfg.Verification.CodeTTL)
	assert.Equal(t, 30, cfg.Dispatch.MaxPerWindow)
	assert.Equal(t, 60*time.Second, cfg.Dispatch.Window)
	assert.Equal(t, 6, cfg.Defaults.VerificationCodeLength)
	assert.Equal(t, "admin_only", cfg.Defaults.DistributionPolicy)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.False(t, cfg.TrustProxyHeaders)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("VERIFICATION_CODE_TTL", "5m")
	t.Setenv("DISPATCH_MAX_PER_WINDOW", "10")
	t.Setenv("NOTIFICATION_EMAILS", "a@b.com, ,c@d.com")
	t.Setenv("REMINDER_INTERVAL_DAYS", "not-a-number")
	t.Setenv("TRUST_PROXY_HEADERS", "true")

	cfg := Load()
	assert.Equal(t, 5*time.Minute, cfg.Verification.CodeTTL)
	assert.Equal(t, 10, cfg.Dispatch.MaxPerWindow)
	assert.Equal(t, []string{"a@b.com", "c@d.com"}, cfg.Defaults.NotificationEmails)
	assert.Equal(t, 0, cfg.Defaults.ReminderIntervalDays)
	assert.True(t, cfg.TrustProxyHeaders)
}
