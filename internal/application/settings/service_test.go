package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/go-form-dispatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) Get(ctx context.Context) (*domain.Settings, error) {
	args := m.Called(ctx)
	if s, _ := args.Get(0).(*domain.Settings); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

var defaults = domain.Settings{
	DistributionPolicy:     domain.PolicyAdminOnly,
	ReminderIntervalDays:   30,
	VerificationCodeLength: 6,
	NotificationEmails:     []string{"admin@example.com"},
}

func TestSnapshot_DefaultsWhenMissing(t *testing.T) {
	store := new(mockStore)
	store.On("Get", mock.Anything).Return(nil, domain.ErrNotFound)
	svc := NewService(ServiceDeps{Store: store, Defaults: defaults})

	got, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, defaults, got)
}

func TestSnapshot_StoredOverridesDefaults(t *testing.T) {
	store := new(mockStore)
	store.On("Get", mock.Anything).Return(&domain.Settings{
		DistributionPolicy:   domain.PolicyAllSubscribers,
		ReminderIntervalDays: 0,
	}, nil)
	svc := NewService(ServiceDeps{Store: store, Defaults: defaults})

	got, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.PolicyAllSubscribers, got.DistributionPolicy)
	assert.Equal(t, 0, got.ReminderIntervalDays)
	assert.Equal(t, 6, got.VerificationCodeLength)
	assert.Equal(t, []string{"admin@example.com"}, got.NotificationEmails)
}

func TestSnapshot_UnknownPolicyFallsBack(t *testing.T) {
	store := new(mockStore)
	store.On("Get", mock.Anything).Return(&domain.Settings{DistributionPolicy: "everyone"}, nil)
	svc := NewService(ServiceDeps{Store: store, Defaults: defaults})

	got, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.PolicyAdminOnly, got.DistributionPolicy)
}

func TestSnapshot_StorageError(t *testing.T) {
	store := new(mockStore)
	store.On("Get", mock.Anything).Return(nil, errors.New("throttled"))
	svc := NewService(ServiceDeps{Store: store, Defaults: defaults})

	_, err := svc.Snapshot(context.Background())
	assert.ErrorIs(t, err, domain.ErrStorage)
}
