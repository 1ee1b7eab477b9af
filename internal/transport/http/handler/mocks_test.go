package handler

import (
	"context"

	"github.com/go-form-dispatch/internal/application/dispatch"
	"github.com/go-form-dispatch/internal/application/reminder"
	"github.com/go-form-dispatch/internal/application/verification"
	"github.com/go-form-dispatch/internal/domain"
	"github.com/stretchr/testify/mock"
)

type mockSettings struct{ mock.Mock }

func (m *mockSettings) Snapshot(ctx context.Context) (domain.Settings, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Settings), args.Error(1)
}

type mockVerificationSvc struct{ mock.Mock }

func (m *mockVerificationSvc) IssueCode(ctx context.Context, s domain.Settings, req verification.IssueCodeRequest) (*verification.IssueCodeResult, error) {
	args := m.Called(ctx, s, req)
	if r, _ := args.Get(0).(*verification.IssueCodeResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVerificationSvc) ValidateCode(ctx context.Context, codeID, code string) (*verification.ValidateCodeResult, error) {
	args := m.Called(ctx, codeID, code)
	if r, _ := args.Get(0).(*verification.ValidateCodeResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockDispatchSvc struct{ mock.Mock }

func (m *mockDispatchSvc) ResolveRecipients(ctx context.Context, s domain.Settings) ([]domain.NotificationTarget, error) {
	args := m.Called(ctx, s)
	t, _ := args.Get(0).([]domain.NotificationTarget)
	return t, args.Error(1)
}

func (m *mockDispatchSvc) Send(ctx context.Context, tmpl domain.Template, recipients []domain.NotificationTarget, rl domain.RateLimit) (domain.DispatchReport, error) {
	args := m.Called(ctx, tmpl, recipients, rl)
	return args.Get(0).(domain.DispatchReport), args.Error(1)
}

func (m *mockDispatchSvc) Announce(ctx context.Context, s domain.Settings, tmpl domain.Template, rl domain.RateLimit) (domain.DispatchReport, error) {
	args := m.Called(ctx, s, tmpl, rl)
	return args.Get(0).(domain.DispatchReport), args.Error(1)
}

func (m *mockDispatchSvc) Begin(ctx context.Context, rl domain.RateLimit) (dispatch.Run, error) {
	args := m.Called(ctx, rl)
	r, _ := args.Get(0).(dispatch.Run)
	return r, args.Error(1)
}

func (m *mockDispatchSvc) Record(ctx context.Context, report domain.DispatchReport) {
	m.Called(ctx, report)
}

type mockReminderSvc struct{ mock.Mock }

func (m *mockReminderSvc) RunReminderSweep(ctx context.Context, s domain.Settings, opts reminder.SweepOptions) (*reminder.SweepReport, error) {
	args := m.Called(ctx, s, opts)
	if r, _ := args.Get(0).(*reminder.SweepReport); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
