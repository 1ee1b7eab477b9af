package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-form-dispatch/internal/domain"
	"github.com/go-form-dispatch/internal/infrastructure/smtp"
	"github.com/go-form-dispatch/internal/pkg/id"
	"github.com/go-form-dispatch/internal/pkg/metrics"
	"github.com/go-form-dispatch/internal/pkg/validate"
)

// Transport delivers a single message. Ping checks reachability without sending.
type Transport interface {
	Send(ctx context.Context, msg smtp.Message) error
	Ping(ctx context.Context) error
}

// ReportSink receives every finished dispatch report. Sink errors are logged
// and never change the outcome of a dispatch.
type ReportSink interface {
	Record(ctx context.Context, report domain.DispatchReport) error
}

type subscriberSource interface {
	ListSubscriberEmails(ctx context.Context) ([]string, error)
}

// Run paces sends across one or more templates under a single rate ceiling.
// A Run is not safe for concurrent use.
type Run interface {
	Send(ctx context.Context, tmpl domain.Template, recipients []domain.NotificationTarget) domain.DispatchReport
}

type Service interface {
	ResolveRecipients(ctx context.Context, settings domain.Settings) ([]domain.NotificationTarget, error)
	Send(ctx context.Context, tmpl domain.Template, recipients []domain.NotificationTarget, rl domain.RateLimit) (domain.DispatchReport, error)
	Announce(ctx context.Context, settings domain.Settings, tmpl domain.Template, rl domain.RateLimit) (domain.DispatchReport, error)
	// Begin checks the transport and opens a paced Run.
	Begin(ctx context.Context, rl domain.RateLimit) (Run, error)
	// Record forwards a finished report to the configured sinks.
	Record(ctx context.Context, report domain.DispatchReport)
}

type ServiceDeps struct {
	Transport   Transport
	Subscribers subscriberSource
	Sinks       []ReportSink
	SendTimeout time.Duration
	Clock       func() time.Time
	// Sleep waits d or until ctx is done. Defaults to a timer-based wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

type service struct {
	transport   Transport
	subscribers subscriberSource
	sinks       []ReportSink
	sendTimeout time.Duration
	clock       func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		transport:   deps.Transport,
		subscribers: deps.Subscribers,
		sinks:       deps.Sinks,
		sendTimeout: deps.SendTimeout,
		clock:       deps.Clock,
		sleep:       deps.Sleep,
	}
	if s.sendTimeout <= 0 {
		s.sendTimeout = 20 * time.Second
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.sleep == nil {
		s.sleep = sleepCtx
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *service) ResolveRecipients(ctx context.Context, settings domain.Settings) ([]domain.NotificationTarget, error) {
	policy := settings.DistributionPolicy
	if policy == "" {
		policy = domain.PolicyAdminOnly
	}
	var raw []string
	switch policy {
	case domain.PolicyAdminOnly:
		raw = settings.NotificationEmails
	case domain.PolicyAllSubscribers:
		if s.subscribers == nil {
			return nil, fmt.Errorf("no subscriber source configured: %w", domain.ErrStorage)
		}
		emails, err := s.subscribers.ListSubscriberEmails(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: list subscribers: %v", domain.ErrStorage, err)
		}
		raw = emails
	default:
		return nil, fmt.Errorf("unknown distribution policy %q: %w", policy, domain.ErrInvalidInput)
	}

	seen := make(map[string]struct{}, len(raw))
	targets := make([]domain.NotificationTarget, 0, len(raw))
	for _, addr := range raw {
		email, err := validate.NormalizeEmail(addr)
		if err != nil {
			slog.Warn("skipping invalid recipient", "policy", policy, "email", addr)
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		targets = append(targets, domain.NotificationTarget{Email: email})
	}
	return targets, nil
}

func (s *service) Send(ctx context.Context, tmpl domain.Template, recipients []domain.NotificationTarget, rl domain.RateLimit) (domain.DispatchReport, error) {
	if err := validate.Struct(tmpl); err != nil {
		return domain.DispatchReport{}, fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
	}
	if len(recipients) == 0 {
		now := s.clock().UTC()
		return emptyReport(tmpl.Subject, now), nil
	}
	r, err := s.Begin(ctx, rl)
	if err != nil {
		if ctx.Err() != nil {
			return s.cancelledReport(tmpl.Subject), nil
		}
		return domain.DispatchReport{}, err
	}
	report := r.Send(ctx, tmpl, recipients)
	s.Record(ctx, report)
	return report, nil
}

func (s *service) Announce(ctx context.Context, settings domain.Settings, tmpl domain.Template, rl domain.RateLimit) (domain.DispatchReport, error) {
	if ctx.Err() != nil {
		return s.cancelledReport(tmpl.Subject), nil
	}
	recipients, err := s.ResolveRecipients(ctx, settings)
	if err != nil {
		return domain.DispatchReport{}, err
	}
	return s.Send(ctx, tmpl, recipients, rl)
}

// Begin returns the caller's context error, wrapped, when ctx is already done
// or ends during the ping. Only a failed ping on a live context is
// ErrTransportUnavailable.
func (s *service) Begin(ctx context.Context, rl domain.RateLimit) (Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("dispatch not started: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()
	if err := s.transport.Ping(pingCtx); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("transport ping interrupted: %w", err)
		}
		slog.Error("mail transport unreachable", "err", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrTransportUnavailable, err)
	}
	return &run{svc: s, limit: rl.OrDefault()}, nil
}

func (s *service) Record(ctx context.Context, report domain.DispatchReport) {
	slog.Info("dispatch finished",
		"report_id", report.ReportID,
		"subject", report.Subject,
		"sent", len(report.Sent),
		"failed", len(report.Failed),
		"batches", report.Batches,
		"cancelled", report.Cancelled,
	)
	// Sinks still get the report of a cancelled run.
	sinkCtx := context.WithoutCancel(ctx)
	for _, sink := range s.sinks {
		if err := sink.Record(sinkCtx, report); err != nil {
			slog.Warn("dispatch report sink failed", "report_id", report.ReportID, "err", err)
		}
	}
}

func (s *service) cancelledReport(subject string) domain.DispatchReport {
	report := emptyReport(subject, s.clock().UTC())
	report.Cancelled = true
	return report
}

func emptyReport(subject string, now time.Time) domain.DispatchReport {
	return domain.DispatchReport{
		ReportID:   id.New(),
		Subject:    subject,
		Sent:       []string{},
		Failed:     []domain.SendFailure{},
		StartedAt:  now,
		FinishedAt: now,
	}
}

// run tracks how many sends the current window has consumed. A window closes
// after limit.MaxPerWindow sends; the next send waits limit.Window first, so
// there is never a wait after the final batch.
type run struct {
	svc      *service
	limit    domain.RateLimit
	inWindow int
	started  bool
}

func (r *run) Send(ctx context.Context, tmpl domain.Template, recipients []domain.NotificationTarget) domain.DispatchReport {
	s := r.svc
	report := emptyReport(tmpl.Subject, s.clock().UTC())

	seen := make(map[string]struct{}, len(recipients))
	for _, target := range recipients {
		email, err := validate.NormalizeEmail(target.Email)
		if err != nil {
			email = strings.ToLower(strings.TrimSpace(target.Email))
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		if err != nil {
			report.TotalAttempted++
			report.Failed = append(report.Failed, domain.SendFailure{Email: email, Reason: "invalid address"})
			continue
		}

		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
		if err := r.acquire(ctx, &report); err != nil {
			report.Cancelled = true
			break
		}

		report.TotalAttempted++
		if err := r.deliver(ctx, tmpl, email); err != nil {
			report.Failed = append(report.Failed, domain.SendFailure{Email: email, Reason: failureReason(err)})
			slog.Warn("dispatch send failed", "report_id", report.ReportID, "email", email, "err", err)
			if ctx.Err() != nil {
				report.Cancelled = true
				break
			}
			continue
		}
		report.Sent = append(report.Sent, email)
	}
	report.FinishedAt = s.clock().UTC()
	return report
}

// acquire reserves one send slot, waiting out the window when it is full.
func (r *run) acquire(ctx context.Context, report *domain.DispatchReport) error {
	if r.started && r.inWindow >= r.limit.MaxPerWindow {
		slog.Debug("dispatch window full, waiting", "report_id", report.ReportID, "window", r.limit.Window)
		if err := r.svc.sleep(ctx, r.limit.Window); err != nil {
			return err
		}
		r.inWindow = 0
		r.started = false
	}
	if !r.started {
		r.started = true
		report.Batches++
		metrics.IncrementBatches()
	}
	r.inWindow++
	return nil
}

func (r *run) deliver(ctx context.Context, tmpl domain.Template, email string) error {
	sendCtx, cancel := context.WithTimeout(ctx, r.svc.sendTimeout)
	defer cancel()
	start := time.Now()
	err := r.svc.transport.Send(sendCtx, smtp.Message{
		To:       email,
		Subject:  tmpl.Subject,
		HTMLBody: tmpl.HTMLBody,
		TextBody: tmpl.TextBody,
	})
	metrics.RecordEmailSend("dispatch", err, time.Since(start))
	return err
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout: " + err.Error()
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return err.Error()
	}
}
