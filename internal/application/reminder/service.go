package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/go-form-dispatch/internal/application/dispatch"
	"github.com/go-form-dispatch/internal/domain"
	"github.com/go-form-dispatch/internal/pkg/id"
	"github.com/go-form-dispatch/internal/pkg/metrics"
)

// Renderer turns a due item into the message its owner receives.
type Renderer interface {
	RenderReminder(item domain.Item, settings domain.Settings) (domain.Template, error)
}

type itemStore interface {
	ListReminderCandidates(ctx context.Context) ([]domain.Item, error)
	SetLastReminderSentAt(ctx context.Context, itemID string, at time.Time) error
}

type dispatcher interface {
	Begin(ctx context.Context, rl domain.RateLimit) (dispatch.Run, error)
	Record(ctx context.Context, report domain.DispatchReport)
}

type SweepOptions struct {
	// Limit caps how many due items are reminded. Zero means no cap.
	Limit     int              `json:"limit"`
	RateLimit domain.RateLimit `json:"-"`
}

type StampFailure struct {
	ItemID string `json:"item_id"`
	Reason string `json:"reason"`
}

type SweepReport struct {
	DueCount      int                   `json:"due_count"`
	Dispatch      domain.DispatchReport `json:"dispatch"`
	RemindedIDs   []string              `json:"reminded_ids"`
	StampFailures []StampFailure        `json:"stamp_failures"`
}

type Service interface {
	RunReminderSweep(ctx context.Context, settings domain.Settings, opts SweepOptions) (*SweepReport, error)
}

type ServiceDeps struct {
	Items      itemStore
	Dispatcher dispatcher
	Renderer   Renderer
	Clock      func() time.Time
}

type service struct {
	items      itemStore
	dispatcher dispatcher
	renderer   Renderer
	clock      func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		items:      deps.Items,
		dispatcher: deps.Dispatcher,
		renderer:   deps.Renderer,
		clock:      deps.Clock,
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return s
}

// ComputeDueItems returns the items whose owners should be reminded at now,
// most overdue first. A non-positive interval disables reminders.
func ComputeDueItems(items []domain.Item, intervalDays int, now time.Time) []domain.Item {
	if intervalDays <= 0 {
		return nil
	}
	interval := time.Duration(intervalDays) * 24 * time.Hour
	var due []domain.Item
	for _, it := range items {
		if !it.IsActive() || it.ApprovalStatus != domain.ApprovalApproved || !it.HasEmail() {
			continue
		}
		if now.Sub(it.ReminderAnchor()) >= interval {
			due = append(due, it)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		ai, aj := due[i].ReminderAnchor(), due[j].ReminderAnchor()
		if !ai.Equal(aj) {
			return ai.Before(aj)
		}
		return due[i].ItemID < due[j].ItemID
	})
	return due
}

func (s *service) RunReminderSweep(ctx context.Context, settings domain.Settings, opts SweepOptions) (*SweepReport, error) {
	now := s.clock().UTC()
	report := &SweepReport{RemindedIDs: []string{}, StampFailures: []StampFailure{}}
	if settings.ReminderIntervalDays <= 0 {
		slog.Info("reminders disabled", "interval_days", settings.ReminderIntervalDays)
		return report, nil
	}

	candidates, err := s.items.ListReminderCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list reminder candidates: %v", domain.ErrStorage, err)
	}
	due := ComputeDueItems(candidates, settings.ReminderIntervalDays, now)
	report.DueCount = len(due)
	metrics.AddRemindersDue(len(due))
	if opts.Limit > 0 && len(due) > opts.Limit {
		due = due[:opts.Limit]
	}
	slog.Info("reminder sweep started", "candidates", len(candidates), "due", report.DueCount, "sending", len(due))
	if len(due) == 0 {
		return report, nil
	}

	total := domain.DispatchReport{StartedAt: now}
	if ctx.Err() != nil {
		total.Cancelled = true
		return s.finish(ctx, report, total), nil
	}
	run, err := s.dispatcher.Begin(ctx, opts.RateLimit)
	if err != nil {
		if ctx.Err() != nil {
			total.Cancelled = true
			return s.finish(ctx, report, total), nil
		}
		return nil, err
	}

	for _, it := range due {
		if ctx.Err() != nil {
			total.Cancelled = true
			break
		}
		tmpl, err := s.renderer.RenderReminder(it, settings)
		if err != nil {
			slog.Warn("reminder render failed", "item_id", it.ItemID, "err", err)
			total.TotalAttempted++
			total.Failed = append(total.Failed, domain.SendFailure{Email: *it.Email, Reason: "render: " + err.Error()})
			continue
		}
		target := domain.NotificationTarget{Email: *it.Email, Name: it.Name}
		sent := run.Send(ctx, tmpl, []domain.NotificationTarget{target})
		total.Merge(sent)
		if len(sent.Sent) == 1 {
			s.stamp(ctx, it.ItemID, now, report)
		}
		if sent.Cancelled {
			break
		}
	}
	return s.finish(ctx, report, total), nil
}

func (s *service) finish(ctx context.Context, report *SweepReport, total domain.DispatchReport) *SweepReport {
	total.ReportID = id.New()
	total.Subject = "reminders"
	total.FinishedAt = s.clock().UTC()
	if total.Sent == nil {
		total.Sent = []string{}
	}
	if total.Failed == nil {
		total.Failed = []domain.SendFailure{}
	}
	report.Dispatch = total
	s.dispatcher.Record(ctx, total)
	slog.Info("reminder sweep finished",
		"reminded", len(report.RemindedIDs),
		"failed", len(total.Failed),
		"stamp_failures", len(report.StampFailures),
		"cancelled", total.Cancelled,
	)
	return report
}

// stamp records the reminder even when the sweep is being cancelled, since
// the message already left.
func (s *service) stamp(ctx context.Context, itemID string, at time.Time, report *SweepReport) {
	err := s.items.SetLastReminderSentAt(context.WithoutCancel(ctx), itemID, at)
	if err != nil {
		reason := err.Error()
		if errors.Is(err, domain.ErrNotFound) {
			reason = "item no longer exists"
		}
		slog.Error("reminder sent but not recorded", "item_id", itemID, "err", err)
		report.StampFailures = append(report.StampFailures, StampFailure{ItemID: itemID, Reason: reason})
		return
	}
	report.RemindedIDs = append(report.RemindedIDs, itemID)
}
