package domain

import "time"

// DistributionPolicy selects who receives a broadcast notification.
type DistributionPolicy string

const (
	PolicyAdminOnly      DistributionPolicy = "admin_only"
	PolicyAllSubscribers DistributionPolicy = "all_subscribers"
)

func (p DistributionPolicy) Valid() bool {
	return p == PolicyAdminOnly || p == PolicyAllSubscribers
}

// NotificationTarget is a resolved recipient. It is never persisted.
type NotificationTarget struct {
	Email string  `json:"email"`
	Name  *string `json:"name,omitempty"`
}

// Template is an already-rendered message.
type Template struct {
	Subject  string `json:"subject" validate:"required,max=300"`
	HTMLBody string `json:"html_body" validate:"required_without=TextBody"`
	TextBody string `json:"text_body" validate:"required_without=HTMLBody"`
}

// RateLimit is the downstream transport's send ceiling.
type RateLimit struct {
	MaxPerWindow int           `json:"max_per_window"`
	Window       time.Duration `json:"window"`
}

// DefaultRateLimit matches the transport's enforced ceiling of 30 sends per minute.
var DefaultRateLimit = RateLimit{MaxPerWindow: 30, Window: 60 * time.Second}

// OrDefault fills zero fields from DefaultRateLimit.
func (r RateLimit) OrDefault() RateLimit {
	if r.MaxPerWindow <= 0 {
		r.MaxPerWindow = DefaultRateLimit.MaxPerWindow
	}
	if r.Window <= 0 {
		r.Window = DefaultRateLimit.Window
	}
	return r
}

// SendFailure records why one recipient did not receive a message.
type SendFailure struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// DispatchReport is the per-recipient outcome of one dispatch invocation.
type DispatchReport struct {
	ReportID       string        `json:"id"`
	Subject        string        `json:"subject"`
	Sent           []string      `json:"sent"`
	Failed         []SendFailure `json:"failed"`
	TotalAttempted int           `json:"total_attempted"`
	Batches        int           `json:"batches"`
	Cancelled      bool          `json:"cancelled"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at"`
}

// Merge folds other into r. Used when a sweep issues one dispatch per item.
func (r *DispatchReport) Merge(other DispatchReport) {
	r.Sent = append(r.Sent, other.Sent...)
	r.Failed = append(r.Failed, other.Failed...)
	r.TotalAttempted += other.TotalAttempted
	r.Batches += other.Batches
	r.Cancelled = r.Cancelled || other.Cancelled
	if r.StartedAt.IsZero() || (!other.StartedAt.IsZero() && other.StartedAt.Before(r.StartedAt)) {
		r.StartedAt = other.StartedAt
	}
	if other.FinishedAt.After(r.FinishedAt) {
		r.FinishedAt = other.FinishedAt
	}
}
