package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Outbound email attempts. kind is "dispatch" or "code".
	EmailSendTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_send_total",
			Help: "Outbound email attempts by outcome",
		},
		[]string{"kind", "outcome"},
	)

	EmailSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "email_send_duration_seconds",
			Help:    "Latency of a single outbound email send",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"kind"},
	)

	DispatchBatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_batches_total",
			Help: "Rate-bounded batches issued by the dispatch engine",
		},
	)

	VerificationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_total",
			Help: "Verification code operations by result",
		},
		[]string{"op", "result"},
	)

	RemindersDueTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reminders_due_total",
			Help: "Items found due for a reminder across sweeps",
		},
	)
)

func RecordEmailSend(kind string, err error, d time.Duration) {
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	EmailSendTotal.WithLabelValues(kind, outcome).Inc()
	EmailSendDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func IncrementBatches() { DispatchBatchesTotal.Inc() }

func RecordVerification(op, result string) {
	VerificationTotal.WithLabelValues(op, result).Inc()
}

func AddRemindersDue(n int) { RemindersDueTotal.Add(float64(n)) }
