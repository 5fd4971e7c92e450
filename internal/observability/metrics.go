package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels recorded per dispatch.
const (
	OutcomeCompleted  = "completed"
	OutcomeTimeout    = "timeout"
	OutcomeOpenFailed = "open_failed"
	OutcomeWriteError = "write_error"
)

var (
	registerOnce sync.Once

	dispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relay",
			Subsystem: "dispatch",
			Name:      "commands_total",
			Help:      "Total dispatched commands.",
		},
		[]string{"transport", "mode", "outcome"},
	)
	dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "relay",
			Subsystem: "dispatch",
			Name:      "duration_seconds",
			Help:      "Command dispatch duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"transport", "mode", "outcome"},
	)
	confirmations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relay",
			Subsystem: "confirm",
			Name:      "verdicts_total",
			Help:      "Operator verdicts by outcome.",
		},
		[]string{"verdict"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(dispatches, dispatchDuration, confirmations)
	})
}

// RecordDispatch counts one dispatch and its wall-clock duration.
func RecordDispatch(transportKind, mode, outcome string, duration time.Duration) {
	RegisterMetrics()
	dispatches.WithLabelValues(transportKind, mode, outcome).Inc()
	dispatchDuration.WithLabelValues(transportKind, mode, outcome).Observe(duration.Seconds())
}

// RecordVerdict counts one operator decision ("accepted", "rejected", "none").
func RecordVerdict(verdict string) {
	RegisterMetrics()
	confirmations.WithLabelValues(verdict).Inc()
}
