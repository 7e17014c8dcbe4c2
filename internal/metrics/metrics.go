package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission results.
const (
	ResultAccepted = "accepted"
	ResultInvalid  = "invalid"
	ResultRejected = "rejected"
	ResultError    = "error"
)

type Metrics struct {
	Submissions    *prometheus.CounterVec
	StoreDuration  *prometheus.HistogramVec
	StoreErrors    *prometheus.CounterVec
	EventMutations *prometheus.CounterVec
	RateLimited    prometheus.Counter
}

// New registers the collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geopresence_submissions_total",
			Help: "Attendance submissions by result and rejection reason",
		}, []string{"result", "reason"}),
		StoreDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "geopresence_store_request_duration_seconds",
			Help:    "Latency of external table store calls",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"op"}),
		StoreErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geopresence_store_errors_total",
			Help: "Failed external table store calls",
		}, []string{"op"}),
		EventMutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geopresence_event_mutations_total",
			Help: "Event create, update and delete operations by outcome",
		}, []string{"op", "outcome"}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "geopresence_rate_limited_total",
			Help: "Requests refused by the rate limiter",
		}),
	}
}

// ObserveSubmission counts one check-in attempt. reason is empty unless rejected.
func (m *Metrics) ObserveSubmission(result, reason string) {
	m.Submissions.WithLabelValues(result, reason).Inc()
}

// ObserveStore records a table store call.
func (m *Metrics) ObserveStore(op string, elapsed time.Duration, err error) {
	m.StoreDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	if err != nil {
		m.StoreErrors.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) ObserveEventMutation(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.EventMutations.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) IncrementRateLimited() {
	m.RateLimited.Inc()
}
