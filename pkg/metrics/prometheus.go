package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	decisionsTotal *prometheus.CounterVec
	blockersTotal  *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	queueDepth     *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		decisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loangate_decisions_total",
				Help: "Total number of approval decisions by recommendation",
			},
			[]string{"recommendation", "action_type"},
		),
		blockersTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loangate_blockers_total",
				Help: "Total number of blockers attached to decisions",
			},
			[]string{"blocker"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loangate_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		queueDepth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "loangate_queue_depth",
				Help: "Current number of queue items per status",
			},
			[]string{"status"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loangate_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordDecision records an approval decision outcome.
func (r *Recorder) RecordDecision(recommendation, actionType string) {
	r.decisionsTotal.WithLabelValues(recommendation, actionType).Inc()
}

// RecordBlocker records one blocker reason attached to a decision.
func (r *Recorder) RecordBlocker(blocker string) {
	r.blockersTotal.WithLabelValues(blocker).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordQueueDepth records the number of items in a queue status.
func (r *Recorder) RecordQueueDepth(status string, depth int) {
	r.queueDepth.WithLabelValues(status).Set(float64(depth))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
