package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "promoq"

var (
	TaskCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_created_total",
			Help:      "Total number of automation tasks submitted.",
		},
		[]string{"type"},
	)

	TaskCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_completed_total",
			Help:      "Total number of tasks reaching a terminal state, labeled by final status.",
		},
		[]string{"type", "status"},
	)

	TaskProcessingLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_processing_latency_seconds",
			Help:      "End-to-end latency from task submission to terminal state (seconds).",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"type", "status"},
	)

	StageFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Total number of per-idea pipeline stage failures, labeled by stage.",
		},
		[]string{"stage"},
	)

	ObservationsRecordedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_recorded_total",
			Help:      "Total number of reward observations fed to the allocator, labeled by platform.",
		},
		[]string{"platform"},
	)

	RateLimitHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Total number of requests rejected by a rate limit bucket.",
		},
		[]string{"bucket"},
	)
)

func init() {
	prometheus.MustRegister(
		TaskCreatedTotal,
		TaskCompletedTotal,
		TaskProcessingLatencySeconds,
		StageFailuresTotal,
		ObservationsRecordedTotal,
		RateLimitHitsTotal,
	)
}
