package queue

import "github.com/prometheus/client_golang/prometheus"

var (
	submittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "promptq",
			Subsystem: "queue",
			Name:      "submitted_total",
			Help:      "Total number of submitted requests",
		},
	)

	completedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "promptq",
			Subsystem: "queue",
			Name:      "completed_total",
			Help:      "Completed requests by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	pendingGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "promptq",
			Subsystem: "queue",
			Name:      "pending",
			Help:      "Requests waiting for the worker",
		},
	)

	busyGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "promptq",
			Subsystem: "queue",
			Name:      "busy",
			Help:      "1 while a request is executing",
		},
	)

	waitSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "promptq",
			Subsystem: "queue",
			Name:      "wait_seconds",
			Help:      "Time requests spend pending before execution",
			Buckets:   prometheus.DefBuckets,
		},
	)

	execSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "promptq",
			Subsystem: "queue",
			Name:      "execution_seconds",
			Help:      "Backend execution time per provider",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"provider"},
	)

	panicsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "promptq",
			Subsystem: "queue",
			Name:      "panics_total",
			Help:      "Recovered panics by site",
		},
		[]string{"site"},
	)
)

func init() {
	prometheus.MustRegister(submittedTotal, completedTotal, pendingGauge, busyGauge, waitSeconds, execSeconds, panicsTotal)
}
