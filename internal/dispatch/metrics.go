package dispatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	analysisORA  = "ora"
	analysisGSEA = "gsea"
)

// Metrics records dispatched batches.
type Metrics struct {
	batches  *prometheus.CounterVec
	jobs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates batch metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gestalt",
			Name:      "batches_total",
			Help:      "Dispatched analysis batches by analysis, method and outcome.",
		}, []string{"analysis", "method", "outcome"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gestalt",
			Name:      "jobs_total",
			Help:      "Dispatched per-layer analysis jobs.",
		}, []string{"analysis"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gestalt",
			Name:      "batch_duration_seconds",
			Help:      "Wall time of dispatched batches.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"analysis"}),
	}
	reg.MustRegister(m.batches, m.jobs, m.duration)
	return m
}

func (m *Metrics) record(analysis, methodName string, jobs int, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.batches.WithLabelValues(analysis, methodName, outcome).Inc()
	m.jobs.WithLabelValues(analysis).Add(float64(jobs))
	m.duration.WithLabelValues(analysis).Observe(elapsed.Seconds())
}
