package hooks

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeUnknown = "unknown_hook"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for hook execution.
type Metrics struct {
	RunsTotal   *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec
}

// NewMetrics returns the process-wide hook metrics, registering them once.
//
// Metrics:
//   - learnhooks_hook_runs_total{hook,outcome}
//   - learnhooks_hook_run_duration_seconds{hook}
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			RunsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "learnhooks",
					Name:      "hook_runs_total",
					Help:      "Total number of hook runs by outcome",
				},
				[]string{"hook", "outcome"},
			),
			RunDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: "learnhooks",
					Name:      "hook_run_duration_seconds",
					Help:      "Duration of hook runs in seconds",
					Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
				},
				[]string{"hook"},
			),
		}
	})
	return globalMetrics
}
