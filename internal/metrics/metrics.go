package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels successful tool calls.
	OutcomeSuccess = "success"
	// OutcomeError labels failed tool calls.
	OutcomeError = "error"
)

var (
	decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sre_agent",
			Name:      "decisions_total",
			Help:      "Total number of incident decisions, partitioned by verdict.",
		},
		[]string{"decision"},
	)

	workflowDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sre_agent",
			Name:      "workflow_seconds",
			Help:      "Incident workflow latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	toolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sre_agent",
			Name:      "tool_calls_total",
			Help:      "Total number of gateway tool invocations, partitioned by tool and outcome.",
		},
		[]string{"tool", "outcome"},
	)
)

// Register attaches sre-agent collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		decisionsTotal,
		workflowDurationSeconds,
		toolCallsTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveDecision records a workflow duration and the verdict it produced.
func ObserveDecision(duration time.Duration, decision string) {
	decisionsTotal.WithLabelValues(decision).Inc()
	if duration < 0 {
		duration = 0
	}
	workflowDurationSeconds.Observe(duration.Seconds())
}

// ObserveToolCall records one gateway tool invocation.
func ObserveToolCall(tool string, failed bool) {
	outcome := OutcomeSuccess
	if failed {
		outcome = OutcomeError
	}
	toolCallsTotal.WithLabelValues(tool, outcome).Inc()
}
