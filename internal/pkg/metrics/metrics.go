package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus collectors for the execution engine. Registered once from
// main via MustRegisterMetrics.
var (
	ExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strategy_executions_total",
			Help: "Number of strategy executions by operation and outcome.",
		},
		[]string{"operation", "status"},
	)

	ExecutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strategy_execution_duration_seconds",
			Help:    "End-to-end duration of strategy executions, submission included.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"operation"},
	)

	CallsBuilt = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strategy_calls_built_total",
			Help: "Number of on-chain calls emitted per protocol.",
		},
		[]string{"protocol", "operation"},
	)

	RPCReads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chain_reads_total",
			Help: "Number of contract reads by chain and outcome.",
		},
		[]string{"chain_id", "status"},
	)
)

// MustRegisterMetrics registers all collectors with the default
// registry. Panics on duplicate registration, which is a programming
// error.
func MustRegisterMetrics() {
	prometheus.MustRegister(ExecutionsTotal, ExecutionDuration, CallsBuilt, RPCReads)
}
