package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	runExpressionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fieldrule",
			Subsystem: "engine",
			Name:      "run_expressions_total",
			Help:      "Total expressions dispatched in response to RUN_EXPRESSION messages.",
		},
		[]string{"rule", "expression"},
	)

	expressionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fieldrule",
			Subsystem: "engine",
			Name:      "expression_duration_seconds",
			Help:      "Expression evaluation latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"rule", "expression"},
	)

	evaluatorErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fieldrule",
			Subsystem: "engine",
			Name:      "evaluator_errors_total",
			Help:      "Expression evaluations that returned an error.",
		},
		[]string{"rule", "expression"},
	)
)

func init() {
	prometheus.MustRegister(runExpressionsTotal, expressionDuration, evaluatorErrorsTotal)
}
