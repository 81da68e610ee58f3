package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for availability evaluation.
// Pass to components that need to record metrics.
type Metrics struct {
	EvaluationsTotal   *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram
	RuleMatchesTotal   *prometheus.CounterVec
	RulesSkippedTotal  prometheus.Counter
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		EvaluationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "availd",
				Name:      "evaluations_total",
				Help:      "Total availability evaluations",
			},
			[]string{"result"}, // result=available/unavailable
		),
		EvaluationDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "availd",
				Name:      "evaluation_duration_seconds",
				Help:      "Evaluation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		RuleMatchesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "availd",
				Name:      "rule_matches_total",
				Help:      "Total rule matches by rule type",
			},
			[]string{"type"},
		),
		RulesSkippedTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "availd",
				Name:      "rules_skipped_total",
				Help:      "Rules skipped because their type had no registered predicate",
			},
		),
	}
}
