package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Matching pipeline
	SearchRequests  *prometheus.CounterVec
	SearchLatency   prometheus.Histogram
	RankerFallbacks *prometheus.CounterVec
	LLMCallLatency  prometheus.Histogram

	// Funnel
	FunnelDispatches *prometheus.CounterVec
	FunnelCompleted  prometheus.Counter
	LeadsRecorded    prometheus.Counter
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics. sessionCount feeds the
// active-sessions gauge.
func InitMetrics(sessionCount func() int) *Metrics {
	metrics := &Metrics{
		// Search requests by dataset and final method ("ai", "keyword-fallback", ...)
		SearchRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ikshan_search_requests_total",
			Help: "Total number of matching-pipeline runs by dataset and method",
		}, []string{"dataset", "method"}),

		SearchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ikshan_search_duration_seconds",
			Help:    "End-to-end matching-pipeline latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60}, // ranking calls dominate
		}),

		// Fallback tier engagements by dataset and tier
		RankerFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ikshan_ranker_fallbacks_total",
			Help: "Total number of ranking fallbacks by dataset and tier",
		}, []string{"dataset", "tier"}),

		LLMCallLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ikshan_llm_call_duration_seconds",
			Help:    "Upstream model call latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30},
		}),

		FunnelDispatches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ikshan_funnel_dispatches_total",
			Help: "Total number of funnel actions by stage and action type",
		}, []string{"stage", "action"}),

		FunnelCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ikshan_funnel_completed_total",
			Help: "Total number of sessions that reached the complete stage",
		}),

		LeadsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ikshan_leads_recorded_total",
			Help: "Total number of captured leads written to the lead store",
		}),
	}

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "ikshan_funnel_sessions_active",
			Help: "Current number of live funnel sessions",
		},
		func() float64 {
			if sessionCount != nil {
				return float64(sessionCount())
			}
			return 0
		},
	))

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordSearch records one matching-pipeline run
func (m *Metrics) RecordSearch(dataset, method string, seconds float64) {
	m.SearchRequests.WithLabelValues(dataset, method).Inc()
	m.SearchLatency.Observe(seconds)
}

// RecordFallback records a ranking fallback tier engagement
func (m *Metrics) RecordFallback(dataset, tier string) {
	m.RankerFallbacks.WithLabelValues(dataset, tier).Inc()
}

// RecordLLMCall records one upstream model call
func (m *Metrics) RecordLLMCall(seconds float64) {
	m.LLMCallLatency.Observe(seconds)
}

// RecordDispatch records one funnel action
func (m *Metrics) RecordDispatch(stage, action string) {
	m.FunnelDispatches.WithLabelValues(stage, action).Inc()
}

// RecordCompletion records a session reaching the complete stage
func (m *Metrics) RecordCompletion() {
	m.FunnelCompleted.Inc()
}

// RecordLead records a captured lead
func (m *Metrics) RecordLead() {
	m.LeadsRecorded.Inc()
}
