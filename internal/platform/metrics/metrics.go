// Package metrics holds the Prometheus collectors exported by the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readiness_analyses_total",
			Help: "Total number of website analyses, labeled by outcome.",
		},
		[]string{"outcome"},
	)
	AnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "readiness_analysis_duration_seconds",
			Help:    "Duration of a complete website analysis in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
		},
	)
	SignalsDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readiness_signals_detected_total",
			Help: "Total number of analyses in which a readiness signal was present, labeled by signal.",
		},
		[]string{"signal"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readiness_http_requests_total",
			Help: "Total number of HTTP requests served, labeled by method and status code.",
		},
		[]string{"method", "code"},
	)
	LeadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "readiness_leads_total",
			Help: "Total number of leads captured.",
		},
	)
)

func init() {
	prometheus.MustRegister(AnalysesTotal)
	prometheus.MustRegister(AnalysisDuration)
	prometheus.MustRegister(SignalsDetected)
	prometheus.MustRegister(LeadsTotal)
	prometheus.MustRegister(HTTPRequests)
}
