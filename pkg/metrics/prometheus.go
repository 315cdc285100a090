package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric names exported by PrometheusRecorder.
const (
	SubmissionsTotalName = "todofront_flow_submissions_total"
	RequestsTotalName    = "todofront_graphql_requests_total"
	RequestDurationName  = "todofront_graphql_request_duration_seconds"
	ActiveVisitorsName   = "todofront_active_visitors"
)

// PrometheusRecorder implements the Recorder interface using Prometheus metrics.
type PrometheusRecorder struct {
	submissionsTotal *prometheus.CounterVec
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	activeVisitors   prometheus.Gauge
}

// NewPrometheusRecorder creates a recorder whose collectors are registered on reg.
// A nil reg registers on prometheus.DefaultRegisterer.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		submissionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: SubmissionsTotalName,
				Help: "Total number of form submissions by flow and outcome",
			},
			[]string{"flow", "outcome"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: RequestsTotalName,
				Help: "Total number of GraphQL requests by operation and HTTP status",
			},
			[]string{"operation", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    RequestDurationName,
				Help:    "Duration of GraphQL requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		activeVisitors: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: ActiveVisitorsName,
				Help: "Number of visitors with live flow state",
			},
		),
	}
}

// ObserveSubmission records the terminal outcome of one Submit call.
func (p *PrometheusRecorder) ObserveSubmission(flow, outcome string) {
	p.submissionsTotal.WithLabelValues(flow, outcome).Inc()
}

// ObserveRequest records metrics for a completed GraphQL request.
func (p *PrometheusRecorder) ObserveRequest(operation, status string, duration time.Duration) {
	p.requestsTotal.WithLabelValues(operation, status).Inc()
	p.requestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetActiveVisitors reports the number of live visitor sessions.
func (p *PrometheusRecorder) SetActiveVisitors(n int) {
	p.activeVisitors.Set(float64(n))
}
