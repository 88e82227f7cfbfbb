// Package middleware provides cross-cutting concerns for the test
// execution engine.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-vigil/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It exposes run outcomes, per-node execution behavior, and
// detection client traffic for dashboards and alerting.
type PrometheusMetrics struct {
	nodeExecutions     *prometheus.CounterVec
	workflowRuns       *prometheus.CounterVec
	runsRejected       *prometheus.CounterVec
	detectionRequests  *prometheus.CounterVec
	detectionsReturned *prometheus.CounterVec
	operationCounter   *prometheus.CounterVec
	executionLatency   *prometheus.HistogramVec
	detectionLatency   *prometheus.HistogramVec
	systemGauges       *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance and
// registers all required metrics in the global Prometheus registry.
// Create it once per process; duplicate registration panics.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		nodeExecutions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigil_node_executions_total",
				Help: "Total node executions by kind and terminal status.",
			},
			[]string{"kind", "status"},
		),
		workflowRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigil_workflow_runs_total",
				Help: "Total workflow test runs by workflow and overall outcome.",
			},
			[]string{"workflow", "success"},
		),
		runsRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigil_workflow_runs_rejected_total",
				Help: "Runs rejected before execution by graph validation.",
			},
			[]string{"workflow"},
		),
		detectionRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigil_detection_requests_total",
				Help: "Detection client requests by provider, algorithm, and status.",
			},
			[]string{"provider", "algorithm", "status"},
		),
		detectionsReturned: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigil_detections_returned_total",
				Help: "Detections returned by successful inference calls.",
			},
			[]string{"provider", "algorithm", "status"},
		),
		operationCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigil_operations_total",
				Help: "Operations without a dedicated metric, by name and status.",
			},
			[]string{"operation", "status"},
		),
		executionLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vigil_execution_duration_seconds",
				Help:    "Execution time of engine operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "kind"},
		),
		detectionLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vigil_detection_latency_seconds",
				Help:    "Latency of detection client calls.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "algorithm", "status"},
		),
		systemGauges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vigil_system_state",
				Help: "Current system state values for the engine.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	kind, ok := labels["kind"]
	if !ok {
		kind = "all"
	}
	pm.executionLatency.WithLabelValues(operation, kind).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by
// incrementing Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "node_executions_total":
		pm.nodeExecutions.WithLabelValues(
			labels["kind"],
			labels["status"],
		).Add(value)
	case "workflow_runs_total":
		pm.workflowRuns.WithLabelValues(
			labels["workflow"],
			labels["success"],
		).Add(value)
	case "workflow_runs_rejected_total":
		pm.runsRejected.WithLabelValues(labels["workflow"]).Add(value)
	case "detection_requests_total":
		pm.detectionRequests.WithLabelValues(
			labels["provider"],
			labels["algorithm"],
			labels["status"],
		).Add(value)
	case "detections_returned_total":
		pm.detectionsReturned.WithLabelValues(
			labels["provider"],
			labels["algorithm"],
			labels["status"],
		).Add(value)
	default:
		status, ok := labels["status"]
		if !ok {
			status = "success"
		}
		pm.operationCounter.WithLabelValues(metric, status).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, _ map[string]string,
) {
	pm.systemGauges.WithLabelValues(metric).Set(value)
}

// RecordHistogram implements the MetricsCollector interface by
// recording values in Prometheus histograms.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "detection_latency_seconds":
		pm.detectionLatency.WithLabelValues(
			labels["provider"],
			labels["algorithm"],
			labels["status"],
		).Observe(value)
	default:
		kind, ok := labels["kind"]
		if !ok {
			kind = "all"
		}
		pm.executionLatency.WithLabelValues(metric, kind).Observe(value)
	}
}
