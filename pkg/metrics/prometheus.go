// Package metrics provides Prometheus metrics for the crease store and dashboard.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sync cycle and submission outcomes used as label values.
const (
	OutcomeReady    = "ready"
	OutcomeEmpty    = "empty"
	OutcomeFailed   = "failed"
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
)

// Manager owns every collector registered by the process.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Store server
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByType        *prometheus.CounterVec
	storeRecords        prometheus.Gauge
	storeAlerts         prometheus.Gauge
	alertsGenerated     prometheus.Counter
	alertsDeduplicated  prometheus.Counter

	// Dashboard client
	syncCycles          *prometheus.CounterVec
	staleApplied        prometheus.Counter
	staleDiscarded      prometheus.Counter
	submissions         *prometheus.CounterVec
	aggregationDuration prometheus.Histogram
	trackedEntities     prometheus.Gauge
	echoEntries         prometheus.Gauge
	fetchDuration       *prometheus.HistogramVec

	// Process
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "crease",
		histogramBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: m.histogramBuckets}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorsByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "HTTP errors by endpoint, method and error type"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorsByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.storeRecords = auto.NewGauge(m.gaugeOpts("store_records", "Performance records held by the store"))
	m.storeAlerts = auto.NewGauge(m.gaugeOpts("store_alerts", "Alerts held by the store"))
	m.alertsGenerated = auto.NewCounter(m.counterOpts("alerts_generated_total", "Alerts produced by the analysis rules"))
	m.alertsDeduplicated = auto.NewCounter(m.counterOpts("alerts_deduplicated_total", "Seed alerts dropped because the message was already present"))

	m.syncCycles = auto.NewCounterVec(
		m.counterOpts("sync_cycles_total", "Dashboard reload cycles by outcome"),
		[]string{"outcome"},
	)
	m.staleApplied = auto.NewCounter(m.counterOpts("sync_stale_applied_total", "Reload results applied after a newer cycle had already been applied"))
	m.staleDiscarded = auto.NewCounter(m.counterOpts("sync_stale_discarded_total", "Reload results dropped because a newer cycle had already been applied"))
	m.submissions = auto.NewCounterVec(
		m.counterOpts("submissions_total", "Record submissions by outcome"),
		[]string{"outcome"},
	)
	m.aggregationDuration = auto.NewHistogram(m.histogramOpts("aggregation_duration_milliseconds", "Time spent building the per-player projection"))
	m.trackedEntities = auto.NewGauge(m.gaugeOpts("tracked_entities", "Players in the last projection"))
	m.echoEntries = auto.NewGauge(m.gaugeOpts("echo_entries", "Entries held in the local echo buffer"))
	m.fetchDuration = auto.NewHistogramVec(
		m.histogramOpts("fetch_duration_milliseconds", "Remote store request latency by resource"),
		[]string{"resource", "method", "outcome"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint counts an HTTP error against its endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType counts an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// UpdateStoreRecords sets the number of records held by the store.
func UpdateStoreRecords(count int) {
	globalManager.storeRecords.Set(float64(count))
}

// UpdateStoreAlerts sets the number of alerts held by the store.
func UpdateStoreAlerts(count int) {
	globalManager.storeAlerts.Set(float64(count))
}

// RecordAlertsGenerated adds n generated alerts.
func RecordAlertsGenerated(n int) {
	globalManager.alertsGenerated.Add(float64(n))
}

// RecordAlertDeduplicated counts one dropped duplicate alert.
func RecordAlertDeduplicated() {
	globalManager.alertsDeduplicated.Inc()
}

// RecordSyncCycle counts a finished reload cycle.
func RecordSyncCycle(outcome string) {
	globalManager.syncCycles.WithLabelValues(outcome).Inc()
}

// RecordStaleApplied counts a reload applied out of order.
func RecordStaleApplied() {
	globalManager.staleApplied.Inc()
}

// RecordStaleDiscarded counts a reload dropped because it was out of order.
func RecordStaleDiscarded() {
	globalManager.staleDiscarded.Inc()
}

// RecordSubmission counts a finished submission.
func RecordSubmission(outcome string) {
	globalManager.submissions.WithLabelValues(outcome).Inc()
}

// RecordAggregationDuration observes projection build time in milliseconds.
func RecordAggregationDuration(durationMs float64) {
	globalManager.aggregationDuration.Observe(durationMs)
}

// UpdateTrackedEntities sets the number of players in the last projection.
func UpdateTrackedEntities(count int) {
	globalManager.trackedEntities.Set(float64(count))
}

// UpdateEchoEntries sets the echo buffer length.
func UpdateEchoEntries(count int) {
	globalManager.echoEntries.Set(float64(count))
}

// RecordFetchDuration observes a remote store request.
func RecordFetchDuration(resource, method, outcome string, durationMs float64) {
	globalManager.fetchDuration.WithLabelValues(resource, method, outcome).Observe(durationMs)
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
