// Package metrics provides Prometheus metrics for the FRB viewer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager owns every collector exported by the viewer.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	authFailures        prometheus.Counter
	imageBytesServed    *prometheus.CounterVec

	// Catalog
	catalogEvents     *prometheus.GaugeVec
	catalogCandidates *prometheus.GaugeVec
	catalogLoadTime   prometheus.Histogram
	sourceSwitches    *prometheus.CounterVec

	// Index build
	indexBuildEvents     prometheus.Gauge
	indexBuildCandidates prometheus.Gauge
	indexBuildWarnings   prometheus.Counter

	// Client session
	clientFetches      *prometheus.CounterVec
	clientFetchLatency *prometheus.HistogramVec
	bulkLoads          *prometheus.CounterVec
	bulkRows           prometheus.Histogram
	actionsDispatched  *prometheus.CounterVec
	actionQueueSize    prometheus.Gauge
	actionQueueDropped prometheus.Counter

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "frbviewer",
		subsystem:        "viewer",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// RefreshInterval is how often system gauges should be sampled.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

// RefreshInterval returns the global manager's system gauge interval.
func RefreshInterval() time.Duration {
	return globalManager.RefreshInterval()
}

func (m *Manager) name(n string) string {
	return m.metricPrefix + n
}

func (m *Manager) initializeMetrics() { //nolint:funlen // collector table
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.customLabels)

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("http_requests_total"),
		Help: "Total number of HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("http_request_duration_milliseconds"),
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.authFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("auth_failures_total"),
		Help: "Rejected basic-auth attempts",
	})

	m.imageBytesServed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("image_bytes_served_total"),
		Help: "Image bytes written by /api/image per source repo",
	}, []string{"repo"})

	m.catalogEvents = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("catalog_events"),
		Help: "Events loaded per data source",
	}, []string{"source"})

	m.catalogCandidates = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("catalog_candidate_rows"),
		Help: "Candidate rows loaded per data source",
	}, []string{"source"})

	m.catalogLoadTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("catalog_load_duration_milliseconds"),
		Help:    "Time to read and decode one data source",
		Buckets: m.histogramBuckets,
	})

	m.sourceSwitches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("source_switches_total"),
		Help: "Data source switch attempts by outcome",
	}, []string{"outcome"})

	m.indexBuildEvents = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("index_build_events"),
		Help: "Events written by the last index build",
	})

	m.indexBuildCandidates = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("index_build_candidate_rows"),
		Help: "Candidate rows written by the last index build",
	})

	m.indexBuildWarnings = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("index_build_warnings_total"),
		Help: "Unreadable candidate tables skipped during index builds",
	})

	m.clientFetches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("client_fetches_total"),
		Help: "Backend fetches issued by the browsing client",
	}, []string{"op", "outcome"})

	m.clientFetchLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("client_fetch_latency_milliseconds"),
		Help:    "Backend fetch latency seen by the browsing client",
		Buckets: m.histogramBuckets,
	}, []string{"op"})

	m.bulkLoads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("bulk_loads_total"),
		Help: "Bulk candidate loads by outcome",
	}, []string{"outcome"})

	m.bulkRows = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("bulk_load_rows"),
		Help:    "Rows accumulated by completed bulk loads",
		Buckets: []float64{100, 1000, 5000, 10000, 25000, 50000, 100000, 250000},
	})

	m.actionsDispatched = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("actions_dispatched_total"),
		Help: "Actions applied by the browsing controller",
	}, []string{"kind"})

	m.actionQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("action_queue_size"),
		Help: "Actions waiting for the controller loop",
	})

	m.actionQueueDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("action_queue_dropped_total"),
		Help: "Actions rejected because the queue was full or closed",
	})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("errors_by_component_total"),
		Help: "Errors by component and type",
	}, []string{"component", "error_type"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("errors_by_type_total"),
		Help: "Errors by type and severity",
	}, []string{"error_type", "severity"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("errors_by_endpoint_total"),
		Help: "Errors by endpoint, method and type",
	}, []string{"endpoint", "method", "error_type"})

	m.errorLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("error_latency_milliseconds"),
		Help:    "Latency of operations that ended in an error",
		Buckets: m.histogramBuckets,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("system_memory_usage_bytes"),
		Help: "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("system_goroutine_count"),
		Help: "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("system_gc_pause_time_milliseconds"),
		Help:    "GC pause time in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordAuthFailure counts a rejected credential.
func RecordAuthFailure() {
	globalManager.authFailures.Inc()
}

// RecordImageBytes adds n bytes served for repo.
func RecordImageBytes(repo string, n int64) {
	globalManager.imageBytesServed.WithLabelValues(repo).Add(float64(n))
}

// Catalog.

// UpdateCatalogSize sets the event and candidate-row gauges for a source.
func UpdateCatalogSize(source string, events, candidates int) {
	globalManager.catalogEvents.WithLabelValues(source).Set(float64(events))
	globalManager.catalogCandidates.WithLabelValues(source).Set(float64(candidates))
}

// RecordCatalogLoad records how long a source took to load.
func RecordCatalogLoad(latencyMs float64) {
	globalManager.catalogLoadTime.Observe(latencyMs)
}

// RecordSourceSwitch counts a switch attempt; outcome is "ok" or "error".
func RecordSourceSwitch(outcome string) {
	globalManager.sourceSwitches.WithLabelValues(outcome).Inc()
}

// Index build.

// UpdateIndexBuild records the size of the last index build.
func UpdateIndexBuild(events, candidates int) {
	globalManager.indexBuildEvents.Set(float64(events))
	globalManager.indexBuildCandidates.Set(float64(candidates))
}

// RecordIndexBuildWarning counts a skipped candidate table.
func RecordIndexBuildWarning() {
	globalManager.indexBuildWarnings.Inc()
}

// Client session.

// RecordClientFetch counts one backend call by op and outcome.
func RecordClientFetch(op, outcome string, latencyMs float64) {
	globalManager.clientFetches.WithLabelValues(op, outcome).Inc()
	globalManager.clientFetchLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordBulkLoad counts a bulk load; rows is observed only for "ok".
func RecordBulkLoad(outcome string, rows int) {
	globalManager.bulkLoads.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		globalManager.bulkRows.Observe(float64(rows))
	}
}

// RecordActionDispatched counts an applied controller action.
func RecordActionDispatched(kind string) {
	globalManager.actionsDispatched.WithLabelValues(kind).Inc()
}

// UpdateActionQueueSize sets the number of queued actions.
func UpdateActionQueueSize(size int) {
	globalManager.actionQueueSize.Set(float64(size))
}

// RecordActionDropped counts an action the queue refused.
func RecordActionDropped() {
	globalManager.actionQueueDropped.Inc()
}

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
