// Package metrics provides Prometheus metrics for the harvestpay payroll service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Generation modes used as the "mode" label.
const (
	ModeSync  = "sync"
	ModeAsync = "async"
	ModeCLI   = "cli"
)

// Manager manages all Prometheus metrics for the payroll service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Payroll metrics
	reportsGenerated   *prometheus.CounterVec
	reportFailures     *prometheus.CounterVec
	generationLatency  *prometheus.HistogramVec
	employeesPerReport prometheus.Histogram
	recordsSkipped     *prometheus.CounterVec
	reportWarnings     *prometheus.CounterVec
	exportsRendered    *prometheus.CounterVec

	// Job metrics
	jobsSubmitted  prometheus.Counter
	jobsDuplicate  prometheus.Counter
	reportsStored  prometheus.Gauge
	reportsEvicted prometheus.Counter

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueue       prometheus.Counter
	queueDequeue       prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	queueWaitLatency   prometheus.Histogram

	// Worker metrics
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "harvestpay",
		subsystem:        "payroll",
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

// RefreshInterval is how often callers should sample system gauges.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	if buckets == nil {
		buckets = m.histogramBuckets
	}
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + name,
		Help:        help,
		ConstLabels: m.customLabels,
		Buckets:     buckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	latencyBuckets := []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}

	// Payroll metrics
	m.reportsGenerated = auto.NewCounterVec(
		m.counterOpts("reports_generated_total", "Total number of payroll reports generated"),
		[]string{"mode"},
	)
	m.reportFailures = auto.NewCounterVec(
		m.counterOpts("report_failures_total", "Total number of payroll generations that failed"),
		[]string{"mode", "reason"},
	)
	m.generationLatency = auto.NewHistogramVec(
		m.histogramOpts("generation_latency_milliseconds", "Payroll report generation latency in milliseconds", latencyBuckets),
		[]string{"mode"},
	)
	m.employeesPerReport = auto.NewHistogram(
		m.histogramOpts("employees_per_report", "Number of employee summaries per report",
			[]float64{1, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
	m.recordsSkipped = auto.NewCounterVec(
		m.counterOpts("records_skipped_total", "Input records that contributed nothing to a report"),
		[]string{"kind", "reason"},
	)
	m.reportWarnings = auto.NewCounterVec(
		m.counterOpts("report_warnings_total", "Task configuration warnings attached to reports"),
		[]string{"code"},
	)
	m.exportsRendered = auto.NewCounterVec(
		m.counterOpts("exports_rendered_total", "Report exports rendered by format"),
		[]string{"format"},
	)

	// Job metrics
	m.jobsSubmitted = auto.NewCounter(m.counterOpts("jobs_submitted_total", "Total number of report jobs accepted"))
	m.jobsDuplicate = auto.NewCounter(m.counterOpts("jobs_duplicate_total", "Report submissions answered from the idempotency table"))
	m.reportsStored = auto.NewGauge(m.gaugeOpts("reports_stored", "Report jobs currently held by the store"))
	m.reportsEvicted = auto.NewCounter(m.counterOpts("reports_evicted_total", "Finished reports evicted by retention"))

	// Queue metrics
	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current size of the report job queue (backlog indicator)"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)"))
	m.queueEnqueue = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Total number of jobs enqueued"))
	m.queueDequeue = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Total number of jobs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Total number of rejected enqueues"))
	m.queueWaitLatency = auto.NewHistogram(
		m.histogramOpts("queue_wait_latency_milliseconds", "Time a job spent queued before a worker took it", latencyBuckets),
	)

	// Worker metrics
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured number of report workers"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Number of workers currently generating a report"))
	m.workerProcessingLatency = auto.NewHistogram(
		m.histogramOpts("worker_processing_latency_milliseconds", "Worker processing latency in milliseconds", latencyBuckets),
	)
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Total number of failed jobs"))

	// HTTP metrics
	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", latencyBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	// Error metrics
	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorsByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	// System metrics
	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// Payroll metrics.

// RecordReportGenerated counts a report and observes its latency and size.
func (m *Manager) RecordReportGenerated(mode string, latencyMs float64, employees int) {
	if !m.enabled {
		return
	}
	m.reportsGenerated.WithLabelValues(mode).Inc()
	m.generationLatency.WithLabelValues(mode).Observe(latencyMs)
	m.employeesPerReport.Observe(float64(employees))
}

// RecordReportFailure counts a failed generation.
func (m *Manager) RecordReportFailure(mode, reason string) {
	if !m.enabled {
		return
	}
	m.reportFailures.WithLabelValues(mode, reason).Inc()
}

// RecordRecordsSkipped adds n skipped input records of kind for reason.
func (m *Manager) RecordRecordsSkipped(kind, reason string, n int) {
	if !m.enabled || n <= 0 {
		return
	}
	m.recordsSkipped.WithLabelValues(kind, reason).Add(float64(n))
}

// RecordReportWarning counts one task configuration warning.
func (m *Manager) RecordReportWarning(code string) {
	if !m.enabled {
		return
	}
	m.reportWarnings.WithLabelValues(code).Inc()
}

// RecordExport counts one rendered export.
func (m *Manager) RecordExport(format string) {
	if !m.enabled {
		return
	}
	m.exportsRendered.WithLabelValues(format).Inc()
}

// Job metrics.

// RecordJobSubmitted counts an accepted job.
func (m *Manager) RecordJobSubmitted() {
	if m.enabled {
		m.jobsSubmitted.Inc()
	}
}

// RecordJobDuplicate counts a repeated idempotency key.
func (m *Manager) RecordJobDuplicate() {
	if m.enabled {
		m.jobsDuplicate.Inc()
	}
}

// UpdateReportsStored sets the number of stored jobs.
func (m *Manager) UpdateReportsStored(count int) {
	if m.enabled {
		m.reportsStored.Set(float64(count))
	}
}

// RecordReportEvicted counts an evicted report.
func (m *Manager) RecordReportEvicted() {
	if m.enabled {
		m.reportsEvicted.Inc()
	}
}

// Queue metrics.

// UpdateQueue sets the queue size, capacity and utilization gauges.
func (m *Manager) UpdateQueue(size, capacity int) {
	if !m.enabled {
		return
	}
	m.queueSize.Set(float64(size))
	m.queueCapacity.Set(float64(capacity))
	if capacity > 0 {
		m.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// RecordQueueEnqueue increments the enqueue counter.
func (m *Manager) RecordQueueEnqueue() {
	if m.enabled {
		m.queueEnqueue.Inc()
	}
}

// RecordQueueDequeue increments the dequeue counter and observes how long the
// job waited.
func (m *Manager) RecordQueueDequeue(waitMs float64) {
	if !m.enabled {
		return
	}
	m.queueDequeue.Inc()
	m.queueWaitLatency.Observe(waitMs)
}

// RecordQueueEnqueueError increments the rejected enqueue counter.
func (m *Manager) RecordQueueEnqueueError() {
	if m.enabled {
		m.queueEnqueueErrors.Inc()
	}
}

// Worker metrics.

// UpdateWorkerCount sets the configured worker count.
func (m *Manager) UpdateWorkerCount(count int) {
	if m.enabled {
		m.workerCount.Set(float64(count))
	}
}

// AddWorkerActive moves the active worker gauge by delta.
func (m *Manager) AddWorkerActive(delta int) {
	if m.enabled {
		m.workerActiveCount.Add(float64(delta))
	}
}

// RecordWorkerProcessingLatency records worker processing latency.
func (m *Manager) RecordWorkerProcessingLatency(latencyMs float64) {
	if m.enabled {
		m.workerProcessingLatency.Observe(latencyMs)
	}
}

// RecordWorkerError increments the worker error counter.
func (m *Manager) RecordWorkerError() {
	if m.enabled {
		m.workerErrors.Inc()
	}
}

// HTTP and error metrics.

// RecordHTTPRequest records an HTTP request and its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func (m *Manager) RecordErrorByComponent(component, errorType string) {
	if m.enabled {
		m.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByEndpoint records an error with endpoint, method and error type labels.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	if m.enabled {
		m.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// System metrics.

// UpdateSystem sets memory and goroutine gauges.
func (m *Manager) UpdateSystem(memoryBytes uint64, goroutines int) {
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(memoryBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func (m *Manager) RecordSystemGCPauseTime(pauseMs float64) {
	if m.enabled {
		m.systemGCPauseTime.Observe(pauseMs)
	}
}

// Default returns the process-wide manager bound to the custom registry.
func Default() *Manager {
	return globalManager
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
