// Package metrics provides Prometheus metrics for the admitly service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace         string
	subsystem         string
	histogramBuckets  []float64
	percentileBuckets []float64
	registry          prometheus.Registerer

	// Estimator
	estimatesTotal      *prometheus.CounterVec
	invalidInputs       *prometheus.CounterVec
	compositePercentile *prometheus.HistogramVec
	estimateLatency     prometheus.Histogram
	descriptionsTotal   *prometheus.CounterVec

	// Assessment pipeline
	assessmentsAccepted  prometheus.Counter
	assessmentsDuplicate prometheus.Counter
	assessmentsScored    prometheus.Counter
	assessmentLogWrites  *prometheus.CounterVec
	cohortSize           prometheus.Gauge
	cohortUpdates        prometheus.Counter

	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueUtilization  prometheus.Gauge
	queueEnqueued     prometheus.Counter
	queueDequeued     prometheus.Counter
	queueRejected     *prometheus.CounterVec
	workerCount       prometheus.Gauge
	workerLatency     prometheus.Histogram
	workerErrors      *prometheus.CounterVec
	repositoryLatency *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

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

// DefaultPercentileBuckets splits [0,1] into deciles.
var DefaultPercentileBuckets = prometheus.LinearBuckets(0.1, 0.1, 10) //nolint:gochecknoglobals // shared bucket layout

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:         "admitly",
		subsystem:         "estimator",
		histogramBuckets:  prometheus.DefBuckets,
		percentileBuckets: DefaultPercentileBuckets,
		registry:          prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.estimatesTotal = m.counterVec("estimates_total", "Composite estimates computed, by test label", "test_label")
	m.invalidInputs = m.counterVec("invalid_inputs_total", "Estimates rejected as invalid input, by reason", "reason")
	m.compositePercentile = m.histogramVec("composite_percentile", "Distribution of composite percentiles", m.percentileBuckets, "test_label")
	m.estimateLatency = m.histogram("estimate_latency_milliseconds", "Latency of a single composite estimate", m.histogramBuckets)
	m.descriptionsTotal = m.counterVec("descriptions_total", "Competitiveness descriptions rendered, by locale", "locale")

	m.assessmentsAccepted = m.counter("assessments_accepted_total", "Assessments accepted for asynchronous scoring")
	m.assessmentsDuplicate = m.counter("assessments_duplicate_total", "Assessments rejected as duplicates")
	m.assessmentsScored = m.counter("assessments_scored_total", "Assessments scored by the worker pool")
	m.assessmentLogWrites = m.counterVec("assessment_log_writes_total", "Assessment log writes, by outcome", "outcome")
	m.cohortSize = m.gauge("cohort_size", "Students tracked in the applicant cohort")
	m.cohortUpdates = m.counter("cohort_updates_total", "Cohort best-composite improvements")

	m.queueSize = m.gauge("queue_size", "Current size of the assessment queue")
	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the assessment queue")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Assessments enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Assessments dequeued")
	m.queueRejected = m.counterVec("queue_rejected_total", "Enqueue attempts rejected, by reason", "reason")
	m.workerCount = m.gauge("worker_count", "Number of scoring workers")
	m.workerLatency = m.histogram("worker_processing_latency_milliseconds", "Per-assessment processing latency", m.histogramBuckets)
	m.workerErrors = m.counterVec("worker_errors_total", "Worker failures, by stage", "stage")
	m.repositoryLatency = m.histogramVec("repository_latency_milliseconds", "Cohort store operation latency", m.histogramBuckets, "operation")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets, "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause in milliseconds", m.histogramBuckets)
}

// Estimator metrics.

// RecordEstimate records a successful composite estimate.
func RecordEstimate(testLabel string, composite, latencyMs float64) {
	globalManager.estimatesTotal.WithLabelValues(testLabel).Inc()
	globalManager.compositePercentile.WithLabelValues(testLabel).Observe(composite)
	globalManager.estimateLatency.Observe(latencyMs)
}

// RecordInvalidInput records an estimate rejected as invalid input.
func RecordInvalidInput(reason string) {
	globalManager.invalidInputs.WithLabelValues(reason).Inc()
}

// RecordDescription records a rendered description.
func RecordDescription(locale string) {
	globalManager.descriptionsTotal.WithLabelValues(locale).Inc()
}

// Pipeline metrics.

// RecordAssessmentAccepted increments accepted assessments.
func RecordAssessmentAccepted() { globalManager.assessmentsAccepted.Inc() }

// RecordAssessmentDuplicate increments duplicate assessments.
func RecordAssessmentDuplicate() { globalManager.assessmentsDuplicate.Inc() }

// RecordAssessmentScored increments scored assessments.
func RecordAssessmentScored() { globalManager.assessmentsScored.Inc() }

// RecordAssessmentLogWrite counts a log write with outcome "ok" or "error".
func RecordAssessmentLogWrite(outcome string) {
	globalManager.assessmentLogWrites.WithLabelValues(outcome).Inc()
}

// UpdateCohortSize sets the cohort size.
func UpdateCohortSize(n int) { globalManager.cohortSize.Set(float64(n)) }

// RecordCohortUpdate increments cohort improvements.
func RecordCohortUpdate() { globalManager.cohortUpdates.Inc() }

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueRejected counts a rejected enqueue.
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) { globalManager.workerLatency.Observe(latencyMs) }

// RecordWorkerError counts a worker failure at the given stage.
func RecordWorkerError(stage string) { globalManager.workerErrors.WithLabelValues(stage).Inc() }

// RecordRepositoryLatency records cohort store latency for an operation.
func RecordRepositoryLatency(operation string, latencyMs float64) {
	globalManager.repositoryLatency.WithLabelValues(operation).Observe(latencyMs)
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error metrics.

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

// System metrics.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
