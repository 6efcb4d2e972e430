// Package metrics provides Prometheus metrics for the DriveMind engine.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Reaction times are milliseconds; the interesting band is 0..5s.
var defaultReactionBuckets = []float64{250, 500, 750, 1000, 1500, 2000, 2500, 3000, 4000, 5000, 8000} //nolint:gochecknoglobals // bucket layout

// Store writes, HTTP handlers and the saver are sub-millisecond to a few seconds.
var defaultLatencyBuckets = []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000} //nolint:gochecknoglobals // bucket layout

// Scores live in [0,100].
var scoreBuckets = prometheus.LinearBuckets(10, 10, 10) //nolint:gochecknoglobals // bucket layout

// Manager manages all Prometheus metrics for the DriveMind engine.
type Manager struct {
	namespace        string
	subsystem        string
	latencyBuckets   []float64
	reactionBuckets  []float64
	refreshInterval  time.Duration
	constLabels      map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Simulation metrics
	runsStarted       prometheus.Counter
	runsFinished      prometheus.Counter
	runsAbandoned     *prometheus.CounterVec
	activeRuns        prometheus.Gauge
	decisionsRecorded *prometheus.CounterVec
	reactionTime      prometheus.Histogram
	scores            prometheus.Histogram
	grades            *prometheus.CounterVec
	commitDuplicates  prometheus.Counter

	// Profile metrics
	profileDMS       prometheus.Gauge
	profileTraits    *prometheus.GaugeVec
	totalSimulations prometheus.Gauge
	historyEntries   prometheus.Gauge

	// Store metrics
	storeLoadLatency *prometheus.HistogramVec
	storeSaveLatency *prometheus.HistogramVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	streamClients       prometheus.Gauge

	// Persist queue metrics
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Saver worker metrics
	workerActiveCount       prometheus.Gauge
	workerIdleCount         prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "drivemind",
		subsystem:        "engine",
		latencyBuckets:   defaultLatencyBuckets,
		reactionBuckets:  defaultReactionBuckets,
		refreshInterval:  defaultRefreshInterval,
		constLabels:      make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// RefreshInterval returns how often gauge updaters should run.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, Buckets: buckets, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, Buckets: buckets, ConstLabels: m.constLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.runsStarted = m.counter("runs_started_total", "Total number of scenario runs started")
	m.runsFinished = m.counter("runs_finished_total", "Total number of scenario runs that produced a result")
	m.runsAbandoned = m.counterVec("runs_abandoned_total", "Total number of runs abandoned before a result", "reason")
	m.activeRuns = m.gauge("active_runs", "Number of live runs held in the registry")
	m.decisionsRecorded = m.counterVec("decisions_recorded_total", "Total number of resolved decisions by category", "category")
	m.reactionTime = m.histogram("reaction_time_milliseconds", "Reaction time of resolved decisions in milliseconds", m.reactionBuckets)
	m.scores = m.histogram("run_score", "Distribution of run scores", scoreBuckets)
	m.grades = m.counterVec("run_grades_total", "Total number of results by grade", "grade")
	m.commitDuplicates = m.counter("commit_duplicates_total", "Results rejected because the run was already committed")

	m.profileDMS = m.gauge("profile_dms", "Current Driver Mindset Score")
	m.profileTraits = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("profile_trait"), Help: "Current trait values", ConstLabels: m.constLabels,
	}, []string{"trait"})
	m.totalSimulations = m.gauge("profile_total_simulations", "Total simulations folded into the profile")
	m.historyEntries = m.gauge("history_entries", "Number of entries in the result history")

	m.storeLoadLatency = m.histogramVec("store_load_latency_milliseconds", "State load latency in milliseconds", m.latencyBuckets, "backend")
	m.storeSaveLatency = m.histogramVec("store_save_latency_milliseconds", "State save latency in milliseconds", m.latencyBuckets, "backend")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.latencyBuckets, "endpoint", "method", "status_code")
	m.streamClients = m.gauge("stream_clients", "Number of connected snapshot stream clients")

	m.queueSize = m.gauge("persist_queue_size", "Current size of the persist queue")
	m.queueCapacity = m.gauge("persist_queue_capacity", "Maximum persist queue capacity")
	m.queueUtilization = m.gauge("persist_queue_utilization_ratio", "Persist queue utilization ratio (current size / capacity)")
	m.queueEnqueueRate = m.counter("persist_queue_enqueue_total", "Total number of snapshots enqueued for saving")
	m.queueDequeueRate = m.counter("persist_queue_dequeue_total", "Total number of snapshots dequeued for saving")
	m.queueEnqueueErrors = m.counter("persist_queue_enqueue_errors_total", "Total number of enqueue errors")
	m.queueProcessingLatency = m.histogram("persist_queue_wait_milliseconds", "Time a snapshot waited in the persist queue", m.latencyBuckets)

	m.workerActiveCount = m.gauge("saver_active_count", "Number of savers currently writing")
	m.workerIdleCount = m.gauge("saver_idle_count", "Number of idle savers")
	m.workerProcessingLatency = m.histogram("saver_processing_latency_milliseconds", "Saver processing latency in milliseconds", m.latencyBuckets)
	m.workerErrorRate = m.counter("saver_errors_total", "Total number of failed saves")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Total number of errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Simulation Metrics Functions.

// RecordRunStarted increments the runs started counter.
func RecordRunStarted() {
	globalManager.runsStarted.Inc()
}

// RecordRunFinished records a finished run with its score and grade.
func RecordRunFinished(score int, grade string) {
	globalManager.runsFinished.Inc()
	globalManager.scores.Observe(float64(score))
	globalManager.grades.WithLabelValues(grade).Inc()
}

// RecordRunAbandoned increments the abandoned counter for reason.
func RecordRunAbandoned(reason string) {
	globalManager.runsAbandoned.WithLabelValues(reason).Inc()
}

// UpdateActiveRuns sets the number of live runs.
func UpdateActiveRuns(count int) {
	globalManager.activeRuns.Set(float64(count))
}

// RecordDecision records a resolved decision.
func RecordDecision(category string, reactionMs int64) {
	globalManager.decisionsRecorded.WithLabelValues(category).Inc()
	globalManager.reactionTime.Observe(float64(reactionMs))
}

// RecordCommitDuplicate increments the duplicate commit counter.
func RecordCommitDuplicate() {
	globalManager.commitDuplicates.Inc()
}

// Profile Metrics Functions.

// UpdateProfile sets the profile gauges.
func UpdateProfile(dms int, traits map[string]int, totalSimulations, historyEntries int) {
	globalManager.profileDMS.Set(float64(dms))
	for trait, v := range traits {
		globalManager.profileTraits.WithLabelValues(trait).Set(float64(v))
	}
	globalManager.totalSimulations.Set(float64(totalSimulations))
	globalManager.historyEntries.Set(float64(historyEntries))
}

// Store Metrics Functions.

// RecordStoreLoadLatency records a state load on backend.
func RecordStoreLoadLatency(backend string, latencyMs float64) {
	globalManager.storeLoadLatency.WithLabelValues(backend).Observe(latencyMs)
}

// RecordStoreSaveLatency records a state save on backend.
func RecordStoreSaveLatency(backend string, latencyMs float64) {
	globalManager.storeSaveLatency.WithLabelValues(backend).Observe(latencyMs)
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPStatus records a request and its duration from an integer status.
func RecordHTTPStatus(endpoint, method string, status int, durationMs float64) {
	code := strconv.Itoa(status)
	RecordHTTPRequest(endpoint, method, code)
	RecordHTTPRequestDuration(endpoint, method, code, durationMs)
}

// AddStreamClients adjusts the connected stream client gauge by delta.
func AddStreamClients(delta int) {
	globalManager.streamClients.Add(float64(delta))
}

// Queue Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records how long an item waited in the queue.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Worker Metrics Functions.

// UpdateWorkerActiveCount sets the number of active savers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// UpdateWorkerIdleCount sets the number of idle savers.
func UpdateWorkerIdleCount(count int) {
	globalManager.workerIdleCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records saver processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the saver error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

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
