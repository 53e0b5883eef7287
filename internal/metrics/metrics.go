package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_library_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_library_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_library_db_transaction_duration_seconds",
			Help:    "Database transaction duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"outcome"},
	)

	DBRowsAffected = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_library_db_rows_affected",
			Help:    "Rows affected by write operations",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Task pipeline metrics
var (
	TaskStartedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_task_started_total",
			Help: "Total number of background tasks started, by job",
		},
		[]string{"job"},
	)

	TaskCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_task_completed_total",
			Help: "Total number of background tasks completed, by job",
		},
		[]string{"job"},
	)

	TaskErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_task_errors_total",
			Help: "Total number of background tasks that failed internally, by job",
		},
		[]string{"job"},
	)

	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_library_task_duration_seconds",
			Help:    "Background task duration in seconds, by job",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
		},
		[]string{"job"},
	)

	TaskItemsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_task_items_processed_total",
			Help: "Library items changed by counted background tasks, by job",
		},
		[]string{"job"},
	)

	TaskOverdueTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_task_overdue_total",
			Help: "Number of watchdog warnings for tasks running past TASK_WARN_AFTER",
		},
		[]string{"job"},
	)

	TaskProgressItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_library_task_progress_items",
			Help: "Items handled (state=done) and listed (state=total) by the running task",
		},
		[]string{"state"},
	)

	TaskQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_task_queue_length",
			Help: "Number of tasks waiting in the queue",
		},
	)

	TaskPipelineRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_task_pipeline_running",
			Help: "Whether a background task is currently running (1 = running, 0 = idle)",
		},
	)

	TaskPipelineDrainsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_library_task_pipeline_drains_total",
			Help: "Number of times the task queue drained and the pipeline went idle",
		},
	)

	TaskStopRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_library_task_stop_requests_total",
			Help: "Number of stop requests that cancelled a running pipeline",
		},
	)
)

// Library snapshot metrics
var (
	LibraryRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_library_refresh_total",
			Help: "Total number of library snapshot refreshes",
		},
		[]string{"status"},
	)

	LibraryRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_library_library_refresh_duration_seconds",
			Help:    "Library snapshot refresh duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	LibraryItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_library_library_items",
			Help: "Items in the current library snapshot, by kind",
		},
		[]string{"kind"},
	)

	LibrarySnapshotVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_library_snapshot_version",
			Help: "Version number of the installed library snapshot",
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_thumbnail_generations_total",
			Help: "Total number of thumbnail generations",
		},
		[]string{"type", "status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_library_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"type"},
	)
)

// Watcher metrics
var (
	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_watcher_events_total",
			Help: "Filesystem events seen by the media directory watcher",
		},
		[]string{"op"},
	)

	WatcherRescansTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_library_watcher_rescans_total",
			Help: "Rescans requested by the media directory watcher",
		},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_memory_usage_ratio",
			Help: "Heap usage as a fraction of the Go memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_memory_paused",
			Help: "Whether thumbnail work is paused for memory pressure (1 = paused)",
		},
	)

	MemoryPausesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_library_memory_pauses_total",
			Help: "Times thumbnail work was paused for memory pressure",
		},
	)
)

// Filesystem metrics
var (
	FilesystemStaleErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_filesystem_stale_errors_total",
			Help: "NFS stale file handle errors by operation",
		},
		[]string{"op"},
	)

	FilesystemRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_filesystem_retries_total",
			Help: "Retried filesystem operations by operation and outcome",
		},
		[]string{"op", "result"},
	)
)
