package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pass metrics
var (
	ScanRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_indexer_scan_runs_total",
			Help: "Total number of datasource update passes",
		},
		[]string{"status"}, // "completed", "cancelled", "crashed", "misconfigured"
	)

	ScanIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movie_indexer_scan_running",
			Help: "Whether a datasource update pass is currently running (1 = running, 0 = idle)",
		},
	)

	ScanLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movie_indexer_scan_last_run_timestamp",
			Help: "Unix timestamp of the last finished pass",
		},
	)

	ScanLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movie_indexer_scan_last_run_duration_seconds",
			Help: "Duration of the last pass in seconds",
		},
	)

	ScanPhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movie_indexer_scan_phase_duration_seconds",
			Help:    "Duration of each pass phase per datasource",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
		[]string{"phase"}, // "assemble", "cleanup", "mediainfo", "imagecache"
	)

	ScanFilesFound = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "movie_indexer_scan_files_found_total",
			Help: "Total number of paths recorded in the files-found set",
		},
	)

	ScanErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_indexer_scan_errors_total",
			Help: "Total number of per-item errors during passes",
		},
		[]string{"kind"}, // "traversal", "nfo", "persist", "inspect", "imagecache"
	)
)

// Classification metrics
var (
	FoldersClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_indexer_folders_classified_total",
			Help: "Total number of video folders classified, by kind",
		},
		[]string{"kind"}, // "single", "disc", "multi", "none"
	)

	FilesClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_indexer_files_classified_total",
			Help: "Total number of files classified, by media file type",
		},
		[]string{"type"},
	)

	MoviesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_indexer_movies_created_total",
			Help: "Total number of movies created during passes",
		},
		[]string{"source"}, // "nfo", "filename", "folder"
	)

	MoviesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "movie_indexer_movies_removed_total",
			Help: "Total number of orphaned movies removed",
		},
	)

	MediaFilesPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "movie_indexer_media_files_pruned_total",
			Help: "Total number of orphaned media files removed from movies",
		},
	)
)

// Task pool metrics
var (
	TasksSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_indexer_tasks_submitted_total",
			Help: "Total number of tasks submitted to a pool",
		},
		[]string{"pool"},
	)

	TasksCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_indexer_tasks_completed_total",
			Help: "Total number of tasks finished by a pool",
		},
		[]string{"pool", "status"}, // "success", "panic", "abandoned"
	)

	TaskPanics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_indexer_task_panics_total",
			Help: "Total number of pool tasks that panicked",
		},
		[]string{"pool"},
	)

	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movie_indexer_task_duration_seconds",
			Help:    "Duration of a single pool task",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"pool"},
	)

	PoolWorkers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "movie_indexer_pool_workers",
			Help: "Number of workers of the currently running pool",
		},
		[]string{"pool"},
	)
)

// Catalog metrics
var (
	CatalogMovies = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movie_indexer_catalog_movies",
			Help: "Number of movies in the catalog",
		},
	)

	CatalogMovieSets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movie_indexer_catalog_movie_sets",
			Help: "Number of movie sets in the catalog",
		},
	)

	CatalogNewlyAdded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movie_indexer_catalog_newly_added_movies",
			Help: "Number of movies flagged as newly added",
		},
	)

	CatalogDuplicates = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movie_indexer_catalog_duplicate_movies",
			Help: "Number of movies flagged as duplicates",
		},
	)

	CatalogMediaFiles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "movie_indexer_catalog_media_files",
			Help: "Number of media files attached to movies, by type",
		},
		[]string{"type"},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_indexer_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movie_indexer_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movie_indexer_db_transaction_duration_seconds",
			Help:    "Database transaction duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"outcome"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movie_indexer_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Media inspection metrics
var (
	InspectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_indexer_mediainfo_inspections_total",
			Help: "Total number of technical media inspections",
		},
		[]string{"status"},
	)

	InspectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "movie_indexer_mediainfo_inspection_duration_seconds",
			Help:    "ffprobe inspection duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)

// Image cache metrics
var (
	ImageCacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_indexer_image_cache_writes_total",
			Help: "Total number of artwork images processed by the image cache",
		},
		[]string{"status"}, // "written", "cached", "error"
	)
)

// Watcher metrics
var (
	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_indexer_watcher_events_total",
			Help: "Total number of filesystem events seen by the datasource watcher",
		},
		[]string{"type"},
	)

	WatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "movie_indexer_watcher_errors_total",
			Help: "Total number of datasource watcher errors",
		},
	)

	WatchedDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movie_indexer_watched_directories",
			Help: "Number of directories registered with the datasource watcher",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movie_indexer_filesystem_operation_duration_seconds",
			Help:    "Duration of filesystem operations by datasource volume",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_indexer_filesystem_operation_errors_total",
			Help: "Total number of failed filesystem operations",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_indexer_filesystem_retry_events_total",
			Help: "Stale NFS handle retry steps by outcome (stale, retry, recovered, exhausted)",
		},
		[]string{"volume", "operation", "event"},
	)
)

// Control server metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movie_indexer_http_requests_total",
			Help: "Total number of requests to the control server",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movie_indexer_http_request_duration_seconds",
			Help:    "Duration of control server requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movie_indexer_http_requests_in_flight",
			Help: "Number of control server requests currently being served",
		},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movie_indexer_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movie_indexer_memory_paused",
			Help: "Whether artwork decoding is paused for memory pressure (1 = paused)",
		},
	)

	MemoryPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "movie_indexer_memory_pauses_total",
			Help: "Total number of times artwork decoding was paused for memory pressure",
		},
	)
)
