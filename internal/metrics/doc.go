// Package metrics provides Prometheus instrumentation for the movie indexer.
//
// All metrics are registered with the default registry through promauto and
// prefixed with "movie_indexer_". Expose them by mounting promhttp.Handler():
//
//	router.Handle("/metrics", promhttp.Handler())
//
// # Metric Categories
//
// ## Scan Metrics
//
//   - ScanRunsTotal: passes by outcome (completed/cancelled/crashed/misconfigured)
//   - ScanIsRunning, ScanLastRunTimestamp, ScanLastRunDuration
//   - ScanPhaseDuration: per-datasource phase durations (assemble/cleanup/mediainfo/imagecache)
//   - ScanFilesFound, ScanErrors
//
// ## Classification Metrics
//
//   - FoldersClassified: video folders by kind (single/disc/multi/none)
//   - FilesClassified: files by media file type
//   - MoviesCreated: new movies by seed (nfo/filename/folder)
//   - MoviesRemoved, MediaFilesPruned: orphans dropped by cleanup
//
// ## Task Pool Metrics
//
//   - TasksSubmitted, TasksCompleted (success/panic/abandoned), TaskDuration, PoolWorkers
//
// ## Catalog Metrics
//
// Filled by the [Collector] from a [StatsProvider]:
//
//   - CatalogMovies, CatalogMovieSets, CatalogNewlyAdded, CatalogDuplicates
//   - CatalogMediaFiles by type
//
// ## Store, Inspection, Image Cache and Watcher Metrics
//
//   - DBQueryTotal, DBQueryDuration
//   - InspectionsTotal, InspectionDuration
//   - ImageCacheWrites
//   - WatcherEventsTotal, WatcherErrors, WatchedDirectories
//
// ## Filesystem Metrics
//
// Recorded through the observer returned by [NewFilesystemObserver]:
//
//   - FilesystemOperationDuration, FilesystemOperationErrors
//   - FilesystemRetryEvents: stale, retry, recovered and exhausted steps per volume
//
// # Prometheus Queries
//
// Share of folders resolved as multi-movie folders:
//
//	sum(rate(movie_indexer_folders_classified_total{kind="multi"}[1h])) /
//	sum(rate(movie_indexer_folders_classified_total[1h]))
//
// P95 assembly phase duration:
//
//	histogram_quantile(0.95, sum(rate(movie_indexer_scan_phase_duration_seconds_bucket{phase="assemble"}[1d])) by (le))
//
// Crashed tasks:
//
//	increase(movie_indexer_tasks_completed_total{status="panic"}[1d])
package metrics
