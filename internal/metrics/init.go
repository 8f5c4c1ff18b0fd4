package metrics

import "movie-indexer/internal/filesystem"

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics(volumes []string) {
	for _, status := range []string{"completed", "cancelled", "crashed", "misconfigured"} {
		ScanRunsTotal.WithLabelValues(status)
	}

	for _, phase := range []string{"assemble", "cleanup", "mediainfo", "imagecache"} {
		ScanPhaseDuration.WithLabelValues(phase)
	}

	for _, kind := range []string{"traversal", "nfo", "persist", "inspect", "imagecache"} {
		ScanErrors.WithLabelValues(kind)
	}

	for _, kind := range []string{"single", "disc", "multi", "none"} {
		FoldersClassified.WithLabelValues(kind)
	}

	for _, source := range []string{"nfo", "filename", "folder"} {
		MoviesCreated.WithLabelValues(source)
	}

	for _, pool := range []string{"update", "mediainfo", "imagecache"} {
		TasksSubmitted.WithLabelValues(pool)
		TaskDuration.WithLabelValues(pool)
		TaskPanics.WithLabelValues(pool)
		for _, status := range []string{"success", "panic", "abandoned"} {
			TasksCompleted.WithLabelValues(pool, status)
		}
	}

	for _, status := range []string{"success", "error"} {
		InspectionsTotal.WithLabelValues(status)
	}

	for _, status := range []string{"written", "cached", "error"} {
		ImageCacheWrites.WithLabelValues(status)
	}

	for _, op := range []string{"load", "save_movie", "delete_movie", "save_movie_set", "delete_movie_set", "set_metadata", "vacuum"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	volumes = append(volumes, "unknown")
	for _, vol := range volumes {
		for _, op := range []string{"stat", "readdir", "read", "open"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			for _, event := range []filesystem.RetryEvent{
				filesystem.RetryStale, filesystem.RetryAttempt, filesystem.RetrySucceeded, filesystem.RetryExhausted,
			} {
				FilesystemRetryEvents.WithLabelValues(vol, op, string(event))
			}
		}
	}
}
