package metrics

import (
	"time"

	"movie-indexer/internal/filesystem"
)

type filesystemObserver struct{}

// NewFilesystemObserver returns the Prometheus-backed filesystem.Observer.
// main installs it with filesystem.SetObserver before the first pass.
func NewFilesystemObserver() filesystem.Observer {
	return filesystemObserver{}
}

func (filesystemObserver) ObserveOperation(volume, operation string, took time.Duration, err error) {
	FilesystemOperationDuration.WithLabelValues(volume, operation).Observe(took.Seconds())
	if err != nil {
		FilesystemOperationErrors.WithLabelValues(volume, operation).Inc()
	}
}

func (filesystemObserver) ObserveRetry(volume, operation string, event filesystem.RetryEvent) {
	FilesystemRetryEvents.WithLabelValues(volume, operation, string(event)).Inc()
}
