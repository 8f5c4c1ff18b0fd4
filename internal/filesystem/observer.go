package filesystem

import "time"

// RetryEvent is one step of a stale-handle retry loop.
type RetryEvent string

const (
	RetryStale     RetryEvent = "stale"
	RetryAttempt   RetryEvent = "retry"
	RetrySucceeded RetryEvent = "recovered"
	RetryExhausted RetryEvent = "exhausted"
)

// Observer receives datasource I/O measurements. metrics.NewFilesystemObserver
// is the Prometheus implementation; this package never imports metrics.
type Observer interface {
	// ObserveOperation is called once per underlying syscall wrapper.
	// volume is the label resolved by the VolumeResolver.
	ObserveOperation(volume, operation string, took time.Duration, err error)
	ObserveRetry(volume, operation string, event RetryEvent)
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, string, time.Duration, error) {}
func (nopObserver) ObserveRetry(string, string, RetryEvent)              {}

var defaultObserver Observer = nopObserver{}

// SetObserver installs o for all retry helpers. nil restores the no-op.
func SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	defaultObserver = o
}
