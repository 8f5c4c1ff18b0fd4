package memory

import (
	"context"
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"movie-indexer/internal/logging"
	"movie-indexer/internal/metrics"
)

var log = logging.Named("memory")

// Options configure a Monitor.
type Options struct {
	// Limit in bytes; 0 uses the runtime soft limit.
	Limit int64
	// ResumeAt is the usage ratio below which a pause ends.
	ResumeAt float64
	// PauseAt is the usage ratio at which waiters block.
	PauseAt       float64
	CheckInterval time.Duration
}

// DefaultOptions pause at 85% and resume below 70% of the limit.
func DefaultOptions() Options {
	return Options{
		ResumeAt:      0.7,
		PauseAt:       0.85,
		CheckInterval: 5 * time.Second,
	}
}

// Monitor samples heap usage and blocks waiters while it is above the
// pause mark. Without a limit it never blocks.
type Monitor struct {
	opts  Options
	limit int64
	alloc func() uint64

	mu     sync.Mutex
	usage  float64
	paused bool
	resume chan struct{}
}

// NewMonitor creates a Monitor. Call Run to start sampling.
func NewMonitor(opts Options) *Monitor {
	def := DefaultOptions()
	if opts.PauseAt <= 0 || opts.PauseAt > 1 {
		opts.PauseAt = def.PauseAt
	}
	if opts.ResumeAt <= 0 || opts.ResumeAt >= opts.PauseAt {
		opts.ResumeAt = opts.PauseAt * def.ResumeAt / def.PauseAt
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = def.CheckInterval
	}

	limit := opts.Limit
	if limit <= 0 {
		if current := debug.SetMemoryLimit(-1); current > 0 && current < math.MaxInt64 {
			limit = current
		}
	}
	if limit <= 0 {
		log.Debug("no memory limit configured, backpressure disabled")
	}

	return &Monitor{
		opts:  opts,
		limit: limit,
		alloc: heapAlloc,
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapAlloc
}

// Run samples memory until ctx is done. Waiters are released on return.
func (m *Monitor) Run(ctx context.Context) {
	if m.limit <= 0 {
		return
	}
	ticker := time.NewTicker(m.opts.CheckInterval)
	defer ticker.Stop()
	defer m.release()

	for {
		select {
		case <-ticker.C:
			m.check()
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) check() {
	alloc := m.alloc()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.usage = float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(m.usage)

	switch {
	case !m.paused && m.usage >= m.opts.PauseAt:
		log.Warn("memory critical (%.1f%% of limit), pausing artwork decoding", m.usage*100)
		m.paused = true
		m.resume = make(chan struct{})
		metrics.MemoryPaused.Set(1)
		metrics.MemoryPauses.Inc()
		go runtime.GC()
	case m.paused && m.usage < m.opts.ResumeAt:
		log.Info("memory recovered (%.1f%% of limit), resuming", m.usage*100)
		m.releaseLocked()
	}
}

func (m *Monitor) release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.paused {
		m.releaseLocked()
	}
}

func (m *Monitor) releaseLocked() {
	m.paused = false
	close(m.resume)
	metrics.MemoryPaused.Set(0)
}

// Wait blocks while the monitor is paused. It returns ctx.Err() if ctx
// ends first.
func (m *Monitor) Wait(ctx context.Context) error {
	m.mu.Lock()
	if !m.paused {
		m.mu.Unlock()
		return ctx.Err()
	}
	resume := m.resume
	m.mu.Unlock()

	select {
	case <-resume:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Paused reports whether waiters are currently blocked.
func (m *Monitor) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// Usage returns the last sampled usage ratio; 0 without a limit.
func (m *Monitor) Usage() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usage
}

// Limit returns the limit in bytes the monitor works against.
func (m *Monitor) Limit() int64 {
	return m.limit
}
