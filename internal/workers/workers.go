package workers

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"movie-indexer/internal/logging"
)

const (
	// DefaultScan is the size of the folder assembly pool.
	DefaultScan = 3
	// DefaultMediainfo is the size of the inspection pool.
	DefaultMediainfo = 1
	// MaxScan caps SCAN_WORKERS.
	MaxScan = 16
)

// CPUs returns GOMAXPROCS capped at limit (0 means no cap), at least one.
func CPUs(limit int) int {
	n := runtime.GOMAXPROCS(0)
	if limit > 0 && n > limit {
		n = limit
	}
	return max(n, 1)
}

// FromEnv returns the positive integer in the environment variable name,
// capped by limit when limit > 0. Unset or invalid values yield fallback.
func FromEnv(name string, fallback, limit int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}

	count, err := strconv.Atoi(raw)
	switch {
	case err != nil || count < 1:
		logging.Warn("Invalid %s value %q, using %d", name, raw, fallback)
		return fallback
	case limit > 0 && count > limit:
		logging.Warn("%s=%d exceeds the maximum of %d", name, count, limit)
		return limit
	}
	return count
}

// Scan returns the assembly pool size (SCAN_WORKERS).
func Scan() int {
	return FromEnv("SCAN_WORKERS", DefaultScan, MaxScan)
}

// Mediainfo returns the inspection pool size (MEDIAINFO_WORKERS), capped
// at one per CPU.
func Mediainfo() int {
	return FromEnv("MEDIAINFO_WORKERS", DefaultMediainfo, CPUs(8))
}

// ImageCache returns the number of images resized concurrently.
func ImageCache() int {
	return CPUs(4)
}
