package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"movie-indexer/internal/logging"
)

// VolumeResolver maps paths to datasource labels for metric labeling using
// longest-prefix matching on absolute paths.
type VolumeResolver struct {
	mounts []volumeMount // longest path first
}

type volumeMount struct {
	path string // absolute, with trailing separator
	name string
}

// NewVolumeResolver creates a resolver from a map of label to root path.
//
//	NewVolumeResolver(map[string]string{
//	    "movies": "/mnt/movies",
//	    "kids":   "/mnt/kids",
//	})
func NewVolumeResolver(volumes map[string]string) *VolumeResolver {
	mounts := make([]volumeMount, 0, len(volumes))
	for name, path := range volumes {
		absPath, err := filepath.Abs(path)
		if err != nil {
			absPath = path
		}
		if !strings.HasSuffix(absPath, string(filepath.Separator)) {
			absPath += string(filepath.Separator)
		}
		mounts = append(mounts, volumeMount{path: absPath, name: name})
	}

	sort.Slice(mounts, func(i, j int) bool {
		return len(mounts[i].path) > len(mounts[j].path)
	})

	return &VolumeResolver{mounts: mounts}
}

// VolumeResolverForDatasources labels every datasource with its base name.
func VolumeResolverForDatasources(datasources []string) *VolumeResolver {
	volumes := make(map[string]string, len(datasources))
	for _, ds := range datasources {
		volumes[filepath.Base(ds)] = ds
	}
	return NewVolumeResolver(volumes)
}

// Resolve returns the label for path, or "unknown".
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return "unknown"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "unknown"
	}

	withSep := absPath + string(filepath.Separator)
	for _, mount := range vr.mounts {
		if strings.HasPrefix(withSep, mount.path) {
			return mount.name
		}
	}

	return "unknown"
}

var defaultResolver *VolumeResolver

// SetDefaultVolumeResolver sets the package-level volume resolver.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	defaultResolver = vr
}

// RetryConfig configures retry behavior for filesystem operations
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// VolumeResolver overrides the package-level resolver when set.
	VolumeResolver *VolumeResolver
}

// DefaultRetryConfig returns the defaults used for NFS-mounted datasources.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (c *RetryConfig) resolveVolume(path string) string {
	if c.VolumeResolver != nil {
		return c.VolumeResolver.Resolve(path)
	}
	return defaultResolver.Resolve(path)
}

// isNFSStaleError reports whether err is ESTALE (errno 116 on Linux).
func isNFSStaleError(err error) bool {
	if err == nil {
		return false
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}
	return false
}

// withRetry runs fn until it succeeds, fails with an error other than
// ESTALE, or MaxRetries is used up. The backoff doubles up to MaxBackoff.
func withRetry[T any](op, path string, config RetryConfig, fn func() (T, error)) (T, error) {
	volume := config.resolveVolume(path)
	obs := defaultObserver
	backoff := config.InitialBackoff

	var zero T
	for attempt := 0; ; attempt++ {
		began := time.Now()
		v, err := fn()
		obs.ObserveOperation(volume, op, time.Since(began), err)
		switch {
		case err == nil:
			if attempt > 0 {
				logging.Info("NFS %s recovered after %d retries for %s", op, attempt, path)
				obs.ObserveRetry(volume, op, RetrySucceeded)
			}
			return v, nil
		case !isNFSStaleError(err):
			return zero, err
		}

		obs.ObserveRetry(volume, op, RetryStale)
		if attempt >= config.MaxRetries {
			logging.Warn("NFS %s gave up after %d retries for %s: %v", op, config.MaxRetries, path, err)
			obs.ObserveRetry(volume, op, RetryExhausted)
			return zero, err
		}

		obs.ObserveRetry(volume, op, RetryAttempt)
		logging.Debug("NFS %s stale handle on %s, retry %d/%d in %v", op, path, attempt+1, config.MaxRetries, backoff)
		time.Sleep(backoff)
		backoff = min(backoff*2, config.MaxBackoff)
	}
}

// StatWithRetry performs os.Stat, retrying on stale NFS handles. Symlinks
// are followed.
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	return withRetry("stat", path, config, func() (os.FileInfo, error) {
		return os.Stat(path)
	})
}

// ReadDirWithRetry performs os.ReadDir, retrying on stale NFS handles.
func ReadDirWithRetry(path string, config RetryConfig) ([]fs.DirEntry, error) {
	return withRetry("readdir", path, config, func() ([]fs.DirEntry, error) {
		return os.ReadDir(path)
	})
}

// ReadFileWithRetry performs os.ReadFile, retrying on stale NFS handles.
func ReadFileWithRetry(path string, config RetryConfig) ([]byte, error) {
	return withRetry("read", path, config, func() ([]byte, error) {
		return os.ReadFile(path)
	})
}

// OpenWithRetry performs os.Open, retrying on stale NFS handles.
func OpenWithRetry(path string, config RetryConfig) (*os.File, error) {
	return withRetry("open", path, config, func() (*os.File, error) {
		return os.Open(path)
	})
}

// Exists reports whether path can be stat'ed. Any error other than
// non-existence counts as existing, so unreadable paths are never treated
// as orphans.
func Exists(path string) bool {
	_, err := StatWithRetry(path, DefaultRetryConfig())
	if err == nil {
		return true
	}
	return !errors.Is(err, fs.ErrNotExist)
}
