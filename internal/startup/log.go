package startup

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"movie-indexer/internal/indexer"
	"movie-indexer/internal/logging"
)

const rule = "------------------------------------------------------------"

// section starts a titled block of the startup log.
func section(title string, args ...interface{}) {
	logging.Info("")
	logging.Info(rule)
	logging.Info(title, args...)
	logging.Info(rule)
}

func printBanner() {
	fmt.Println(`
` + rule + `
    __  ___           _         ____          __
   /  |/  /___ _   __(_)__     /  _/___  ____/ /__  _  _____  _____
  / /|_/ / __ \ | / / / _ \    / // __ \/ __  / _ \| |/_/ _ \/ ___/
 / /  / / /_/ / |/ / /  __/  _/ // / / / /_/ /  __/>  </  __/ /
/_/  /_/\____/|___/_/\___/  /___/_/ /_/\__,_/\___/_/|_|\___/_/

` + rule)
	logging.Info("  Version:    %s (%s, built %s)", Version, Commit, BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
}

func logSystemInfo() {
	section("SYSTEM INFORMATION")
	logging.Info("  Go:          %s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs:        %d (GOMAXPROCS %d)", runtime.NumCPU(), runtime.GOMAXPROCS(0))
	if wd, err := os.Getwd(); err == nil {
		logging.Debug("  Working dir: %s", wd)
	}
	if hostname, err := os.Hostname(); err == nil {
		logging.Debug("  Hostname:    %s", hostname)
	}
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// formatBytes renders n with binary prefixes, e.g. "1.5 MiB".
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	value, prefix := float64(n)/unit, 0
	for value >= unit && prefix < 5 {
		value /= unit
		prefix++
	}
	return fmt.Sprintf("%.1f %ciB", value, "KMGTPE"[prefix])
}

// LogDatabaseInit logs the database open and catalog load.
func LogDatabaseInit(duration time.Duration, movies int) {
	section("DATABASE")
	logging.Info("  [OK] Opened in %v, %d movies loaded", duration.Round(time.Millisecond), movies)
}

// LogInspectorInit checks ffprobe and reports whether media inspection is
// available.
func LogInspectorInit(path string) bool {
	section("MEDIAINFO")
	if err := checkFFprobe(path); err != nil {
		logging.Warn("  ffprobe unavailable, media files will not be inspected: %v", err)
		return false
	}
	logging.Info("  [OK] ffprobe is available")
	return true
}

// LogImageCacheInit logs the current size of the image cache.
func LogImageCacheInit(enabled bool, files int, bytes int64) {
	if !enabled {
		logging.Info("  Image cache: %s", enabledString(false))
		return
	}
	logging.Info("  Image cache: %d files, %s", files, formatBytes(bytes))
}

// LogIndexerInit logs the scanner settings.
func LogIndexerInit(config *Config) {
	section("INDEXER")
	logging.Info("  Datasources:       %d", len(config.Datasources))
	logging.Info("  Scan workers:      %d", config.ScanWorkers)
	logging.Info("  Mediainfo workers: %d", config.MediainfoWorkers)
	if config.Watch {
		logging.Info("  Watch debounce:    %v", config.WatchDebounce)
	}
}

// LogIndexerReport logs the outcome of a finished pass.
func LogIndexerReport(r *indexer.Report) {
	t := r.Totals()
	logging.Info("[OK] Pass finished in %v: %d movies, %d created, %d updated, %d removed, %d duplicates",
		r.Duration.Round(time.Millisecond), r.Movies, t.MoviesCreated, t.MoviesUpdated, t.MoviesRemoved, r.Duplicates)
	for _, ds := range r.Datasources {
		if ds.Unavailable {
			logging.Warn("  %s: unavailable", ds.Path)
			continue
		}
		logging.Info("  %s: %d video folders, %d files, %d inspected, %d errors (%v)",
			ds.Path, ds.VideoFolders, ds.FilesFound, ds.Inspected, ds.Errors, ds.Duration.Round(time.Millisecond))
	}
	if r.Cancelled {
		logging.Warn("  Pass was cancelled before completion")
	}
}

// ServerConfig is what LogServerStarted reports.
type ServerConfig struct {
	MetricsPort     string
	MetricsEnabled  bool
	Watch           bool
	StartupDuration time.Duration
}

// LogServerStarted closes the startup log.
func LogServerStarted(config ServerConfig) {
	section("INDEXER STARTED in %v", config.StartupDuration.Round(time.Millisecond))
	if config.MetricsEnabled {
		base := "http://0.0.0.0:" + config.MetricsPort
		logging.Info("  Metrics:      %s/metrics", base)
		logging.Info("  Health:       %s/healthz", base)
		logging.Info("  Scan trigger: POST %s/api/scan", base)
	} else {
		logging.Info("  Control server: %s", enabledString(false))
	}
	logging.Info("  Watch mode:     %s", enabledString(config.Watch))
	if config.Watch || config.MetricsEnabled {
		logging.Info("  Press Ctrl+C to stop")
	}
	logging.Info(rule)
}

// LogShutdownInitiated logs the signal that started the shutdown.
func LogShutdownInitiated(signal string) {
	section("SHUTDOWN (received %s)", signal)
}

// LogShutdownStep logs a shutdown step at debug.
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step.
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs the end of the shutdown.
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs and exits with status 1.
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}
