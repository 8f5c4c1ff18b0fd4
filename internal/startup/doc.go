// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// The following environment variables are supported:
//
//   - MOVIE_DATASOURCES: Datasource roots, separated by the OS path list separator
//   - MOVIE_SKIP_FOLDERS: Absolute paths excluded from scanning, same separator
//   - VIDEO_EXTENSIONS, AUDIO_EXTENSIONS, SUBTITLE_EXTENSIONS, IMAGE_EXTENSIONS:
//     Comma separated overrides of the built-in extension tables
//   - NFO_CONNECTOR: Preferred NFO dialect, kodi or mp (default: kodi)
//   - BUILD_IMAGE_CACHE: Cache movie artwork after every pass (default: false)
//   - CACHE_DIR: Path to cache directory (default: /cache)
//   - DATABASE_DIR: Path to database directory (default: /database)
//   - FFPROBE_PATH: ffprobe binary used for media inspection (default: ffprobe)
//   - SCAN_WORKERS: Movie assembly pool size (default: 3)
//   - MEDIAINFO_WORKERS: Media inspection pool size (default: 1)
//   - METRICS_ENABLED: Enable or disable the metrics server (default: true)
//   - METRICS_PORT: Port for /metrics, /healthz and /api/scan (default: 9090)
//   - WATCH: Re-scan datasources on filesystem changes (default: false)
//   - WATCH_DEBOUNCE: Quiet period before a watched change triggers a scan (default: 30s)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//
// Invalid values log a warning and fall back to their defaults. The scanner
// never reads the environment; it receives [Config.IndexerOptions].
//
// # Directory Setup
//
//   - Database directory: Required, created if missing, must be writable
//   - Image cache directory: Optional, created below CACHE_DIR when BUILD_IMAGE_CACHE is set
//   - Datasources: Checked but never created (should be mounted)
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Example Usage
//
//	config, err := startup.LoadConfig()
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//
//	startup.LogIndexerInit(config)
//	idx := indexer.New(cat, config.IndexerOptions(), deps)
//
//	// On shutdown...
//	startup.LogShutdownInitiated("SIGTERM")
//	startup.LogShutdownComplete()
package startup
