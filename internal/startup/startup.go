package startup

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"movie-indexer/internal/indexer"
	"movie-indexer/internal/logging"
	"movie-indexer/internal/mediatypes"
	"movie-indexer/internal/nfo"
	"movie-indexer/internal/watcher"
	"movie-indexer/internal/workers"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration
type Config struct {
	Datasources      []string
	SkipFolders      []string
	Extensions       mediatypes.Extensions
	NFOConnector     nfo.Dialect
	BuildImageCache  bool
	CacheDir         string
	DatabaseDir      string
	FFprobePath      string
	ScanWorkers      int
	MediainfoWorkers int
	MetricsEnabled   bool
	MetricsPort      string
	Watch            bool
	WatchDebounce    time.Duration

	// Derived paths
	DatabasePath  string
	ImageCacheDir string

	// Feature flags based on directory availability
	ImageCacheEnabled bool
}

// IndexerOptions converts the configuration into scanner options.
func (c *Config) IndexerOptions() indexer.Options {
	return indexer.Options{
		Datasources:      append([]string(nil), c.Datasources...),
		SkipFolders:      append([]string(nil), c.SkipFolders...),
		Extensions:       c.Extensions,
		Workers:          c.ScanWorkers,
		MediainfoWorkers: c.MediainfoWorkers,
		BuildImageCache:  c.BuildImageCache && c.ImageCacheEnabled,
	}
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()
	return loadConfig()
}

func loadConfig() (*Config, error) {
	section("CONFIGURATION")

	datasources := getEnvList("MOVIE_DATASOURCES")
	skipFolders := getEnvList("MOVIE_SKIP_FOLDERS")
	nfoConnector := getEnv("NFO_CONNECTOR", string(nfo.Kodi))
	buildImageCache := getEnvBool("BUILD_IMAGE_CACHE", false)
	cacheDir := getEnv("CACHE_DIR", "/cache")
	databaseDir := getEnv("DATABASE_DIR", "/database")
	ffprobePath := getEnv("FFPROBE_PATH", "ffprobe")
	metricsPort := getEnv("METRICS_PORT", "9090")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	watch := getEnvBool("WATCH", false)
	watchDebounce := getEnvDuration("WATCH_DEBOUNCE", watcher.DefaultDebounce)
	scanWorkers := workers.Scan()
	mediainfoWorkers := workers.Mediainfo()

	extensions := mediatypes.NewExtensions(
		getEnvExtensions("VIDEO_EXTENSIONS", mediatypes.VideoExtensions),
		getEnvExtensions("AUDIO_EXTENSIONS", mediatypes.AudioExtensions),
		getEnvExtensions("SUBTITLE_EXTENSIONS", mediatypes.SubtitleExtensions),
		getEnvExtensions("IMAGE_EXTENSIONS", mediatypes.ImageExtensions),
	)

	logging.Info("  MOVIE_DATASOURCES:   %s", strings.Join(datasources, ", "))
	logging.Info("  MOVIE_SKIP_FOLDERS:  %s", strings.Join(skipFolders, ", "))
	logging.Info("  NFO_CONNECTOR:       %s", nfo.ParseDialect(nfoConnector))
	logging.Info("  BUILD_IMAGE_CACHE:   %v", buildImageCache)
	logging.Info("  CACHE_DIR:           %s", cacheDir)
	logging.Info("  DATABASE_DIR:        %s", databaseDir)
	logging.Info("  FFPROBE_PATH:        %s", ffprobePath)
	logging.Info("  SCAN_WORKERS:        %d", scanWorkers)
	logging.Info("  MEDIAINFO_WORKERS:   %d", mediainfoWorkers)
	logging.Info("  METRICS_PORT:        %s", metricsPort)
	logging.Info("  METRICS_ENABLED:     %v", metricsEnabled)
	logging.Info("  WATCH:               %v", watch)
	logging.Info("  WATCH_DEBOUNCE:      %v", watchDebounce)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())
	logging.Debug("  Extensions: %d video, %d audio, %d subtitle, %d image",
		len(extensions.Video), len(extensions.Audio), len(extensions.Subtitle), len(extensions.Image))

	section("DIRECTORY SETUP")

	dirs := []string{cacheDir, databaseDir}
	if err := absPaths(datasources, skipFolders, dirs); err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}
	cacheDir, databaseDir = dirs[0], dirs[1]
	logging.Info("  Cache directory:    %s", cacheDir)
	logging.Info("  Database directory: %s", databaseDir)

	if len(datasources) == 0 {
		logging.Warn("  No datasources configured (set MOVIE_DATASOURCES)")
	}
	// Datasources are checked but never created; an unmounted one is
	// skipped by the scanner without touching its movies.
	for _, ds := range datasources {
		if err := checkDatasource(ds); err != nil {
			logging.Warn("  Datasource %s: %v", ds, err)
		} else {
			logging.Info("  Datasource: %s", ds)
		}
	}

	config := &Config{
		Datasources:      datasources,
		SkipFolders:      skipFolders,
		Extensions:       extensions,
		NFOConnector:     nfo.ParseDialect(nfoConnector),
		BuildImageCache:  buildImageCache,
		CacheDir:         cacheDir,
		DatabaseDir:      databaseDir,
		FFprobePath:      ffprobePath,
		ScanWorkers:      scanWorkers,
		MediainfoWorkers: mediainfoWorkers,
		MetricsEnabled:   metricsEnabled,
		MetricsPort:      metricsPort,
		Watch:            watch,
		WatchDebounce:    watchDebounce,
		DatabasePath:     filepath.Join(databaseDir, "movies.db"),
		ImageCacheDir:    filepath.Join(cacheDir, "imagecache"),
	}

	if err := ensureDirectory(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory: %w", err)
	}
	if err := checkWritable(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable: %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	if buildImageCache {
		config.ImageCacheEnabled = setupOptionalDir(config.ImageCacheDir, "image cache")
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Database:    ENABLED (required)")
	logging.Info("    Image cache: %s", enabledString(config.ImageCacheEnabled))
	logging.Info("    Watch mode:  %s", enabledString(config.Watch))
	logging.Info("    Metrics:     %s", enabledString(config.MetricsEnabled))

	return config, nil
}
