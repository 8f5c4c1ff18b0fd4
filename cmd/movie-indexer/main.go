package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"movie-indexer/internal/catalog"
	"movie-indexer/internal/database"
	"movie-indexer/internal/filesystem"
	"movie-indexer/internal/handlers"
	"movie-indexer/internal/imagecache"
	"movie-indexer/internal/indexer"
	"movie-indexer/internal/logging"
	"movie-indexer/internal/mediainfo"
	"movie-indexer/internal/memory"
	"movie-indexer/internal/messages"
	"movie-indexer/internal/metrics"
	"movie-indexer/internal/middleware"
	"movie-indexer/internal/nfo"
	"movie-indexer/internal/startup"
	"movie-indexer/internal/watcher"
	"movie-indexer/internal/workers"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

const (
	// Retry interval for watched changes arriving during a running pass.
	busyRetryInterval = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	command, args, err := parseCommand(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		printUsage()
		os.Exit(2)
	}
	if command == "help" {
		printUsage()
		return
	}

	startTime := time.Now()
	memory.ConfigureLimit()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	a, err := newApp(ctx, config)
	if err != nil {
		startup.LogFatal("Initialization failed: %v", err)
	}

	switch command {
	case "run":
		err = a.run(ctx, startTime)
	case "scan":
		err = a.scan(ctx)
	case "status":
		err = a.printStatus(ctx, os.Stdout)
	case "commit":
		err = a.cat.CommitNewlyAdded(ctx)
	case "remove-datasource":
		err = a.cat.RemoveDatasource(ctx, filepath.Clean(args[0]))
	}

	a.close()
	if err != nil && !errors.Is(err, context.Canceled) {
		startup.LogFatal("%s failed: %v", command, err)
	}
	startup.LogShutdownComplete()
}

// parseCommand validates the command line. No arguments means "run".
func parseCommand(args []string) (string, []string, error) {
	if len(args) == 0 {
		return "run", nil, nil
	}
	switch args[0] {
	case "run", "scan", "status", "commit":
		if len(args) > 1 {
			return "", nil, fmt.Errorf("%s takes no arguments", args[0])
		}
		return args[0], nil, nil
	case "remove-datasource":
		if len(args) != 2 || args[1] == "" {
			return "", nil, fmt.Errorf("remove-datasource needs exactly one path")
		}
		return args[0], args[1:], nil
	case "help", "-h", "--help":
		return "help", nil, nil
	default:
		return "", nil, fmt.Errorf("unknown command %q", sanitizeCommand(args[0]))
	}
}

// sanitizeCommand keeps only [a-zA-Z0-9_-] of user input echoed back.
func sanitizeCommand(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '-' || r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			out = append(out, r)
		}
	}
	return string(out)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: movie-indexer [command]

Commands:
  run                       Scan all datasources, then serve metrics and watch for changes (default)
  scan                      Scan all datasources once and exit
  status                    Show catalog statistics
  commit                    Clear the newly-added flag of all movies
  remove-datasource <path>  Remove all movies of a datasource from the catalog
  help                      Show this help

Configuration is read from the environment; see MOVIE_DATASOURCES.`)
}

func handleSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	startup.LogShutdownInitiated(sig.String())
	cancel()
}

// app wires the catalog, its store and the indexer.
type app struct {
	config   *startup.Config
	db       *database.Database
	cat      *catalog.Catalog
	idx      *indexer.Indexer
	monitor  *memory.Monitor
	progress *progressLine
}

func newApp(ctx context.Context, config *startup.Config) (*app, error) {
	metrics.InitializeMetrics(config.Datasources)
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.VolumeResolverForDatasources(config.Datasources))

	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	cat := catalog.New(db)
	if err := cat.Load(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart), cat.Len())

	a := &app{
		config:  config,
		db:      db,
		cat:     cat,
		monitor: memory.NewMonitor(memory.DefaultOptions()),
	}

	deps := indexer.Dependencies{
		NFO:  nfo.NewReader(config.NFOConnector),
		Sink: messages.LogSink{},
	}
	if startup.LogInspectorInit(config.FFprobePath) {
		deps.Inspector = mediainfo.New(config.FFprobePath)
	}

	if config.ImageCacheEnabled {
		cache, err := imagecache.New(config.ImageCacheDir, imagecache.Options{
			Workers: workers.ImageCache(),
			Gate:    a.monitor,
		})
		if err != nil {
			logging.Warn("Image cache unavailable: %v", err)
		} else {
			files, size, err := cache.Size()
			if err != nil {
				logging.Debug("Failed to measure image cache: %v", err)
			}
			startup.LogImageCacheInit(true, files, size)
			deps.ImageCache = cache
		}
	} else {
		startup.LogImageCacheInit(false, 0, 0)
	}

	if fd := int(os.Stderr.Fd()); term.IsTerminal(fd) {
		a.progress = newProgressLine(os.Stderr, func() int {
			width, _, err := term.GetSize(fd)
			if err != nil {
				return 0
			}
			return width
		})
		deps.Sink = messages.Multi{messages.LogSink{}, a.progress}
	}

	startup.LogIndexerInit(config)
	a.idx = indexer.New(cat, config.IndexerOptions(), deps)
	a.idx.SetOnComplete(a.passComplete)

	return a, nil
}

func (a *app) passComplete(r *indexer.Report) {
	if a.progress != nil {
		a.progress.Clear()
	}
	startup.LogIndexerReport(r)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	finished := r.StartedAt.Add(r.Duration)
	if !r.Cancelled {
		if err := a.db.SetLastUpdate(ctx, finished); err != nil {
			logging.Warn("Failed to record last update: %v", err)
		}
	}
	for _, ds := range r.Datasources {
		if ds.Unavailable || r.Cancelled {
			continue
		}
		if err := a.db.SetDatasourceUpdate(ctx, ds.Path, finished); err != nil {
			logging.Warn("Failed to record update of %s: %v", ds.Path, err)
		}
	}
	a.db.UpdateDBMetrics()
}

// scan runs one pass over all datasources.
func (a *app) scan(ctx context.Context) error {
	_, err := a.idx.UpdateDatasources(ctx)
	switch {
	case errors.Is(err, indexer.ErrNoDatasources):
		logging.Warn("Nothing to scan: set MOVIE_DATASOURCES")
		return nil
	case errors.Is(err, indexer.ErrScanInProgress):
		logging.Info("Scan skipped: %v", err)
		return nil
	}
	return err
}

// updateWhenIdle is the watcher trigger. A change seen during a running
// pass is retried until the pass is over.
func (a *app) updateWhenIdle(ctx context.Context, ds string) error {
	for {
		_, err := a.idx.UpdateDatasource(ctx, ds)
		if !errors.Is(err, indexer.ErrScanInProgress) {
			return err
		}
		logging.Debug("Update of %s deferred, pass in progress", ds)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(busyRetryInterval):
		}
	}
}

// run performs the initial pass and keeps serving until ctx ends. With
// neither watch mode nor the metrics server it returns after the pass.
func (a *app) run(ctx context.Context, startTime time.Time) error {
	config := a.config
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		metrics.NewCollector(a.cat, time.Minute).Run(ctx)
		return nil
	})

	g.Go(func() error {
		a.monitor.Run(ctx)
		return nil
	})

	g.Go(func() error {
		err := a.scan(ctx)
		if !config.Watch && !config.MetricsEnabled {
			stop()
		}
		if err != nil {
			logging.Error("Initial scan failed: %v", err)
		}
		return nil
	})

	if config.Watch {
		w, err := watcher.New(config.Datasources, filesystem.NewPathFilter(config.SkipFolders),
			config.WatchDebounce, a.updateWhenIdle)
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		g.Go(func() error {
			return w.Run(ctx)
		})
	}

	var h *handlers.Handlers
	if config.MetricsEnabled {
		h = handlers.New(ctx, a.idx, a.cat)
		router := setupRouter(h)
		startup.LogHTTPRoutes(router)

		srv := &http.Server{
			Addr:              ":" + config.MetricsPort,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		g.Go(func() error {
			return serve(ctx, srv)
		})
	}

	startup.LogServerStarted(startup.ServerConfig{
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		Watch:           config.Watch,
		StartupDuration: time.Since(startTime),
	})

	err := g.Wait()

	if h != nil {
		startup.LogShutdownStep("Waiting for triggered scans")
		h.Wait()
		startup.LogShutdownStepComplete("Triggered scans finished")
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(), middleware.Logger(middleware.DefaultLoggingConfig()))

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/scan", h.GetScanStatus).Methods(http.MethodGet)
	api.HandleFunc("/scan", h.TriggerScan).Methods(http.MethodPost)

	return r
}

// serve runs srv until ctx ends, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
		return nil
	}
	startup.LogShutdownStepComplete("HTTP server stopped")
	return nil
}

func (a *app) printStatus(ctx context.Context, out io.Writer) error {
	stats := a.cat.Stats()

	fmt.Fprintf(out, "Movies:       %d\n", stats.Movies)
	fmt.Fprintf(out, "Movie sets:   %d\n", stats.MovieSets)
	fmt.Fprintf(out, "Newly added:  %d\n", stats.NewlyAdded)
	fmt.Fprintf(out, "Duplicates:   %d\n", stats.Duplicates)

	last, err := a.db.GetLastUpdate(ctx)
	if err != nil {
		return fmt.Errorf("read last update: %w", err)
	}
	if last.IsZero() {
		fmt.Fprintln(out, "Last update:  never")
	} else {
		fmt.Fprintf(out, "Last update:  %s\n", last.Format(time.RFC1123))
	}

	updates, err := a.db.DatasourceUpdates(ctx)
	if err != nil {
		return fmt.Errorf("read datasource updates: %w", err)
	}
	for _, ds := range a.config.Datasources {
		scanned := "never scanned"
		if at, ok := updates[ds]; ok {
			scanned = "scanned " + at.Format(time.RFC1123)
		}
		fmt.Fprintf(out, "  %s: %d movies, %s\n", ds, len(a.cat.ByDatasource(ds)), scanned)
	}
	return nil
}

func (a *app) close() {
	startup.LogShutdownStep("Closing database")
	if err := a.db.Close(); err != nil {
		logging.Warn("Failed to close database: %v", err)
		return
	}
	startup.LogShutdownStepComplete("Database closed")
}
