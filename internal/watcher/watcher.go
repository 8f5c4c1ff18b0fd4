package watcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"movie-indexer/internal/filesystem"
	"movie-indexer/internal/logging"
	"movie-indexer/internal/metrics"
)

var log = logging.Named("watcher")

// DefaultDebounce is used when no debounce interval is configured.
const DefaultDebounce = 30 * time.Second

// Trigger is called with the datasource whose tree changed. Calls are
// sequential.
type Trigger func(ctx context.Context, datasource string) error

// Watcher watches all directories below a set of datasources.
type Watcher struct {
	datasources []string
	filter      *filesystem.PathFilter
	debounce    time.Duration
	trigger     Trigger

	fs *fsnotify.Watcher

	mu      sync.Mutex
	timers  map[string]*time.Timer
	watched int

	due chan string
}

// New creates a watcher. Nothing is watched before Run.
func New(datasources []string, filter *filesystem.PathFilter, debounce time.Duration, trigger Trigger) (*Watcher, error) {
	if trigger == nil {
		return nil, errors.New("watcher: nil trigger")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if filter == nil {
		filter = filesystem.NewPathFilter(nil)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		metrics.WatcherErrors.Inc()
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	dss := make([]string, 0, len(datasources))
	for _, ds := range datasources {
		if strings.TrimSpace(ds) != "" {
			dss = append(dss, filepath.Clean(ds))
		}
	}

	return &Watcher{
		datasources: dss,
		filter:      filter,
		debounce:    debounce,
		trigger:     trigger,
		fs:          fsw,
		timers:      make(map[string]*time.Timer),
		due:         make(chan string, len(dss)+1),
	}, nil
}

// Run watches until ctx is done and returns nil then.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.fs.Close(); err != nil {
			log.Error("failed to close file watcher: %v", err)
		}
	}()

	for _, ds := range w.datasources {
		w.addTree(ds)
	}
	log.Info("Watching %d directories below %d datasources", w.Watched(), len(w.datasources))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.dispatch(ctx)
	}()
	defer wg.Wait()
	defer w.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			log.Error("Watcher error: %v", err)
			metrics.WatcherErrors.Inc()
		}
	}
}

// Watched returns the number of watched directories.
func (w *Watcher) Watched() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watched
}

// addTree adds dir and every directory below it that a scan would enter.
func (w *Watcher) addTree(dir string) {
	err := filesystem.Walk(dir, 0, func(ev filesystem.Event, e filesystem.Entry) filesystem.Action {
		switch ev {
		case filesystem.PreVisitDir:
			if e.Depth > 0 && w.filter.ShouldSkip(e.Path, true) {
				return filesystem.SkipSubtree
			}
			if err := w.fs.Add(e.Path); err != nil {
				log.Warn("failed to add path to watcher %s: %v", e.Path, err)
				metrics.WatcherErrors.Inc()
				return filesystem.Continue
			}
			w.mu.Lock()
			w.watched++
			metrics.WatchedDirectories.Set(float64(w.watched))
			w.mu.Unlock()
		case filesystem.VisitFailed:
			log.Debug("cannot watch %s: %v", e.Path, e.Err)
		}
		return filesystem.Continue
	})
	if err != nil {
		log.Warn("failed to walk %s for watcher: %v", dir, err)
		metrics.WatcherErrors.Inc()
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}
	if w.filter.ShouldSkipName(filepath.Base(event.Name), false) {
		return
	}

	metrics.WatcherEventsTotal.WithLabelValues(eventType(event.Op)).Inc()

	ds := w.datasourceOf(event.Name)
	if ds == "" {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		info, err := filesystem.StatWithRetry(event.Name, filesystem.DefaultRetryConfig())
		if err == nil && info.IsDir() && !w.filter.ShouldSkip(event.Name, true) {
			log.Debug("Added new directory to watcher: %s", event.Name)
			w.addTree(event.Name)
		}
	}

	w.schedule(ds)
}

// schedule (re)starts the debounce timer of ds.
func (w *Watcher) schedule(ds string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[ds]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[ds] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, ds)
		w.mu.Unlock()

		select {
		case w.due <- ds:
		default:
			// already queued
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for ds, t := range w.timers {
		t.Stop()
		delete(w.timers, ds)
	}
}

func (w *Watcher) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ds := <-w.due:
			log.Info("Changes below %s, updating datasource", ds)
			if err := w.trigger(ctx, ds); err != nil {
				log.Warn("update of %s after change failed: %v", ds, err)
			}
		}
	}
}

// datasourceOf returns the datasource containing path, preferring the
// most specific one, or "".
func (w *Watcher) datasourceOf(path string) string {
	best := ""
	for _, ds := range w.datasources {
		rel, err := filepath.Rel(ds, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if len(ds) > len(best) {
			best = ds
		}
	}
	return best
}

func eventType(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	default:
		return "unknown"
	}
}
