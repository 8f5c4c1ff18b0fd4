package indexer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"movie-indexer/internal/catalog"
	"movie-indexer/internal/filesystem"
	"movie-indexer/internal/logging"
	"movie-indexer/internal/mediatypes"
	"movie-indexer/internal/messages"
	"movie-indexer/internal/metrics"
)

var (
	// ErrNoDatasources is returned when a pass has nothing to scan.
	ErrNoDatasources = errors.New("no datasource specified")
	// ErrScanInProgress is returned when a pass is already running.
	ErrScanInProgress = errors.New("datasource update already in progress")
	// ErrPassCrashed is returned when a pass was aborted by a panic.
	ErrPassCrashed = errors.New("datasource update crashed")
)

var log = logging.Named("indexer")

// Depth of the recursive listing below a movie directory; deep enough for
// Movie/BDMV/STREAM/00000.m2ts.
const movieDirDepth = 3

// Indexer updates the catalog from the configured datasources.
type Indexer struct {
	catalog    *catalog.Catalog
	opts       Options
	classifier *mediatypes.Classifier
	filter     *filesystem.PathFilter

	nfo       MovieReader
	inspector Inspector
	images    ImageCacher
	sink      messages.Sink

	runMu      sync.Mutex
	running    bool
	lastReport *Report
	onComplete func(*Report)
}

// New creates an Indexer working on c.
func New(c *catalog.Catalog, opts Options, deps Dependencies) *Indexer {
	if opts.Workers < 1 {
		opts.Workers = 3
	}
	if opts.MediainfoWorkers < 1 {
		opts.MediainfoWorkers = 1
	}
	if opts.Extensions.Video == nil {
		opts.Extensions = mediatypes.DefaultExtensions()
	}

	sink := deps.Sink
	if sink == nil {
		sink = messages.LogSink{}
	}

	return &Indexer{
		catalog:    c,
		opts:       opts,
		classifier: mediatypes.NewClassifier(opts.Extensions),
		filter:     filesystem.NewPathFilter(opts.SkipFolders),
		nfo:        deps.NFO,
		inspector:  deps.Inspector,
		images:     deps.ImageCache,
		sink:       sink,
	}
}

// SetOnComplete sets a callback invoked after every finished pass.
func (idx *Indexer) SetOnComplete(callback func(*Report)) {
	idx.runMu.Lock()
	defer idx.runMu.Unlock()
	idx.onComplete = callback
}

// Datasources returns the configured datasource roots.
func (idx *Indexer) Datasources() []string {
	return append([]string(nil), idx.opts.Datasources...)
}

// IsRunning reports whether a pass is in progress.
func (idx *Indexer) IsRunning() bool {
	idx.runMu.Lock()
	defer idx.runMu.Unlock()
	return idx.running
}

// LastReport returns the report of the last finished pass, or nil.
func (idx *Indexer) LastReport() *Report {
	idx.runMu.Lock()
	defer idx.runMu.Unlock()
	return idx.lastReport
}

// UpdateDatasources scans all configured datasources.
func (idx *Indexer) UpdateDatasources(ctx context.Context) (*Report, error) {
	return idx.update(ctx, idx.opts.Datasources)
}

// UpdateDatasource scans a single datasource.
func (idx *Indexer) UpdateDatasource(ctx context.Context, ds string) (*Report, error) {
	return idx.update(ctx, []string{ds})
}

func (idx *Indexer) update(ctx context.Context, datasources []string) (report *Report, err error) {
	var dss []string
	for _, ds := range datasources {
		if strings.TrimSpace(ds) != "" {
			dss = append(dss, filepath.Clean(ds))
		}
	}
	if len(dss) == 0 {
		log.Info("no datasource to update")
		idx.sink.Push(messages.New(messages.Error, "update.datasource", "update.datasource.nonespecified"))
		metrics.ScanRunsTotal.WithLabelValues("misconfigured").Inc()
		return nil, ErrNoDatasources
	}

	if !idx.tryStart() {
		return nil, ErrScanInProgress
	}
	defer idx.finish()

	metrics.ScanIsRunning.Set(1)
	defer metrics.ScanIsRunning.Set(0)

	report = &Report{StartedAt: time.Now()}
	status := "completed"

	defer func() {
		if r := recover(); r != nil {
			log.Error("datasource update crashed: %v", r)
			idx.sink.Push(messages.New(messages.Error, "update.datasource", "message.update.threadcrashed"))
			status = "crashed"
			err = fmt.Errorf("%w: %v", ErrPassCrashed, r)
		}

		report.Duration = time.Since(report.StartedAt)
		metrics.ScanRunsTotal.WithLabelValues(status).Inc()
		metrics.ScanLastRunTimestamp.Set(float64(time.Now().Unix()))
		metrics.ScanLastRunDuration.Set(report.Duration.Seconds())
		idx.complete(report)
	}()

	// Directories known before this pass; they are queued first.
	existing := idx.catalog.Paths()
	found := newPathSet()
	var images []string

	for _, ds := range dss {
		dr := idx.updateDatasource(ctx, ds, existing, found)
		report.Datasources = append(report.Datasources, dr)

		if ctx.Err() != nil {
			report.Cancelled = true
			status = "cancelled"
			break
		}

		if idx.opts.BuildImageCache {
			for _, m := range idx.catalog.ByDatasource(ds) {
				images = append(images, m.ImagesToCache()...)
			}
		}
	}

	if len(images) > 0 && idx.images != nil && ctx.Err() == nil {
		start := time.Now()
		n, cacheErr := idx.images.Cache(ctx, images)
		if cacheErr != nil {
			log.Warn("image cache: %v", cacheErr)
			metrics.ScanErrors.WithLabelValues("imagecache").Inc()
		}
		report.ImagesCached = n
		metrics.ScanPhaseDuration.WithLabelValues("imagecache").Observe(time.Since(start).Seconds())
	}

	report.Duplicates = idx.catalog.SearchDuplicates()
	report.Movies = idx.catalog.Len()

	log.Info("Done updating datasources - took %v (%d movies, %d duplicates, cancelled: %v)",
		time.Since(report.StartedAt).Round(time.Millisecond), report.Movies, report.Duplicates, report.Cancelled)
	return report, nil
}

func (idx *Indexer) tryStart() bool {
	idx.runMu.Lock()
	defer idx.runMu.Unlock()

	if idx.running {
		return false
	}
	idx.running = true
	return true
}

func (idx *Indexer) finish() {
	idx.runMu.Lock()
	defer idx.runMu.Unlock()
	idx.running = false
}

func (idx *Indexer) complete(r *Report) {
	idx.runMu.Lock()
	idx.lastReport = r
	callback := idx.onComplete
	idx.runMu.Unlock()

	if callback != nil {
		callback(r)
	}
}

// pass holds the state of one datasource update.
type pass struct {
	*Indexer

	ctx   context.Context
	ds    string
	found *pathSet
	locks *pathLocks
	stats counters
}

type counters struct {
	videoFolders atomic.Int64
	created      atomic.Int64
	updated      atomic.Int64
	removed      atomic.Int64
	inspected    atomic.Int64
	errors       atomic.Int64
}

func (idx *Indexer) updateDatasource(ctx context.Context, ds string, existing map[string]bool, found *pathSet) DatasourceReport {
	start := time.Now()
	dr := DatasourceReport{Path: ds, Phases: make(map[string]time.Duration)}

	p := &pass{
		Indexer: idx,
		ctx:     ctx,
		ds:      ds,
		found:   found,
		locks:   newPathLocks(),
	}
	defer func() {
		dr.VideoFolders = int(p.stats.videoFolders.Load())
		dr.MoviesCreated = int(p.stats.created.Load())
		dr.MoviesUpdated = int(p.stats.updated.Load())
		dr.MoviesRemoved = int(p.stats.removed.Load())
		dr.Inspected = int(p.stats.inspected.Load())
		dr.Errors = int(p.stats.errors.Load())
		dr.Duration = time.Since(start)
		log.Info("Datasource %s done in %v: %d video folders, %d created, %d updated, %d removed, %d files",
			ds, dr.Duration.Round(time.Millisecond), dr.VideoFolders, dr.MoviesCreated, dr.MoviesUpdated, dr.MoviesRemoved, dr.FilesFound)
	}()

	log.Info("Updating datasource %s", ds)
	idx.sink.Progress(messages.Progress{Task: "update.datasource", Unit: ds})

	listing, err := filesystem.ListDir(ds)
	if err != nil {
		// An unreachable datasource must not be mistaken for an empty one.
		log.Error("cannot read datasource %s: %v", ds, err)
		idx.sink.Push(messages.New(messages.Error, ds, "update.datasource.unavailable"))
		metrics.ScanErrors.WithLabelValues("traversal").Inc()
		p.stats.errors.Add(1)
		dr.Unavailable = true
		return dr
	}

	var known, unknown, rootFiles []string
	for _, dir := range listing.Dirs {
		if existing[dir] {
			known = append(known, dir)
		} else {
			unknown = append(unknown, dir)
		}
	}
	for _, f := range listing.Files {
		if !idx.filter.ShouldSkip(f, false) {
			rootFiles = append(rootFiles, f)
		}
	}

	before := found.Len()

	phase := time.Now()
	pool := newTaskPool(ctx, "update", idx.opts.Workers, idx.sink)
	for _, dir := range append(known, unknown...) {
		if ctx.Err() != nil {
			break
		}
		p.searchAndParse(pool, dir)
	}
	if len(rootFiles) > 0 {
		pool.Submit("multi "+ds, func(ctx context.Context) {
			p.createMultiMovieFromDir(ctx, ds, rootFiles)
		})
	}
	pool.Wait()
	dr.Phases["assemble"] = time.Since(phase)
	metrics.ScanPhaseDuration.WithLabelValues("assemble").Observe(dr.Phases["assemble"].Seconds())

	dr.FilesFound = found.Len() - before
	metrics.ScanFilesFound.Add(float64(dr.FilesFound))

	if ctx.Err() != nil {
		log.Info("Datasource %s update cancelled", ds)
		return dr
	}

	phase = time.Now()
	p.cleanup()
	dr.Phases["cleanup"] = time.Since(phase)
	metrics.ScanPhaseDuration.WithLabelValues("cleanup").Observe(dr.Phases["cleanup"].Seconds())

	phase = time.Now()
	p.gatherMediainfo()
	dr.Phases["mediainfo"] = time.Since(phase)
	metrics.ScanPhaseDuration.WithLabelValues("mediainfo").Observe(dr.Phases["mediainfo"].Seconds())

	return dr
}

// persist saves m and reports failures.
func (p *pass) persist(ctx context.Context, m *catalog.Movie) {
	if err := p.catalog.Save(ctx, m); err != nil {
		p.stats.errors.Add(1)
		metrics.ScanErrors.WithLabelValues("persist").Inc()
		p.sink.Push(messages.New(messages.Warn, m.Path, "message.database.savefailed", err.Error()))
	}
}
