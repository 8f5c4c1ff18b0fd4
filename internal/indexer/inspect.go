package indexer

import (
	"context"
	"sync"

	"movie-indexer/internal/catalog"
	"movie-indexer/internal/mediatypes"
	"movie-indexer/internal/metrics"
)

// inspectedTypes are the file types carrying audio or video streams.
var inspectedTypes = []mediatypes.FileType{
	mediatypes.FileTypeVideo,
	mediatypes.FileTypeTrailer,
	mediatypes.FileTypeSample,
	mediatypes.FileTypeVideoExtra,
	mediatypes.FileTypeAudio,
}

// gatherMediainfo inspects every not yet inspected stream file of the
// datasource and persists the movies that changed.
func (p *pass) gatherMediainfo() {
	if p.inspector == nil {
		return
	}

	var mu sync.Mutex
	changed := make(map[*catalog.Movie]bool)

	pool := newTaskPool(p.ctx, "mediainfo", p.opts.MediainfoWorkers, p.sink)
	for _, m := range p.catalog.ByDatasource(p.ds) {
		for _, mf := range m.MediaFiles(inspectedTypes...) {
			if mf.Inspected() || mediatypes.IsOfflineStub(mf.Path) {
				continue
			}
			m, mf := m, mf
			pool.Submit(mf.Path, func(ctx context.Context) {
				if err := p.inspector.Inspect(ctx, mf, m, false); err != nil {
					log.Warn("could not inspect %s: %v", mf.Path, err)
					metrics.ScanErrors.WithLabelValues("inspect").Inc()
					p.stats.errors.Add(1)
					return
				}
				p.stats.inspected.Add(1)
				mu.Lock()
				changed[m] = true
				mu.Unlock()
			})
		}
	}
	pool.Wait()

	ctx := context.WithoutCancel(p.ctx)
	for m := range changed {
		p.persist(ctx, m)
	}
}
