package indexer

import (
	"context"

	"movie-indexer/internal/catalog"
	"movie-indexer/internal/filesystem"
	"movie-indexer/internal/mediatypes"
	"movie-indexer/internal/messages"
	"movie-indexer/internal/metrics"
)

// cleanup removes the movies of the datasource whose folder is gone and
// drops vanished files from the others. Movies added in this pass keep
// all their files.
func (p *pass) cleanup() {
	log.Debug("Cleaning up datasource %s", p.ds)

	var orphans []*catalog.Movie
	for _, m := range p.catalog.ByDatasource(p.ds) {
		if !p.found.Has(m.Path) && !filesystem.Exists(m.Path) {
			log.Debug("| movie %q (%s) is gone", m.Title, m.Path)
			orphans = append(orphans, m)
			continue
		}
		if m.NewlyAdded {
			continue
		}

		pruned := 0
		for _, mf := range m.MediaFiles() {
			if p.found.Has(mf.Path) || mf.Exists() {
				continue
			}
			log.Debug("| removing vanished file %s from %q", mf.Path, m.Title)
			if m.RemoveMediaFile(mf.Path) {
				pruned++
			}
		}
		if pruned == 0 {
			continue
		}
		metrics.MediaFilesPruned.Add(float64(pruned))

		if len(m.MediaFiles(mediatypes.FileTypeVideo)) == 0 {
			orphans = append(orphans, m)
			continue
		}
		m.Offline = isOffline(m)
		m.ReEvaluateStacking()
		p.persist(p.ctx, m)
	}

	if len(orphans) == 0 {
		return
	}

	log.Info("Removing %d movies from datasource %s", len(orphans), p.ds)
	ctx := context.WithoutCancel(p.ctx)
	if err := p.catalog.Remove(ctx, orphans...); err != nil {
		metrics.ScanErrors.WithLabelValues("persist").Inc()
		p.stats.errors.Add(1)
		p.sink.Push(messages.New(messages.Warn, p.ds, "message.database.deletefailed", err.Error()))
	}
	metrics.MoviesRemoved.Add(float64(len(orphans)))
	p.stats.removed.Add(int64(len(orphans)))
}
