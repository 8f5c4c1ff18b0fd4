package indexer

import (
	"context"
	"path/filepath"
	"strings"

	"movie-indexer/internal/filesystem"
	"movie-indexer/internal/messages"
	"movie-indexer/internal/metrics"
	"movie-indexer/internal/parser"
)

// searchAndParse walks one top-level directory of the datasource and
// submits an assembly task for every folder holding a video file. Tasks
// are submitted on post-visit so a folder is dispatched after its
// subfolders.
func (p *pass) searchAndParse(pool *taskPool, dir string) {
	videoFolders := make(map[string]bool)
	// parents of stacking folders (CD1, Disc 2) that were dispatched already
	stackedParents := make(map[string]bool)

	err := filesystem.Walk(dir, 0, func(ev filesystem.Event, e filesystem.Entry) filesystem.Action {
		switch ev {
		case filesystem.PreVisitDir:
			if p.ctx.Err() != nil {
				return filesystem.Terminate
			}
			if p.filter.ShouldSkip(e.Path, true) {
				log.Debug("Skipping dir: %s", e.Path)
				return filesystem.SkipSubtree
			}

		case filesystem.VisitFile:
			if e.Info == nil || !e.Info.Mode().IsRegular() {
				return filesystem.Continue
			}
			if p.filter.ShouldSkipName(filepath.Base(e.Path), false) || !p.classifier.IsVideo(e.Path) {
				return filesystem.Continue
			}
			parent := filepath.Dir(e.Path)
			// Blu-ray payload; the BDMV folder above it marks the movie.
			if strings.EqualFold(filepath.Base(parent), "STREAM") {
				return filesystem.Continue
			}
			videoFolders[parent] = true

		case filesystem.PostVisitDir:
			if p.ctx.Err() != nil {
				return filesystem.Terminate
			}
			if !videoFolders[e.Path] {
				return filesystem.Continue
			}

			if p.isStackingFolder(e.Path) {
				parent := filepath.Dir(e.Path)
				if stackedParents[parent] {
					log.Debug("| stacking folder %s already handled by its parent", e.Path)
					return filesystem.Continue
				}
				stackedParents[parent] = true
			}

			p.stats.videoFolders.Add(1)
			folder := e.Path
			if !pool.Submit(folder, func(ctx context.Context) { p.parseMovieDirectory(ctx, folder) }) {
				return filesystem.Terminate
			}

		case filesystem.VisitFailed:
			log.Warn("error on %s: %v", e.Path, e.Err)
			metrics.ScanErrors.WithLabelValues("traversal").Inc()
			p.stats.errors.Add(1)
			p.sink.Push(messages.New(messages.Warn, e.Path, "message.update.traversalfailed", e.Err.Error()))
		}
		return filesystem.Continue
	})
	if err != nil {
		log.Warn("cannot walk %s: %v", dir, err)
		metrics.ScanErrors.WithLabelValues("traversal").Inc()
		p.stats.errors.Add(1)
	}
}

// isStackingFolder reports whether the folder's own name is its stacking
// marker, as for "Movie (2010)/CD1". Folders directly below the datasource
// have no movie folder to fold into.
func (p *pass) isStackingFolder(dir string) bool {
	if filepath.Dir(dir) == p.ds {
		return false
	}
	rel, err := filepath.Rel(p.ds, dir)
	if err != nil {
		return false
	}
	marker := parser.FolderStackingMarker(rel)
	return marker != "" && marker == filepath.Base(dir)
}

// parseMovieDirectory classifies one video folder and hands it to the
// single or multi movie assembly.
func (p *pass) parseMovieDirectory(ctx context.Context, dir string) {
	listing, err := filesystem.ListDir(dir)
	if err != nil {
		log.Warn("cannot list %s: %v", dir, err)
		metrics.ScanErrors.WithLabelValues("traversal").Inc()
		p.stats.errors.Add(1)
		return
	}

	files := make([]string, 0, len(listing.Files))
	for _, f := range listing.Files {
		if !p.filter.ShouldSkipName(filepath.Base(f), false) {
			files = append(files, f)
		}
	}

	kind, root := p.classifyFolder(dir, files)
	switch kind {
	case folderDisc:
		p.createSingleMovieFromDir(ctx, root, true)
	case folderSingle:
		p.createSingleMovieFromDir(ctx, root, false)
	case folderMulti:
		p.createMultiMovieFromDir(ctx, dir, files)
	default:
		log.Debug("| %s holds no movie", dir)
	}
}
