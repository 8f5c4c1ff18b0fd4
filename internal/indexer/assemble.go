package indexer

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"movie-indexer/internal/catalog"
	"movie-indexer/internal/filesystem"
	"movie-indexer/internal/mediatypes"
	"movie-indexer/internal/messages"
	"movie-indexer/internal/metrics"
	"movie-indexer/internal/nfo"
	"movie-indexer/internal/parser"
)

// createSingleMovieFromDir creates or updates the movie rooted at root.
func (p *pass) createSingleMovieFromDir(ctx context.Context, root string, isDisc bool) {
	unlock := p.locks.lock(root)
	defer unlock()

	log.Debug("Parsing movie directory %s (disc: %v)", root, isDisc)

	files := p.listMovieFiles(root)
	p.found.Add(root)
	p.found.Add(files...)
	mfs := p.classifyFiles(files)

	m := p.catalog.FindByPath(root)
	isNew := m == nil
	if isNew {
		var source string
		m, source = p.readMetadata(mfs)
		if m.Title == "" {
			m.Title, m.Year = parser.CleanNameAndYear(filepath.Base(root))
			log.Debug("| title from folder name: %q (%d)", m.Title, m.Year)
		}
		m.NewlyAdded = true
		m.DateAdded = time.Now()
		metrics.MoviesCreated.WithLabelValues(source).Inc()
		p.stats.created.Add(1)
	} else {
		p.stats.updated.Add(1)
	}

	name := filepath.Base(root)
	if parser.Is3D(name) {
		m.VideoIn3D = true
	}
	if edition := parser.DetectEdition(name); edition != parser.EditionNone {
		m.Edition = edition
	}
	if isDisc {
		m.Disc = true
	}

	m.Path = root
	m.DataSource = p.ds
	p.catalog.Add(m)
	p.joinMovieSet(ctx, m)

	p.addMediaFiles(ctx, m, mfs)
	p.matchPoster(m, mfs)

	m.Offline = isOffline(m)
	m.ReEvaluateStacking()
	p.persist(ctx, m)
}

// listMovieFiles returns the files of the movie rooted at root. Subfolders
// holding a movie of their own are left out with everything below them.
func (p *pass) listMovieFiles(root string) []string {
	files := filesystem.ListFilesRecursive(root, movieDirDepth, p.filter)

	var others []string
	for _, f := range files {
		if filepath.Dir(f) == root || p.classifier.Classify(f) != mediatypes.FileTypeVideo {
			continue
		}
		if other := p.movieRootOf(f); other != root && !slices.Contains(others, other) {
			log.Debug("| %s is a movie folder of its own", other)
			others = append(others, other)
		}
	}
	if len(others) == 0 {
		return files
	}

	kept := make([]string, 0, len(files))
	for _, f := range files {
		if !inAnyFolder(f, others) {
			kept = append(kept, f)
		}
	}
	return kept
}

func inAnyFolder(path string, dirs []string) bool {
	for _, dir := range dirs {
		if strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (p *pass) classifyFiles(files []string) []*catalog.MediaFile {
	mfs := make([]*catalog.MediaFile, 0, len(files))
	for _, f := range files {
		typ := p.classifier.Classify(f)
		metrics.FilesClassified.WithLabelValues(string(typ)).Inc()
		mfs = append(mfs, catalog.NewMediaFile(f, typ))
	}
	return mfs
}

// readMetadata seeds a new movie from the metadata and text files of the
// folder. The last parseable metadata file wins.
func (p *pass) readMetadata(mfs []*catalog.MediaFile) (*catalog.Movie, string) {
	m := catalog.NewMovie()
	source := "folder"

	for _, mf := range mfs {
		switch mf.Type {
		case mediatypes.FileTypeNFO:
			parsed := p.readNFO(mf.Path)
			if parsed == nil {
				if m.ImdbID == "" {
					m.ImdbID = imdbIDFromFile(mf.Path)
				}
				continue
			}
			if parsed.ImdbID == "" || !parser.IsValidImdbID(parsed.ImdbID) {
				parsed.ImdbID = imdbIDFromFile(mf.Path)
			}
			if parsed.ImdbID == "" {
				parsed.ImdbID = m.ImdbID
			}
			m = parsed
			source = "nfo"

		case mediatypes.FileTypeText:
			content, err := filesystem.ReadFileWithRetry(mf.Path, filesystem.DefaultRetryConfig())
			if err != nil {
				log.Debug("| cannot read %s: %v", mf.Path, err)
				continue
			}
			if m.ImdbID == "" {
				m.ImdbID = parser.DetectImdbID(string(content))
			}
			if m.Title == "" {
				if title := parser.DetectDiscTitle(string(content)); title != "" {
					m.Title = title
					log.Debug("| title from disc info: %q", title)
				}
			}
		}
	}
	return m, source
}

// readNFO parses a metadata file, or returns nil when it holds no movie.
func (p *pass) readNFO(path string) *catalog.Movie {
	if p.nfo == nil {
		return nil
	}
	m, err := p.nfo.Read(path)
	if err != nil {
		if errors.Is(err, nfo.ErrNoMovie) {
			log.Debug("| %v", err)
		} else {
			log.Warn("could not read nfo %s: %v", path, err)
			metrics.ScanErrors.WithLabelValues("nfo").Inc()
			p.stats.errors.Add(1)
		}
		return nil
	}
	return m
}

func imdbIDFromFile(path string) string {
	content, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return ""
	}
	return parser.DetectImdbID(string(content))
}

// joinMovieSet adds m to the set named by its metadata.
func (p *pass) joinMovieSet(ctx context.Context, m *catalog.Movie) {
	if m.SetName == "" {
		return
	}
	if current := p.catalog.MovieSetOf(m); current != nil && current.Title == m.SetName {
		return
	}
	s := p.catalog.MovieSet(m.SetName, 0)
	if err := p.catalog.AddToMovieSet(ctx, m, s); err != nil {
		metrics.ScanErrors.WithLabelValues("persist").Inc()
		p.stats.errors.Add(1)
		p.sink.Push(messages.New(messages.Warn, m.Path, "message.database.savefailed", err.Error()))
	}
}

// matchPoster attaches an unlabeled image as poster when nothing else
// provided one: its name has to match the main video file, with or
// without stacking marker, or the movie title.
func (p *pass) matchPoster(m *catalog.Movie, mfs []*catalog.MediaFile) {
	if len(m.MediaFiles(mediatypes.FileTypePoster)) > 0 {
		return
	}

	names := make(map[string]bool)
	if videos := m.MediaFiles(mediatypes.FileTypeVideo); len(videos) > 0 {
		names[strings.ToLower(videos[0].Basename())] = true
		names[strings.ToLower(parser.Basename(parser.CleanStackingMarkers(videos[0].Filename)))] = true
	}
	if m.Title != "" {
		names[strings.ToLower(m.Title)] = true
	}

	for _, mf := range mfs {
		if mf.Type != mediatypes.FileTypeGraphic {
			continue
		}
		if names[strings.ToLower(mf.Basename())] {
			log.Debug("| using %s as poster", mf.Filename)
			mf.Type = mediatypes.FileTypePoster
			m.AddMediaFile(mf)
			return
		}
	}
}

// isOffline reports whether the movie is only a placeholder for offline
// media.
func isOffline(m *catalog.Movie) bool {
	for _, mf := range m.MediaFiles(mediatypes.FileTypeVideo) {
		if mediatypes.IsOfflineStub(mf.Path) {
			return true
		}
	}
	return false
}
