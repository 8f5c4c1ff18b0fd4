package indexer

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"movie-indexer/internal/catalog"
	"movie-indexer/internal/mediatypes"
	"movie-indexer/internal/metrics"
	"movie-indexer/internal/parser"
)

// createMultiMovieFromDir splits a folder holding several movies into one
// movie per video file group. files are the files directly inside dir.
func (p *pass) createMultiMovieFromDir(ctx context.Context, dir string, files []string) {
	unlock := p.locks.lock(dir)
	defer unlock()

	log.Debug("Parsing multi movie directory %s", dir)

	p.found.Add(dir)
	p.found.Add(files...)

	var videos, remaining []*catalog.MediaFile
	for _, mf := range p.classifyFiles(files) {
		if mf.Type == mediatypes.FileTypeVideo {
			videos = append(videos, mf)
		} else {
			remaining = append(remaining, mf)
		}
	}

	// Longest names first so "Alpha 2" claims its files before "Alpha".
	sort.SliceStable(videos, func(i, j int) bool {
		return len(videos[i].Filename) > len(videos[j].Filename)
	})

	created := make(map[uuid.UUID]bool)
	for _, vid := range videos {
		m, seeded := p.resolveMovie(dir, vid, remaining)
		if m.NewlyAdded && m.DataSource == "" {
			m.DataSource = p.ds
			m.Path = dir
			m.DateAdded = time.Now()
			created[m.ID] = true
			metrics.MoviesCreated.WithLabelValues(seeded).Inc()
			p.stats.created.Add(1)
			log.Debug("| new movie %q (%d) from %s", m.Title, m.Year, vid.Filename)
		}
		m.MultiMovieDir = true
		p.catalog.Add(m)

		p.addMediaFile(ctx, m, vid)

		var claimed []*catalog.MediaFile
		claimed, remaining = claimFiles(vid, remaining)
		p.addMediaFiles(ctx, m, claimed)

		m.Offline = isOffline(m)
		p.joinMovieSet(ctx, m)
	}

	for _, m := range p.catalog.FindAllByPath(dir) {
		if !created[m.ID] {
			p.stats.updated.Add(1)
		}
		m.ReEvaluateStacking()
		p.persist(ctx, m)
	}
}

// resolveMovie finds the movie owning vid or creates a new one. New movies
// come back with NewlyAdded set and no datasource; seed tells where their
// data came from.
func (p *pass) resolveMovie(dir string, vid *catalog.MediaFile, files []*catalog.MediaFile) (m *catalog.Movie, seed string) {
	movies := p.catalog.FindAllByPath(dir)

	for _, candidate := range movies {
		if candidate.HasMediaFile(vid.Path) {
			return candidate, ""
		}
	}

	key := parser.NormalizedKey(vid.Filename)
	for _, candidate := range movies {
		for _, other := range candidate.MediaFiles(mediatypes.FileTypeVideo) {
			if parser.NormalizedKey(other.Filename) == key {
				return candidate, ""
			}
		}
	}

	if nfoFile := findNFO(vid, files); nfoFile != nil {
		if parsed := p.readNFO(nfoFile.Path); parsed != nil {
			if !parser.IsValidImdbID(parsed.ImdbID) {
				parsed.ImdbID = imdbIDFromFile(nfoFile.Path)
			}
			parsed.NewlyAdded = true
			parsed.AddMediaFile(nfoFile)
			return parsed, "nfo"
		}
	}

	m = catalog.NewMovie()
	base := parser.Basename(parser.CleanStackingMarkers(vid.Filename))
	m.Title, m.Year = parser.CleanNameAndYear(base)
	m.Edition = parser.DetectEdition(base)
	m.VideoIn3D = parser.Is3D(base)
	m.NewlyAdded = true
	return m, "filename"
}

// findNFO returns the metadata file named after vid, with or without its
// stacking marker.
func findNFO(vid *catalog.MediaFile, files []*catalog.MediaFile) *catalog.MediaFile {
	names := []string{
		vid.Basename() + ".nfo",
		parser.Basename(parser.CleanStackingMarkers(vid.Filename)) + ".nfo",
	}
	for _, name := range names {
		for _, mf := range files {
			if mf.Type == mediatypes.FileTypeNFO && strings.EqualFold(mf.Filename, name) {
				return mf
			}
		}
	}
	return nil
}

// claimFiles splits files into those named after vid and the rest.
// Unlabeled images among the claimed files become posters.
func claimFiles(vid *catalog.MediaFile, files []*catalog.MediaFile) (claimed, rest []*catalog.MediaFile) {
	prefixes := []string{strings.ToLower(vid.Basename())}
	if parser.StackingMarker(vid.Filename) != "" {
		prefixes = append(prefixes, strings.ToLower(parser.Basename(parser.CleanStackingMarkers(vid.Filename))))
	}

	for _, mf := range files {
		name := strings.ToLower(mf.Filename)
		matched := false
		for _, prefix := range prefixes {
			if prefix != "" && strings.HasPrefix(name, prefix) {
				matched = true
				break
			}
		}
		if !matched {
			rest = append(rest, mf)
			continue
		}
		if mf.Type == mediatypes.FileTypeGraphic {
			mf.Type = mediatypes.FileTypePoster
		}
		claimed = append(claimed, mf)
	}
	return claimed, rest
}
