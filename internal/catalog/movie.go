package catalog

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"movie-indexer/internal/mediatypes"
	"movie-indexer/internal/parser"
)

// Trailer is a trailer known for a movie.
type Trailer struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Quality  string `json:"quality,omitempty"`
	Provider string `json:"provider"`
	InNfo    bool   `json:"inNfo"`
}

// Movie is one logical film of the catalog.
//
// Scalar fields are written by the task assembling the movie and read by
// later, strictly sequential phases. The media file and trailer lists are
// guarded by the movie's own lock.
type Movie struct {
	ID uuid.UUID `json:"id"`

	Title         string   `json:"title"`
	OriginalTitle string   `json:"originalTitle,omitempty"`
	SortTitle     string   `json:"sortTitle,omitempty"`
	Year          int      `json:"year,omitempty"`
	Plot          string   `json:"plot,omitempty"`
	Tagline       string   `json:"tagline,omitempty"`
	Rating        float64  `json:"rating,omitempty"`
	Votes         int      `json:"votes,omitempty"`
	Runtime       int      `json:"runtime,omitempty"` // minutes
	Certification string   `json:"certification,omitempty"`
	Genres        []string `json:"genres,omitempty"`
	Directors     []string `json:"directors,omitempty"`
	Writers       []string `json:"writers,omitempty"`
	Studio        string   `json:"studio,omitempty"`
	Country       string   `json:"country,omitempty"`
	Watched       bool     `json:"watched,omitempty"`
	ImdbID        string   `json:"imdbId,omitempty"`
	TmdbID        int      `json:"tmdbId,omitempty"`
	// SetName is the collection named by the metadata file. Membership
	// itself is kept by the Catalog.
	SetName string `json:"setName,omitempty"`

	Path        string    `json:"path"`
	DataSource  string    `json:"dataSource"`
	MediaSource string    `json:"mediaSource"`
	Edition     string    `json:"edition,omitempty"`
	DateAdded   time.Time `json:"dateAdded"`

	Disc          bool `json:"disc"`
	Offline       bool `json:"offline"`
	MultiMovieDir bool `json:"multiMovieDir"`
	NewlyAdded    bool `json:"newlyAdded"`
	VideoIn3D     bool `json:"videoIn3D"`
	Duplicate     bool `json:"duplicate"`
	Subtitles     bool `json:"subtitles"`
	Stacked       bool `json:"stacked"`

	mu         sync.RWMutex
	mediaFiles []*MediaFile
	trailers   []Trailer
}

// NewMovie returns an empty movie with a fresh id.
func NewMovie() *Movie {
	return &Movie{
		ID:          uuid.New(),
		MediaSource: parser.SourceUnknown,
	}
}

// AddMediaFile attaches mf unless a file with the same path is attached
// already. It reports whether the file was added.
func (m *Movie) AddMediaFile(mf *MediaFile) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.mediaFiles {
		if existing.Path == mf.Path {
			return false
		}
	}
	m.mediaFiles = append(m.mediaFiles, mf)
	return true
}

// RemoveMediaFile detaches the file at path.
func (m *Movie) RemoveMediaFile(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)
	for i, existing := range m.mediaFiles {
		if existing.Path == path {
			m.mediaFiles = append(m.mediaFiles[:i], m.mediaFiles[i+1:]...)
			return true
		}
	}
	return false
}

// HasMediaFile reports whether a file with path is attached.
func (m *Movie) HasMediaFile(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	path = filepath.Clean(path)
	for _, existing := range m.mediaFiles {
		if existing.Path == path {
			return true
		}
	}
	return false
}

// MediaFiles returns the attached files of the given types in attachment
// order, or all files when no type is given.
func (m *Movie) MediaFiles(types ...mediatypes.FileType) []*MediaFile {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*MediaFile, 0, len(m.mediaFiles))
	for _, mf := range m.mediaFiles {
		if len(types) == 0 || hasType(types, mf.Type) {
			out = append(out, mf)
		}
	}
	return out
}

func hasType(types []mediatypes.FileType, t mediatypes.FileType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

// SetMediaFiles replaces all attached files.
func (m *Movie) SetMediaFiles(mfs []*MediaFile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mediaFiles = append([]*MediaFile(nil), mfs...)
}

// ArtworkPath returns the path of the first attached file of type t, or "".
func (m *Movie) ArtworkPath(t mediatypes.FileType) string {
	if mfs := m.MediaFiles(t); len(mfs) > 0 {
		return mfs[0].Path
	}
	return ""
}

// AddTrailer records a trailer unless one with the same URL exists.
func (m *Movie) AddTrailer(t Trailer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.trailers {
		if existing.URL == t.URL {
			return
		}
	}
	m.trailers = append(m.trailers, t)
}

// Trailers returns a copy of the recorded trailers.
func (m *Movie) Trailers() []Trailer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Trailer(nil), m.trailers...)
}

// SetDateAddedFromMediaFile moves DateAdded back to the file's modification
// time when that is earlier.
func (m *Movie) SetDateAddedFromMediaFile(mf *MediaFile) {
	if mf.ModTime.IsZero() {
		return
	}
	if m.DateAdded.IsZero() || mf.ModTime.Before(m.DateAdded) {
		m.DateAdded = mf.ModTime
	}
}

// ReEvaluateStacking marks the movie stacked when it consists of more than
// one video file and is not a disc, and refreshes the stacking data of its
// video, audio and subtitle files.
func (m *Movie) ReEvaluateStacking() {
	m.mu.Lock()
	defer m.mu.Unlock()

	videos := 0
	for _, mf := range m.mediaFiles {
		if mf.Type == mediatypes.FileTypeVideo {
			videos++
		}
	}

	m.Stacked = videos > 1 && !m.Disc
	for _, mf := range m.mediaFiles {
		switch mf.Type {
		case mediatypes.FileTypeVideo, mediatypes.FileTypeAudio, mediatypes.FileTypeSubtitle:
			if m.Stacked {
				mf.DetectStacking()
			} else {
				mf.ClearStacking()
			}
		}
	}
}

// ImagesToCache returns the paths of all attached artwork.
func (m *Movie) ImagesToCache() []string {
	var paths []string
	for _, mf := range m.MediaFiles() {
		if mf.Type.IsArtwork() {
			paths = append(paths, mf.Path)
		}
	}
	return paths
}
