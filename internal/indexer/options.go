package indexer

import (
	"context"

	"movie-indexer/internal/catalog"
	"movie-indexer/internal/mediatypes"
	"movie-indexer/internal/messages"
)

// Options is the configuration snapshot of the indexer. It is read-only
// for the duration of a pass.
type Options struct {
	// Datasources are the root directories scanned by UpdateDatasources.
	Datasources []string
	// SkipFolders are absolute paths excluded from traversal.
	SkipFolders []string
	// Extensions drive file classification.
	Extensions mediatypes.Extensions
	// Workers is the size of the assembly pool.
	Workers int
	// MediainfoWorkers is the size of the inspection pool.
	MediainfoWorkers int
	// BuildImageCache caches the artwork of scanned movies after a pass.
	BuildImageCache bool
}

// DefaultOptions returns options with the default pool sizes and
// extension tables and no datasources.
func DefaultOptions() Options {
	return Options{
		Extensions:       mediatypes.DefaultExtensions(),
		Workers:          3,
		MediainfoWorkers: 1,
	}
}

// MovieReader parses a metadata file into a movie. A file without a usable
// record yields an error; the caller falls back to name heuristics.
type MovieReader interface {
	Read(path string) (*catalog.Movie, error)
}

// Inspector fills in the technical properties of a media file in place.
type Inspector interface {
	Inspect(ctx context.Context, mf *catalog.MediaFile, m *catalog.Movie, force bool) error
}

// ImageCacher stores artwork in the image cache and returns how many
// images were processed.
type ImageCacher interface {
	Cache(ctx context.Context, paths []string) (int, error)
}

// Dependencies are the collaborators of the indexer. Every field is
// optional: without a MovieReader no metadata files are parsed, without an
// Inspector the inspection phase is skipped, without an ImageCacher no
// artwork is cached and without a Sink messages are only logged.
type Dependencies struct {
	NFO        MovieReader
	Inspector  Inspector
	ImageCache ImageCacher
	Sink       messages.Sink
}
