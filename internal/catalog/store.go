package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Snapshot is the persisted state of a catalog.
type Snapshot struct {
	Movies    []*Movie
	MovieSets []*MovieSet
}

// Store persists movies and movie sets.
type Store interface {
	LoadCatalog(ctx context.Context) (*Snapshot, error)
	SaveMovie(ctx context.Context, m *Movie) error
	DeleteMovie(ctx context.Context, id uuid.UUID) error
	SaveMovieSet(ctx context.Context, s *MovieSet) error
	DeleteMovieSet(ctx context.Context, id uuid.UUID) error
}
