package catalog

import "github.com/google/uuid"

// MovieSet is a named collection of movies. It holds member ids only;
// movies are resolved through the Catalog.
type MovieSet struct {
	ID       uuid.UUID   `json:"id"`
	Title    string      `json:"title"`
	TmdbID   int         `json:"tmdbId,omitempty"`
	MovieIDs []uuid.UUID `json:"movieIds"`
}

func (s *MovieSet) clone() *MovieSet {
	c := *s
	c.MovieIDs = append([]uuid.UUID(nil), s.MovieIDs...)
	return &c
}

func (s *MovieSet) indexOf(id uuid.UUID) int {
	for i, member := range s.MovieIDs {
		if member == id {
			return i
		}
	}
	return -1
}
