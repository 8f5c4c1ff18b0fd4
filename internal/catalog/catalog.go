package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"movie-indexer/internal/logging"
	"movie-indexer/internal/metrics"
	"movie-indexer/internal/parser"
)

// ErrNotFound is returned for lookups of unknown movies or sets.
var ErrNotFound = errors.New("not found")

var log = logging.Named("catalog")

// Catalog is the shared, thread-safe set of movies and movie sets. One
// lock guards all structural state: the movie list, the set list and the
// movie to set relation.
type Catalog struct {
	store Store

	mu     sync.RWMutex
	movies []*Movie
	byID   map[uuid.UUID]*Movie
	sets   []*MovieSet
	setOf  map[uuid.UUID]uuid.UUID // movie id -> set id
}

// New creates an empty catalog persisting through store. A nil store keeps
// the catalog in memory only.
func New(store Store) *Catalog {
	return &Catalog{
		store: store,
		byID:  make(map[uuid.UUID]*Movie),
		setOf: make(map[uuid.UUID]uuid.UUID),
	}
}

// Load replaces the in-memory state with the store's content.
func (c *Catalog) Load(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	snap, err := c.store.LoadCatalog(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.movies = c.movies[:0]
	c.byID = make(map[uuid.UUID]*Movie, len(snap.Movies))
	for _, m := range snap.Movies {
		c.movies = append(c.movies, m)
		c.byID[m.ID] = m
	}

	c.sets = c.sets[:0]
	c.setOf = make(map[uuid.UUID]uuid.UUID)
	for _, s := range snap.MovieSets {
		c.sets = append(c.sets, s)
		for _, id := range s.MovieIDs {
			c.setOf[id] = s.ID
		}
	}

	log.Info("loaded %d movies and %d movie sets", len(c.movies), len(c.sets))
	return nil
}

// Add registers m. Registering a movie that is already present is a no-op.
func (c *Catalog) Add(m *Movie) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byID[m.ID]; ok {
		return
	}
	c.movies = append(c.movies, m)
	c.byID[m.ID] = m
}

// Save persists m. Failures are logged and returned; the in-memory state
// is kept either way.
func (c *Catalog) Save(ctx context.Context, m *Movie) error {
	if c.store == nil {
		return nil
	}
	if err := c.store.SaveMovie(ctx, m); err != nil {
		log.Error("could not persist movie %q (%s): %v", m.Title, m.Path, err)
		return fmt.Errorf("save movie %s: %w", m.ID, err)
	}
	return nil
}

// Remove deletes movies from the catalog and the store. Sets losing their
// last member are deleted too.
func (c *Catalog) Remove(ctx context.Context, movies ...*Movie) error {
	if len(movies) == 0 {
		return nil
	}

	var emptied []uuid.UUID
	var changed []*MovieSet

	c.mu.Lock()
	drop := make(map[uuid.UUID]bool, len(movies))
	for _, m := range movies {
		drop[m.ID] = true
	}
	kept := c.movies[:0]
	for _, m := range c.movies {
		if !drop[m.ID] {
			kept = append(kept, m)
		}
	}
	for i := len(kept); i < len(c.movies); i++ {
		c.movies[i] = nil
	}
	c.movies = kept

	for id := range drop {
		delete(c.byID, id)
		setID, ok := c.setOf[id]
		if !ok {
			continue
		}
		delete(c.setOf, id)
		s := c.findSetLocked(setID)
		if s == nil {
			continue
		}
		if i := s.indexOf(id); i >= 0 {
			s.MovieIDs = append(s.MovieIDs[:i], s.MovieIDs[i+1:]...)
		}
		if len(s.MovieIDs) == 0 {
			c.removeSetLocked(s.ID)
			emptied = append(emptied, s.ID)
		} else {
			changed = append(changed, s.clone())
		}
	}
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}

	var errs []error
	for _, m := range movies {
		if err := c.store.DeleteMovie(ctx, m.ID); err != nil {
			log.Error("could not delete movie %q (%s): %v", m.Title, m.Path, err)
			errs = append(errs, fmt.Errorf("delete movie %s: %w", m.ID, err))
		}
	}
	for _, id := range emptied {
		if err := c.store.DeleteMovieSet(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("delete movie set %s: %w", id, err))
		}
	}
	for _, s := range changed {
		if err := c.store.SaveMovieSet(ctx, s); err != nil {
			errs = append(errs, fmt.Errorf("save movie set %s: %w", s.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Get returns the movie with id.
func (c *Catalog) Get(id uuid.UUID) (*Movie, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m, nil
}

// FindByPath returns the first movie located at path, or nil.
func (c *Catalog) FindByPath(path string) *Movie {
	path = filepath.Clean(path)

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, m := range c.movies {
		if m.Path == path {
			return m
		}
	}
	return nil
}

// FindAllByPath returns every movie located at path.
func (c *Catalog) FindAllByPath(path string) []*Movie {
	path = filepath.Clean(path)

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*Movie
	for _, m := range c.movies {
		if m.Path == path {
			out = append(out, m)
		}
	}
	return out
}

// All returns a snapshot of all movies in insertion order.
func (c *Catalog) All() []*Movie {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Movie(nil), c.movies...)
}

// Len returns the number of movies.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.movies)
}

// ByDatasource returns the movies of one datasource.
func (c *Catalog) ByDatasource(ds string) []*Movie {
	ds = filepath.Clean(ds)

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*Movie
	for _, m := range c.movies {
		if filepath.Clean(m.DataSource) == ds {
			out = append(out, m)
		}
	}
	return out
}

// Paths returns the set of all movie directories.
func (c *Catalog) Paths() map[string]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	paths := make(map[string]bool, len(c.movies))
	for _, m := range c.movies {
		paths[m.Path] = true
	}
	return paths
}

// MovieSet returns the set matching tmdbID (when non-zero) or title,
// creating it when none exists.
func (c *Catalog) MovieSet(title string, tmdbID int) *MovieSet {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range c.sets {
		if tmdbID > 0 && s.TmdbID == tmdbID {
			return s
		}
	}
	for _, s := range c.sets {
		if strings.EqualFold(s.Title, title) {
			return s
		}
	}

	s := &MovieSet{ID: uuid.New(), Title: title, TmdbID: tmdbID}
	c.sets = append(c.sets, s)
	log.Debug("created movie set %q", title)
	return s
}

// MovieSets returns a snapshot of all sets.
func (c *Catalog) MovieSets() []*MovieSet {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*MovieSet, 0, len(c.sets))
	for _, s := range c.sets {
		out = append(out, s.clone())
	}
	return out
}

// AddToMovieSet makes m a member of s, keeps the members ordered by year
// and title and persists the set. A movie belongs to at most one set.
func (c *Catalog) AddToMovieSet(ctx context.Context, m *Movie, s *MovieSet) error {
	var previous *MovieSet

	c.mu.Lock()
	if old, ok := c.setOf[m.ID]; ok && old != s.ID {
		if ps := c.findSetLocked(old); ps != nil {
			if i := ps.indexOf(m.ID); i >= 0 {
				ps.MovieIDs = append(ps.MovieIDs[:i], ps.MovieIDs[i+1:]...)
			}
			previous = ps.clone()
		}
	}
	if s.indexOf(m.ID) < 0 {
		s.MovieIDs = append(s.MovieIDs, m.ID)
	}
	c.setOf[m.ID] = s.ID
	c.sortSetLocked(s)
	snapshot := s.clone()
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	if previous != nil {
		if err := c.store.SaveMovieSet(ctx, previous); err != nil {
			return fmt.Errorf("save movie set %s: %w", previous.ID, err)
		}
	}
	if err := c.store.SaveMovieSet(ctx, snapshot); err != nil {
		log.Error("could not persist movie set %q: %v", s.Title, err)
		return fmt.Errorf("save movie set %s: %w", s.ID, err)
	}
	return nil
}

// MovieSetOf returns a copy of the set m belongs to, or nil.
func (c *Catalog) MovieSetOf(m *Movie) *MovieSet {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.setOf[m.ID]
	if !ok {
		return nil
	}
	if s := c.findSetLocked(id); s != nil {
		return s.clone()
	}
	return nil
}

func (c *Catalog) sortSetLocked(s *MovieSet) {
	sort.SliceStable(s.MovieIDs, func(i, j int) bool {
		a, b := c.byID[s.MovieIDs[i]], c.byID[s.MovieIDs[j]]
		if a == nil || b == nil {
			return a != nil
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})
}

func (c *Catalog) findSetLocked(id uuid.UUID) *MovieSet {
	for _, s := range c.sets {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (c *Catalog) removeSetLocked(id uuid.UUID) {
	for i, s := range c.sets {
		if s.ID == id {
			c.sets = append(c.sets[:i], c.sets[i+1:]...)
			return
		}
	}
}

// SearchDuplicates flags every movie sharing an IMDB or TMDB id with another
// movie and clears the flag on all others. It returns the number of
// flagged movies.
func (c *Catalog) SearchDuplicates() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	imdb := make(map[string]int)
	tmdb := make(map[int]int)
	for _, m := range c.movies {
		if parser.IsValidImdbID(m.ImdbID) {
			imdb[m.ImdbID]++
		}
		if m.TmdbID > 0 {
			tmdb[m.TmdbID]++
		}
	}

	flagged := 0
	for _, m := range c.movies {
		dup := (parser.IsValidImdbID(m.ImdbID) && imdb[m.ImdbID] > 1) || (m.TmdbID > 0 && tmdb[m.TmdbID] > 1)
		m.Duplicate = dup
		if dup {
			flagged++
		}
	}
	return flagged
}

// CommitNewlyAdded clears the newly-added flag on all movies and persists
// the changed ones.
func (c *Catalog) CommitNewlyAdded(ctx context.Context) error {
	var errs []error
	for _, m := range c.All() {
		if !m.NewlyAdded {
			continue
		}
		m.NewlyAdded = false
		if err := c.Save(ctx, m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RemoveDatasource removes every movie of datasource ds.
func (c *Catalog) RemoveDatasource(ctx context.Context, ds string) error {
	movies := c.ByDatasource(ds)
	log.Info("removing datasource %s with %d movies", ds, len(movies))
	return c.Remove(ctx, movies...)
}

// Stats summarizes the catalog for the metrics collector.
func (c *Catalog) Stats() metrics.Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := metrics.Stats{
		Movies:     len(c.movies),
		MovieSets:  len(c.sets),
		MediaFiles: make(map[string]int),
	}
	for _, m := range c.movies {
		if m.NewlyAdded {
			stats.NewlyAdded++
		}
		if m.Duplicate {
			stats.Duplicates++
		}
		for _, mf := range m.MediaFiles() {
			stats.MediaFiles[string(mf.Type)]++
		}
	}
	return stats
}
