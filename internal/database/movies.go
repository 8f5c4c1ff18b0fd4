package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"movie-indexer/internal/catalog"
)

// LoadCatalog reads all movies and movie sets.
func (d *Database) LoadCatalog(ctx context.Context) (snap *catalog.Snapshot, err error) {
	start := time.Now()
	defer func() { recordQuery("load", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	movies, err := d.loadMovies(ctx)
	if err != nil {
		return nil, err
	}
	if err = d.loadMediaFiles(ctx, movies); err != nil {
		return nil, err
	}
	if err = d.loadTrailers(ctx, movies); err != nil {
		return nil, err
	}
	sets, err := d.loadMovieSets(ctx)
	if err != nil {
		return nil, err
	}

	snap = &catalog.Snapshot{MovieSets: sets}
	for _, m := range movies.ordered {
		snap.Movies = append(snap.Movies, m)
	}
	return snap, nil
}

type movieIndex struct {
	ordered []*catalog.Movie
	byID    map[string]*catalog.Movie
}

func (d *Database) loadMovies(ctx context.Context) (*movieIndex, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT id, data FROM movies ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query movies: %w", err)
	}
	defer rows.Close()

	idx := &movieIndex{byID: make(map[string]*catalog.Movie)}
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		m := catalog.NewMovie()
		if err := json.Unmarshal([]byte(data), m); err != nil {
			return nil, fmt.Errorf("decode movie %s: %w", id, err)
		}
		idx.ordered = append(idx.ordered, m)
		idx.byID[id] = m
	}
	return idx, rows.Err()
}

func (d *Database) loadMediaFiles(ctx context.Context, idx *movieIndex) error {
	rows, err := d.db.QueryContext(ctx, `SELECT movie_id, data FROM media_files ORDER BY movie_id, position`)
	if err != nil {
		return fmt.Errorf("query media files: %w", err)
	}
	defer rows.Close()

	files := make(map[string][]*catalog.MediaFile)
	for rows.Next() {
		var movieID, data string
		if err := rows.Scan(&movieID, &data); err != nil {
			return err
		}
		var mf catalog.MediaFile
		if err := json.Unmarshal([]byte(data), &mf); err != nil {
			return fmt.Errorf("decode media file of movie %s: %w", movieID, err)
		}
		files[movieID] = append(files[movieID], &mf)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for id, mfs := range files {
		if m, ok := idx.byID[id]; ok {
			m.SetMediaFiles(mfs)
		}
	}
	return nil
}

func (d *Database) loadTrailers(ctx context.Context, idx *movieIndex) error {
	rows, err := d.db.QueryContext(ctx, `
		SELECT movie_id, name, url, COALESCE(quality, ''), COALESCE(provider, ''), in_nfo
		FROM trailers ORDER BY movie_id, position
	`)
	if err != nil {
		return fmt.Errorf("query trailers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var movieID string
		var t catalog.Trailer
		if err := rows.Scan(&movieID, &t.Name, &t.URL, &t.Quality, &t.Provider, &t.InNfo); err != nil {
			return err
		}
		if m, ok := idx.byID[movieID]; ok {
			m.AddTrailer(t)
		}
	}
	return rows.Err()
}

func (d *Database) loadMovieSets(ctx context.Context) ([]*catalog.MovieSet, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT s.id, s.title, s.tmdb_id, m.movie_id
		FROM movie_sets s
		LEFT JOIN movie_set_members m ON m.set_id = s.id
		ORDER BY s.rowid, m.position
	`)
	if err != nil {
		return nil, fmt.Errorf("query movie sets: %w", err)
	}
	defer rows.Close()

	var sets []*catalog.MovieSet
	byID := make(map[string]*catalog.MovieSet)
	for rows.Next() {
		var id, title string
		var tmdbID int
		var member sql.NullString
		if err := rows.Scan(&id, &title, &tmdbID, &member); err != nil {
			return nil, err
		}

		s, ok := byID[id]
		if !ok {
			setID, err := uuid.Parse(id)
			if err != nil {
				return nil, fmt.Errorf("invalid movie set id %q: %w", id, err)
			}
			s = &catalog.MovieSet{ID: setID, Title: title, TmdbID: tmdbID}
			byID[id] = s
			sets = append(sets, s)
		}
		if member.Valid {
			movieID, err := uuid.Parse(member.String)
			if err != nil {
				return nil, fmt.Errorf("invalid member id %q in set %s: %w", member.String, id, err)
			}
			s.MovieIDs = append(s.MovieIDs, movieID)
		}
	}
	return sets, rows.Err()
}

// SaveMovie inserts or replaces a movie with its media files and trailers.
func (d *Database) SaveMovie(ctx context.Context, m *catalog.Movie) (err error) {
	start := time.Now()
	defer func() { recordQuery("save_movie", start, err) }()

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode movie: %w", err)
	}
	mediaFiles := m.MediaFiles()
	trailers := m.Trailers()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, finish, err := d.beginTx(ctx)
	if err != nil {
		return err
	}
	return finish(saveMovieTx(ctx, tx, m, data, mediaFiles, trailers))
}

func saveMovieTx(ctx context.Context, tx *sql.Tx, m *catalog.Movie, data []byte, mediaFiles []*catalog.MediaFile, trailers []catalog.Trailer) error {
	id := m.ID.String()

	_, err := tx.ExecContext(ctx, `
		INSERT INTO movies (id, title, year, path, datasource, imdb_id, tmdb_id, data, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, strftime('%s', 'now'))
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			year = excluded.year,
			path = excluded.path,
			datasource = excluded.datasource,
			imdb_id = excluded.imdb_id,
			tmdb_id = excluded.tmdb_id,
			data = excluded.data,
			updated_at = strftime('%s', 'now')
	`, id, m.Title, m.Year, m.Path, m.DataSource, m.ImdbID, m.TmdbID, string(data))
	if err != nil {
		return fmt.Errorf("upsert movie: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM media_files WHERE movie_id = ?`, id); err != nil {
		return fmt.Errorf("clear media files: %w", err)
	}
	for i, mf := range mediaFiles {
		mfData, err := json.Marshal(mf)
		if err != nil {
			return fmt.Errorf("encode media file %s: %w", mf.Path, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO media_files (movie_id, position, path, type, data) VALUES (?, ?, ?, ?, ?)
		`, id, i, mf.Path, string(mf.Type), string(mfData)); err != nil {
			return fmt.Errorf("insert media file %s: %w", mf.Path, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM trailers WHERE movie_id = ?`, id); err != nil {
		return fmt.Errorf("clear trailers: %w", err)
	}
	for i, t := range trailers {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO trailers (movie_id, position, name, url, quality, provider, in_nfo)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, i, t.Name, t.URL, t.Quality, t.Provider, t.InNfo); err != nil {
			return fmt.Errorf("insert trailer %s: %w", t.URL, err)
		}
	}
	return nil
}

// DeleteMovie removes a movie and everything attached to it.
func (d *Database) DeleteMovie(ctx context.Context, id uuid.UUID) (err error) {
	start := time.Now()
	defer func() { recordQuery("delete_movie", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, finish, err := d.beginTx(ctx)
	if err != nil {
		return err
	}

	key := id.String()
	for _, stmt := range []string{
		`DELETE FROM media_files WHERE movie_id = ?`,
		`DELETE FROM trailers WHERE movie_id = ?`,
		`DELETE FROM movie_set_members WHERE movie_id = ?`,
		`DELETE FROM movies WHERE id = ?`,
	} {
		if _, err = tx.ExecContext(ctx, stmt, key); err != nil {
			return finish(err)
		}
	}
	return finish(nil)
}

// SaveMovieSet inserts or replaces a movie set and its ordered membership.
func (d *Database) SaveMovieSet(ctx context.Context, s *catalog.MovieSet) (err error) {
	start := time.Now()
	defer func() { recordQuery("save_movie_set", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, finish, err := d.beginTx(ctx)
	if err != nil {
		return err
	}

	key := s.ID.String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO movie_sets (id, title, tmdb_id) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, tmdb_id = excluded.tmdb_id
	`, key, s.Title, s.TmdbID)
	if err != nil {
		return finish(fmt.Errorf("upsert movie set: %w", err))
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM movie_set_members WHERE set_id = ?`, key); err != nil {
		return finish(fmt.Errorf("clear members: %w", err))
	}
	for i, movieID := range s.MovieIDs {
		// REPLACE moves a movie still recorded in another set.
		if _, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO movie_set_members (set_id, movie_id, position) VALUES (?, ?, ?)
		`, key, movieID.String(), i); err != nil {
			return finish(fmt.Errorf("insert member %s: %w", movieID, err))
		}
	}
	return finish(nil)
}

// DeleteMovieSet removes a movie set and its membership.
func (d *Database) DeleteMovieSet(ctx context.Context, id uuid.UUID) (err error) {
	start := time.Now()
	defer func() { recordQuery("delete_movie_set", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, finish, err := d.beginTx(ctx)
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM movie_set_members WHERE set_id = ?`, id.String()); err != nil {
		return finish(err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM movie_sets WHERE id = ?`, id.String()); err != nil {
		return finish(err)
	}
	return finish(nil)
}

// CountMovies returns the number of stored movies.
func (d *Database) CountMovies(ctx context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&n)
	return n, err
}

var _ catalog.Store = (*Database)(nil)
