package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"movie-indexer/internal/logging"
	"movie-indexer/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// Database manages all catalog persistence.
type Database struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// New opens (creating if needed) the SQLite catalog at dbPath and brings
// its schema up to date. The parent directory must exist.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Database path: %s", dbPath)
	checkFiles(dbPath)

	dsn := dbPath + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on&_temp_store=MEMORY"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	d := &Database{db: db, dbPath: dbPath}
	if err := d.open(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("Failed to close database: %v", closeErr)
		}
		return nil, err
	}
	return d, nil
}

func (d *Database) open(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := d.db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	// Writes are serialized by d.mu; extra connections only serve reads.
	d.db.SetMaxOpenConns(8)
	d.db.SetMaxIdleConns(4)
	d.db.SetConnMaxLifetime(time.Hour)

	if err := d.migrate(ctx); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// migrations are applied in order; PRAGMA user_version holds the number
// already applied. Never edit an entry, append a new one.
var migrations = []string{
	// 1: catalog tables. The full movie record is kept as JSON, searchable
	// fields as columns.
	`
	CREATE TABLE IF NOT EXISTS movies (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		year INTEGER NOT NULL DEFAULT 0,
		path TEXT NOT NULL,
		datasource TEXT NOT NULL,
		imdb_id TEXT,
		tmdb_id INTEGER NOT NULL DEFAULT 0,
		data TEXT NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);
	CREATE INDEX IF NOT EXISTS idx_movies_path ON movies(path);
	CREATE INDEX IF NOT EXISTS idx_movies_datasource ON movies(datasource);
	CREATE INDEX IF NOT EXISTS idx_movies_title ON movies(title COLLATE NOCASE);

	CREATE TABLE IF NOT EXISTS media_files (
		movie_id TEXT NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		path TEXT NOT NULL,
		type TEXT NOT NULL,
		data TEXT NOT NULL,
		PRIMARY KEY (movie_id, path)
	);
	CREATE INDEX IF NOT EXISTS idx_media_files_path ON media_files(path);

	CREATE TABLE IF NOT EXISTS trailers (
		movie_id TEXT NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		quality TEXT,
		provider TEXT,
		in_nfo INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (movie_id, url)
	);

	CREATE TABLE IF NOT EXISTS movie_sets (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL COLLATE NOCASE,
		tmdb_id INTEGER NOT NULL DEFAULT 0
	);

	-- a movie belongs to at most one set
	CREATE TABLE IF NOT EXISTS movie_set_members (
		set_id TEXT NOT NULL REFERENCES movie_sets(id) ON DELETE CASCADE,
		movie_id TEXT NOT NULL UNIQUE,
		position INTEGER NOT NULL,
		PRIMARY KEY (set_id, movie_id)
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT
	);
	`,
	// 2: change tracking. ALTER TABLE cannot take an expression default.
	`
	ALTER TABLE movies ADD COLUMN updated_at INTEGER NOT NULL DEFAULT 0;
	UPDATE movies SET updated_at = created_at;
	`,
}

// migrate applies every pending migration in its own transaction.
func (d *Database) migrate(ctx context.Context) error {
	var version int
	if err := d.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > len(migrations) {
		return fmt.Errorf("schema version %d is newer than this binary (%d)", version, len(migrations))
	}

	for i := version; i < len(migrations); i++ {
		logging.Info("Migrating database schema to version %d", i+1)
		tx, finish, err := d.beginTx(ctx)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, migrations[i])
		if err == nil {
			_, err = tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", i+1))
		}
		if err := finish(err); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// beginTx starts a write transaction. The returned finish function commits
// or rolls back depending on err and records the transaction duration.
func (d *Database) beginTx(ctx context.Context) (*sql.Tx, func(err error) error, error) {
	start := time.Now()
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}

	finish := func(err error) error {
		duration := time.Since(start).Seconds()
		if err != nil {
			metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(duration)
			if rbErr := tx.Rollback(); rbErr != nil {
				return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
			}
			return err
		}
		metrics.DBTransactionDuration.WithLabelValues("commit").Observe(duration)
		return tx.Commit()
	}
	return tx, finish, nil
}

// Vacuum optimizes the database.
func (d *Database) Vacuum() error {
	start := time.Now()
	var err error
	defer func() { recordQuery("vacuum", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	_, err = d.db.ExecContext(ctx, "VACUUM")
	return err
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateDBMetrics updates database connection metrics
func (d *Database) UpdateDBMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
}

// checkFiles logs database file problems that would only surface later as
// write failures, and makes read-only WAL sidecars writable again.
func checkFiles(dbPath string) {
	info, err := os.Stat(filepath.Dir(dbPath))
	if err != nil {
		logging.Warn("Database directory: %v", err)
		return
	}
	logging.Debug("Database directory mode: %v", info.Mode())

	for _, path := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(path)
		if err != nil || info.Mode().Perm()&0o200 != 0 {
			continue
		}
		if path == dbPath {
			logging.Warn("Database file %s is read-only (mode %v)", path, info.Mode())
			continue
		}
		if err := os.Chmod(path, 0o600); err != nil {
			logging.Error("Read-only database sidecar %s: %v", path, err)
		} else {
			logging.Info("Made database sidecar %s writable", path)
		}
	}
}
