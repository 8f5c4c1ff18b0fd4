package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoMetadata is returned by GetMetadata for an unknown key.
var ErrNoMetadata = errors.New("metadata key not set")

const (
	lastUpdateKey       = "last_update"
	datasourceUpdateKey = "datasource_update:"
)

// GetMetadata returns the value stored under key.
func (d *Database) GetMetadata(ctx context.Context, key string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var value string
	err := d.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", key, ErrNoMetadata)
	}
	return value, err
}

// SetMetadata stores value under key, replacing any previous value.
func (d *Database) SetMetadata(ctx context.Context, key, value string) (err error) {
	start := time.Now()
	defer func() { recordQuery("set_metadata", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func (d *Database) getTime(ctx context.Context, key string) (time.Time, error) {
	value, err := d.GetMetadata(ctx, key)
	if errors.Is(err, ErrNoMetadata) || (err == nil && value == "") {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, value)
}

func (d *Database) setTime(ctx context.Context, key string, t time.Time) error {
	value := ""
	if !t.IsZero() {
		value = t.UTC().Format(time.RFC3339)
	}
	return d.SetMetadata(ctx, key, value)
}

// GetLastUpdate returns when the last pass over all datasources finished,
// or the zero time if none has.
func (d *Database) GetLastUpdate(ctx context.Context) (time.Time, error) {
	return d.getTime(ctx, lastUpdateKey)
}

// SetLastUpdate records the end of a pass. The zero time clears it.
func (d *Database) SetLastUpdate(ctx context.Context, t time.Time) error {
	return d.setTime(ctx, lastUpdateKey, t)
}

// SetDatasourceUpdate records when ds was last scanned successfully.
func (d *Database) SetDatasourceUpdate(ctx context.Context, ds string, t time.Time) error {
	return d.setTime(ctx, datasourceUpdateKey+ds, t)
}

// DatasourceUpdates returns the last successful scan of every datasource
// that has one.
func (d *Database) DatasourceUpdates(ctx context.Context) (map[string]time.Time, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		"SELECT key, value FROM metadata WHERE key LIKE ? AND value != ''", datasourceUpdateKey+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	updates := make(map[string]time.Time)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		updates[strings.TrimPrefix(key, datasourceUpdateKey)] = t
	}
	return updates, rows.Err()
}
