package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t testing.TB) (db *Database, dbPath string) {
	t.Helper()

	dbPath = filepath.Join(t.TempDir(), "test.db")
	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, dbPath
}

func TestRecordQuery(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		err       error
	}{
		{name: "successful query", operation: "load"},
		{name: "failed query", operation: "save_movie", err: errors.New("test error")},
		{name: "empty operation name", operation: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Must not panic for any label combination.
			recordQuery(tt.operation, time.Now(), tt.err)
		})
	}
}

func TestNewCreatesSchema(t *testing.T) {
	db, dbPath := setupTestDB(t)

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database file not created: %v", err)
	}

	for _, table := range []string{"movies", "media_files", "trailers", "movie_sets", "movie_set_members", "metadata"} {
		var n int
		err := db.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&n)
		if err != nil || n != 1 {
			t.Errorf("table %s missing (n=%d, err=%v)", table, n, err)
		}
	}

	var version int
	if err := db.db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		t.Fatal(err)
	}
	if version != len(migrations) {
		t.Errorf("user_version = %d, want %d", version, len(migrations))
	}

	var hasUpdatedAt bool
	if err := db.db.QueryRow(`SELECT COUNT(*) > 0 FROM pragma_table_info('movies') WHERE name='updated_at'`).Scan(&hasUpdatedAt); err != nil {
		t.Fatal(err)
	}
	if !hasUpdatedAt {
		t.Error("migration did not add movies.updated_at")
	}
}

func TestNewReopensExistingDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	first, err := New(ctx, dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.SetMetadata(ctx, "k", "v"); err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second, err := New(ctx, dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()

	if v, err := second.GetMetadata(ctx, "k"); err != nil || v != "v" {
		t.Errorf("GetMetadata() = %q, %v", v, err)
	}
}

func TestNewRefusesNewerSchema(t *testing.T) {
	db, dbPath := setupTestDB(t)
	if _, err := db.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", len(migrations)+1)); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	if reopened, err := New(context.Background(), dbPath); err == nil {
		reopened.Close()
		t.Fatal("New() accepted a schema newer than its migrations")
	}
}

func TestNewFailsForMissingDirectory(t *testing.T) {
	_, err := New(context.Background(), filepath.Join(t.TempDir(), "missing", "test.db"))
	if err == nil {
		t.Fatal("New() error = nil for a missing parent directory")
	}
}

func TestMetadata(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.GetMetadata(ctx, "nonexistent"); !errors.Is(err, ErrNoMetadata) {
		t.Errorf("GetMetadata() error = %v, want ErrNoMetadata", err)
	}

	if err := db.SetMetadata(ctx, "key1", "value1"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata(ctx, "key1", "value2"); err != nil {
		t.Fatal(err)
	}
	if v, _ := db.GetMetadata(ctx, "key1"); v != "value2" {
		t.Errorf("GetMetadata() = %q, want value2", v)
	}
}

func TestLastUpdate(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	got, err := db.GetLastUpdate(ctx)
	if err != nil || !got.IsZero() {
		t.Fatalf("GetLastUpdate() = %v, %v; want zero time", got, err)
	}

	now := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	if err := db.SetLastUpdate(ctx, now); err != nil {
		t.Fatal(err)
	}
	got, err = db.GetLastUpdate(ctx)
	if err != nil || !got.Equal(now) {
		t.Errorf("GetLastUpdate() = %v, %v; want %v", got, err, now)
	}

	if err := db.SetLastUpdate(ctx, time.Time{}); err != nil {
		t.Fatal(err)
	}
	if got, _ := db.GetLastUpdate(ctx); !got.IsZero() {
		t.Errorf("GetLastUpdate() = %v after clearing", got)
	}
}

func TestDatasourceUpdates(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	movies := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	kids := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	for ds, at := range map[string]time.Time{"/mnt/movies": movies, "/mnt/kids": kids, "/mnt/gone": {}} {
		if err := db.SetDatasourceUpdate(ctx, ds, at); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.SetLastUpdate(ctx, kids); err != nil {
		t.Fatal(err)
	}

	got, err := db.DatasourceUpdates(ctx)
	if err != nil {
		t.Fatalf("DatasourceUpdates() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("DatasourceUpdates() = %v, want two entries", got)
	}
	if !got["/mnt/movies"].Equal(movies) || !got["/mnt/kids"].Equal(kids) {
		t.Errorf("DatasourceUpdates() = %v", got)
	}
}

func TestVacuum(t *testing.T) {
	db, _ := setupTestDB(t)
	if err := db.Vacuum(); err != nil {
		t.Errorf("Vacuum() error = %v", err)
	}
	db.UpdateDBMetrics()
}
