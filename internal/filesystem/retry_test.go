package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"
)

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialBackoff != 50*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 50ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 500*time.Millisecond {
		t.Errorf("MaxBackoff = %v, want 500ms", config.MaxBackoff)
	}
	if config.VolumeResolver != nil {
		t.Error("VolumeResolver should be nil by default")
	}
}

func TestIsNFSStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"ESTALE error", syscall.ESTALE, true},
		{"wrapped ESTALE", &os.PathError{Op: "stat", Path: "/x", Err: syscall.ESTALE}, true},
		{"ENOENT error", syscall.ENOENT, false},
		{"generic error", os.ErrNotExist, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNFSStaleError(tt.err); got != tt.want {
				t.Errorf("isNFSStaleError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVolumeResolver_Resolve(t *testing.T) {
	vr := NewVolumeResolver(map[string]string{
		"movies": "/mnt/movies",
		"kids":   "/mnt/movies/kids",
		"series": "/mnt/series",
	})

	tests := []struct {
		name string
		path string
		want string
	}{
		{"datasource root", "/mnt/movies", "movies"},
		{"movie folder", "/mnt/movies/Alien (1979)/Alien.mkv", "movies"},
		{"longest prefix wins", "/mnt/movies/kids/Up (2009)", "kids"},
		{"sibling with shared prefix", "/mnt/moviesextra/x.mkv", "unknown"},
		{"other datasource", "/mnt/series/show", "series"},
		{"unknown path", "/etc/hosts", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := vr.Resolve(tt.path); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestVolumeResolver_Resolve_NilResolver(t *testing.T) {
	var vr *VolumeResolver
	if got := vr.Resolve("/mnt/movies/a.mkv"); got != "unknown" {
		t.Errorf("nil resolver Resolve() = %q, want %q", got, "unknown")
	}
}

func TestVolumeResolverForDatasources(t *testing.T) {
	vr := VolumeResolverForDatasources([]string{"/mnt/movies", "/srv/films"})

	if got := vr.Resolve("/srv/films/A/a.mkv"); got != "films" {
		t.Errorf("Resolve() = %q, want films", got)
	}
	if got := vr.Resolve("/mnt/movies"); got != "movies" {
		t.Errorf("Resolve() = %q, want movies", got)
	}
}

func TestRetryConfig_ResolveVolume(t *testing.T) {
	original := defaultResolver
	defer func() { defaultResolver = original }()

	SetDefaultVolumeResolver(NewVolumeResolver(map[string]string{"default": "/mnt/movies"}))

	config := RetryConfig{}
	if got := config.resolveVolume("/mnt/movies/a.mkv"); got != "default" {
		t.Errorf("resolveVolume() = %q, want default", got)
	}

	config.VolumeResolver = NewVolumeResolver(map[string]string{"override": "/mnt/movies"})
	if got := config.resolveVolume("/mnt/movies/a.mkv"); got != "override" {
		t.Errorf("resolveVolume() = %q, want override", got)
	}
}

type recordingObserver struct {
	mu     sync.Mutex
	ops    []string
	fails  int
	events []RetryEvent
}

func (r *recordingObserver) ObserveOperation(_, operation string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, operation)
	if err != nil {
		r.fails++
	}
}

func (r *recordingObserver) ObserveRetry(_, _ string, event RetryEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func TestWithRetry_ObservesOperations(t *testing.T) {
	rec := &recordingObserver{}
	SetObserver(rec)
	defer SetObserver(nil)

	dir := t.TempDir()
	file := filepath.Join(dir, "a.nfo")
	if err := os.WriteFile(file, []byte("<movie/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := StatWithRetry(file, DefaultRetryConfig()); err != nil {
		t.Fatalf("StatWithRetry() error = %v", err)
	}
	data, err := ReadFileWithRetry(file, DefaultRetryConfig())
	if err != nil || string(data) != "<movie/>" {
		t.Fatalf("ReadFileWithRetry() = %q, %v", data, err)
	}
	entries, err := ReadDirWithRetry(dir, DefaultRetryConfig())
	if err != nil || len(entries) != 1 {
		t.Fatalf("ReadDirWithRetry() = %d entries, %v", len(entries), err)
	}
	if _, err := StatWithRetry(filepath.Join(dir, "missing"), DefaultRetryConfig()); err == nil {
		t.Fatal("StatWithRetry() on missing file returned nil error")
	}

	want := []string{"stat", "read", "readdir", "stat"}
	if len(rec.ops) != len(want) {
		t.Fatalf("observed %v, want %v", rec.ops, want)
	}
	for i := range want {
		if rec.ops[i] != want[i] {
			t.Errorf("op[%d] = %q, want %q", i, rec.ops[i], want[i])
		}
	}
	if rec.fails != 1 {
		t.Errorf("failures = %d, want 1", rec.fails)
	}
}

func TestWithRetry_RetriesStaleHandles(t *testing.T) {
	rec := &recordingObserver{}
	SetObserver(rec)
	defer SetObserver(nil)

	config := RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}

	calls := 0
	v, err := withRetry("stat", "/x", config, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, syscall.ESTALE
		}
		return 7, nil
	})
	if err != nil || v != 7 {
		t.Fatalf("withRetry() = %d, %v, want 7, nil", v, err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	wantEvents := []RetryEvent{RetryStale, RetryAttempt, RetryStale, RetryAttempt, RetrySucceeded}
	if fmt.Sprint(rec.events) != fmt.Sprint(wantEvents) {
		t.Errorf("events = %v, want %v", rec.events, wantEvents)
	}

	rec.events = nil
	calls = 0
	_, err = withRetry("stat", "/x", config, func() (int, error) {
		calls++
		return 0, syscall.ESTALE
	})
	if !errors.Is(err, syscall.ESTALE) {
		t.Errorf("withRetry() error = %v, want ESTALE", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want MaxRetries+1 = 3", calls)
	}
	if last := rec.events[len(rec.events)-1]; last != RetryExhausted {
		t.Errorf("last event = %v, want %v", last, RetryExhausted)
	}
}

func TestStatWithRetry_NotExistFailsFast(t *testing.T) {
	config := RetryConfig{MaxRetries: 3, InitialBackoff: 10 * time.Millisecond, MaxBackoff: 100 * time.Millisecond}

	start := time.Now()
	info, err := StatWithRetry(filepath.Join(t.TempDir(), "nonexistent.mkv"), config)
	elapsed := time.Since(start)

	if info != nil {
		t.Error("StatWithRetry() returned non-nil FileInfo for non-existent file")
	}
	if !os.IsNotExist(err) {
		t.Errorf("StatWithRetry() error = %v, want os.IsNotExist", err)
	}
	if elapsed > 50*time.Millisecond {
		t.Errorf("StatWithRetry took %v, should not retry non-NFS errors", elapsed)
	}
}

func TestOpenWithRetry(t *testing.T) {
	file := filepath.Join(t.TempDir(), "poster.jpg")
	if err := os.WriteFile(file, []byte("jpg"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := OpenWithRetry(file, DefaultRetryConfig())
	if err != nil {
		t.Fatalf("OpenWithRetry() error = %v", err)
	}
	f.Close()
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	if !Exists(dir) {
		t.Errorf("Exists(%q) = false, want true", dir)
	}
	if Exists(filepath.Join(dir, "gone")) {
		t.Error("Exists() on missing path = true, want false")
	}
}

func BenchmarkVolumeResolver_Resolve(b *testing.B) {
	vr := NewVolumeResolver(map[string]string{
		"movies": "/mnt/movies",
		"kids":   "/mnt/movies/kids",
	})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		vr.Resolve("/mnt/movies/Alien (1979)/Alien.mkv")
	}
}

func BenchmarkStatWithRetry_Success(b *testing.B) {
	file := filepath.Join(b.TempDir(), "a.mkv")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		b.Fatal(err)
	}
	config := DefaultRetryConfig()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = StatWithRetry(file, config)
	}
}
