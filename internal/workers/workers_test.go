package workers

import (
	"runtime"
	"testing"
)

func TestCPUs(t *testing.T) {
	available := runtime.GOMAXPROCS(0)

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"no limit", 0, available},
		{"limit above", available + 4, available},
		{"limit one", 1, 1},
		{"negative limit", -1, available},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CPUs(tt.limit); got != tt.want {
				t.Errorf("CPUs(%d) = %d, want %d", tt.limit, got, tt.want)
			}
		})
	}
}

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		fallback int
		limit    int
		want     int
	}{
		{"unset", "", 3, 16, 3},
		{"valid", "8", 3, 16, 8},
		{"whitespace", " 5 ", 3, 16, 5},
		{"capped", "40", 3, 16, 16},
		{"no limit", "40", 3, 0, 40},
		{"non-numeric", "many", 3, 16, 3},
		{"zero", "0", 3, 16, 3},
		{"negative", "-2", 1, 16, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_WORKERS", tt.value)
			if got := FromEnv("TEST_WORKERS", tt.fallback, tt.limit); got != tt.want {
				t.Errorf("FromEnv(%q) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}

func TestPoolDefaults(t *testing.T) {
	t.Setenv("SCAN_WORKERS", "")
	t.Setenv("MEDIAINFO_WORKERS", "")

	if got := Scan(); got != DefaultScan {
		t.Errorf("Scan() = %d, want %d", got, DefaultScan)
	}
	if got := Mediainfo(); got != DefaultMediainfo {
		t.Errorf("Mediainfo() = %d, want %d", got, DefaultMediainfo)
	}
	if got := ImageCache(); got < 1 || got > 4 {
		t.Errorf("ImageCache() = %d, want 1..4", got)
	}

	t.Setenv("SCAN_WORKERS", "100")
	if got := Scan(); got != MaxScan {
		t.Errorf("Scan() with SCAN_WORKERS=100 = %d, want %d", got, MaxScan)
	}
}

func TestMediainfo_CappedByCPUs(t *testing.T) {
	t.Setenv("MEDIAINFO_WORKERS", "1000")
	if got := Mediainfo(); got != CPUs(8) {
		t.Errorf("Mediainfo() = %d, want %d", got, CPUs(8))
	}
}
