package startup

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"movie-indexer/internal/logging"
)

// An empty variable counts as unset in every helper below.

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvParsed parses key with parse, falling back to defaultValue with a
// warning when the value is invalid.
func getEnvParsed[T any](key string, defaultValue T, parse func(string) (T, bool)) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, ok := parse(value)
	if !ok {
		logging.Warn("Invalid value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	return getEnvParsed(key, defaultValue, func(s string) (bool, bool) {
		b, err := strconv.ParseBool(s)
		return b, err == nil
	})
}

// getEnvDuration accepts positive time.ParseDuration values only.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	return getEnvParsed(key, defaultValue, func(s string) (time.Duration, bool) {
		d, err := time.ParseDuration(s)
		return d, err == nil && d > 0
	})
}

// getEnvList splits an OS path list, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, p := range filepath.SplitList(os.Getenv(key)) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnvExtensions reads a comma separated extension list. Entries are
// lowercased and get a leading dot.
func getEnvExtensions(key string, defaultValue []string) []string {
	return getEnvParsed(key, defaultValue, func(s string) ([]string, bool) {
		var out []string
		for _, e := range strings.Split(s, ",") {
			e = strings.ToLower(strings.TrimSpace(e))
			if e == "" {
				continue
			}
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			out = append(out, e)
		}
		return out, len(out) > 0
	})
}
