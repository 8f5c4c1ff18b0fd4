package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"movie-indexer/internal/logging"
)

var log = logging.Named("http")

// statusRecorder remembers the status code and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	size    int64
	written bool
}

func record(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.written {
		return
	}
	sr.status = code
	sr.written = true
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	sr.written = true
	n, err := sr.ResponseWriter.Write(b)
	sr.size += int64(n)
	return n, err
}

// LoggingConfig holds configuration for the access log.
type LoggingConfig struct {
	// QuietPaths are logged at debug instead of info.
	QuietPaths []string
}

// DefaultLoggingConfig keeps scrapes and probes out of the info log.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{QuietPaths: []string{"/metrics", "/healthz", "/livez", "/readyz"}}
}

func (c LoggingConfig) quiet() map[string]bool {
	set := make(map[string]bool, len(c.QuietPaths))
	for _, p := range c.QuietPaths {
		set[p] = true
	}
	return set
}

// Logger writes one access log line per request:
//
//	client method path status bytes duration
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	quiet := config.quiet()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, r)

			logf := log.Info
			if quiet[r.URL.Path] {
				logf = log.Debug
			}
			logf("%s %s %s %d %d %v",
				sanitizeLogField(clientIP(r)),
				sanitizeLogField(r.Method),
				sanitizeLogField(r.URL.Path),
				rec.status, rec.size,
				time.Since(start).Round(time.Microsecond))
		})
	}
}

// sanitizeLogField turns line breaks into spaces and drops every other
// control character except tab.
func sanitizeLogField(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r':
			return ' '
		case r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the connection's remote host.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
