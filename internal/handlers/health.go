package handlers

import (
	"net/http"
	"runtime"
	"time"

	"movie-indexer/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusScanning = "scanning"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Ready    bool   `json:"ready"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Scanning bool   `json:"scanning"`
	LastScan string `json:"lastScan,omitempty"`

	// Catalog summary
	Movies     int `json:"movies"`
	MovieSets  int `json:"movieSets"`
	NewlyAdded int `json:"newlyAdded"`
	Duplicates int `json:"duplicates"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service. The service is
// ready once the first pass has finished.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	report := h.scanner.LastReport()
	scanning := h.scanner.IsRunning()

	response := HealthResponse{
		Ready:        report != nil,
		Version:      startup.Version,
		Uptime:       time.Since(h.startedAt).Round(time.Second).String(),
		Scanning:     scanning,
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	if h.stats != nil {
		stats := h.stats.Stats()
		response.Movies = stats.Movies
		response.MovieSets = stats.MovieSets
		response.NewlyAdded = stats.NewlyAdded
		response.Duplicates = stats.Duplicates
	}

	switch {
	case scanning:
		response.Status = statusScanning
	case report == nil:
		response.Status = statusStarting
	default:
		response.Status = statusHealthy
	}
	if report != nil {
		response.LastScan = report.StartedAt.Add(report.Duration).Format(time.RFC3339)
	}

	writeJSON(w, http.StatusOK, response)
}

// LivenessCheck always returns 200 while the server is running.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ReadinessCheck returns 200 only after the first pass has finished.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.scanner.LastReport() == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
