package handlers

import (
	"net/http"

	"movie-indexer/internal/startup"
)

// GetVersion returns version and build information.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, startup.GetBuildInfo())
}
