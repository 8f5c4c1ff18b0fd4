package handlers

import (
	"errors"
	"net/http"
	"path/filepath"

	"movie-indexer/internal/indexer"
)

// ScanStatus is returned by GET /api/scan.
type ScanStatus struct {
	Running     bool            `json:"running"`
	Datasources []string        `json:"datasources"`
	LastReport  *indexer.Report `json:"lastReport,omitempty"`
}

// GetScanStatus reports whether a pass is running and the last report.
func (h *Handlers) GetScanStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ScanStatus{
		Running:     h.scanner.IsRunning(),
		Datasources: h.scanner.Datasources(),
		LastReport:  h.scanner.LastReport(),
	})
}

// TriggerScan starts a pass in the background. The optional datasource
// query parameter limits it to one configured datasource.
func (h *Handlers) TriggerScan(w http.ResponseWriter, r *http.Request) {
	ds := r.URL.Query().Get("datasource")
	if ds != "" {
		ds = filepath.Clean(ds)
		if !h.isDatasource(ds) {
			writeJSONError(w, "unknown datasource", http.StatusNotFound)
			return
		}
	}

	if h.scanner.IsRunning() {
		writeJSON(w, http.StatusConflict, map[string]string{
			"status":  "already_running",
			"message": "A datasource update is already in progress",
		})
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.runScan(ds)
	}()

	response := map[string]string{"status": "started"}
	if ds != "" {
		response["datasource"] = ds
	}
	writeJSON(w, http.StatusAccepted, response)
}

func (h *Handlers) runScan(ds string) {
	var err error
	if ds == "" {
		_, err = h.scanner.UpdateDatasources(h.ctx)
	} else {
		_, err = h.scanner.UpdateDatasource(h.ctx, ds)
	}

	switch {
	case err == nil:
	case errors.Is(err, indexer.ErrScanInProgress):
		log.Info("triggered scan skipped: %v", err)
	default:
		log.Error("triggered scan failed: %v", err)
	}
}

func (h *Handlers) isDatasource(ds string) bool {
	for _, configured := range h.scanner.Datasources() {
		if filepath.Clean(configured) == ds {
			return true
		}
	}
	return false
}
