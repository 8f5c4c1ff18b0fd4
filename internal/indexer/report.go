package indexer

import "time"

// Report summarizes one UpdateDatasources call.
type Report struct {
	StartedAt    time.Time          `json:"startedAt"`
	Duration     time.Duration      `json:"duration"`
	Cancelled    bool               `json:"cancelled"`
	Movies       int                `json:"movies"`
	Duplicates   int                `json:"duplicates"`
	ImagesCached int                `json:"imagesCached"`
	Datasources  []DatasourceReport `json:"datasources"`
}

// DatasourceReport holds the counters of one datasource.
type DatasourceReport struct {
	Path          string                   `json:"path"`
	Unavailable   bool                     `json:"unavailable,omitempty"`
	VideoFolders  int                      `json:"videoFolders"`
	MoviesCreated int                      `json:"moviesCreated"`
	MoviesUpdated int                      `json:"moviesUpdated"`
	MoviesRemoved int                      `json:"moviesRemoved"`
	FilesFound    int                      `json:"filesFound"`
	Inspected     int                      `json:"inspected"`
	Errors        int                      `json:"errors"`
	Duration      time.Duration            `json:"duration"`
	Phases        map[string]time.Duration `json:"phases"`
}

// Totals sums the datasource counters.
func (r *Report) Totals() DatasourceReport {
	var t DatasourceReport
	for _, d := range r.Datasources {
		t.VideoFolders += d.VideoFolders
		t.MoviesCreated += d.MoviesCreated
		t.MoviesUpdated += d.MoviesUpdated
		t.MoviesRemoved += d.MoviesRemoved
		t.FilesFound += d.FilesFound
		t.Inspected += d.Inspected
		t.Errors += d.Errors
	}
	return t
}
