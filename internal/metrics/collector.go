package metrics

import (
	"context"
	"time"

	"movie-indexer/internal/logging"
)

// StatsProvider is implemented by the catalog.
type StatsProvider interface {
	Stats() Stats
}

// Stats is a point-in-time summary of the catalog.
type Stats struct {
	Movies     int
	MovieSets  int
	NewlyAdded int
	Duplicates int
	MediaFiles map[string]int // keyed by media file type
}

// Collector mirrors catalog statistics into the Catalog* gauges.
type Collector struct {
	provider StatsProvider
	interval time.Duration
}

// NewCollector returns a collector sampling provider every interval.
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{provider: provider, interval: interval}
}

// Run samples immediately and then on every tick until ctx is done.
func (c *Collector) Run(ctx context.Context) {
	c.Collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Collect()
		case <-ctx.Done():
			return
		}
	}
}

// Collect takes one sample. Media file types no longer present in the
// catalog drop out of CatalogMediaFiles.
func (c *Collector) Collect() {
	if c.provider == nil {
		return
	}

	stats := c.provider.Stats()

	CatalogMovies.Set(float64(stats.Movies))
	CatalogMovieSets.Set(float64(stats.MovieSets))
	CatalogNewlyAdded.Set(float64(stats.NewlyAdded))
	CatalogDuplicates.Set(float64(stats.Duplicates))

	CatalogMediaFiles.Reset()
	for typ, n := range stats.MediaFiles {
		CatalogMediaFiles.WithLabelValues(typ).Set(float64(n))
	}

	logging.Debug("Catalog sampled: movies=%d sets=%d new=%d duplicates=%d",
		stats.Movies, stats.MovieSets, stats.NewlyAdded, stats.Duplicates)
}
