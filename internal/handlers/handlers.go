package handlers

import (
	"context"
	"sync"
	"time"

	"movie-indexer/internal/indexer"
	"movie-indexer/internal/logging"
	"movie-indexer/internal/metrics"
)

var log = logging.Named("handlers")

// Scanner is the part of the indexer the handlers drive.
type Scanner interface {
	UpdateDatasources(ctx context.Context) (*indexer.Report, error)
	UpdateDatasource(ctx context.Context, ds string) (*indexer.Report, error)
	Datasources() []string
	IsRunning() bool
	LastReport() *indexer.Report
}

// Handlers holds the collaborators of the HTTP endpoints.
type Handlers struct {
	scanner   Scanner
	stats     metrics.StatsProvider
	startedAt time.Time

	// scans triggered over HTTP run under ctx and are tracked by wg
	ctx context.Context
	wg  sync.WaitGroup
}

// New creates the handlers. Scans triggered through the API are bound to
// ctx, so cancelling it cancels them.
func New(ctx context.Context, scanner Scanner, stats metrics.StatsProvider) *Handlers {
	return &Handlers{
		scanner:   scanner,
		stats:     stats,
		startedAt: time.Now(),
		ctx:       ctx,
	}
}

// Wait blocks until every scan started through the API has returned.
func (h *Handlers) Wait() {
	h.wg.Wait()
}
