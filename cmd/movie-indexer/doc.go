// Package main provides the entry point of movie-indexer.
//
// movie-indexer keeps a movie catalog in sync with one or more datasource
// directories. Each pass walks the datasources, groups video files into
// movies, reads their NFO metadata, inspects streams with ffprobe and
// removes movies whose files are gone. The catalog is stored in SQLite.
//
// # Commands
//
//	movie-indexer [run]                    initial pass, then watch and serve
//	movie-indexer scan                     one pass, then exit
//	movie-indexer status                   catalog statistics
//	movie-indexer commit                   clear the newly-added flags
//	movie-indexer remove-datasource PATH   drop every movie of a datasource
//
// # Application Lifecycle
//
//  1. Memory configuration: GOMEMLIMIT from MEMORY_LIMIT/MEMORY_RATIO
//  2. Configuration loading from the environment (see package startup)
//  3. Database open and catalog load
//  4. Component initialization: NFO reader, ffprobe inspector, image
//     cache, indexer
//  5. run only: initial pass, datasource watcher (WATCH=true) and the
//     control server on METRICS_PORT, all in one errgroup
//  6. Graceful shutdown on SIGINT/SIGTERM: running passes are cancelled,
//     tasks already started finish, the database is closed
//
// # Control Server
//
//   - GET  /metrics   Prometheus metrics
//   - GET  /healthz   health and catalog summary
//   - GET  /livez     liveness probe
//   - GET  /readyz    ready after the first finished pass
//   - GET  /version   build information
//   - GET  /api/scan  running flag and last pass report
//   - POST /api/scan  start a pass (?datasource=PATH for one datasource);
//     202 when started, 409 while one is running
//
// When stderr is a terminal, pass progress is shown on a single line.
package main
