// Package handlers implements the HTTP endpoints of the control server:
// health probes, build information, catalog statistics and the scan
// trigger. Handlers never run a pass on the request goroutine; a
// triggered scan runs in the background and is observed through
// GET /api/scan.
package handlers
