// Package indexer scans movie datasources and keeps the catalog in sync
// with what is on disk.
//
// A pass over one datasource runs these phases strictly in sequence:
//   - Traversal and assembly: every top-level directory is walked (already
//     cataloged directories first). Each directory directly holding a
//     video file is classified as a single-movie, disc or multi-movie
//     folder and handed to a bounded task pool that creates or updates
//     the movies. Loose files in the datasource root form one multi-movie
//     task.
//   - Cleanup: movies and media files that were neither seen during the
//     traversal nor exist on disk are removed. Movies created in the same
//     pass are exempt from file pruning.
//   - Media inspection: files without technical properties are probed by
//     the configured Inspector in a second pool.
//
// After all datasources, duplicates are flagged and, when enabled, the
// artwork of every scanned movie is written to the image cache.
//
// Cancellation is cooperative through the context passed to
// UpdateDatasources: traversal stops at the next directory, queued tasks
// are abandoned and running tasks finish. Partial results are kept.
package indexer
