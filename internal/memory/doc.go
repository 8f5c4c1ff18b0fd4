// Package memory bounds the heap of the indexer process in containers.
//
// [ConfigureLimit] derives GOMEMLIMIT from the container limit passed in
// MEMORY_LIMIT (bytes, usually through the Kubernetes Downward API) and
// MEMORY_RATIO (default 0.85). An explicit GOMEMLIMIT takes precedence.
//
// A [Monitor] samples heap usage against that limit. While usage is above
// the pause mark, [Monitor.Wait] blocks; the image cache calls it before
// decoding each artwork file, so large posters and fanart are not decoded
// concurrently under memory pressure.
//
//	memory.ConfigureLimit()
//	mon := memory.NewMonitor(memory.DefaultOptions())
//	go mon.Run(ctx)
//	cache, err := imagecache.New(dir, imagecache.Options{Gate: mon})
package memory
