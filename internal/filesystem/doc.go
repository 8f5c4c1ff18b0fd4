/*
Package filesystem provides the directory traversal primitives of the movie
scanner together with NFS-resilient stat, readdir and read operations.

# Traversal

[Walk] is a single generic depth-first walk parameterized by a [VisitFunc].
The callback receives a [PreVisitDir], [VisitFile], [PostVisitDir] or
[VisitFailed] event and answers with [Continue], [SkipSubtree] or
[Terminate]:

	err := filesystem.Walk(root, 0, func(ev filesystem.Event, e filesystem.Entry) filesystem.Action {
	    if ev == filesystem.PreVisitDir && filter.ShouldSkip(e.Path, true) {
	        return filesystem.SkipSubtree
	    }
	    return filesystem.Continue
	})

[ListDir] and [ListFilesRecursive] are built on top of it.

# Skip rules

[PathFilter] applies, in order: the fixed directory skip list (BACKUP,
CERTIFICATE, $RECYCLE.BIN and friends, compared case-insensitively), the
hidden-name pattern for "." and "._" names, the configured skip folders and
finally the ignore sentinels (.tmmignore, tmmignore, .nomedia) which exclude
a directory's whole subtree.

# Retry Behavior

Every filesystem call goes through the same retry loop with exponential
backoff. Only ESTALE errors are retried; all other errors fail immediately.
Defaults are 3 retries, 50ms initial and 500ms maximum backoff.

Operation and retry metrics are reported through an [Observer] registered
with [SetObserver]; paths are labeled by the [VolumeResolver] set with
[SetDefaultVolumeResolver].
*/
package filesystem
