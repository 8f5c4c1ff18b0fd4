package filesystem

import (
	"os"
	"path/filepath"
	"sort"

	"movie-indexer/internal/logging"
)

// Event identifies why a VisitFunc is called.
type Event int

const (
	// PreVisitDir is sent before a directory's children are visited.
	PreVisitDir Event = iota
	// VisitFile is sent for every non-directory entry.
	VisitFile
	// PostVisitDir is sent after all children of an entered directory.
	PostVisitDir
	// VisitFailed is sent when an entry cannot be stat'ed or a directory
	// cannot be listed. Entry.Err carries the cause.
	VisitFailed
)

func (e Event) String() string {
	switch e {
	case PreVisitDir:
		return "pre-visit"
	case VisitFile:
		return "visit-file"
	case PostVisitDir:
		return "post-visit"
	case VisitFailed:
		return "visit-failed"
	default:
		return "unknown"
	}
}

// Action tells Walk how to proceed after a visit.
type Action int

const (
	// Continue visits the next entry.
	Continue Action = iota
	// SkipSubtree does not descend into the directory returned from a
	// PreVisitDir; no PostVisitDir is sent for it. For any other event it
	// behaves like Continue.
	SkipSubtree
	// Terminate stops the walk.
	Terminate
)

// Entry describes one visited path.
type Entry struct {
	Path  string
	Info  os.FileInfo // nil for VisitFailed
	Depth int         // root is 0
	Err   error
}

// VisitFunc is called for every entry of a walk.
type VisitFunc func(ev Event, e Entry) Action

// Walk traverses root depth-first, children in lexical order. Symbolic links
// are followed; a directory already visited (by real path) is not entered
// twice. Directories at maxDepth are not entered; maxDepth <= 0
// means unlimited. The returned error is non-nil only when root itself
// cannot be stat'ed.
func Walk(root string, maxDepth int, visit VisitFunc) error {
	info, err := StatWithRetry(root, DefaultRetryConfig())
	if err != nil {
		return err
	}

	w := &walker{
		maxDepth: maxDepth,
		visit:    visit,
		seen:     make(map[string]struct{}),
	}
	if !info.IsDir() {
		w.visit(VisitFile, Entry{Path: root, Info: info})
		return nil
	}
	w.walkDir(root, info, 0)
	return nil
}

type walker struct {
	maxDepth int
	visit    VisitFunc
	seen     map[string]struct{}
}

// walkDir returns false when the walk was terminated.
func (w *walker) walkDir(dir string, info os.FileInfo, depth int) bool {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		resolved = dir
	}
	if _, loop := w.seen[resolved]; loop {
		logging.Debug("walk: %s already visited, not following", dir)
		return true
	}
	w.seen[resolved] = struct{}{}

	switch w.visit(PreVisitDir, Entry{Path: dir, Info: info, Depth: depth}) {
	case Terminate:
		return false
	case SkipSubtree:
		return true
	}

	entries, err := ReadDirWithRetry(dir, DefaultRetryConfig())
	if err != nil {
		if w.visit(VisitFailed, Entry{Path: dir, Depth: depth, Err: err}) == Terminate {
			return false
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, de := range entries {
		child := filepath.Join(dir, de.Name())
		childInfo, err := StatWithRetry(child, DefaultRetryConfig())
		if err != nil {
			if w.visit(VisitFailed, Entry{Path: child, Depth: depth + 1, Err: err}) == Terminate {
				return false
			}
			continue
		}

		if childInfo.IsDir() {
			if w.maxDepth > 0 && depth+1 >= w.maxDepth {
				continue
			}
			if !w.walkDir(child, childInfo, depth+1) {
				return false
			}
			continue
		}

		if w.visit(VisitFile, Entry{Path: child, Info: childInfo, Depth: depth + 1}) == Terminate {
			return false
		}
	}

	return w.visit(PostVisitDir, Entry{Path: dir, Info: info, Depth: depth}) != Terminate
}
