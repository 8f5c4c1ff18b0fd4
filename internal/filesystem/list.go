package filesystem

import (
	"path/filepath"
	"sort"

	"movie-indexer/internal/logging"
)

// Listing is the immediate content of one directory, as absolute paths.
type Listing struct {
	Files []string
	Dirs  []string
}

// ListDir returns the files and subdirectories directly below dir, sorted
// by name. Symlinks are resolved; entries that cannot be stat'ed are
// logged and left out.
func ListDir(dir string) (Listing, error) {
	var l Listing

	entries, err := ReadDirWithRetry(dir, DefaultRetryConfig())
	if err != nil {
		return l, err
	}
	for _, de := range entries {
		p := filepath.Join(dir, de.Name())
		info, err := StatWithRetry(p, DefaultRetryConfig())
		if err != nil {
			logging.Warn("cannot stat %s: %v", p, err)
			continue
		}
		if info.IsDir() {
			l.Dirs = append(l.Dirs, p)
		} else {
			l.Files = append(l.Files, p)
		}
	}

	sort.Strings(l.Files)
	sort.Strings(l.Dirs)
	return l, nil
}

// ListFilesRecursive returns all files below dir down to maxDepth, honouring
// filter for everything except dir itself. Traversal errors are logged and
// the affected node is left out.
func ListFilesRecursive(dir string, maxDepth int, filter *PathFilter) []string {
	var files []string

	err := Walk(dir, maxDepth, func(ev Event, e Entry) Action {
		switch ev {
		case PreVisitDir:
			if e.Depth > 0 && filter != nil && filter.ShouldSkip(e.Path, true) {
				return SkipSubtree
			}
		case VisitFile:
			if filter != nil && filter.ShouldSkip(e.Path, false) {
				return Continue
			}
			files = append(files, e.Path)
		case VisitFailed:
			logging.Warn("error listing %s: %v", e.Path, e.Err)
		}
		return Continue
	})
	if err != nil {
		logging.Warn("error listing %s: %v", dir, err)
	}

	return files
}
