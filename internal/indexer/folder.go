package indexer

import (
	"path/filepath"
	"strings"

	"movie-indexer/internal/mediatypes"
	"movie-indexer/internal/metrics"
	"movie-indexer/internal/parser"
)

type folderKind string

const (
	folderNone   folderKind = "none"
	folderSingle folderKind = "single"
	folderDisc   folderKind = "disc"
	folderMulti  folderKind = "multi"
)

// discFolders are the payload directories of DVD, Blu-ray and HD-DVD
// structures.
var discFolders = map[string]bool{
	"VIDEO_TS": true,
	"BDMV":     true,
	"HVDVD_TS": true,
}

// classifyFolder decides what kind of movie unit dir is, given the files
// directly inside it, and returns the directory the movie is rooted at.
func (p *pass) classifyFolder(dir string, files []string) (kind folderKind, root string) {
	defer func() {
		metrics.FoldersClassified.WithLabelValues(string(kind)).Inc()
	}()

	keys := make(map[string]bool)
	for _, f := range files {
		if p.classifier.Classify(f) != mediatypes.FileTypeVideo {
			continue
		}
		if mediatypes.IsDiscFile(f) {
			return folderDisc, p.discRoot(dir)
		}
		key := parser.NormalizedKey(filepath.Base(f))
		if key == "" {
			// nothing but a marker, as in "cd1.mkv"
			key = strings.ToLower(filepath.Base(dir))
		}
		keys[key] = true
	}

	switch {
	case len(keys) == 0:
		return folderNone, ""
	case len(keys) > 1 || filepath.Clean(dir) == p.ds:
		return folderMulti, dir
	}

	if p.isStackingFolder(dir) {
		return folderSingle, filepath.Dir(dir)
	}
	return folderSingle, dir
}

// movieRootOf returns the folder a video file makes a movie of, the same
// way classifyFolder resolves it.
func (p *pass) movieRootOf(video string) string {
	dir := filepath.Dir(video)
	if root := p.discRoot(dir); root != dir {
		return root
	}
	if p.isStackingFolder(dir) {
		return filepath.Dir(dir)
	}
	return dir
}

// discRoot climbs from dir while the path below the datasource still runs
// through a disc payload folder.
func (p *pass) discRoot(dir string) string {
	root := filepath.Clean(dir)
	for root != p.ds && inDiscPayload(p.ds, root) {
		parent := filepath.Dir(root)
		if parent == root {
			break
		}
		root = parent
	}
	return root
}

func inDiscPayload(ds, dir string) bool {
	rel, err := filepath.Rel(ds, dir)
	if err != nil {
		return false
	}
	for _, segment := range strings.Split(strings.ToUpper(rel), string(filepath.Separator)) {
		if discFolders[segment] {
			return true
		}
	}
	return false
}
