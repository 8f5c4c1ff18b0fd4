package filesystem

import (
	"path/filepath"
	"regexp"
	"strings"
)

// skipNames holds directory names that never contain movies, compared in
// upper case.
var skipNames = map[string]struct{}{
	".":                         {},
	"..":                        {},
	"CERTIFICATE":               {},
	"BACKUP":                    {},
	"PLAYLIST":                  {},
	"CLPINF":                    {},
	"SSIF":                      {},
	"AUXDATA":                   {},
	"AUDIO_TS":                  {},
	"JAR":                       {},
	"$RECYCLE.BIN":              {},
	"RECYCLER":                  {},
	"SYSTEM VOLUME INFORMATION": {},
	"@EADIR":                    {},
}

// hiddenName matches dot files and AppleDouble "._" files.
var hiddenName = regexp.MustCompile(`^[.][\w@]+.*`)

// ignoreSentinels mark a directory whose whole subtree is excluded.
var ignoreSentinels = []string{".tmmignore", "tmmignore", ".nomedia"}

// PathFilter decides which files and directories a scan must not descend
// into or consider. It is immutable and safe for concurrent use.
type PathFilter struct {
	skipFolders map[string]struct{}
}

// NewPathFilter returns a filter that additionally excludes the given
// absolute paths.
func NewPathFilter(skipFolders []string) *PathFilter {
	f := &PathFilter{skipFolders: make(map[string]struct{}, len(skipFolders))}
	for _, p := range skipFolders {
		if p == "" {
			continue
		}
		f.skipFolders[filepath.Clean(p)] = struct{}{}
	}
	return f
}

// ShouldSkipName applies the name rules: the fixed directory skip list
// (case-insensitive) and the hidden-name pattern.
func (f *PathFilter) ShouldSkipName(name string, isDir bool) bool {
	if isDir {
		if _, ok := skipNames[strings.ToUpper(name)]; ok {
			return true
		}
	}
	return hiddenName.MatchString(name)
}

// ShouldSkip applies all rules to a full path. Directories are also skipped
// when configured as skip folders or when they hold an ignore sentinel.
func (f *PathFilter) ShouldSkip(path string, isDir bool) bool {
	if f.ShouldSkipName(filepath.Base(path), isDir) {
		return true
	}
	if !isDir {
		return false
	}
	if f.IsSkipFolder(path) {
		return true
	}
	return HasIgnoreSentinel(path)
}

// IsSkipFolder reports whether path is one of the configured exclusions.
func (f *PathFilter) IsSkipFolder(path string) bool {
	if f == nil || len(f.skipFolders) == 0 {
		return false
	}
	_, ok := f.skipFolders[filepath.Clean(path)]
	return ok
}

// HasIgnoreSentinel reports whether dir directly contains an ignore marker.
func HasIgnoreSentinel(dir string) bool {
	for _, name := range ignoreSentinels {
		if _, err := StatWithRetry(filepath.Join(dir, name), DefaultRetryConfig()); err == nil {
			return true
		}
	}
	return false
}
