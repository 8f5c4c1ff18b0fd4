package parser

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// name-cd1.ext, name.part2.ext, name disc 3.ext
	fileStackingNumeric = regexp.MustCompile(`(?i)^(.*?)(?:^|[ _.-]+)((?:cd|dvd|p(?:ar)?t|dis[ck])[ _.-]*([0-9]+))(\.[^.]+)$`)
	// name-cda.ext .. name-cdd.ext
	fileStackingLetter = regexp.MustCompile(`(?i)^(.*?)(?:^|[ _.-]+)((?:cd|dvd|p(?:ar)?t|dis[ck])[ _.-]*([a-d]))(\.[^.]+)$`)
	// folder paths ending in CD1, "Movie Disc 2" or "Movie (2010)/CD1"
	folderStacking = regexp.MustCompile(`(?i)^(.*?)(?:^|[ _./\\-]+)((?:cd|dvd|p(?:ar)?t|dis[ck])[ _.-]*([0-9]+))$`)
)

// StackingMarker returns the stacking token of a filename ("cd1", "part 2")
// or "" when the file is not part of a stack.
func StackingMarker(filename string) string {
	if m := fileStackingNumeric.FindStringSubmatch(filename); m != nil {
		return m[2]
	}
	if m := fileStackingLetter.FindStringSubmatch(filename); m != nil {
		return m[2]
	}
	return ""
}

// StackingNumber returns the position of a stacked file, starting at 1,
// or 0 when the file is not stacked.
func StackingNumber(filename string) int {
	if m := fileStackingNumeric.FindStringSubmatch(filename); m != nil {
		n, _ := strconv.Atoi(m[3])
		return n
	}
	if m := fileStackingLetter.FindStringSubmatch(filename); m != nil {
		return int(strings.ToLower(m[3])[0]-'a') + 1
	}
	return 0
}

// CleanStackingMarkers removes the stacking token from a filename, keeping
// the extension. Names without a marker are returned unchanged.
func CleanStackingMarkers(filename string) string {
	if m := fileStackingNumeric.FindStringSubmatch(filename); m != nil {
		return m[1] + m[4]
	}
	if m := fileStackingLetter.FindStringSubmatch(filename); m != nil {
		return m[1] + m[4]
	}
	return filename
}

// FolderStackingMarker returns the stacking token at the end of a folder
// path ("CD1" for "Movie (2010)/CD1"), preserving its case.
func FolderStackingMarker(path string) string {
	if m := folderStacking.FindStringSubmatch(path); m != nil {
		return m[2]
	}
	return ""
}

// CleanFolderStackingMarkers removes a trailing stacking token from a
// folder name.
func CleanFolderStackingMarkers(name string) string {
	if m := folderStacking.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return name
}
