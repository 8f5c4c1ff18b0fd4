package parser

import "regexp"

// Edition names.
const (
	EditionNone         = ""
	EditionDirectorsCut = "Director's Cut"
	EditionExtended     = "Extended Edition"
	EditionTheatrical   = "Theatrical Edition"
	EditionUnrated      = "Unrated"
	EditionUncut        = "Uncut"
	EditionIMAX         = "IMAX"
	EditionSpecial      = "Special Edition"
)

var editions = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{EditionDirectorsCut, regexp.MustCompile(`(?i)(^|[\s.,_\-\[(])(directors?'?s?[\s._-]?cut|dc)([\s.,_\-\])]|$)`)},
	{EditionExtended, regexp.MustCompile(`(?i)(^|[\s.,_\-\[(])extended([\s._-]?(cut|edition|version))?([\s.,_\-\])]|$)`)},
	{EditionTheatrical, regexp.MustCompile(`(?i)(^|[\s.,_\-\[(])theatrical([\s._-]?(cut|edition|version))?([\s.,_\-\])]|$)`)},
	{EditionUnrated, regexp.MustCompile(`(?i)(^|[\s.,_\-\[(])unrated([\s.,_\-\])]|$)`)},
	{EditionUncut, regexp.MustCompile(`(?i)(^|[\s.,_\-\[(])uncut([\s.,_\-\])]|$)`)},
	{EditionIMAX, regexp.MustCompile(`(?i)(^|[\s.,_\-\[(])imax([\s.,_\-\])]|$)`)},
	{EditionSpecial, regexp.MustCompile(`(?i)(^|[\s.,_\-\[(])special[\s._-]?edition([\s.,_\-\])]|$)`)},
}

// DetectEdition returns the edition named in a file or folder name, or
// EditionNone.
func DetectEdition(name string) string {
	for _, e := range editions {
		if e.pattern.MatchString(name) {
			return e.name
		}
	}
	return EditionNone
}

var video3D = regexp.MustCompile(`(?i)[ ._(\[-]3D[ ._)\]-]?`)

// Is3D reports whether name carries a 3D marker such as ".3D." or "(3D)".
func Is3D(name string) bool {
	return video3D.MatchString(name)
}

// stripMarkers removes edition and 3D markers from name.
func stripMarkers(name string) string {
	for _, e := range editions {
		name = e.pattern.ReplaceAllString(name, " ")
	}
	return video3D.ReplaceAllString(name, " ")
}
