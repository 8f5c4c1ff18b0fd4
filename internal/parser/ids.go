package parser

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	imdbIDPattern      = regexp.MustCompile(`tt\d{7,8}`)
	validImdbIDPattern = regexp.MustCompile(`^tt\d{7,8}$`)
	discTitlePattern   = regexp.MustCompile(`Disc Title:[ \t]+(.*?)[\n\r]`)
)

// DetectImdbID returns the first IMDB id in text, or "".
func DetectImdbID(text string) string {
	return imdbIDPattern.FindString(text)
}

// IsValidImdbID reports whether id is a complete IMDB title id.
func IsValidImdbID(id string) bool {
	return validImdbIDPattern.MatchString(id)
}

// DetectDiscTitle returns the "Disc Title:" of a BDInfo report, title-cased,
// or "" when text is not such a report.
func DetectDiscTitle(text string) string {
	m := discTitlePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	title := strings.TrimSpace(m[1])
	if title == "" {
		return ""
	}
	title = strings.NewReplacer("_", " ", ".", " ").Replace(title)
	return cases.Title(language.Und).String(title)
}
