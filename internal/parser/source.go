package parser

import (
	"regexp"
	"strings"
)

// Media sources.
const (
	SourceUnknown = "unknown"
	SourceBluray  = "bluray"
	SourceHDDVD   = "hddvd"
	SourceDVD     = "dvd"
	SourceTV      = "tv"
	SourceVHS     = "vhs"
	SourceWeb     = "web"
)

const sourceDelim = `[\s.\-_/\\\[\](){}]`

var sources = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{SourceBluray, regexp.MustCompile(`(?i)` + sourceDelim + `(bluray|blueray|bdrip|brrip|dbrip|bd25|bd50|bdmv|blu-ray)(` + sourceDelim + `|$)`)},
	{SourceHDDVD, regexp.MustCompile(`(?i)` + sourceDelim + `(hddvd|hd-dvd|hdvd_ts|hvdvd_ts)(` + sourceDelim + `|$)`)},
	{SourceDVD, regexp.MustCompile(`(?i)` + sourceDelim + `(dvd|video_ts|dvdrip|dvdr|dvd5|dvd9)(` + sourceDelim + `|$)`)},
	{SourceTV, regexp.MustCompile(`(?i)` + sourceDelim + `(hdtv|pdtv|dsr|dtb|dtt|dttv|dtv|hdtvrip|tvrip|dvbrip)(` + sourceDelim + `|$)`)},
	{SourceVHS, regexp.MustCompile(`(?i)` + sourceDelim + `(vhs|vhsrip)(` + sourceDelim + `|$)`)},
	{SourceWeb, regexp.MustCompile(`(?i)` + sourceDelim + `(web-?dl|webrip|web)(` + sourceDelim + `|$)`)},
}

// DetectMediaSource derives the media source from a file path. ISO, VOB
// and m2ts payloads without a naming hint map to dvd and bluray.
func DetectMediaSource(path string) string {
	for _, s := range sources {
		if s.pattern.MatchString(path) {
			return s.name
		}
	}

	switch strings.ToLower(extOf(path)) {
	case ".vob", ".ifo", ".bup":
		return SourceDVD
	case ".m2ts", ".bdmv":
		return SourceBluray
	}
	return SourceUnknown
}

func extOf(path string) string {
	i := strings.LastIndexAny(path, `./\`)
	if i < 0 || path[i] != '.' {
		return ""
	}
	return path[i:]
}
