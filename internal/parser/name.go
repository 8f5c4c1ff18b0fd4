package parser

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

var tokenSeparators = regexp.MustCompile(`[\s.,_\-\[\]()]+`)

var yearToken = regexp.MustCompile(`^(18|19|20)\d{2}$`)

// stopwords end the title part of a release name.
var stopwords = map[string]bool{
	"ac3": true, "dts": true, "custom": true, "dc": true, "divx": true, "divx5": true,
	"dsr": true, "dsrip": true, "dutch": true, "dvd": true, "dvdrip": true, "dvdscr": true,
	"dvdscreener": true, "screener": true, "dvdivx": true, "cam": true, "fragment": true,
	"fs": true, "hdtv": true, "hdrip": true, "hdtvrip": true, "internal": true,
	"limited": true, "multisubs": true, "ntsc": true, "ogg": true, "ogm": true, "pal": true,
	"pdtv": true, "proper": true, "repack": true, "rerip": true, "retail": true,
	"r3": true, "r5": true, "bd5": true, "svcd": true, "swedish": true, "german": true,
	"nfofix": true, "unrated": true, "ws": true, "telesync": true, "ts": true,
	"telecine": true, "tc": true, "brrip": true, "bdrip": true, "480p": true, "480i": true,
	"576p": true, "576i": true, "720p": true, "720i": true, "1080p": true, "1080i": true,
	"2160p": true, "4k": true, "uhd": true, "hrhd": true, "hrhdtv": true, "hddvd": true,
	"bluray": true, "x264": true, "x265": true, "h264": true, "h265": true, "hevc": true,
	"xvid": true, "xvidvd": true, "webrip": true, "webdl": true, "web": true,
	"remux": true, "3d": true, "hsbs": true, "htab": true, "sbs": true, "tab": true,
}

// CleanNameAndYear splits a folder name or file basename (without
// extension) into a display title and a release year. The year is the
// last year-like token after the first word; everything from the year or
// the first release stopword on is dropped. year is 0 when none is found.
func CleanNameAndYear(name string) (title string, year int) {
	tokens := tokenize(name)
	if len(tokens) == 0 {
		return "", 0
	}

	cut := len(tokens)
	maxYear := time.Now().Year() + 5
	for i := len(tokens) - 1; i > 0; i-- {
		if !yearToken.MatchString(tokens[i]) {
			continue
		}
		y, _ := strconv.Atoi(tokens[i])
		if y > maxYear {
			continue
		}
		year = y
		cut = i
		break
	}

	for i := 1; i < cut; i++ {
		if stopwords[strings.ToLower(tokens[i])] {
			cut = i
			break
		}
	}

	words := make([]string, 0, cut)
	for _, t := range tokens[:cut] {
		words = append(words, capitalize(t))
	}
	return strings.Join(words, " "), year
}

// NormalizedKey returns the comparison key of a video filename: stacking,
// edition and 3D markers and the extension removed, then clean name and
// year, lower case.
func NormalizedKey(filename string) string {
	title, year := CleanNameAndYear(stripMarkers(Basename(CleanStackingMarkers(filename))))
	key := strings.ToLower(title)
	if year > 0 {
		key += " " + strconv.Itoa(year)
	}
	return key
}

// Basename returns the filename without its extension.
func Basename(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

func tokenize(name string) []string {
	parts := tokenSeparators.Split(name, -1)
	tokens := parts[:0]
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// capitalize upper-cases the first rune and leaves the rest untouched.
func capitalize(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError {
		return word
	}
	return string(unicode.ToUpper(r)) + word[size:]
}
