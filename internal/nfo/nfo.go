package nfo

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"movie-indexer/internal/catalog"
	"movie-indexer/internal/filesystem"
	"movie-indexer/internal/logging"
)

// ErrNoMovie is returned when a file holds no parseable movie record.
var ErrNoMovie = errors.New("no movie in nfo")

var log = logging.Named("nfo")

// Dialect names a metadata file format.
type Dialect string

const (
	Kodi        Dialect = "kodi"
	MediaPortal Dialect = "mp"
)

// ParseDialect maps a configuration value to a Dialect. Unknown values
// select Kodi.
func ParseDialect(s string) Dialect {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mp", "mediaportal":
		return MediaPortal
	default:
		return Kodi
	}
}

// Parse reads the file at path in the given dialect.
func Parse(d Dialect, path string) (*catalog.Movie, error) {
	data, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var m *catalog.Movie
	switch d {
	case MediaPortal:
		m, err = decodeMediaPortal(data)
	default:
		m, err = decodeKodi(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s nfo %s: %w", d, path, err)
	}
	return m, nil
}

// Reader parses metadata files with a preferred dialect and a fallback.
type Reader struct {
	Preferred Dialect
}

// NewReader returns a Reader preferring d.
func NewReader(d Dialect) *Reader {
	return &Reader{Preferred: d}
}

// Read parses path with the preferred dialect, then the alternate one.
// It returns ErrNoMovie when neither succeeds.
func (r *Reader) Read(path string) (*catalog.Movie, error) {
	first, second := Kodi, MediaPortal
	if r.Preferred == MediaPortal {
		first, second = MediaPortal, Kodi
	}

	m, err := Parse(first, path)
	if err == nil {
		return m, nil
	}
	log.Debug("%v", err)

	m, err2 := Parse(second, path)
	if err2 == nil {
		return m, nil
	}
	log.Debug("%v", err2)

	return nil, fmt.Errorf("%s: %w", path, ErrNoMovie)
}

func unmarshal(data []byte, v any) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrNoMovie, err)
	}
	return nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(s, ",", ".")), 64)
	return f
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(s))
	return b
}

// yearOf returns the leading year of a "2006-01-02" style date.
func yearOf(date string) int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return 0
	}
	return atoi(date[:4])
}

func cleanList(values []string) []string {
	var out []string
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, " / ") {
			part = strings.TrimSpace(part)
			if part == "" || seen[part] {
				continue
			}
			seen[part] = true
			out = append(out, part)
		}
	}
	return out
}
