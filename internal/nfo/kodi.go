package nfo

import (
	"encoding/xml"
	"strings"

	"movie-indexer/internal/catalog"
	"movie-indexer/internal/parser"
)

type kodiMovie struct {
	XMLName       xml.Name       `xml:"movie"`
	Title         string         `xml:"title"`
	OriginalTitle string         `xml:"originaltitle"`
	SortTitle     string         `xml:"sorttitle"`
	Year          string         `xml:"year"`
	Premiered     string         `xml:"premiered"`
	Plot          string         `xml:"plot"`
	Outline       string         `xml:"outline"`
	Tagline       string         `xml:"tagline"`
	Runtime       string         `xml:"runtime"`
	MPAA          string         `xml:"mpaa"`
	Certification string         `xml:"certification"`
	Rating        string         `xml:"rating"`
	Ratings       []kodiRating   `xml:"ratings>rating"`
	Votes         string         `xml:"votes"`
	PlayCount     string         `xml:"playcount"`
	Watched       string         `xml:"watched"`
	ID            string         `xml:"id"`
	IMDB          string         `xml:"imdb"`
	TMDBID        string         `xml:"tmdbid"`
	UniqueIDs     []kodiUniqueID `xml:"uniqueid"`
	Genres        []string       `xml:"genre"`
	Directors     []string       `xml:"director"`
	Credits       []string       `xml:"credits"`
	Studios       []string       `xml:"studio"`
	Countries     []string       `xml:"country"`
	Set           kodiSet        `xml:"set"`
}

type kodiUniqueID struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type kodiRating struct {
	Name    string `xml:"name,attr"`
	Default string `xml:"default,attr"`
	Value   string `xml:"value"`
	Votes   string `xml:"votes"`
}

// kodiSet accepts both <set>Name</set> and <set><name>Name</name></set>.
type kodiSet struct {
	Name string `xml:"name"`
	Text string `xml:",chardata"`
}

func (s kodiSet) title() string {
	if name := strings.TrimSpace(s.Name); name != "" {
		return name
	}
	return strings.TrimSpace(s.Text)
}

func decodeKodi(data []byte) (*catalog.Movie, error) {
	var x kodiMovie
	if err := unmarshal(data, &x); err != nil {
		return nil, err
	}
	if strings.TrimSpace(x.Title) == "" {
		return nil, ErrNoMovie
	}

	m := catalog.NewMovie()
	m.Title = strings.TrimSpace(x.Title)
	m.OriginalTitle = strings.TrimSpace(x.OriginalTitle)
	m.SortTitle = strings.TrimSpace(x.SortTitle)
	m.Year = atoi(x.Year)
	if m.Year == 0 {
		m.Year = yearOf(x.Premiered)
	}
	m.Plot = strings.TrimSpace(x.Plot)
	if m.Plot == "" {
		m.Plot = strings.TrimSpace(x.Outline)
	}
	m.Tagline = strings.TrimSpace(x.Tagline)
	m.Runtime = atoi(x.Runtime)
	m.Certification = strings.TrimSpace(x.Certification)
	if m.Certification == "" {
		m.Certification = strings.TrimSpace(x.MPAA)
	}

	m.Rating = atof(x.Rating)
	m.Votes = atoi(x.Votes)
	for _, r := range x.Ratings {
		if m.Rating == 0 || parseBool(r.Default) {
			m.Rating = atof(r.Value)
			m.Votes = atoi(r.Votes)
		}
	}
	m.Watched = parseBool(x.Watched) || atoi(x.PlayCount) > 0

	for _, id := range []string{x.IMDB, x.ID} {
		if id = strings.TrimSpace(id); parser.IsValidImdbID(id) {
			m.ImdbID = id
			break
		}
	}
	m.TmdbID = atoi(x.TMDBID)
	for _, u := range x.UniqueIDs {
		value := strings.TrimSpace(u.Value)
		switch strings.ToLower(u.Type) {
		case "imdb":
			if parser.IsValidImdbID(value) {
				m.ImdbID = value
			}
		case "tmdb":
			if n := atoi(value); n > 0 {
				m.TmdbID = n
			}
		}
	}

	m.Genres = cleanList(x.Genres)
	m.Directors = cleanList(x.Directors)
	m.Writers = cleanList(x.Credits)
	m.Studio = strings.Join(cleanList(x.Studios), ", ")
	m.Country = strings.Join(cleanList(x.Countries), ", ")
	m.SetName = x.Set.title()
	return m, nil
}
