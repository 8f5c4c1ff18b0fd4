package nfo

import (
	"encoding/xml"
	"strings"

	"movie-indexer/internal/catalog"
	"movie-indexer/internal/parser"
)

type mpMovie struct {
	XMLName       xml.Name `xml:"movie"`
	Title         string   `xml:"title"`
	OriginalTitle string   `xml:"originaltitle"`
	SortTitle     string   `xml:"sorttitle"`
	Year          string   `xml:"year"`
	Plot          string   `xml:"plot"`
	Tagline       string   `xml:"tagline"`
	Runtime       string   `xml:"runtime"`
	MPAA          string   `xml:"mpaa"`
	Rating        string   `xml:"rating"`
	Votes         string   `xml:"votes"`
	Watched       string   `xml:"watched"`
	ID            string   `xml:"id"`
	IMDB          string   `xml:"imdb"`
	TMDBID        string   `xml:"tmdbId"`
	Genres        []string `xml:"genres>genre"`
	Director      string   `xml:"director"`
	Credits       string   `xml:"credits"`
	Studio        string   `xml:"studio"`
	Country       string   `xml:"country"`
	Sets          []mpSet  `xml:"sets>set"`
}

type mpSet struct {
	Order string `xml:"order,attr"`
	Name  string `xml:",chardata"`
}

func decodeMediaPortal(data []byte) (*catalog.Movie, error) {
	var x mpMovie
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
	m.Plot = strings.TrimSpace(x.Plot)
	m.Tagline = strings.TrimSpace(x.Tagline)
	m.Runtime = atoi(x.Runtime)
	m.Certification = strings.TrimSpace(x.MPAA)
	m.Rating = atof(x.Rating)
	m.Votes = atoi(x.Votes)
	m.Watched = parseBool(x.Watched)

	for _, id := range []string{x.IMDB, x.ID} {
		if id = strings.TrimSpace(id); parser.IsValidImdbID(id) {
			m.ImdbID = id
			break
		}
	}
	m.TmdbID = atoi(x.TMDBID)

	m.Genres = cleanList(x.Genres)
	m.Directors = cleanList([]string{x.Director})
	m.Writers = cleanList([]string{x.Credits})
	m.Studio = strings.TrimSpace(x.Studio)
	m.Country = strings.TrimSpace(x.Country)
	if len(x.Sets) > 0 {
		m.SetName = strings.TrimSpace(x.Sets[0].Name)
	}
	return m, nil
}
