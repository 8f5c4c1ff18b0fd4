package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"movie-indexer/internal/catalog"
	"movie-indexer/internal/database"
	"movie-indexer/internal/mediatypes"
	"movie-indexer/internal/messages"
	"movie-indexer/internal/nfo"
	"movie-indexer/internal/parser"
)

type fakeInspector struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeInspector) Inspect(_ context.Context, mf *catalog.MediaFile, _ *catalog.Movie, force bool) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if mf.Inspected() && !force {
		return nil
	}
	mf.ContainerFormat = "matroska"
	mf.VideoCodec = "h264"
	mf.Width, mf.Height = 1920, 1080
	mf.VideoFormat = "1080p"
	return nil
}

func (f *fakeInspector) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// writeTree creates the given files below root. Values are the file
// contents.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func newTestIndexer(t *testing.T, store catalog.Store, datasources ...string) (*Indexer, *catalog.Catalog, *messages.Collector) {
	t.Helper()
	c := catalog.New(store)
	sink := messages.NewCollector(0)

	opts := DefaultOptions()
	opts.Datasources = datasources
	idx := New(c, opts, Dependencies{
		NFO:  nfo.NewReader(nfo.Kodi),
		Sink: sink,
	})
	return idx, c, sink
}

func moviesByTitle(c *catalog.Catalog) map[string]*catalog.Movie {
	out := make(map[string]*catalog.Movie)
	for _, m := range c.All() {
		out[m.Title] = m
	}
	return out
}

func fileNames(mfs []*catalog.MediaFile) []string {
	names := make([]string, 0, len(mfs))
	for _, mf := range mfs {
		names = append(names, mf.Filename)
	}
	sort.Strings(names)
	return names
}

const alphaNFO = `<?xml version="1.0" encoding="UTF-8"?>
<movie>
  <title>Alpha</title>
  <year>2001</year>
  <uniqueid type="imdb" default="true">tt0000001</uniqueid>
</movie>`

func TestUpdateDatasources_MultiMoviePartition(t *testing.T) {
	ds := t.TempDir()
	writeTree(t, ds, map[string]string{
		"Flat/Alpha (2001).mkv": "",
		"Flat/Alpha (2001).nfo": alphaNFO,
		"Flat/Beta (2002).mkv":  "",
	})

	idx, c, _ := newTestIndexer(t, nil, ds)
	if _, err := idx.UpdateDatasources(context.Background()); err != nil {
		t.Fatalf("UpdateDatasources() error = %v", err)
	}

	if c.Len() != 2 {
		t.Fatalf("catalog has %d movies, want 2", c.Len())
	}
	movies := moviesByTitle(c)

	tests := []struct {
		title string
		year  int
		files []string
	}{
		{"Alpha", 2001, []string{"Alpha (2001).mkv", "Alpha (2001).nfo"}},
		{"Beta", 2002, []string{"Beta (2002).mkv"}},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			m, ok := movies[tt.title]
			if !ok {
				t.Fatalf("movie %q not found", tt.title)
			}
			if m.Year != tt.year {
				t.Errorf("Year = %d, want %d", m.Year, tt.year)
			}
			if got := fileNames(m.MediaFiles()); !equalStrings(got, tt.files) {
				t.Errorf("files = %v, want %v", got, tt.files)
			}
			if !m.MultiMovieDir {
				t.Error("MultiMovieDir = false, want true")
			}
			if m.Path != filepath.Join(ds, "Flat") {
				t.Errorf("Path = %q", m.Path)
			}
		})
	}
	if movies["Alpha"].ImdbID != "tt0000001" {
		t.Errorf("Alpha ImdbID = %q, want tt0000001", movies["Alpha"].ImdbID)
	}
}

func TestUpdateDatasources_DiscRootClimbing(t *testing.T) {
	tests := []struct {
		name   string
		files  map[string]string
		root   string
		source string
	}{
		{
			name:   "dvd",
			files:  map[string]string{"Movie Title/VIDEO_TS/VIDEO_TS.VOB": "", "Movie Title/VIDEO_TS/VIDEO_TS.IFO": ""},
			root:   "Movie Title",
			source: "dvd",
		},
		{
			name: "bluray",
			files: map[string]string{
				"Blu Movie/BDMV/index.bdmv":         "",
				"Blu Movie/BDMV/STREAM/00000.m2ts":  "",
				"Blu Movie/BDMV/STREAM/00001.m2ts":  "",
				"Blu Movie/CERTIFICATE/id.bdmv":     "",
				"Blu Movie/BDMV/BACKUP/index.bdmv":  "",
				"Blu Movie/BDMV/PLAYLIST/00000.mpl": "",
			},
			root:   "Blu Movie",
			source: "bluray",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := t.TempDir()
			writeTree(t, ds, tt.files)

			idx, c, _ := newTestIndexer(t, nil, ds)
			if _, err := idx.UpdateDatasources(context.Background()); err != nil {
				t.Fatal(err)
			}

			all := c.All()
			if len(all) != 1 {
				t.Fatalf("catalog has %d movies, want 1", len(all))
			}
			m := all[0]
			if want := filepath.Join(ds, tt.root); m.Path != want {
				t.Errorf("Path = %q, want %q", m.Path, want)
			}
			if m.Title != tt.root {
				t.Errorf("Title = %q, want %q", m.Title, tt.root)
			}
			if !m.Disc {
				t.Error("Disc = false, want true")
			}
			if m.Stacked {
				t.Error("a disc must not be stacked")
			}
			if m.MediaSource != tt.source {
				t.Errorf("MediaSource = %q, want %q", m.MediaSource, tt.source)
			}
		})
	}
}

func TestUpdateDatasources_StackingFold(t *testing.T) {
	ds := t.TempDir()
	writeTree(t, ds, map[string]string{
		"Movie (2010)/CD1/movie-cd1.mkv": "",
		"Movie (2010)/CD2/movie-cd2.mkv": "",
	})

	idx, c, _ := newTestIndexer(t, nil, ds)
	report, err := idx.UpdateDatasources(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	all := c.All()
	if len(all) != 1 {
		t.Fatalf("catalog has %d movies, want 1", len(all))
	}
	m := all[0]
	if want := filepath.Join(ds, "Movie (2010)"); m.Path != want {
		t.Errorf("Path = %q, want %q", m.Path, want)
	}
	if m.Title != "Movie" || m.Year != 2010 {
		t.Errorf("Title/Year = %q/%d, want Movie/2010", m.Title, m.Year)
	}
	if !m.Stacked {
		t.Error("Stacked = false, want true")
	}

	videos := m.MediaFiles(mediatypes.FileTypeVideo)
	if len(videos) != 2 {
		t.Fatalf("movie has %d videos, want 2", len(videos))
	}
	for i, v := range videos {
		if v.Stacking != i+1 {
			t.Errorf("%s Stacking = %d, want %d", v.Filename, v.Stacking, i+1)
		}
	}
	if got := report.Totals().VideoFolders; got != 1 {
		t.Errorf("VideoFolders = %d, want 1 (CD2 is folded into the parent)", got)
	}
}

func TestUpdateDatasources_IdempotentRescan(t *testing.T) {
	ds := t.TempDir()
	writeTree(t, ds, map[string]string{
		"Alien (1979)/Alien (1979).mkv": "",
		"Alien (1979)/poster.jpg":       "",
		"Alien (1979)/fanart.jpg":       "",
		"Alien (1979)/Alien (1979).srt": "",
		"Flat/Alpha (2001).mkv":         "",
		"Flat/Alpha (2001).nfo":         alphaNFO,
		"Flat/Beta (2002).mkv":          "",
		"Flat/Beta (2002)-poster.jpg":   "",
		"Dvd/VIDEO_TS/VIDEO_TS.VOB":     "",
		"Stacked/Stacked-cd1.avi":       "",
		"Stacked/Stacked-cd2.avi":       "",
		"Loose (2005).mkv":              "",
	})

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	idx, c, _ := newTestIndexer(t, db, ds)

	snapshot := func(c *catalog.Catalog) map[string][]string {
		out := make(map[string][]string)
		for _, m := range c.All() {
			out[m.ID.String()+" "+m.Title] = fileNames(m.MediaFiles())
		}
		return out
	}

	if _, err := idx.UpdateDatasources(context.Background()); err != nil {
		t.Fatal(err)
	}
	first := snapshot(c)
	if len(first) != 6 {
		t.Fatalf("first pass found %d movies, want 6: %v", len(first), first)
	}

	report, err := idx.UpdateDatasources(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second := snapshot(c)
	if !equalSnapshots(first, second) {
		t.Errorf("second pass changed the catalog:\nfirst:  %v\nsecond: %v", first, second)
	}
	if totals := report.Totals(); totals.MoviesCreated != 0 || totals.MoviesRemoved != 0 {
		t.Errorf("second pass created %d and removed %d movies", totals.MoviesCreated, totals.MoviesRemoved)
	}

	reloaded := catalog.New(db)
	if err := reloaded.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if persisted := snapshot(reloaded); !equalSnapshots(first, persisted) {
		t.Errorf("persisted catalog differs:\nmemory: %v\nstore:  %v", first, persisted)
	}
}

func TestUpdateDatasources_OrphanRemoval(t *testing.T) {
	ds := t.TempDir()
	writeTree(t, ds, map[string]string{
		"Gone/Gone.mkv": "",
		"Kept/Kept.mkv": "",
		"Kept/Kept.nfo": "not xml",
	})

	idx, c, _ := newTestIndexer(t, nil, ds)
	ctx := context.Background()
	if _, err := idx.UpdateDatasources(ctx); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 2 {
		t.Fatalf("catalog has %d movies, want 2", c.Len())
	}

	if err := os.RemoveAll(filepath.Join(ds, "Gone")); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(ds, "Kept", "Kept.nfo")); err != nil {
		t.Fatal(err)
	}

	report, err := idx.UpdateDatasources(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if c.FindByPath(filepath.Join(ds, "Gone")) != nil {
		t.Error("orphaned movie was not removed")
	}
	if got := report.Totals().MoviesRemoved; got != 1 {
		t.Errorf("MoviesRemoved = %d, want 1", got)
	}

	kept := c.FindByPath(filepath.Join(ds, "Kept"))
	if kept == nil {
		t.Fatal("kept movie was removed")
	}
	if len(kept.MediaFiles(mediatypes.FileTypeNFO)) != 1 {
		t.Error("files of a newly added movie must not be pruned")
	}

	if err := c.CommitNewlyAdded(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := idx.UpdateDatasources(ctx); err != nil {
		t.Fatal(err)
	}
	if len(kept.MediaFiles(mediatypes.FileTypeNFO)) != 0 {
		t.Error("vanished nfo was not pruned after commit")
	}
	if len(kept.MediaFiles(mediatypes.FileTypeVideo)) != 1 {
		t.Error("video of kept movie was pruned")
	}
}

func TestUpdateDatasources_SkipFoldersCaseInsensitive(t *testing.T) {
	for _, name := range []string{"backup", "BACKUP", "BackUp"} {
		t.Run(name, func(t *testing.T) {
			ds := t.TempDir()
			writeTree(t, ds, map[string]string{
				name + "/Old (1999)/Old (1999).mkv": "",
				"Movies/" + name + "/Copy.mkv":      "",
			})

			idx, c, _ := newTestIndexer(t, nil, ds)
			if _, err := idx.UpdateDatasources(context.Background()); err != nil {
				t.Fatal(err)
			}
			if c.Len() != 0 {
				t.Errorf("catalog has %d movies, want 0", c.Len())
			}
		})
	}
}

func TestUpdateDatasources_IgnoreSentinelAndSkipFolder(t *testing.T) {
	ds := t.TempDir()
	writeTree(t, ds, map[string]string{
		"Ignored/.nomedia":           "",
		"Ignored/Ignored.mkv":        "",
		"Excluded/Excluded.mkv":      "",
		"Hidden/.hidden.mkv":         "",
		"Visible (2020)/Visible.mkv": "",
	})

	c := catalog.New(nil)
	opts := DefaultOptions()
	opts.Datasources = []string{ds}
	opts.SkipFolders = []string{filepath.Join(ds, "Excluded")}
	idx := New(c, opts, Dependencies{Sink: messages.Discard})

	if _, err := idx.UpdateDatasources(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 1 {
		t.Fatalf("catalog has %d movies, want 1", c.Len())
	}
	if m := c.All()[0]; m.Title != "Visible" {
		t.Errorf("Title = %q, want Visible", m.Title)
	}
}

func TestUpdateDatasources_PosterFallback(t *testing.T) {
	tests := []struct {
		name   string
		files  map[string]string
		poster string
	}{
		{
			name:   "unlabeled image named like the video",
			files:  map[string]string{"Film (1999)/Film (1999).mkv": "", "Film (1999)/Film (1999).jpg": ""},
			poster: "Film (1999).jpg",
		},
		{
			name:   "unlabeled image named like the stacked video",
			files:  map[string]string{"Film (1999)/Film (1999) cd1.mkv": "", "Film (1999)/Film (1999) cd2.mkv": "", "Film (1999)/Film (1999).png": ""},
			poster: "Film (1999).png",
		},
		{
			name:   "labeled poster wins",
			files:  map[string]string{"Film (1999)/Film (1999).mkv": "", "Film (1999)/Film (1999).jpg": "", "Film (1999)/poster.jpg": ""},
			poster: "poster.jpg",
		},
		{
			name:   "unrelated image is ignored",
			files:  map[string]string{"Film (1999)/Film (1999).mkv": "", "Film (1999)/screenshot.jpg": ""},
			poster: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := t.TempDir()
			writeTree(t, ds, tt.files)

			idx, c, _ := newTestIndexer(t, nil, ds)
			if _, err := idx.UpdateDatasources(context.Background()); err != nil {
				t.Fatal(err)
			}
			m := c.FindByPath(filepath.Join(ds, "Film (1999)"))
			if m == nil {
				t.Fatal("movie not found")
			}

			posters := m.MediaFiles(mediatypes.FileTypePoster)
			if tt.poster == "" {
				if len(posters) != 0 {
					t.Errorf("posters = %v, want none", fileNames(posters))
				}
				return
			}
			if len(posters) != 1 || posters[0].Filename != tt.poster {
				t.Errorf("posters = %v, want [%s]", fileNames(posters), tt.poster)
			}
			if len(m.MediaFiles(mediatypes.FileTypeGraphic)) != 0 {
				t.Error("unlabeled images must never be attached as such")
			}
		})
	}
}

func TestUpdateDatasources_AttachmentRules(t *testing.T) {
	ds := t.TempDir()
	writeTree(t, ds, map[string]string{
		"Film/Film.mkv":                "",
		"Film/Film-trailer.mkv":        "",
		"Film/Film.en.srt":             "",
		"Film/fanart.jpg":              "",
		"Film/extrafanart/fanart1.jpg": "",
		"Film/extrathumbs/thumb1.jpg":  "",
		"Film/readme.xyz":              "",
		"Film/Film.sample.mkv":         "",
	})

	c := catalog.New(nil)
	opts := DefaultOptions()
	opts.Datasources = []string{ds}
	inspector := &fakeInspector{}
	idx := New(c, opts, Dependencies{Inspector: inspector, Sink: messages.Discard})

	report, err := idx.UpdateDatasources(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	m := c.FindByPath(filepath.Join(ds, "Film"))
	if m == nil {
		t.Fatal("movie not found")
	}

	counts := map[mediatypes.FileType]int{
		mediatypes.FileTypeVideo:       1,
		mediatypes.FileTypeTrailer:     1,
		mediatypes.FileTypeSubtitle:    1,
		mediatypes.FileTypeFanart:      1,
		mediatypes.FileTypeExtraFanart: 1,
		mediatypes.FileTypeExtraThumb:  1,
		mediatypes.FileTypeSample:      1,
		mediatypes.FileTypeUnknown:     0,
	}
	for typ, want := range counts {
		if got := len(m.MediaFiles(typ)); got != want {
			t.Errorf("%s files = %d, want %d", typ, got, want)
		}
	}
	if !m.Subtitles {
		t.Error("Subtitles = false, want true")
	}

	trailers := m.Trailers()
	if len(trailers) != 1 {
		t.Fatalf("trailers = %d, want 1", len(trailers))
	}
	if tr := trailers[0]; tr.Provider != "downloaded" || tr.Quality != "1080p" || tr.InNfo {
		t.Errorf("trailer = %+v", tr)
	}

	for _, mf := range m.MediaFiles(mediatypes.FileTypeVideo, mediatypes.FileTypeSample) {
		if !mf.Inspected() {
			t.Errorf("%s was not inspected", mf.Filename)
		}
	}
	// video and sample in the inspection phase, the trailer while attaching
	if got := report.Totals().Inspected; got != 2 {
		t.Errorf("Inspected = %d, want 2", got)
	}
	if got := inspector.Calls(); got != 3 {
		t.Errorf("inspector calls = %d, want 3", got)
	}
}

func TestUpdateDatasources_RootFilesAreMultiMovies(t *testing.T) {
	ds := t.TempDir()
	writeTree(t, ds, map[string]string{
		"Loose (2005).mkv": "",
		"Other (2006).mkv": "",
		".hidden.mkv":      "",
	})

	idx, c, _ := newTestIndexer(t, nil, ds)
	if _, err := idx.UpdateDatasources(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 2 {
		t.Fatalf("catalog has %d movies, want 2", c.Len())
	}
	for _, m := range c.All() {
		if m.Path != ds || !m.MultiMovieDir {
			t.Errorf("movie %q: Path = %q, MultiMovieDir = %v", m.Title, m.Path, m.MultiMovieDir)
		}
	}
}

func TestUpdateDatasources_NoDatasources(t *testing.T) {
	idx, c, sink := newTestIndexer(t, nil, "", "  ")

	_, err := idx.UpdateDatasources(context.Background())
	if !errors.Is(err, ErrNoDatasources) {
		t.Fatalf("error = %v, want ErrNoDatasources", err)
	}
	if c.Len() != 0 {
		t.Error("no work must be done without datasources")
	}

	msgs := sink.Messages()
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if msgs[0].Level != messages.Error || msgs[0].Key != "update.datasource.nonespecified" {
		t.Errorf("message = %+v", msgs[0])
	}
}

func TestUpdateDatasources_ScanInProgress(t *testing.T) {
	idx, _, _ := newTestIndexer(t, nil, t.TempDir())

	if !idx.tryStart() {
		t.Fatal("tryStart() = false on an idle indexer")
	}
	if !idx.IsRunning() {
		t.Error("IsRunning() = false while started")
	}
	if _, err := idx.UpdateDatasources(context.Background()); !errors.Is(err, ErrScanInProgress) {
		t.Errorf("error = %v, want ErrScanInProgress", err)
	}

	idx.finish()
	if _, err := idx.UpdateDatasources(context.Background()); err != nil {
		t.Errorf("error after finish = %v", err)
	}
}

func TestUpdateDatasources_Cancelled(t *testing.T) {
	ds := t.TempDir()
	writeTree(t, ds, map[string]string{"Film/Film.mkv": ""})

	idx, c, _ := newTestIndexer(t, nil, ds)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := idx.UpdateDatasources(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Cancelled {
		t.Error("Cancelled = false, want true")
	}
	if c.Len() != 0 {
		t.Errorf("catalog has %d movies after a cancelled pass, want 0", c.Len())
	}
}

func TestUpdateDatasources_UnavailableDatasourceKeepsMovies(t *testing.T) {
	ds := filepath.Join(t.TempDir(), "offline")

	idx, c, sink := newTestIndexer(t, nil, ds)
	m := catalog.NewMovie()
	m.Title = "Offline"
	m.Path = filepath.Join(ds, "Offline")
	m.DataSource = ds
	c.Add(m)

	report, err := idx.UpdateDatasources(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !report.Datasources[0].Unavailable {
		t.Error("Unavailable = false, want true")
	}
	if c.Len() != 1 {
		t.Error("movies of an unavailable datasource must be kept")
	}
	if len(sink.Messages()) == 0 {
		t.Error("no message for the unavailable datasource")
	}
}

func TestUpdateDatasource_OnlyTouchesGivenDatasource(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	writeTree(t, first, map[string]string{"One/One.mkv": ""})
	writeTree(t, second, map[string]string{"Two/Two.mkv": ""})

	idx, c, _ := newTestIndexer(t, nil, first, second)

	var completed []*Report
	idx.SetOnComplete(func(r *Report) { completed = append(completed, r) })

	if _, err := idx.UpdateDatasource(context.Background(), second); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 1 || c.All()[0].Title != "Two" {
		t.Errorf("catalog = %v, want only Two", moviesByTitle(c))
	}
	if len(completed) != 1 || idx.LastReport() != completed[0] {
		t.Error("completion callback not invoked with the last report")
	}
}

func TestUpdateDatasources_MovieSetFromNFO(t *testing.T) {
	ds := t.TempDir()
	writeTree(t, ds, map[string]string{
		"Saga 2/Saga 2.mkv": "",
		"Saga 2/movie.nfo":  `<movie><title>Saga 2</title><year>2004</year><set><name>Saga</name></set></movie>`,
		"Saga 1/Saga 1.mkv": "",
		"Saga 1/movie.nfo":  `<movie><title>Saga 1</title><year>2001</year><set><name>Saga</name></set></movie>`,
		"Single/Single.mkv": "",
	})

	idx, c, _ := newTestIndexer(t, nil, ds)
	if _, err := idx.UpdateDatasources(context.Background()); err != nil {
		t.Fatal(err)
	}

	sets := c.MovieSets()
	if len(sets) != 1 {
		t.Fatalf("got %d movie sets, want 1", len(sets))
	}
	movies := moviesByTitle(c)
	s := sets[0]
	if s.Title != "Saga" || len(s.MovieIDs) != 2 {
		t.Fatalf("set = %+v", s)
	}
	if s.MovieIDs[0] != movies["Saga 1"].ID || s.MovieIDs[1] != movies["Saga 2"].ID {
		t.Error("set members are not ordered by year")
	}
	if c.MovieSetOf(movies["Single"]) != nil {
		t.Error("Single must not belong to a set")
	}
}

func TestUpdateDatasources_Duplicates(t *testing.T) {
	ds := t.TempDir()
	heatNFO := `<movie><title>Heat</title><year>1995</year><uniqueid type="imdb" default="true">tt0113277</uniqueid></movie>`
	writeTree(t, ds, map[string]string{
		"Heat/Heat.mkv":       "",
		"Heat/movie.nfo":      heatNFO,
		"Heat Copy/Heat.mkv":  "",
		"Heat Copy/movie.nfo": heatNFO,
	})

	idx, c, _ := newTestIndexer(t, nil, ds)
	report, err := idx.UpdateDatasources(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Duplicates != 2 {
		t.Errorf("Duplicates = %d, want 2", report.Duplicates)
	}
	for _, m := range c.All() {
		if !m.Duplicate {
			t.Errorf("%s not flagged as duplicate", m.Path)
		}
	}
}

func TestUpdateDatasources_EditionCopyIsSameMovie(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  []string
	}{
		{
			name:  "edition",
			files: map[string]string{"Movie (2010)/Movie (2010).mkv": "", "Movie (2010)/Movie Extended (2010).mkv": ""},
			want:  []string{"Movie (2010).mkv", "Movie Extended (2010).mkv"},
		},
		{
			name:  "3d",
			files: map[string]string{"Movie (2010)/Movie (2010).mkv": "", "Movie (2010)/Movie (2010) 3D.mkv": ""},
			want:  []string{"Movie (2010) 3D.mkv", "Movie (2010).mkv"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := t.TempDir()
			writeTree(t, ds, tt.files)

			idx, c, _ := newTestIndexer(t, nil, ds)
			if _, err := idx.UpdateDatasources(context.Background()); err != nil {
				t.Fatal(err)
			}

			all := c.All()
			if len(all) != 1 {
				t.Fatalf("catalog has %d movies, want 1", len(all))
			}
			m := all[0]
			if m.MultiMovieDir {
				t.Error("MultiMovieDir = true, want false")
			}
			if m.Title != "Movie" || m.Year != 2010 {
				t.Errorf("Title/Year = %q/%d, want Movie/2010", m.Title, m.Year)
			}
			if got := fileNames(m.MediaFiles(mediatypes.FileTypeVideo)); !equalStrings(got, tt.want) {
				t.Errorf("videos = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUpdateDatasources_MarkerOnlyFileNames(t *testing.T) {
	ds := t.TempDir()
	writeTree(t, ds, map[string]string{
		"Some Movie (2010)/cd1.mkv": "",
		"Some Movie (2010)/cd2.mkv": "",
	})

	idx, c, _ := newTestIndexer(t, nil, ds)
	report, err := idx.UpdateDatasources(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	m := c.FindByPath(filepath.Join(ds, "Some Movie (2010)"))
	if m == nil {
		t.Fatalf("movie not found, catalog has %d movies", c.Len())
	}
	if c.Len() != 1 {
		t.Errorf("catalog has %d movies, want 1", c.Len())
	}
	if m.Title != "Some Movie" || m.Year != 2010 {
		t.Errorf("Title/Year = %q/%d, want Some Movie/2010", m.Title, m.Year)
	}
	if got := fileNames(m.MediaFiles(mediatypes.FileTypeVideo)); !equalStrings(got, []string{"cd1.mkv", "cd2.mkv"}) {
		t.Errorf("videos = %v", got)
	}
	if got := report.Totals().MoviesCreated; got != 1 {
		t.Errorf("MoviesCreated = %d, want 1", got)
	}
}

func TestUpdateDatasources_NestedMovieFolderOwnsItsFiles(t *testing.T) {
	ds := t.TempDir()
	writeTree(t, ds, map[string]string{
		"Saga (2000)/saga.mkv":                 "",
		"Saga (2000)/poster.jpg":               "",
		"Saga (2000)/Sequel (2005)/sequel.mkv": "",
		"Saga (2000)/Sequel (2005)/sequel.nfo": "not xml",
	})

	idx, c, _ := newTestIndexer(t, nil, ds)
	ctx := context.Background()
	for range 2 {
		if _, err := idx.UpdateDatasources(ctx); err != nil {
			t.Fatal(err)
		}
	}

	saga := c.FindByPath(filepath.Join(ds, "Saga (2000)"))
	sequel := c.FindByPath(filepath.Join(ds, "Saga (2000)", "Sequel (2005)"))
	if saga == nil || sequel == nil {
		t.Fatalf("movies not found: saga %v, sequel %v", saga != nil, sequel != nil)
	}

	if got := fileNames(saga.MediaFiles()); !equalStrings(got, []string{"poster.jpg", "saga.mkv"}) {
		t.Errorf("Saga files = %v", got)
	}
	if saga.Stacked {
		t.Error("Saga Stacked = true, want false")
	}
	if got := fileNames(sequel.MediaFiles()); !equalStrings(got, []string{"sequel.mkv", "sequel.nfo"}) {
		t.Errorf("Sequel files = %v", got)
	}

	owners := make(map[string][]string)
	for _, m := range c.All() {
		for _, mf := range m.MediaFiles() {
			owners[mf.Path] = append(owners[mf.Path], m.Title)
		}
	}
	for path, titles := range owners {
		if len(titles) > 1 {
			t.Errorf("%s owned by %v", path, titles)
		}
	}
}

func TestUpdateDatasources_EditionFollowsFolderName(t *testing.T) {
	ds := t.TempDir()
	writeTree(t, ds, map[string]string{"Film Extended (2010)/Film.mkv": ""})

	c := catalog.New(nil)
	existing := catalog.NewMovie()
	existing.Title = "Film"
	existing.Path = filepath.Join(ds, "Film Extended (2010)")
	existing.DataSource = ds
	existing.Edition = parser.EditionTheatrical
	c.Add(existing)

	opts := DefaultOptions()
	opts.Datasources = []string{ds}
	idx := New(c, opts, Dependencies{Sink: messages.Discard})
	if _, err := idx.UpdateDatasources(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := c.FindByPath(existing.Path); got != existing {
		t.Fatal("existing movie was replaced")
	}
	if existing.Edition != parser.EditionExtended {
		t.Errorf("Edition = %q, want %q", existing.Edition, parser.EditionExtended)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalSnapshots(a, b map[string][]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if !equalStrings(v, b[k]) {
			return false
		}
	}
	return true
}
