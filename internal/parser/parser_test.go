package parser

import "testing"

func TestCleanNameAndYear(t *testing.T) {
	tests := []struct {
		in        string
		wantTitle string
		wantYear  int
	}{
		{"Alpha (2001)", "Alpha", 2001},
		{"Movie (2010)", "Movie", 2010},
		{"The.Matrix.1999.1080p.BluRay.x264", "The Matrix", 1999},
		{"Blade Runner 2049 (2017)", "Blade Runner 2049", 2017},
		{"2012 (2009)", "2012", 2009},
		{"alien", "Alien", 0},
		{"Inception.720p", "Inception", 0},
		{"Some_Movie_[2005]", "Some Movie", 2005},
		{"", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			title, year := CleanNameAndYear(tt.in)
			if title != tt.wantTitle || year != tt.wantYear {
				t.Errorf("CleanNameAndYear(%q) = %q, %d; want %q, %d", tt.in, title, year, tt.wantTitle, tt.wantYear)
			}
		})
	}
}

func TestNormalizedKey(t *testing.T) {
	tests := []struct {
		a, b string
		same bool
	}{
		{"Movie-cd1.mkv", "movie CD2.avi", true},
		{"Alpha (2001).mkv", "Beta (2002).mkv", false},
		{"Movie (2010).mkv", "Movie Extended (2010).mkv", true},
		{"Movie.2010.1080p.mkv", "Movie.Directors.Cut.2010.mkv", true},
		{"Movie (2010).mkv", "Movie (2010) 3D.mkv", true},
		{"Movie.3D.2010.mkv", "Movie.2010.mkv", true},
		{"Movie (2010).mkv", "Movie (2012).mkv", false},
	}

	for _, tt := range tests {
		a, b := NormalizedKey(tt.a), NormalizedKey(tt.b)
		if (a == b) != tt.same {
			t.Errorf("NormalizedKey(%q) = %q, NormalizedKey(%q) = %q, same = %v, want %v", tt.a, a, tt.b, b, a == b, tt.same)
		}
	}

	if got := NormalizedKey("Alpha (2001).mkv"); got != "alpha 2001" {
		t.Errorf("NormalizedKey() = %q, want %q", got, "alpha 2001")
	}
	if got := NormalizedKey("Movie Extended (2010).mkv"); got != "movie 2010" {
		t.Errorf("NormalizedKey() = %q, want %q", got, "movie 2010")
	}
}

func TestStacking(t *testing.T) {
	tests := []struct {
		filename   string
		wantMarker string
		wantNumber int
		wantClean  string
	}{
		{"movie-cd1.mkv", "cd1", 1, "movie.mkv"},
		{"Movie (2010) Part 2.avi", "Part 2", 2, "Movie (2010).avi"},
		{"movie.disc3.iso", "disc3", 3, "movie.iso"},
		{"movie-cdb.mkv", "cdb", 2, "movie.mkv"},
		{"Script1.mkv", "", 0, "Script1.mkv"},
		{"movie.mkv", "", 0, "movie.mkv"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := StackingMarker(tt.filename); got != tt.wantMarker {
				t.Errorf("StackingMarker() = %q, want %q", got, tt.wantMarker)
			}
			if got := StackingNumber(tt.filename); got != tt.wantNumber {
				t.Errorf("StackingNumber() = %d, want %d", got, tt.wantNumber)
			}
			if got := CleanStackingMarkers(tt.filename); got != tt.wantClean {
				t.Errorf("CleanStackingMarkers() = %q, want %q", got, tt.wantClean)
			}
		})
	}
}

func TestFolderStackingMarker(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"CD1", "CD1"},
		{"Movie (2010)/CD2", "CD2"},
		{"Movie (2010) Disc 1", "Disc 1"},
		{"Movie (2010)", ""},
		{"Abduct1", ""},
	}

	for _, tt := range tests {
		if got := FolderStackingMarker(tt.path); got != tt.want {
			t.Errorf("FolderStackingMarker(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}

	if got := CleanFolderStackingMarkers("Movie (2010) CD1"); got != "Movie (2010)" {
		t.Errorf("CleanFolderStackingMarkers() = %q", got)
	}
}

func TestDetectEdition(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Alien (1979) Director's Cut", EditionDirectorsCut},
		{"Alien.1979.DC.1080p", EditionDirectorsCut},
		{"Aliens Extended Edition", EditionExtended},
		{"Movie [Unrated]", EditionUnrated},
		{"Interstellar IMAX", EditionIMAX},
		{"Dances with Wolves", EditionNone},
		{"Uncutgems", EditionNone},
	}

	for _, tt := range tests {
		if got := DetectEdition(tt.name); got != tt.want {
			t.Errorf("DetectEdition(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestIs3D(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Avatar (2009) 3D", true},
		{"Avatar.3D.HSBS", true},
		{"Avatar [3D]", true},
		{"Avatar (2009)", false},
		{"3Days", false},
	}

	for _, tt := range tests {
		if got := Is3D(tt.name); got != tt.want {
			t.Errorf("Is3D(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDetectMediaSource(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/m/Alien.1979.BluRay.1080p.mkv", SourceBluray},
		{"/m/Alien/BDMV/STREAM/00001.m2ts", SourceBluray},
		{"/m/Alien/VIDEO_TS/VTS_01_1.VOB", SourceDVD},
		{"/m/Alien.HD-DVD.evo", SourceHDDVD},
		{"/m/Alien.HDTV.ts", SourceTV},
		{"/m/Alien.WEB-DL.mkv", SourceWeb},
		{"/m/Alien.VHSRip.avi", SourceVHS},
		{"/m/Alien (1979)/Alien.mkv", SourceUnknown},
	}

	for _, tt := range tests {
		if got := DetectMediaSource(tt.path); got != tt.want {
			t.Errorf("DetectMediaSource(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestImdbIDs(t *testing.T) {
	if got := DetectImdbID("see https://www.imdb.com/title/tt0078748/ for details"); got != "tt0078748" {
		t.Errorf("DetectImdbID() = %q", got)
	}
	if got := DetectImdbID("no id here"); got != "" {
		t.Errorf("DetectImdbID() = %q, want empty", got)
	}
	if !IsValidImdbID("tt12345678") || IsValidImdbID("tt123") || IsValidImdbID("") {
		t.Error("IsValidImdbID() misjudged an id")
	}
}

func TestDetectDiscTitle(t *testing.T) {
	report := "DISC INFO:\r\n\r\nDisc Title:     THE_DARK_KNIGHT\r\nDisc Size:      45,000,000 bytes\r\n"
	if got := DetectDiscTitle(report); got != "The Dark Knight" {
		t.Errorf("DetectDiscTitle() = %q, want %q", got, "The Dark Knight")
	}
	if got := DetectDiscTitle("just some notes\n"); got != "" {
		t.Errorf("DetectDiscTitle() = %q, want empty", got)
	}
}
