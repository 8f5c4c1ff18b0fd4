package indexer

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"

	"movie-indexer/internal/catalog"
	"movie-indexer/internal/mediatypes"
	"movie-indexer/internal/metrics"
	"movie-indexer/internal/parser"
)

// addMediaFiles attaches files to m following the per-type rules.
// Files attached already are left untouched.
func (p *pass) addMediaFiles(ctx context.Context, m *catalog.Movie, mfs []*catalog.MediaFile) {
	for _, mf := range mfs {
		p.addMediaFile(ctx, m, mf)
	}
}

func (p *pass) addMediaFile(ctx context.Context, m *catalog.Movie, mf *catalog.MediaFile) bool {
	if m.HasMediaFile(mf.Path) {
		return false
	}

	switch mf.Type {
	case mediatypes.FileTypeVideo:
		if mf.IsDiscFile() || inDiscPayload(p.ds, mf.Dir()) {
			m.Disc = true
		}
		if m.ImdbID == "" {
			m.ImdbID = parser.DetectImdbID(mf.Path)
		}
		if m.MediaSource == "" || m.MediaSource == parser.SourceUnknown {
			m.MediaSource = parser.DetectMediaSource(mf.Path)
		}
		m.SetDateAddedFromMediaFile(mf)

	case mediatypes.FileTypeTrailer:
		if p.inspector != nil {
			if err := p.inspector.Inspect(ctx, mf, m, false); err != nil {
				log.Debug("| could not inspect trailer %s: %v", mf.Path, err)
				metrics.ScanErrors.WithLabelValues("inspect").Inc()
			}
		}
		m.AddTrailer(catalog.Trailer{
			Name:     mf.Filename,
			URL:      fileURL(mf.Path),
			Quality:  mf.VideoFormat,
			Provider: "downloaded",
		})

	case mediatypes.FileTypeSubtitle:
		if mf.Packed {
			log.Debug("| skipping packed subtitle %s", mf.Filename)
			return false
		}
		m.Subtitles = true

	case mediatypes.FileTypeFanart:
		if inFolder(mf.Path, "extrafanart") {
			log.Debug("| not attaching %s: extrafanart folder", mf.Path)
			return false
		}

	case mediatypes.FileTypeThumb:
		if inFolder(mf.Path, "extrathumbs") {
			log.Debug("| not attaching %s: extrathumbs folder", mf.Path)
			return false
		}

	case mediatypes.FileTypeGraphic, mediatypes.FileTypeUnknown:
		return false
	}

	return m.AddMediaFile(mf)
}

// inFolder reports whether any directory of path is named folder.
func inFolder(path, folder string) bool {
	for _, segment := range strings.Split(filepath.Dir(path), string(filepath.Separator)) {
		if strings.EqualFold(segment, folder) {
			return true
		}
	}
	return false
}

func fileURL(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}
