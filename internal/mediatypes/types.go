package mediatypes

import (
	"path/filepath"
	"regexp"
	"strings"
)

// FileType is the semantic role of a file next to a movie.
type FileType string

const (
	FileTypeVideo        FileType = "VIDEO"
	FileTypeTrailer      FileType = "TRAILER"
	FileTypeSample       FileType = "SAMPLE"
	FileTypeVideoExtra   FileType = "VIDEO_EXTRA"
	FileTypeAudio        FileType = "AUDIO"
	FileTypeSubtitle     FileType = "SUBTITLE"
	FileTypeNFO          FileType = "NFO"
	FileTypeText         FileType = "TEXT"
	FileTypePoster       FileType = "POSTER"
	FileTypeFanart       FileType = "FANART"
	FileTypeBanner       FileType = "BANNER"
	FileTypeLogo         FileType = "LOGO"
	FileTypeClearart     FileType = "CLEARART"
	FileTypeDiscart      FileType = "DISCART"
	FileTypeThumb        FileType = "THUMB"
	FileTypeSeasonPoster FileType = "SEASON_POSTER"
	FileTypeExtraFanart  FileType = "EXTRAFANART"
	FileTypeExtraThumb   FileType = "EXTRATHUMB"
	// FileTypeGraphic is an image without a recognizable artwork marker.
	FileTypeGraphic FileType = "GRAPHIC"
	FileTypeUnknown FileType = "UNKNOWN"
)

// AllFileTypes lists every FileType in declaration order.
var AllFileTypes = []FileType{
	FileTypeVideo, FileTypeTrailer, FileTypeSample, FileTypeVideoExtra,
	FileTypeAudio, FileTypeSubtitle, FileTypeNFO, FileTypeText,
	FileTypePoster, FileTypeFanart, FileTypeBanner, FileTypeLogo,
	FileTypeClearart, FileTypeDiscart, FileTypeThumb, FileTypeSeasonPoster,
	FileTypeExtraFanart, FileTypeExtraThumb, FileTypeGraphic, FileTypeUnknown,
}

// IsArtwork reports whether t is one of the image roles.
func (t FileType) IsArtwork() bool {
	switch t {
	case FileTypePoster, FileTypeFanart, FileTypeBanner, FileTypeLogo,
		FileTypeClearart, FileTypeDiscart, FileTypeThumb, FileTypeSeasonPoster,
		FileTypeExtraFanart, FileTypeExtraThumb:
		return true
	}
	return false
}

// VideoExtensions are the default video container extensions, including
// disc structure files and offline ".disc" stubs.
var VideoExtensions = []string{
	".3gp", ".asf", ".asx", ".avc", ".avi", ".bdmv", ".bin", ".bivx", ".dat",
	".disc", ".divx", ".dv", ".dvr-ms", ".evo", ".fli", ".flv", ".h264",
	".ifo", ".img", ".iso", ".m2ts", ".m2v", ".m4v", ".mk3d", ".mkv", ".mov",
	".mp4", ".mpeg", ".mpg", ".mts", ".nrg", ".nsv", ".nuv", ".ogm", ".pva",
	".qt", ".rm", ".rmvb", ".strm", ".svq3", ".ts", ".ty", ".viv", ".vob",
	".vp3", ".webm", ".wmv", ".wtv", ".xvid",
}

// AudioExtensions are the default audio extensions.
var AudioExtensions = []string{
	".a52", ".aa3", ".aac", ".ac3", ".adt", ".adts", ".aif", ".aiff", ".alac",
	".ape", ".at3", ".au", ".dts", ".flac", ".m4a", ".m4b", ".mka", ".mp3",
	".mpa", ".mlp", ".oga", ".ogg", ".pcm", ".ra", ".tta", ".wav", ".wma",
}

// SubtitleExtensions are the default subtitle extensions.
var SubtitleExtensions = []string{
	".aqt", ".ass", ".cvd", ".dks", ".idx", ".jss", ".mpl", ".pgs", ".pjs",
	".psb", ".rt", ".smi", ".srt", ".ssa", ".ssf", ".sub", ".sup", ".svcd",
	".ttxt", ".usf", ".vobsub",
}

// ImageExtensions are the default artwork extensions.
var ImageExtensions = []string{
	".bmp", ".gif", ".jpeg", ".jpg", ".png", ".tbn", ".tif", ".tiff", ".webp",
}

var archiveExtensions = map[string]bool{".rar": true, ".zip": true, ".7z": true}

var (
	trailerPattern = regexp.MustCompile(`(?i)(^|[\[\]()_.\s-])trailer([\[\]()_.\s-]|\d|$)`)
	samplePattern  = regexp.MustCompile(`(?i)(^|[\[\]()_.\s-])sample([\[\]()_.\s-]|$)`)
	extrasPattern  = regexp.MustCompile(`(?i)[_.\s-](extras?|behindthescenes|deleted|featurette|interview|scene|short)$`)
	subArchive     = regexp.MustCompile(`(?i)(^|[_.\s-])(subs?|subtitles?)([_.\s-]|$)`)

	seasonPosterPattern = regexp.MustCompile(`(?i)^season\d{2}(-poster)?$|^season-specials(-poster)?$`)
	posterPattern       = regexp.MustCompile(`(?i)(^|[_.\s-])(poster|folder|cover)$`)
	fanartPattern       = regexp.MustCompile(`(?i)(^|[_.\s-])(fanart|backdrop|background)\d*$`)
	bannerPattern       = regexp.MustCompile(`(?i)(^|[_.\s-])banner$`)
	logoPattern         = regexp.MustCompile(`(?i)(^|[_.\s-])(clear)?logo$`)
	clearartPattern     = regexp.MustCompile(`(?i)(^|[_.\s-])clearart$`)
	discartPattern      = regexp.MustCompile(`(?i)(^|[_.\s-])(disc|discart|cdart)$`)
	thumbPattern        = regexp.MustCompile(`(?i)(^|[_.\s-])(thumb|landscape)\d*$`)

	dvdFilePattern = regexp.MustCompile(`(?i)^(video_ts|vts_\d\d_\d)\.(vob|bup|ifo)$`)
)

// Extensions holds the recognized extension sets, lower case with the
// leading dot.
type Extensions struct {
	Video    map[string]bool
	Audio    map[string]bool
	Subtitle map[string]bool
	Image    map[string]bool
}

// DefaultExtensions returns the built-in extension sets.
func DefaultExtensions() Extensions {
	return NewExtensions(VideoExtensions, AudioExtensions, SubtitleExtensions, ImageExtensions)
}

// NewExtensions builds extension sets, normalizing case and the leading dot.
func NewExtensions(video, audio, subtitle, image []string) Extensions {
	return Extensions{
		Video:    toSet(video),
		Audio:    toSet(audio),
		Subtitle: toSet(subtitle),
		Image:    toSet(image),
	}
}

func toSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = true
	}
	return set
}

// Ext returns the lower-cased extension of path including the dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// Classifier maps files to their semantic role. It is immutable and safe
// for concurrent use.
type Classifier struct {
	ext Extensions
}

// NewClassifier creates a classifier over the given extension sets.
func NewClassifier(ext Extensions) *Classifier {
	return &Classifier{ext: ext}
}

// IsVideo reports whether path has a video extension.
func (c *Classifier) IsVideo(path string) bool {
	return c.ext.Video[Ext(path)]
}

// Classify returns the role of the file at path. Only the path is
// inspected; the file is never opened.
func (c *Classifier) Classify(path string) FileType {
	ext := Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	folder := strings.ToLower(filepath.Base(filepath.Dir(path)))

	switch {
	case ext == ".nfo":
		return FileTypeNFO
	case c.ext.Video[ext]:
		return classifyVideo(base, folder)
	case c.ext.Subtitle[ext]:
		return FileTypeSubtitle
	case archiveExtensions[ext] && subArchive.MatchString(base):
		return FileTypeSubtitle
	case c.ext.Audio[ext]:
		return FileTypeAudio
	case c.ext.Image[ext]:
		return classifyImage(base, folder)
	case ext == ".txt":
		return FileTypeText
	}
	return FileTypeUnknown
}

func classifyVideo(base, folder string) FileType {
	switch {
	case folder == "trailer" || folder == "trailers" || trailerPattern.MatchString(base):
		return FileTypeTrailer
	case folder == "sample" || samplePattern.MatchString(base):
		return FileTypeSample
	case folder == "extras" || folder == "extra" || extrasPattern.MatchString(base):
		return FileTypeVideoExtra
	}
	return FileTypeVideo
}

func classifyImage(base, folder string) FileType {
	switch folder {
	case "extrafanart":
		return FileTypeExtraFanart
	case "extrathumbs":
		return FileTypeExtraThumb
	}

	switch {
	case seasonPosterPattern.MatchString(base):
		return FileTypeSeasonPoster
	case posterPattern.MatchString(base):
		return FileTypePoster
	case fanartPattern.MatchString(base):
		return FileTypeFanart
	case bannerPattern.MatchString(base):
		return FileTypeBanner
	case logoPattern.MatchString(base):
		return FileTypeLogo
	case clearartPattern.MatchString(base):
		return FileTypeClearart
	case discartPattern.MatchString(base):
		return FileTypeDiscart
	case thumbPattern.MatchString(base):
		return FileTypeThumb
	}
	return FileTypeGraphic
}

// IsPackedSubtitle reports whether path is an archived subtitle container.
func IsPackedSubtitle(path string) bool {
	return archiveExtensions[Ext(path)]
}

// IsDiscFile reports whether path belongs to an optical disc structure:
// DVD (VIDEO_TS), Blu-ray (BDMV) or HD-DVD (HVDVD_TS) payload.
func IsDiscFile(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	folder := strings.ToUpper(filepath.Base(filepath.Dir(path)))

	switch {
	case dvdFilePattern.MatchString(name):
		return true
	case name == "index.bdmv" || name == "movieobject.bdmv":
		return true
	}

	switch folder {
	case "VIDEO_TS", "BDMV", "HVDVD_TS":
		return true
	}
	return false
}

// IsOfflineStub reports whether path is a ".disc" placeholder for media that
// is stored offline.
func IsOfflineStub(path string) bool {
	return Ext(path) == ".disc"
}
