package catalog

import (
	"path/filepath"
	"strings"
	"time"

	"movie-indexer/internal/filesystem"
	"movie-indexer/internal/mediatypes"
	"movie-indexer/internal/parser"
)

// MediaFile is one file attached to a movie. Its identity is its absolute
// path.
type MediaFile struct {
	Path     string              `json:"path"`
	Filename string              `json:"filename"`
	Type     mediatypes.FileType `json:"type"`
	Size     int64               `json:"size"`
	ModTime  time.Time           `json:"modTime"`

	// Packed marks subtitles stored in an archive.
	Packed bool `json:"packed,omitempty"`

	Stacking       int    `json:"stacking,omitempty"`
	StackingMarker string `json:"stackingMarker,omitempty"`

	// Technical properties, filled by the media inspector.
	ContainerFormat string        `json:"containerFormat,omitempty"`
	VideoCodec      string        `json:"videoCodec,omitempty"`
	VideoFormat     string        `json:"videoFormat,omitempty"`
	Width           int           `json:"width,omitempty"`
	Height          int           `json:"height,omitempty"`
	AudioCodec      string        `json:"audioCodec,omitempty"`
	AudioChannels   int           `json:"audioChannels,omitempty"`
	AudioStreams    int           `json:"audioStreams,omitempty"`
	Duration        time.Duration `json:"duration,omitempty"`
}

// NewMediaFile creates a media file of the given type. Size and modification
// time are read from disk when available.
func NewMediaFile(path string, typ mediatypes.FileType) *MediaFile {
	path = filepath.Clean(path)
	mf := &MediaFile{
		Path:     path,
		Filename: filepath.Base(path),
		Type:     typ,
	}
	if typ == mediatypes.FileTypeSubtitle {
		mf.Packed = mediatypes.IsPackedSubtitle(path)
	}
	if info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig()); err == nil {
		mf.Size = info.Size()
		mf.ModTime = info.ModTime()
	}
	return mf
}

// Dir returns the directory holding the file.
func (mf *MediaFile) Dir() string {
	return filepath.Dir(mf.Path)
}

// Extension returns the lower-cased extension without the dot.
func (mf *MediaFile) Extension() string {
	return strings.TrimPrefix(mediatypes.Ext(mf.Filename), ".")
}

// Basename returns the filename without extension.
func (mf *MediaFile) Basename() string {
	return parser.Basename(mf.Filename)
}

// IsDiscFile reports whether the file is part of a disc structure.
func (mf *MediaFile) IsDiscFile() bool {
	return mediatypes.IsDiscFile(mf.Path)
}

// Exists reports whether the file is still on disk.
func (mf *MediaFile) Exists() bool {
	return filesystem.Exists(mf.Path)
}

// Inspected reports whether technical properties have been gathered.
func (mf *MediaFile) Inspected() bool {
	return strings.TrimSpace(mf.ContainerFormat) != ""
}

// DetectStacking fills the stacking fields from the filename.
func (mf *MediaFile) DetectStacking() {
	mf.Stacking = parser.StackingNumber(mf.Filename)
	mf.StackingMarker = parser.StackingMarker(mf.Filename)
}

// ClearStacking resets the stacking fields.
func (mf *MediaFile) ClearStacking() {
	mf.Stacking = 0
	mf.StackingMarker = ""
}
