package mediainfo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"movie-indexer/internal/catalog"
	"movie-indexer/internal/logging"
	"movie-indexer/internal/mediatypes"
	"movie-indexer/internal/metrics"
)

// ErrProbeFailed is returned when ffprobe cannot inspect a file.
var ErrProbeFailed = errors.New("probe failed")

var log = logging.Named("mediainfo")

// runFunc executes a command and returns its standard output.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Inspector probes media files with ffprobe.
type Inspector struct {
	ffprobe string
	run     runFunc
}

// New returns an Inspector running the ffprobe binary at path. An empty
// path looks ffprobe up in PATH.
func New(path string) *Inspector {
	if path == "" {
		path = "ffprobe"
	}
	return &Inspector{ffprobe: path, run: runCommand}
}

// Available reports whether the ffprobe binary can be found.
func (i *Inspector) Available() bool {
	_, err := exec.LookPath(i.ffprobe)
	return err == nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w - %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

type probeResult struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
}

type probeStream struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Channels  int    `json:"channels"`
}

// Inspect probes mf and stores the result on it. The owning movie is only
// used for logging. Already inspected files are skipped unless force is set.
func (i *Inspector) Inspect(ctx context.Context, mf *catalog.MediaFile, m *catalog.Movie, force bool) error {
	if mf.Inspected() && !force {
		return nil
	}
	if mediatypes.IsOfflineStub(mf.Path) {
		return nil
	}

	start := time.Now()
	out, err := i.run(ctx, i.ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		mf.Path,
	)
	metrics.InspectionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.InspectionsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: %s: %v", ErrProbeFailed, mf.Path, err)
	}

	var result probeResult
	if err := json.Unmarshal(out, &result); err != nil {
		metrics.InspectionsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: %s: parse ffprobe output: %v", ErrProbeFailed, mf.Path, err)
	}

	apply(mf, &result)
	metrics.InspectionsTotal.WithLabelValues("success").Inc()

	title := ""
	if m != nil {
		title = m.Title
	}
	log.Debug("| inspected %s (%s): %s %s %dx%d", mf.Filename, title, mf.ContainerFormat, mf.VideoCodec, mf.Width, mf.Height)
	return nil
}

func apply(mf *catalog.MediaFile, r *probeResult) {
	// format_name lists aliases, e.g. "matroska,webm"
	container, _, _ := strings.Cut(r.Format.FormatName, ",")
	mf.ContainerFormat = container

	if secs, err := strconv.ParseFloat(r.Format.Duration, 64); err == nil {
		mf.Duration = time.Duration(secs * float64(time.Second))
	}
	if mf.Size == 0 {
		mf.Size, _ = strconv.ParseInt(r.Format.Size, 10, 64)
	}

	mf.AudioStreams = 0
	seenVideo := false
	for _, s := range r.Streams {
		switch s.CodecType {
		case "video":
			if !seenVideo {
				mf.VideoCodec = s.CodecName
				mf.Width = s.Width
				mf.Height = s.Height
				seenVideo = true
			}
		case "audio":
			if mf.AudioStreams == 0 {
				mf.AudioCodec = s.CodecName
				mf.AudioChannels = s.Channels
			}
			mf.AudioStreams++
		}
	}
	mf.VideoFormat = VideoFormat(mf.Width, mf.Height)
}

// VideoFormat classifies a resolution. Letterboxed content (1920x800) keeps
// its nominal format.
func VideoFormat(width, height int) string {
	switch {
	case width == 0 && height == 0:
		return ""
	case height >= 2160 || width >= 3840:
		return "2160p"
	case height >= 900 || width >= 1800:
		return "1080p"
	case height >= 600 || width >= 1200:
		return "720p"
	case height >= 540:
		return "540p"
	case height >= 400:
		return "480p"
	default:
		return "SD"
	}
}
