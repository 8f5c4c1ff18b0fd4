package mediainfo

import (
	"context"
	"errors"
	"testing"
	"time"

	"movie-indexer/internal/catalog"
	"movie-indexer/internal/mediatypes"
)

const probeJSON = `{
  "streams": [
    {"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 800},
    {"codec_type": "audio", "codec_name": "dts", "channels": 6},
    {"codec_type": "audio", "codec_name": "ac3", "channels": 2},
    {"codec_type": "subtitle", "codec_name": "subrip"}
  ],
  "format": {"format_name": "matroska,webm", "duration": "7020.500000", "size": "4294967296"}
}`

func fakeInspector(out string, err error, calls *int) *Inspector {
	return &Inspector{
		ffprobe: "ffprobe",
		run: func(_ context.Context, name string, args ...string) ([]byte, error) {
			*calls++
			return []byte(out), err
		},
	}
}

func TestInspect(t *testing.T) {
	calls := 0
	i := fakeInspector(probeJSON, nil, &calls)
	mf := &catalog.MediaFile{Path: "/m/a.mkv", Filename: "a.mkv", Type: mediatypes.FileTypeVideo}

	if err := i.Inspect(context.Background(), mf, nil, false); err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}

	if mf.ContainerFormat != "matroska" {
		t.Errorf("ContainerFormat = %q", mf.ContainerFormat)
	}
	if mf.VideoCodec != "h264" || mf.Width != 1920 || mf.Height != 800 {
		t.Errorf("video = %s %dx%d", mf.VideoCodec, mf.Width, mf.Height)
	}
	if mf.VideoFormat != "1080p" {
		t.Errorf("VideoFormat = %q, want 1080p", mf.VideoFormat)
	}
	if mf.AudioCodec != "dts" || mf.AudioChannels != 6 || mf.AudioStreams != 2 {
		t.Errorf("audio = %s/%d streams=%d", mf.AudioCodec, mf.AudioChannels, mf.AudioStreams)
	}
	if mf.Duration != 7020*time.Second+500*time.Millisecond {
		t.Errorf("Duration = %v", mf.Duration)
	}
	if mf.Size != 4294967296 {
		t.Errorf("Size = %d", mf.Size)
	}

	// Inspected files are not probed again without force.
	if err := i.Inspect(context.Background(), mf, nil, false); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("ffprobe ran %d times, want 1", calls)
	}
	if err := i.Inspect(context.Background(), mf, nil, true); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("forced inspect did not run ffprobe")
	}
}

func TestInspectErrors(t *testing.T) {
	tests := []struct {
		name string
		out  string
		err  error
	}{
		{name: "command fails", err: errors.New("exit status 1")},
		{name: "garbage output", out: "not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			i := fakeInspector(tt.out, tt.err, &calls)
			mf := &catalog.MediaFile{Path: "/m/a.mkv", Filename: "a.mkv"}

			err := i.Inspect(context.Background(), mf, nil, false)
			if !errors.Is(err, ErrProbeFailed) {
				t.Errorf("Inspect() error = %v, want ErrProbeFailed", err)
			}
			if mf.Inspected() {
				t.Error("failed probe must not mark the file inspected")
			}
		})
	}
}

func TestInspectSkipsOfflineStubs(t *testing.T) {
	calls := 0
	i := fakeInspector(probeJSON, nil, &calls)
	mf := &catalog.MediaFile{Path: "/m/a.disc", Filename: "a.disc"}

	if err := i.Inspect(context.Background(), mf, nil, false); err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Error("offline stubs must not be probed")
	}
}

func TestVideoFormat(t *testing.T) {
	tests := []struct {
		w, h int
		want string
	}{
		{0, 0, ""},
		{3840, 1600, "2160p"},
		{1920, 1080, "1080p"},
		{1280, 720, "720p"},
		{960, 540, "540p"},
		{720, 480, "480p"},
		{320, 240, "SD"},
	}
	for _, tt := range tests {
		if got := VideoFormat(tt.w, tt.h); got != tt.want {
			t.Errorf("VideoFormat(%d, %d) = %q, want %q", tt.w, tt.h, got, tt.want)
		}
	}
}
