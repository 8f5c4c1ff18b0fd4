package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"movie-indexer/internal/messages"
)

// progressMinInterval throttles redraws of the progress line.
const progressMinInterval = 100 * time.Millisecond

// progressLine renders the latest progress update on a single terminal
// line. Messages are left to the log.
type progressLine struct {
	w     io.Writer
	width func() int

	mu       sync.Mutex
	lastDraw time.Time
	drawn    bool
}

func newProgressLine(w io.Writer, width func() int) *progressLine {
	return &progressLine{w: w, width: width}
}

func (p *progressLine) Push(messages.Message) {}

func (p *progressLine) Progress(pr messages.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	final := pr.Total > 0 && pr.Done >= pr.Total
	if !final && time.Since(p.lastDraw) < progressMinInterval {
		return
	}
	p.lastDraw = time.Now()

	line := formatProgress(pr)
	if width := p.width(); width > 1 && len(line) >= width {
		line = line[:width-1]
	}
	fmt.Fprintf(p.w, "\r\x1b[K%s", line)
	p.drawn = true
}

// Clear erases the progress line.
func (p *progressLine) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drawn {
		fmt.Fprint(p.w, "\r\x1b[K")
		p.drawn = false
	}
}

func formatProgress(pr messages.Progress) string {
	var b strings.Builder
	b.WriteString(pr.Task)
	if pr.Total > 0 {
		fmt.Fprintf(&b, " %d/%d (%d%%)", pr.Done, pr.Total, pr.Done*100/pr.Total)
	} else if pr.Done > 0 {
		fmt.Fprintf(&b, " %d", pr.Done)
	}
	if pr.Unit != "" {
		b.WriteString(" ")
		b.WriteString(pr.Unit)
	}
	return b.String()
}
