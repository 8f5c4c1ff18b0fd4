// Package messages carries user-visible notifications and progress updates
// out of long-running tasks. Sinks are purely observational: nothing they
// do feeds back into the task that reported.
package messages

import (
	"fmt"
	"sync"
	"time"

	"movie-indexer/internal/logging"
)

// Level is the severity of a message.
type Level int

const (
	Info Level = iota
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Message is one notification. Key identifies the message kind, for
// example "update.datasource.nonespecified"; Source is the path or task it
// concerns.
type Message struct {
	Level  Level     `json:"level"`
	Source string    `json:"source"`
	Key    string    `json:"key"`
	Args   []any     `json:"args,omitempty"`
	Time   time.Time `json:"time"`
}

func (m Message) String() string {
	if len(m.Args) == 0 {
		return fmt.Sprintf("%s: %s", m.Source, m.Key)
	}
	return fmt.Sprintf("%s: %s %v", m.Source, m.Key, m.Args)
}

// Progress is a snapshot of a running task.
type Progress struct {
	Task  string `json:"task"`
	Unit  string `json:"unit,omitempty"`
	Done  int    `json:"done"`
	Total int    `json:"total"`
}

// Sink receives messages and progress updates. Implementations must be safe
// for concurrent use.
type Sink interface {
	Push(Message)
	Progress(Progress)
}

// New builds a message stamped with the current time.
func New(level Level, source, key string, args ...any) Message {
	return Message{Level: level, Source: source, Key: key, Args: args, Time: time.Now()}
}

// LogSink writes messages to the log. Progress is logged at debug level.
type LogSink struct{}

func (LogSink) Push(m Message) {
	switch m.Level {
	case Error:
		logging.Error("%s", m)
	case Warn:
		logging.Warn("%s", m)
	default:
		logging.Info("%s", m)
	}
}

func (LogSink) Progress(p Progress) {
	logging.Debug("%s: %d/%d %s", p.Task, p.Done, p.Total, p.Unit)
}

// Collector keeps the most recent messages and the latest progress in
// memory.
type Collector struct {
	mu       sync.RWMutex
	limit    int
	messages []Message
	progress Progress
}

// NewCollector returns a Collector retaining at most limit messages; a
// non-positive limit keeps everything.
func NewCollector(limit int) *Collector {
	return &Collector{limit: limit}
}

func (c *Collector) Push(m Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, m)
	if c.limit > 0 && len(c.messages) > c.limit {
		c.messages = append(c.messages[:0], c.messages[len(c.messages)-c.limit:]...)
	}
}

func (c *Collector) Progress(p Progress) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.progress = p
}

// Messages returns a copy of the retained messages, oldest first.
func (c *Collector) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Message(nil), c.messages...)
}

// LastProgress returns the most recent progress update.
func (c *Collector) LastProgress() Progress {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.progress
}

// Multi fans out to several sinks.
type Multi []Sink

func (s Multi) Push(m Message) {
	for _, sink := range s {
		sink.Push(m)
	}
}

func (s Multi) Progress(p Progress) {
	for _, sink := range s {
		sink.Progress(p)
	}
}

// Discard drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Push(Message)      {}
func (discard) Progress(Progress) {}
