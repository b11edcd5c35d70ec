// Package notify delivers the short-lived messages screens show after an action.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Level classifies a notification
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
	LevelLoading Level = "loading"
)

// Notification is one delivered message
type Notification struct {
	Level   Level
	Message string
}

// Notifier is what screens report to
type Notifier interface {
	Notify(level Level, message string)
	// Dismiss clears any pending loading notification
	Dismiss()
}

// Success reports a successful outcome
func Success(n Notifier, message string) { n.Notify(LevelSuccess, message) }

// Error reports a failure
func Error(n Notifier, message string) { n.Notify(LevelError, message) }

// Info reports a neutral event
func Info(n Notifier, message string) { n.Notify(LevelInfo, message) }

// Loading reports a pending operation until Dismiss or the next result
func Loading(n Notifier, message string) { n.Notify(LevelLoading, message) }

// PromiseMessages are the three texts shown while tracking an operation
type PromiseMessages struct {
	Loading string
	Success string
	Error   string
}

// Track shows msgs.Loading, runs fn and replaces the loading message with
// the success or error text. fn's error is returned unchanged.
func Track(n Notifier, msgs PromiseMessages, fn func() error) error {
	Loading(n, msgs.Loading)
	err := fn()
	n.Dismiss()
	if err != nil {
		Error(n, msgs.Error)
		return err
	}
	Success(n, msgs.Success)
	return nil
}

// Console prints notifications to a writer and mirrors them to a logger
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	logger *slog.Logger
}

// NewConsole creates a Console notifier
func NewConsole(out io.Writer, logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Console{out: out, logger: logger}
}

var consolePrefix = map[Level]string{
	LevelSuccess: "[ok]",
	LevelError:   "[error]",
	LevelInfo:    "[info]",
	LevelLoading: "[...]",
}

func (c *Console) Notify(level Level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "%s %s\n", consolePrefix[level], message)
	c.logger.Debug("Notification", "level", string(level), "message", message)
}

func (c *Console) Dismiss() {}

// Recorder keeps every notification in memory
type Recorder struct {
	mu    sync.Mutex
	items []Notification
	// Dismissed counts calls to Dismiss
	Dismissed int
}

// NewRecorder creates an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{Level: level, Message: message})
}

func (r *Recorder) Dismiss() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Dismissed++
}

// All returns a copy of every notification received so far
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Last returns the most recent notification, or the zero value
func (r *Recorder) Last() Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}
	}
	return r.items[len(r.items)-1]
}

// Messages returns the messages of the given level in order
func (r *Recorder) Messages(level Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.items {
		if n.Level == level {
			out = append(out, n.Message)
		}
	}
	return out
}

// Reset forgets everything recorded
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
	r.Dismissed = 0
}
