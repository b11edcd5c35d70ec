package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"unicode/utf8"
)

// MinCheckLength is the shortest username that triggers a check
const MinCheckLength = 3

// MessageUserAvailable is the legacy reply text meaning available
const MessageUserAvailable = "User Available"

// Status of the availability gate
type Status int

const (
	StatusUnknown Status = iota
	StatusChecking
	StatusAvailable
	StatusTaken
)

func (s Status) String() string {
	switch s {
	case StatusChecking:
		return "checking"
	case StatusAvailable:
		return "available"
	case StatusTaken:
		return "taken"
	default:
		return "unknown"
	}
}

// CheckRequest is the payload of an outgoing check
type CheckRequest struct {
	Username string `json:"username"`
}

// Reply is the payload of an availability reply. Servers answer with either
// an available flag or a message; both shapes are accepted.
type Reply struct {
	Username  string `json:"username,omitempty"`
	Available *bool  `json:"available,omitempty"`
	Message   string `json:"message,omitempty"`
}

// IsAvailable reports whether the reply grants the username
func (r Reply) IsAvailable() bool {
	if r.Available != nil && *r.Available {
		return true
	}
	return r.Message == MessageUserAvailable
}

// ChangeFunc is called when the gate settles or is invalidated
type ChangeFunc func(username string, status Status)

// Checker drives username checks over an Emitter. Each check carries a
// sequence id; only the reply to the latest check can move the gate.
type Checker struct {
	emitter    Emitter
	checkEvent string
	logger     *slog.Logger
	onChange   ChangeFunc
	off        func()

	mu          sync.Mutex
	seq         uint64
	pending     uint64
	pendingName string
	username    string
	status      Status
	changed     chan struct{}
}

// NewChecker registers the single reply listener. Close removes it.
func NewChecker(emitter Emitter, checkEvent, replyEvent string, logger *slog.Logger, onChange ChangeFunc) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Checker{
		emitter:    emitter,
		checkEvent: checkEvent,
		logger:     logger,
		onChange:   onChange,
		changed:    make(chan struct{}),
	}
	c.off = emitter.On(replyEvent, c.handle)
	return c
}

// Check starts a check for username. Input shorter than MinCheckLength
// invalidates the gate and any outstanding check without emitting.
func (c *Checker) Check(ctx context.Context, username string) error {
	c.mu.Lock()
	if utf8.RuneCountInString(username) < MinCheckLength {
		c.pending = 0
		c.pendingName = ""
		c.username = username
		c.setLocked(StatusUnknown)
		c.mu.Unlock()
		c.fire(username, StatusUnknown)
		return nil
	}

	c.seq++
	id := c.seq
	c.pending = id
	c.pendingName = username
	c.username = username
	c.setLocked(StatusChecking)
	c.mu.Unlock()
	c.fire(username, StatusChecking)

	if err := c.emitter.Emit(ctx, c.checkEvent, id, CheckRequest{Username: username}); err != nil {
		c.mu.Lock()
		reset := c.pending == id
		if reset {
			c.pending = 0
			c.setLocked(StatusUnknown)
		}
		c.mu.Unlock()
		if reset {
			c.fire(username, StatusUnknown)
		}
		return fmt.Errorf("username check: %w", err)
	}
	return nil
}

// Status returns the current gate and the username it applies to
func (c *Checker) Status() (string, Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.username, c.status
}

// Available reports whether the latest checked username is available
func (c *Checker) Available() bool {
	_, s := c.Status()
	return s == StatusAvailable
}

// Wait blocks until the gate is no longer checking
func (c *Checker) Wait(ctx context.Context) (Status, error) {
	for {
		c.mu.Lock()
		status, changed := c.status, c.changed
		c.mu.Unlock()
		if status != StatusChecking {
			return status, nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return status, ctx.Err()
		}
	}
}

// Close removes the reply listener
func (c *Checker) Close() {
	c.off()
}

func (c *Checker) handle(frame Frame) {
	var reply Reply
	if len(frame.Data) > 0 {
		if err := json.Unmarshal(frame.Data, &reply); err != nil {
			c.logger.Warn("Dropping malformed availability reply", "error", err)
			return
		}
	}

	c.mu.Lock()
	if !c.matchesLocked(frame.ID, reply.Username) {
		c.mu.Unlock()
		c.logger.Debug("Discarding stale availability reply", "id", frame.ID, "username", reply.Username)
		return
	}

	c.pending = 0
	status := StatusTaken
	if reply.IsAvailable() {
		status = StatusAvailable
	}
	username := c.pendingName
	c.setLocked(status)
	c.mu.Unlock()

	c.fire(username, status)
}

// matchesLocked correlates a reply to the outstanding check. Replies without
// an id fall back to the echoed username, and replies with neither are taken
// as answering the latest check.
func (c *Checker) matchesLocked(id uint64, username string) bool {
	if c.pending == 0 {
		return false
	}
	if id != 0 {
		return id == c.pending
	}
	if username != "" {
		return username == c.pendingName
	}
	return true
}

func (c *Checker) setLocked(s Status) {
	c.status = s
	close(c.changed)
	c.changed = make(chan struct{})
}

func (c *Checker) fire(username string, s Status) {
	if c.onChange != nil {
		c.onChange(username, s)
	}
}
