// Package realtime is the persistent push channel used for username checks.
//
// Frames are JSON text messages of the form {"event", "id", "data"}. One read
// loop per connection dispatches incoming frames to listeners registered for
// their event; writes are serialized because a websocket connection allows a
// single concurrent writer.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ErrClosed is returned when writing to a closed channel
var ErrClosed = errors.New("realtime channel closed")

// Frame is a single message on the channel
type Frame struct {
	Event string          `json:"event"`
	ID    uint64          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Listener receives frames for one event
type Listener func(Frame)

// Emitter is the part of a channel screens depend on
type Emitter interface {
	Emit(ctx context.Context, event string, id uint64, data any) error
	On(event string, fn Listener) (off func())
}

// Channel is a websocket connection with event dispatch
type Channel struct {
	conn   *websocket.Conn
	logger *slog.Logger

	writeMu sync.Mutex

	mu        sync.Mutex
	listeners map[string]map[uint64]Listener
	nextID    uint64
	closed    bool
	closing   bool
	err       error
	done      chan struct{}
}

// Dial connects to the realtime endpoint at url
func Dial(ctx context.Context, url string, logger *slog.Logger) (*Channel, error) {
	if logger == nil {
		logger = slog.Default()
	}

	header := http.Header{}
	header.Set("X-Request-ID", uuid.New().String())

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
	}
	conn, resp, err := dialer.DialContext(ctx, url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("realtime dial %s: %w", url, err)
	}

	logger.Debug("Realtime channel connected", "url", url)
	return NewChannel(conn, logger), nil
}

// NewChannel wraps an established connection and starts its read loop
func NewChannel(conn *websocket.Conn, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Channel{
		conn:      conn,
		logger:    logger,
		listeners: make(map[string]map[uint64]Listener),
		done:      make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// On registers fn for event and returns a func that removes it
func (c *Channel) On(event string, fn Listener) func() {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	if c.listeners[event] == nil {
		c.listeners[event] = make(map[uint64]Listener)
	}
	c.listeners[event][id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners[event], id)
			if len(c.listeners[event]) == 0 {
				delete(c.listeners, event)
			}
			c.mu.Unlock()
		})
	}
}

// ListenerCount returns how many listeners are registered for event
func (c *Channel) ListenerCount(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners[event])
}

// Emit sends one frame
func (c *Channel) Emit(ctx context.Context, event string, id uint64, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", event, err)
	}
	frame, err := json.Marshal(Frame{Event: event, ID: id, Data: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("realtime emit %s: %w", event, err)
	}

	c.logger.Debug("Realtime frame sent", "event", event, "id", id)
	return nil
}

// Done is closed once the read loop has stopped
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that stopped the read loop, if any
func (c *Channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close sends a close frame and releases the connection
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return nil
	}
	c.closing = true
	c.closed = true
	c.mu.Unlock()

	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client closing")
	if err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
		c.logger.Debug("Failed to write close frame", "error", err)
	}
	c.writeMu.Unlock()

	err := c.conn.Close()
	<-c.done
	return err
}

func (c *Channel) readLoop() {
	defer close(c.done)

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if !c.closing && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.err = err
				c.logger.Warn("Realtime channel read failed", "error", err)
			}
			c.closed = true
			c.mu.Unlock()
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.logger.Warn("Dropping malformed realtime frame", "error", err)
			continue
		}

		c.dispatch(frame)
	}
}

func (c *Channel) dispatch(frame Frame) {
	c.mu.Lock()
	targets := make([]Listener, 0, len(c.listeners[frame.Event]))
	for _, fn := range c.listeners[frame.Event] {
		targets = append(targets, fn)
	}
	c.mu.Unlock()

	if len(targets) == 0 {
		c.logger.Debug("No listener for realtime event", "event", frame.Event)
	}
	for _, fn := range targets {
		fn(frame)
	}
}
