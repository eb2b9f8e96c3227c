package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/techg-platform/techg-client/internal/observability"
)

const frameBufferSize = 64

// TokenSource supplies the credential presented during the websocket
// handshake.
type TokenSource interface {
	Token() string
}

// Options tunes the reconnect policy.
type Options struct {
	ReconnectDelay    time.Duration
	ReconnectMaxDelay time.Duration
	ReconnectAttempts int
}

func (o Options) withDefaults() Options {
	if o.ReconnectDelay <= 0 {
		o.ReconnectDelay = time.Second
	}
	if o.ReconnectMaxDelay <= 0 {
		o.ReconnectMaxDelay = 5 * time.Second
	}
	if o.ReconnectAttempts <= 0 {
		o.ReconnectAttempts = 5
	}
	return o
}

// Channel is the lazily-connected persistent connection to the realtime
// server. Emits are fire-and-forget and are dropped while disconnected;
// received events are dispatched sequentially in receipt order. After the
// bounded reconnect budget is spent the channel stays down and callers fall
// back to polling.
type Channel struct {
	url    string
	tokens TokenSource
	opts   Options
	logger zerolog.Logger
	dialer *websocket.Dialer

	mu       sync.Mutex
	conn     *websocket.Conn
	handlers map[string][]Handler
	stateFns []func(connected bool)
	closed   bool

	frames       chan Frame
	done         chan struct{}
	dispatchOnce sync.Once
}

// NewChannel constructs a channel targeting url. No connection is made until
// Connect is called.
func NewChannel(url string, tokens TokenSource, opts Options, logger zerolog.Logger) *Channel {
	return &Channel{
		url:      url,
		tokens:   tokens,
		opts:     opts.withDefaults(),
		logger:   logger.With().Str("component", "realtime").Logger(),
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		handlers: make(map[string][]Handler),
		frames:   make(chan Frame, frameBufferSize),
		done:     make(chan struct{}),
	}
}

// Subscribe registers a handler for the named event. Registration order is
// preserved when several handlers share an event.
func (c *Channel) Subscribe(event string, handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], handler)
}

// OnStateChange registers an observer for connect/disconnect transitions.
func (c *Channel) OnStateChange(fn func(connected bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateFns = append(c.stateFns, fn)
}

// Connect establishes the connection, or returns immediately when one is
// already up. The handshake authenticates with the stored bearer token and
// announces presence with a join-chat frame.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed || c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}

	c.adopt(conn)
	return nil
}

// Connected reports whether the channel currently holds a live connection.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Emit sends an event without waiting for any confirmation. When the channel
// is down the frame is dropped; callers are not told.
func (c *Channel) Emit(event string, payload interface{}) {
	frame := Frame{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			c.logger.Warn().Err(err).Str("event", event).Msg("failed to encode emit payload")
			return
		}
		frame.Data = data
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		observability.RealtimeDroppedEmits().Inc()
		c.logger.Debug().Str("event", event).Msg("dropping emit while disconnected")
		return
	}

	if err := c.conn.WriteJSON(frame); err != nil {
		c.logger.Debug().Err(err).Str("event", event).Msg("emit failed")
	}
}

// Close tears the channel down permanently.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	close(c.done)
	if conn != nil {
		_ = conn.Close()
	}
}

func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if token := c.tokens.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := c.dialer.DialContext(ctx, c.url, header)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// adopt installs a fresh connection and starts its read pump.
func (c *Channel) adopt(conn *websocket.Conn) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.conn = conn
	c.mu.Unlock()

	c.dispatchOnce.Do(func() { go c.dispatch() })
	go c.readPump(conn)

	c.Emit(EventJoinChat, nil)
	c.notifyState(true)
	c.logger.Debug().Str("url", c.url).Msg("realtime channel connected")
}

func (c *Channel) readPump(conn *websocket.Conn) {
	for {
		var frame Frame
		if err := conn.ReadJSON(&frame); err != nil {
			c.logger.Debug().Err(err).Msg("realtime read loop ended")
			break
		}

		select {
		case c.frames <- frame:
		case <-c.done:
			return
		}
	}

	_ = conn.Close()

	c.mu.Lock()
	lost := c.conn == conn && !c.closed
	if lost {
		c.conn = nil
	}
	closed := c.closed
	c.mu.Unlock()

	if !lost || closed {
		return
	}

	c.notifyState(false)
	go c.reconnect()
}

// reconnect retries with a linearly growing, capped delay. When the budget
// is spent the channel simply stays disconnected.
func (c *Channel) reconnect() {
	for attempt := 1; attempt <= c.opts.ReconnectAttempts; attempt++ {
		delay := time.Duration(attempt) * c.opts.ReconnectDelay
		if delay > c.opts.ReconnectMaxDelay {
			delay = c.opts.ReconnectMaxDelay
		}

		select {
		case <-time.After(delay):
		case <-c.done:
			return
		}

		observability.RealtimeReconnects().Inc()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		conn, err := c.dial(ctx)
		cancel()
		if err != nil {
			c.logger.Debug().Err(err).Int("attempt", attempt).Msg("reconnect attempt failed")
			continue
		}

		c.adopt(conn)
		return
	}

	c.logger.Warn().Int("attempts", c.opts.ReconnectAttempts).Msg("realtime channel gave up reconnecting")
}

// dispatch is the single goroutine that runs handlers, preserving receipt
// order across all events.
func (c *Channel) dispatch() {
	for {
		select {
		case frame := <-c.frames:
			observability.RealtimeEvents().WithLabelValues(frame.Event).Inc()

			c.mu.Lock()
			handlers := make([]Handler, len(c.handlers[frame.Event]))
			copy(handlers, c.handlers[frame.Event])
			c.mu.Unlock()

			for _, handler := range handlers {
				handler(frame.Data)
			}
		case <-c.done:
			return
		}
	}
}

func (c *Channel) notifyState(connected bool) {
	c.mu.Lock()
	observers := make([]func(bool), len(c.stateFns))
	copy(observers, c.stateFns)
	c.mu.Unlock()

	for _, fn := range observers {
		fn(connected)
	}
}
