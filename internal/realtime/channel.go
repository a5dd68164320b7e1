// Package realtime maintains the live chat channel to the CareLink gateway.
//
// One WebSocket connection exists per authenticated session, multiplexing
// all conversations over the conversation_id field carried by every frame.
// The channel runs an explicit connection state machine
// (Disconnected -> Connecting -> Connected, with Backoff between attempts)
// and reconnects with exponential backoff until its context is cancelled.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/carelink/clk/internal/api"
	"github.com/carelink/clk/internal/logx"
)

const (
	// timeout for writing a frame to the WebSocket connection.
	writeWait = 10 * time.Second

	// interval between outbound keep-alive pings while connected.
	pingPeriod = 30 * time.Second

	// reconnection backoff bounds.
	backoffInitial = 1 * time.Second
	backoffMax     = 30 * time.Second

	// maximum inbound frame size accepted from the gateway.
	maxFrameSize = 64 * 1024
)

// typingInterval throttles outbound typing frames so a keystroke burst
// produces at most one event per interval.
const typingInterval = 2 * time.Second

// State is the connection state of the channel.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Backoff
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Backoff:
		return "backoff"
	default:
		return "disconnected"
	}
}

// MessageEvent is an inbound live message frame.
type MessageEvent struct {
	ConversationID string      `json:"conversation_id"`
	Message        api.Message `json:"message"`
}

// TypingEvent is an inbound typing-indicator frame.
type TypingEvent struct {
	ConversationID string `json:"conversation_id"`
	IsTyping       bool   `json:"is_typing"`
	UserName       string `json:"user_name"`
}

// frame is the wire shape shared by all inbound frames; Type discriminates.
type frame struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Message        json.RawMessage `json:"message,omitempty"`
	IsTyping       bool            `json:"is_typing,omitempty"`
	UserName       string          `json:"user_name,omitempty"`
}

// Handler receives inbound events. Calls arrive from the channel's read
// goroutine, one at a time.
type Handler interface {
	HandleMessage(ev MessageEvent)
	HandleTyping(ev TypingEvent)
}

// Channel is the live connection to the chat gateway.
type Channel struct {
	url     string
	handler Handler

	// OnStateChange, when set, is invoked on every state transition.
	// Drives the Live/Offline indicator.
	OnStateChange func(State)

	dialer *websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	state  State
	typing *rate.Limiter
}

// New creates a channel for the given gateway URL. Call Run to connect.
func New(url string, handler Handler) *Channel {
	return &Channel{
		url:     url,
		handler: handler,
		dialer:  websocket.DefaultDialer,
		typing:  rate.NewLimiter(rate.Every(typingInterval), 1),
	}
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	cb := c.OnStateChange
	c.mu.Unlock()

	logx.Debug("channel state change", "state", s.String())
	if cb != nil {
		cb(s)
	}
}

// Run connects and keeps the channel alive until ctx is cancelled,
// reconnecting with exponential backoff after failures. It blocks; run it
// in its own goroutine. Returns ctx.Err() on cancellation.
func (c *Channel) Run(ctx context.Context) error {
	backoff := backoffInitial

	for {
		if err := ctx.Err(); err != nil {
			c.setState(Disconnected)
			return err
		}

		c.setState(Connecting)
		conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			logx.Warn("channel dial failed", "error", err.Error())
			c.setState(Backoff)
			if !sleepCtx(ctx, withJitter(backoff)) {
				c.setState(Disconnected)
				return ctx.Err()
			}
			backoff = nextBackoff(backoff)
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		c.setState(Connected)
		backoff = backoffInitial

		c.serve(ctx, conn)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()

		if err := ctx.Err(); err != nil {
			c.setState(Disconnected)
			return err
		}

		// Dropped connection: back off before redialing.
		c.setState(Backoff)
		if !sleepCtx(ctx, withJitter(backoff)) {
			c.setState(Disconnected)
			return ctx.Err()
		}
		backoff = nextBackoff(backoff)
	}
}

// serve reads frames from an established connection until it fails or ctx
// is cancelled. The ping loop runs alongside and tears the connection down
// on write failure.
func (c *Channel) serve(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)

	go c.pingLoop(ctx, conn, done)

	conn.SetReadLimit(maxFrameSize)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logx.Warn("channel read failed", "error", err.Error())
			}
			_ = conn.Close()
			return
		}
		c.dispatch(data)
	}
}

// pingLoop sends {type:"ping"} every pingPeriod while the connection is up.
func (c *Channel) pingLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			_ = conn.Close()
			return
		case <-ticker.C:
			if err := c.writeJSON(conn, map[string]string{"type": "ping"}); err != nil {
				logx.Warn("channel ping failed", "error", err.Error())
				_ = conn.Close()
				return
			}
		}
	}
}

// dispatch decodes an inbound frame and routes it to the handler.
// Malformed frames and unknown types are logged and dropped.
func (c *Channel) dispatch(data []byte) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		logx.Warn("channel frame parse failed", "error", err.Error())
		return
	}

	switch f.Type {
	case "message":
		var msg api.Message
		if err := json.Unmarshal(f.Message, &msg); err != nil {
			logx.Warn("channel message payload parse failed", "error", err.Error())
			return
		}
		c.handler.HandleMessage(MessageEvent{
			ConversationID: f.ConversationID,
			Message:        msg,
		})
	case "typing":
		c.handler.HandleTyping(TypingEvent{
			ConversationID: f.ConversationID,
			IsTyping:       f.IsTyping,
			UserName:       f.UserName,
		})
	case "pong":
		// Keep-alive acknowledgement; nothing to do.
	default:
		logx.Debug("channel dropped unknown frame type", "type", f.Type)
	}
}

// SendTyping notifies peers that the local user started or stopped
// composing in a conversation. Start events are throttled; stop events
// always go out so a peer's indicator clears. Returns ErrNotConnected
// when the channel is down; callers treat that as non-critical.
func (c *Channel) SendTyping(conversationID string, isTyping bool) error {
	if isTyping && !c.typing.Allow() {
		return nil // Throttled; a recent start event already covers this burst.
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	return c.writeJSON(conn, map[string]any{
		"type":            "typing",
		"conversation_id": conversationID,
		"is_typing":       isTyping,
	})
}

// ErrNotConnected is returned by writes attempted while the channel is down.
var ErrNotConnected = errors.New("realtime channel not connected")

func (c *Channel) writeJSON(conn *websocket.Conn, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > backoffMax {
		return backoffMax
	}
	return next
}

// withJitter spreads reconnect attempts by up to 25% of the base delay.
func withJitter(d time.Duration) time.Duration {
	return d + time.Duration(rand.Int63n(int64(d)/4+1))
}

// sleepCtx sleeps for d or until ctx is cancelled. Reports false on
// cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
