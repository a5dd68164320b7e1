package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type captureHandler struct {
	messages chan MessageEvent
	typing   chan TypingEvent
}

func newCaptureHandler() *captureHandler {
	return &captureHandler{
		messages: make(chan MessageEvent, 16),
		typing:   make(chan TypingEvent, 16),
	}
}

func (h *captureHandler) HandleMessage(ev MessageEvent) { h.messages <- ev }
func (h *captureHandler) HandleTyping(ev TypingEvent)   { h.typing <- ev }

var upgrader = websocket.Upgrader{}

// gatewayServer upgrades connections and passes them to serve.
func gatewayServer(t *testing.T, serve func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		serve(conn)
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/chat/tok-1"
}

func TestChannelDeliversMessageFrames(t *testing.T) {
	server := gatewayServer(t, func(conn *websocket.Conn) {
		frame := map[string]any{
			"type":            "message",
			"conversation_id": "c1",
			"message": map[string]any{
				"id":          "m1",
				"sender_id":   "u2",
				"sender_name": "Kofi Boateng",
				"content":     "Scan is ready",
				"sent_at":     "2026-02-11T09:30:00Z",
			},
		}
		if err := conn.WriteJSON(frame); err != nil {
			t.Errorf("server write failed: %v", err)
		}
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	handler := newCaptureHandler()
	ch := New(wsURL(server), handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ch.Run(ctx)

	select {
	case ev := <-handler.messages:
		if ev.ConversationID != "c1" {
			t.Errorf("ConversationID = %q, want c1", ev.ConversationID)
		}
		if ev.Message.Content != "Scan is ready" {
			t.Errorf("Content = %q", ev.Message.Content)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for message event")
	}
}

func TestChannelDeliversTypingFrames(t *testing.T) {
	server := gatewayServer(t, func(conn *websocket.Conn) {
		frame := map[string]any{
			"type":            "typing",
			"conversation_id": "c2",
			"is_typing":       true,
			"user_name":       "Kofi Boateng",
		}
		if err := conn.WriteJSON(frame); err != nil {
			t.Errorf("server write failed: %v", err)
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	handler := newCaptureHandler()
	ch := New(wsURL(server), handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ch.Run(ctx)

	select {
	case ev := <-handler.typing:
		if ev.ConversationID != "c2" || !ev.IsTyping || ev.UserName != "Kofi Boateng" {
			t.Errorf("Unexpected typing event: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for typing event")
	}
}

func TestChannelIgnoresMalformedFrames(t *testing.T) {
	server := gatewayServer(t, func(conn *websocket.Conn) {
		// Garbage, an unknown type, then a valid frame. Only the valid
		// frame should reach the handler.
		conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		conn.WriteJSON(map[string]any{"type": "presence"})
		conn.WriteJSON(map[string]any{
			"type":            "typing",
			"conversation_id": "c1",
			"is_typing":       true,
			"user_name":       "Ama",
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	handler := newCaptureHandler()
	ch := New(wsURL(server), handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ch.Run(ctx)

	select {
	case ev := <-handler.typing:
		if ev.UserName != "Ama" {
			t.Errorf("UserName = %q, want Ama", ev.UserName)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for the valid frame")
	}

	select {
	case ev := <-handler.messages:
		t.Errorf("Unexpected message event from malformed frames: %+v", ev)
	default:
	}
}

func TestChannelReconnectsAfterDrop(t *testing.T) {
	var dials int32
	server := gatewayServer(t, func(conn *websocket.Conn) {
		n := atomic.AddInt32(&dials, 1)
		if n == 1 {
			// Drop the first connection immediately to force a reconnect.
			conn.Close()
			return
		}
		conn.WriteJSON(map[string]any{
			"type":            "typing",
			"conversation_id": "c1",
			"is_typing":       true,
			"user_name":       "Ama",
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	handler := newCaptureHandler()
	ch := New(wsURL(server), handler)

	var states []State
	stateCh := make(chan State, 32)
	ch.OnStateChange = func(s State) { stateCh <- s }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ch.Run(ctx)

	// The typing frame only arrives on the second connection.
	select {
	case <-handler.typing:
	case <-time.After(10 * time.Second):
		t.Fatal("Timed out waiting for reconnect")
	}

	if got := atomic.LoadInt32(&dials); got < 2 {
		t.Errorf("dials = %d, want at least 2", got)
	}

	// Drain observed states; the machine must have passed through Backoff
	// between the two connections.
	for {
		select {
		case s := <-stateCh:
			states = append(states, s)
			continue
		default:
		}
		break
	}
	sawBackoff := false
	for _, s := range states {
		if s == Backoff {
			sawBackoff = true
		}
	}
	if !sawBackoff {
		t.Errorf("state transitions %v never entered backoff", states)
	}
}

func TestChannelStopsOnCancel(t *testing.T) {
	server := gatewayServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	handler := newCaptureHandler()
	ch := New(wsURL(server), handler)

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- ch.Run(ctx) }()

	// Wait until connected, then cancel.
	deadline := time.Now().Add(2 * time.Second)
	for ch.State() != Connected {
		if time.Now().After(deadline) {
			t.Fatal("Channel never connected")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-runErr:
		if err != context.Canceled {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
	if ch.State() != Disconnected {
		t.Errorf("State() = %v after cancel, want Disconnected", ch.State())
	}
}

func TestSendTypingThrottlesStarts(t *testing.T) {
	frames := make(chan frame, 16)
	server := gatewayServer(t, func(conn *websocket.Conn) {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var f frame
			if err := json.Unmarshal(data, &f); err == nil {
				frames <- f
			}
		}
	})
	defer server.Close()

	handler := newCaptureHandler()
	ch := New(wsURL(server), handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ch.Run(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for ch.State() != Connected {
		if time.Now().After(deadline) {
			t.Fatal("Channel never connected")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// A burst of start events collapses to one frame; the stop event
	// always goes out.
	for i := 0; i < 5; i++ {
		if err := ch.SendTyping("c1", true); err != nil {
			t.Fatalf("SendTyping(start) error: %v", err)
		}
	}
	if err := ch.SendTyping("c1", false); err != nil {
		t.Fatalf("SendTyping(stop) error: %v", err)
	}

	var starts, stops int
	timeout := time.After(2 * time.Second)
	for stops == 0 {
		select {
		case f := <-frames:
			if f.Type != "typing" {
				continue
			}
			if f.IsTyping {
				starts++
			} else {
				stops++
			}
		case <-timeout:
			t.Fatal("Timed out waiting for typing frames")
		}
	}
	if starts != 1 {
		t.Errorf("start frames = %d, want 1 (throttled)", starts)
	}
}

func TestSendTypingWhileDisconnected(t *testing.T) {
	ch := New("ws://localhost:1/ws/chat/tok", newCaptureHandler())
	if err := ch.SendTyping("c1", false); err != ErrNotConnected {
		t.Errorf("SendTyping() = %v, want ErrNotConnected", err)
	}
}
