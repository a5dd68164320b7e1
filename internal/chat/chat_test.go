package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/carelink/clk/internal/api"
	"github.com/carelink/clk/internal/realtime"
)

// fakeGateway is an in-memory stand-in for the chat REST endpoints. Tests
// mutate its fields directly and inspect its counters.
type fakeGateway struct {
	mu sync.Mutex

	conversations []api.Conversation
	messages      map[string][]api.Message
	unreadCount   int
	unreadFails   bool
	sendFails     bool
	existing      bool

	readCalls map[string]int
	sendCalls int

	server *httptest.Server
}

func newFakeGateway(t *testing.T) *fakeGateway {
	t.Helper()
	g := &fakeGateway{
		messages:  make(map[string][]api.Message),
		readCalls: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/chat/conversations", func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		defer g.mu.Unlock()
		json.NewEncoder(w).Encode(api.ConversationsResponse{Conversations: g.conversations})
	})
	mux.HandleFunc("POST /api/chat/conversations", func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		defer g.mu.Unlock()
		var req api.CreateConversationRequest
		json.NewDecoder(r.Body).Decode(&req)
		conv := api.Conversation{ID: "c-new", ChatType: req.ChatType}
		if g.existing && len(g.conversations) > 0 {
			conv = g.conversations[0]
		}
		json.NewEncoder(w).Encode(api.CreateConversationResponse{Conversation: conv, Existing: g.existing})
	})
	mux.HandleFunc("GET /api/chat/unread-count", func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.unreadFails {
			http.Error(w, `{"error":"unavailable"}`, http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(api.UnreadCountResponse{UnreadCount: g.unreadCount})
	})
	mux.HandleFunc("GET /api/chat/conversations/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		defer g.mu.Unlock()
		json.NewEncoder(w).Encode(api.MessagesResponse{Messages: g.messages[r.PathValue("id")]})
	})
	mux.HandleFunc("POST /api/chat/conversations/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.sendCalls++
		if g.sendFails {
			http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
			return
		}
		var req api.SendMessageRequest
		json.NewDecoder(r.Body).Decode(&req)
		id := r.PathValue("id")
		msg := api.Message{
			ID:       "srv-" + id,
			SenderID: "u1",
			Content:  req.Content,
			SentAt:   "2026-02-11T10:00:00Z",
		}
		g.messages[id] = append(g.messages[id], msg)
		json.NewEncoder(w).Encode(api.SendMessageResponse{Message: msg})
	})
	mux.HandleFunc("POST /api/chat/conversations/{id}/read", func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.readCalls[r.PathValue("id")]++
		w.WriteHeader(http.StatusOK)
	})

	g.server = httptest.NewServer(mux)
	t.Cleanup(g.server.Close)
	return g
}

func (g *fakeGateway) client() *api.Client {
	return api.NewWithToken(g.server.URL, "test-token")
}

func (g *fakeGateway) readCallCount(id string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.readCalls[id]
}

func (g *fakeGateway) sendCallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sendCalls
}

func direct(id, otherID, otherName string, unread int) api.Conversation {
	return api.Conversation{
		ID:       id,
		ChatType: "direct",
		Participants: []api.Participant{
			{ID: "u1", Name: "Ama Mensah"},
			{ID: otherID, Name: otherName},
		},
		UnreadCount: unread,
	}
}

func msg(id, content, sentAt string) api.Message {
	return api.Message{ID: id, SenderID: "u2", SenderName: "Kofi Boateng", Content: content, SentAt: sentAt}
}

func liveMessage(convID string, m api.Message) realtime.MessageEvent {
	return realtime.MessageEvent{ConversationID: convID, Message: m}
}

func seedHistory(g *fakeGateway, convID string, n int) {
	for i := 0; i < n; i++ {
		g.messages[convID] = append(g.messages[convID], api.Message{
			ID:      convID + "-m" + string(rune('a'+i)),
			Content: "earlier",
			SentAt:  "2026-02-11T09:0" + string(rune('0'+i)) + ":00Z",
		})
	}
}

// The walkthrough from the product notes: a conversation with three unread
// messages is opened, read, and replied to. Opening marks it read exactly
// once, the reply lands as the sixth message, and the composer clears.
func TestSessionOpenReadAndReply(t *testing.T) {
	g := newFakeGateway(t)
	g.conversations = []api.Conversation{
		direct("c1", "u2", "Kofi Boateng", 3),
		direct("c2", "u3", "Efua Owusu", 0),
	}
	g.unreadCount = 3
	seedHistory(g, "c1", 5)

	s := NewSession(g.client(), "ws://unused/ws/chat/tok", "u1", "Ama Mensah")
	ctx := context.Background()
	if err := s.conversations.Load(ctx); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	s.conversations.RefreshUnreadTotal(ctx)
	if got := s.UnreadTotal(); got != 3 {
		t.Fatalf("UnreadTotal() = %d, want 3", got)
	}

	g.mu.Lock()
	g.unreadCount = 0
	g.mu.Unlock()
	if err := s.SelectConversation(ctx, "c1"); err != nil {
		t.Fatalf("SelectConversation() error: %v", err)
	}
	if got := g.readCallCount("c1"); got != 1 {
		t.Errorf("read receipts = %d, want 1", got)
	}
	if got := s.UnreadTotal(); got != 0 {
		t.Errorf("UnreadTotal() after open = %d, want 0", got)
	}
	c1, _ := s.conversations.Get("c1")
	if c1.UnreadCount != 0 {
		t.Errorf("c1 unread = %d, want 0", c1.UnreadCount)
	}

	s.SetComposer("  Hello  ")
	sent, err := s.Send(ctx)
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if sent.Content != "Hello" {
		t.Errorf("sent content = %q, want trimmed %q", sent.Content, "Hello")
	}
	if got := len(s.Messages()); got != 6 {
		t.Errorf("history length = %d, want 6", got)
	}
	if got := s.Composer(); got != "" {
		t.Errorf("composer = %q, want empty", got)
	}
	c1, _ = s.conversations.Get("c1")
	if c1.LastMessage != "Hello" {
		t.Errorf("preview = %q, want %q", c1.LastMessage, "Hello")
	}
}

func TestSendEmptyComposerMakesNoRequest(t *testing.T) {
	g := newFakeGateway(t)
	store := NewMessageStore(g.client(), "c1", "u1", "Ama Mensah")

	for _, draft := range []string{"", "   ", "\n\t "} {
		store.SetComposer(draft)
		if _, err := store.Send(context.Background()); err != ErrEmptyMessage {
			t.Errorf("Send(%q) = %v, want ErrEmptyMessage", draft, err)
		}
	}
	if got := g.sendCallCount(); got != 0 {
		t.Errorf("send requests = %d, want 0", got)
	}
}

func TestSendFailureKeepsComposer(t *testing.T) {
	g := newFakeGateway(t)
	g.sendFails = true
	store := NewMessageStore(g.client(), "c1", "u1", "Ama Mensah")

	store.SetComposer("important note")
	if _, err := store.Send(context.Background()); err == nil {
		t.Fatal("Send() succeeded against a failing gateway")
	}
	if got := store.Composer(); got != "important note" {
		t.Errorf("composer = %q, want draft preserved", got)
	}
	if got := len(store.Messages()); got != 0 {
		t.Errorf("history length = %d, want 0 (echo rolled back)", got)
	}
}

func TestHistoryMergeDedupesRacingEvent(t *testing.T) {
	g := newFakeGateway(t)
	g.messages["c1"] = []api.Message{
		msg("m1", "first", "2026-02-11T09:00:00Z"),
		msg("m2", "second", "2026-02-11T09:01:00Z"),
	}
	store := NewMessageStore(g.client(), "c1", "u1", "Ama Mensah")

	// Live event lands before the history fetch completes.
	store.ApplyMessageEvent(msg("m2", "second", "2026-02-11T09:01:00Z"))
	store.ApplyMessageEvent(msg("m3", "third", "2026-02-11T09:02:00Z"))

	if err := store.LoadHistory(context.Background()); err != nil {
		t.Fatalf("LoadHistory() error: %v", err)
	}

	got := store.Messages()
	if len(got) != 3 {
		t.Fatalf("history length = %d, want 3", len(got))
	}
	for i, want := range []string{"m1", "m2", "m3"} {
		if got[i].ID != want {
			t.Errorf("messages[%d].ID = %q, want %q", i, got[i].ID, want)
		}
	}
}

func TestInsertOrdersByTimestampThenID(t *testing.T) {
	g := newFakeGateway(t)
	store := NewMessageStore(g.client(), "c1", "u1", "Ama Mensah")

	store.ApplyMessageEvent(msg("mb", "tied later id", "2026-02-11T09:00:00Z"))
	store.ApplyMessageEvent(msg("mc", "latest", "2026-02-11T09:05:00Z"))
	store.ApplyMessageEvent(msg("ma", "tied earlier id", "2026-02-11T09:00:00Z"))

	got := store.Messages()
	for i, want := range []string{"ma", "mb", "mc"} {
		if got[i].ID != want {
			t.Errorf("messages[%d].ID = %q, want %q", i, got[i].ID, want)
		}
	}

	// Re-applying an existing message changes nothing.
	if added := store.ApplyMessageEvent(msg("mb", "tied later id", "2026-02-11T09:00:00Z")); added {
		t.Error("ApplyMessageEvent() reported a duplicate as new")
	}
	if got := len(store.Messages()); got != 3 {
		t.Errorf("history length = %d after duplicate, want 3", got)
	}
}

func TestConversationStoreFilter(t *testing.T) {
	g := newFakeGateway(t)
	store := NewConversationStore(g.client(), "u1")
	store.conversations = []api.Conversation{
		direct("c1", "u2", "Kofi Boateng", 0),
		direct("c2", "u3", "Efua Owusu", 0),
		{ID: "c3", ChatType: "group", Name: "Radiology On-Call"},
	}

	if got := len(store.Filter("")); got != 3 {
		t.Errorf("Filter(\"\") = %d results, want 3", got)
	}
	got := store.Filter("kofi")
	if len(got) != 1 || got[0].ID != "c1" {
		t.Errorf("Filter(\"kofi\") = %+v, want just c1", got)
	}
	got = store.Filter("RADIOLOGY")
	if len(got) != 1 || got[0].ID != "c3" {
		t.Errorf("Filter(\"RADIOLOGY\") = %+v, want just c3", got)
	}
	if got := store.Filter("nobody"); len(got) != 0 {
		t.Errorf("Filter(\"nobody\") = %+v, want none", got)
	}
}

func TestCreateOrResumeExistingDoesNotDuplicate(t *testing.T) {
	g := newFakeGateway(t)
	g.conversations = []api.Conversation{direct("c1", "u2", "Kofi Boateng", 0)}
	g.existing = true

	store := NewConversationStore(g.client(), "u1")
	ctx := context.Background()
	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	conv, err := store.CreateOrResume(ctx, "direct", []string{"u2"})
	if err != nil {
		t.Fatalf("CreateOrResume() error: %v", err)
	}
	if conv.ID != "c1" {
		t.Errorf("resumed conversation ID = %q, want c1", conv.ID)
	}
	if got := len(store.Conversations()); got != 1 {
		t.Errorf("conversation count = %d, want 1 (no duplicate)", got)
	}
}

func TestCreateOrResumeNewPrepends(t *testing.T) {
	g := newFakeGateway(t)
	g.conversations = []api.Conversation{direct("c1", "u2", "Kofi Boateng", 0)}

	store := NewConversationStore(g.client(), "u1")
	ctx := context.Background()
	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	conv, err := store.CreateOrResume(ctx, "direct", []string{"u3"})
	if err != nil {
		t.Fatalf("CreateOrResume() error: %v", err)
	}
	list := store.Conversations()
	if len(list) != 2 || list[0].ID != conv.ID {
		t.Errorf("list after create = %+v, want new conversation first", list)
	}
}

func TestUnreadBadgeFallsBackToLocalSum(t *testing.T) {
	g := newFakeGateway(t)
	g.conversations = []api.Conversation{
		direct("c1", "u2", "Kofi Boateng", 2),
		direct("c2", "u3", "Efua Owusu", 1),
	}
	g.unreadFails = true

	store := NewConversationStore(g.client(), "u1")
	ctx := context.Background()
	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	store.RefreshUnreadTotal(ctx)
	if got := store.UnreadTotal(); got != 3 {
		t.Errorf("UnreadTotal() = %d, want local sum 3", got)
	}
}

func TestApplyMessageEventOnClosedConversation(t *testing.T) {
	g := newFakeGateway(t)
	store := NewConversationStore(g.client(), "u1")
	store.conversations = []api.Conversation{direct("c1", "u2", "Kofi Boateng", 1)}

	ev := msg("m9", "new result posted", "2026-02-11T10:30:00Z")
	if !store.ApplyMessageEvent("c1", ev) {
		t.Fatal("ApplyMessageEvent() reported a known conversation as unknown")
	}
	c1, _ := store.Get("c1")
	if c1.UnreadCount != 2 {
		t.Errorf("unread = %d, want 2", c1.UnreadCount)
	}
	if c1.LastMessage != "new result posted" || c1.LastMessageAt != "2026-02-11T10:30:00Z" {
		t.Errorf("preview not updated: %+v", c1)
	}

	if store.ApplyMessageEvent("c-unknown", ev) {
		t.Error("ApplyMessageEvent() claimed to know an unseen conversation")
	}
}

func TestSessionRoutesLiveMessages(t *testing.T) {
	g := newFakeGateway(t)
	g.conversations = []api.Conversation{
		direct("c1", "u2", "Kofi Boateng", 0),
		direct("c2", "u3", "Efua Owusu", 0),
	}
	seedHistory(g, "c1", 2)

	s := NewSession(g.client(), "ws://unused/ws/chat/tok", "u1", "Ama Mensah")
	ctx := context.Background()
	if err := s.conversations.Load(ctx); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if err := s.SelectConversation(ctx, "c1"); err != nil {
		t.Fatalf("SelectConversation() error: %v", err)
	}
	baseline := g.readCallCount("c1")

	var updates int
	s.OnUpdate = func() { updates++ }

	// Live message for the open conversation: appended, one receipt.
	s.HandleMessage(liveMessage("c1", msg("m-live", "done", "2026-02-11T11:00:00Z")))
	if got := len(s.Messages()); got != 3 {
		t.Errorf("open history length = %d, want 3", got)
	}
	if got := g.readCallCount("c1") - baseline; got != 1 {
		t.Errorf("read receipts for live message = %d, want 1", got)
	}
	c1, _ := s.conversations.Get("c1")
	if c1.UnreadCount != 0 {
		t.Errorf("open conversation unread = %d, want 0", c1.UnreadCount)
	}

	// Duplicate delivery: deduped, no second receipt.
	s.HandleMessage(liveMessage("c1", msg("m-live", "done", "2026-02-11T11:00:00Z")))
	if got := len(s.Messages()); got != 3 {
		t.Errorf("history length after duplicate = %d, want 3", got)
	}
	if got := g.readCallCount("c1") - baseline; got != 1 {
		t.Errorf("read receipts after duplicate = %d, want still 1", got)
	}

	// Live message for another conversation: unread bump, no receipt.
	s.HandleMessage(liveMessage("c2", msg("m-other", "ping", "2026-02-11T11:01:00Z")))
	c2, _ := s.conversations.Get("c2")
	if c2.UnreadCount != 1 {
		t.Errorf("c2 unread = %d, want 1", c2.UnreadCount)
	}
	if got := g.readCallCount("c2"); got != 0 {
		t.Errorf("read receipts for c2 = %d, want 0", got)
	}

	if updates != 3 {
		t.Errorf("OnUpdate calls = %d, want 3", updates)
	}
}

func TestSessionSelectReplacesHistory(t *testing.T) {
	g := newFakeGateway(t)
	g.conversations = []api.Conversation{
		direct("c1", "u2", "Kofi Boateng", 0),
		direct("c2", "u3", "Efua Owusu", 0),
	}
	seedHistory(g, "c1", 3)
	g.messages["c2"] = []api.Message{msg("x1", "other thread", "2026-02-11T08:00:00Z")}

	s := NewSession(g.client(), "ws://unused/ws/chat/tok", "u1", "Ama Mensah")
	ctx := context.Background()
	if err := s.conversations.Load(ctx); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if err := s.SelectConversation(ctx, "c1"); err != nil {
		t.Fatalf("SelectConversation(c1) error: %v", err)
	}
	if got := len(s.Messages()); got != 3 {
		t.Fatalf("c1 history length = %d, want 3", got)
	}

	if err := s.SelectConversation(ctx, "c2"); err != nil {
		t.Fatalf("SelectConversation(c2) error: %v", err)
	}
	msgs := s.Messages()
	if len(msgs) != 1 || msgs[0].ID != "x1" {
		t.Errorf("c2 history = %+v, want just x1 (full replacement)", msgs)
	}
	if got := s.OpenConversationID(); got != "c2" {
		t.Errorf("OpenConversationID() = %q, want c2", got)
	}
}

func TestSendWithoutOpenConversation(t *testing.T) {
	g := newFakeGateway(t)
	s := NewSession(g.client(), "ws://unused/ws/chat/tok", "u1", "Ama Mensah")
	if _, err := s.Send(context.Background()); err != ErrNoConversation {
		t.Errorf("Send() = %v, want ErrNoConversation", err)
	}
}

func TestDisplayNameResolution(t *testing.T) {
	g := newFakeGateway(t)
	store := NewConversationStore(g.client(), "u1")

	got := store.DisplayName(direct("c1", "u2", "Kofi Boateng", 0))
	if got != "Kofi Boateng" {
		t.Errorf("direct DisplayName = %q, want other participant", got)
	}
	got = store.DisplayName(api.Conversation{ID: "c3", ChatType: "group", Name: "Pharmacy Desk"})
	if got != "Pharmacy Desk" {
		t.Errorf("group DisplayName = %q, want group name", got)
	}
}

func TestFilterQueryIsCaseInsensitiveSubstring(t *testing.T) {
	g := newFakeGateway(t)
	store := NewConversationStore(g.client(), "u1")
	store.conversations = []api.Conversation{direct("c1", "u2", "Kofi Boateng", 0)}

	for _, q := range []string{"boat", "BOAT", "kofi boateng", "i B"} {
		if got := store.Filter(q); len(got) != 1 {
			t.Errorf("Filter(%q) = %d results, want 1", q, len(got))
		}
	}
}

func TestComposerTrimOnlyAffectsWire(t *testing.T) {
	g := newFakeGateway(t)
	store := NewMessageStore(g.client(), "c1", "u1", "Ama Mensah")
	store.SetComposer("  padded  ")
	sent, err := store.Send(context.Background())
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if strings.TrimSpace(sent.Content) != sent.Content {
		t.Errorf("wire content %q not trimmed", sent.Content)
	}
}
