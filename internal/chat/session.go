package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/carelink/clk/internal/api"
	"github.com/carelink/clk/internal/logx"
	"github.com/carelink/clk/internal/realtime"
)

// Session ties the chat state together: the conversation list, the one
// open conversation's messages, typing indicators, and the realtime
// channel. All mutation runs behind a single mutex, so event-handler and
// command-path updates never interleave.
type Session struct {
	client *api.Client

	mu            sync.Mutex
	conversations *ConversationStore
	messages      *MessageStore // nil while no conversation is open
	typing        *TypingIndicators

	channel *realtime.Channel
	cancel  context.CancelFunc

	selfID   string
	selfName string

	// OnUpdate fires after any state change, with the session lock
	// released. The watch view re-renders from it.
	OnUpdate func()
}

// NewSession builds a session for the signed-in user. wsURL is the full
// chat gateway URL including the token path segment.
func NewSession(client *api.Client, wsURL, selfID, selfName string) *Session {
	s := &Session{
		client:   client,
		typing:   NewTypingIndicators(),
		selfID:   selfID,
		selfName: selfName,
	}
	s.conversations = NewConversationStore(client, selfID)
	s.channel = realtime.New(wsURL, s)
	return s
}

// Start loads the conversation list and badge, then brings the realtime
// channel up in the background. The channel reconnects on its own until
// Close.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	err := s.conversations.Load(ctx)
	if err == nil {
		s.conversations.RefreshUnreadTotal(ctx)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	chanCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() {
		if err := s.channel.Run(chanCtx); err != nil && !errors.Is(err, context.Canceled) {
			logx.Error(err, "realtime channel stopped")
		}
	}()
	return nil
}

// Close tears the realtime channel down. Safe to call more than once.
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// OnStateChange registers a callback for channel state transitions
// (the Live/Offline indicator).
func (s *Session) OnStateChange(fn func(realtime.State)) {
	s.channel.OnStateChange = fn
}

// ChannelState returns the realtime channel's current state.
func (s *Session) ChannelState() realtime.State {
	return s.channel.State()
}

// Conversations returns the conversation list in server order.
func (s *Session) Conversations() []api.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversations.Conversations()
}

// FilterConversations narrows the list by display name.
func (s *Session) FilterConversations(query string) []api.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversations.Filter(query)
}

// DisplayName resolves a conversation's list label.
func (s *Session) DisplayName(c api.Conversation) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversations.DisplayName(c)
}

// UnreadTotal returns the badge count.
func (s *Session) UnreadTotal() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversations.UnreadTotal()
}

// SelectConversation opens a conversation: a fresh message store replaces
// any previous one, history loads, and the conversation is marked read.
func (s *Session) SelectConversation(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	store := NewMessageStore(s.client, conversationID, s.selfID, s.selfName)
	if err := store.LoadHistory(ctx); err != nil {
		return err
	}
	s.messages = store
	s.conversations.MarkRead(ctx, conversationID)
	return nil
}

// OpenConversationID returns the ID of the open conversation, or "" when
// none is open.
func (s *Session) OpenConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.messages == nil {
		return ""
	}
	return s.messages.ConversationID()
}

// Messages returns the open conversation's history.
func (s *Session) Messages() []api.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.messages == nil {
		return nil
	}
	return s.messages.Messages()
}

// Composer returns the open conversation's draft.
func (s *Session) Composer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.messages == nil {
		return ""
	}
	return s.messages.Composer()
}

// SetComposer replaces the open conversation's draft.
func (s *Session) SetComposer(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.messages != nil {
		s.messages.SetComposer(text)
	}
}

// ErrNoConversation is returned by Send when no conversation is open.
var ErrNoConversation = errors.New("no conversation selected")

// Send posts the composer content to the open conversation and updates
// the list preview on success.
func (s *Session) Send(ctx context.Context) (api.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.messages == nil {
		return api.Message{}, ErrNoConversation
	}
	msg, err := s.messages.Send(ctx)
	if err != nil {
		return api.Message{}, err
	}
	s.conversations.UpdatePreview(s.messages.ConversationID(), msg)
	return msg, nil
}

// CreateOrResume starts or resumes a conversation with the given
// participants.
func (s *Session) CreateOrResume(ctx context.Context, chatType string, participantIDs []string) (api.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversations.CreateOrResume(ctx, chatType, participantIDs)
}

// NotifyTyping forwards a local typing start/stop to the gateway. A down
// channel is not an error here; the indicator just does not show remotely.
func (s *Session) NotifyTyping(conversationID string, isTyping bool) {
	if err := s.channel.SendTyping(conversationID, isTyping); err != nil && !errors.Is(err, realtime.ErrNotConnected) {
		logx.Debug("typing notify failed", "error", err.Error())
	}
}

// TypingName returns who is typing in a conversation, if anyone.
func (s *Session) TypingName(conversationID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typing.Active(conversationID, time.Now())
}

// HandleMessage routes an inbound live message. For the open conversation
// it lands in the history and fires one read receipt; for any other it
// bumps that conversation's unread count and preview. Runs on the channel
// goroutine.
func (s *Session) HandleMessage(ev realtime.MessageEvent) {
	ctx, cancelTimeout := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelTimeout()

	s.mu.Lock()
	if s.messages != nil && s.messages.ConversationID() == ev.ConversationID {
		// The receipt follows the dedupe: a redelivered frame changes no
		// history, so the first delivery's receipt already covers it.
		if s.messages.ApplyMessageEvent(ev.Message) {
			s.conversations.MarkRead(ctx, ev.ConversationID)
		}
		s.conversations.UpdatePreview(ev.ConversationID, ev.Message)
	} else {
		if !s.conversations.ApplyMessageEvent(ev.ConversationID, ev.Message) {
			// A conversation this client has never seen; pull the list again.
			if err := s.conversations.Load(ctx); err != nil {
				logx.Debug("conversation list refresh failed", "error", err.Error())
			}
		}
		s.conversations.RefreshUnreadTotal(ctx)
	}
	s.mu.Unlock()

	s.notify()
}

// HandleTyping records an inbound typing indicator. Runs on the channel
// goroutine.
func (s *Session) HandleTyping(ev realtime.TypingEvent) {
	s.mu.Lock()
	s.typing.Apply(ev.ConversationID, ev.UserName, ev.IsTyping, time.Now())
	s.mu.Unlock()

	s.notify()
}

func (s *Session) notify() {
	if s.OnUpdate != nil {
		s.OnUpdate()
	}
}
