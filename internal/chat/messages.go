package chat

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/clk/internal/api"
)

// ErrEmptyMessage is returned by Send when the composer holds nothing but
// whitespace. No request is made in that case.
var ErrEmptyMessage = errors.New("message is empty")

// MessageStore holds the history of the one open conversation. Creating a
// new store for another conversation replaces the old one wholesale; at
// most one is live per session.
type MessageStore struct {
	client         *api.Client
	conversationID string

	messages []api.Message
	composer string

	// pendingID is the local echo ID of an in-flight send, replaced by
	// the server-assigned message on success.
	pendingID string
	selfID    string
	selfName  string
}

// NewMessageStore returns an empty store bound to one conversation.
func NewMessageStore(client *api.Client, conversationID, selfID, selfName string) *MessageStore {
	return &MessageStore{
		client:         client,
		conversationID: conversationID,
		selfID:         selfID,
		selfName:       selfName,
	}
}

// ConversationID returns the conversation this store is bound to.
func (s *MessageStore) ConversationID() string {
	return s.conversationID
}

// Messages returns the history in (timestamp, id) order.
func (s *MessageStore) Messages() []api.Message {
	return s.messages
}

// Composer returns the current draft.
func (s *MessageStore) Composer() string {
	return s.composer
}

// SetComposer replaces the current draft.
func (s *MessageStore) SetComposer(text string) {
	s.composer = text
}

// LoadHistory fetches the conversation's full history and merges it with
// anything already held, so a live event that raced the fetch is neither
// lost nor duplicated.
func (s *MessageStore) LoadHistory(ctx context.Context) error {
	resp, err := s.client.Messages(ctx, s.conversationID)
	if err != nil {
		return err
	}
	for _, m := range resp.Messages {
		s.insert(m)
	}
	return nil
}

// Send posts the composer content. Whitespace-only drafts fail with
// ErrEmptyMessage before any request. While the request is in flight a
// local echo with a generated ID holds the message's place; on success
// the server copy replaces it and the composer clears, on failure the
// echo is removed and the draft stays intact.
func (s *MessageStore) Send(ctx context.Context) (api.Message, error) {
	content := strings.TrimSpace(s.composer)
	if content == "" {
		return api.Message{}, ErrEmptyMessage
	}

	echo := api.Message{
		ID:         uuid.NewString(),
		SenderID:   s.selfID,
		SenderName: s.selfName,
		Content:    content,
		SentAt:     time.Now().UTC().Format(time.RFC3339),
	}
	s.pendingID = echo.ID
	s.insert(echo)

	resp, err := s.client.SendMessage(ctx, s.conversationID, &api.SendMessageRequest{
		Content:     content,
		MessageType: "text",
	})
	if err != nil {
		s.remove(echo.ID)
		s.pendingID = ""
		return api.Message{}, err
	}

	s.remove(echo.ID)
	s.pendingID = ""
	s.insert(resp.Message)
	s.composer = ""
	return resp.Message, nil
}

// ApplyMessageEvent merges an inbound live message into the history.
// Returns true when the message was new, false when insertion deduped it.
func (s *MessageStore) ApplyMessageEvent(msg api.Message) bool {
	return s.insert(msg)
}

// insert adds a message keeping the history deduped by ID and ordered by
// (timestamp, id). A message whose ID is already present overwrites the
// held copy in place. Returns true when the message was new.
func (s *MessageStore) insert(msg api.Message) bool {
	for i := range s.messages {
		if s.messages[i].ID == msg.ID {
			s.messages[i] = msg
			return false
		}
	}
	s.messages = append(s.messages, msg)
	sort.SliceStable(s.messages, func(i, j int) bool {
		return messageLess(s.messages[i], s.messages[j])
	})
	return true
}

func (s *MessageStore) remove(id string) {
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return
		}
	}
}

// messageLess orders by sent time, with the message ID as tiebreaker so
// the ordering is total. Unparseable timestamps compare as raw strings,
// which keeps RFC 3339 values in the right place anyway.
func messageLess(a, b api.Message) bool {
	ta, errA := time.Parse(time.RFC3339, a.SentAt)
	tb, errB := time.Parse(time.RFC3339, b.SentAt)
	if errA == nil && errB == nil {
		if !ta.Equal(tb) {
			return ta.Before(tb)
		}
		return a.ID < b.ID
	}
	if a.SentAt != b.SentAt {
		return a.SentAt < b.SentAt
	}
	return a.ID < b.ID
}
