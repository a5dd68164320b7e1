// Package chat holds the client-side chat session state: the conversation
// list, the history of the one open conversation, and typing indicators.
// All state here is a transient projection of server records; nothing is
// persisted between runs.
package chat

import (
	"context"
	"strings"

	"github.com/carelink/clk/internal/api"
	"github.com/carelink/clk/internal/logx"
)

// ConversationStore holds the conversation list in server order plus the
// aggregate unread badge. It is not safe for concurrent use; the owning
// Session serializes access.
type ConversationStore struct {
	client *api.Client
	selfID string

	conversations []api.Conversation
	unreadTotal   int
}

// NewConversationStore returns an empty store. selfID is the signed-in
// user's ID, used to resolve direct-conversation display names.
func NewConversationStore(client *api.Client, selfID string) *ConversationStore {
	return &ConversationStore{client: client, selfID: selfID}
}

// Load replaces the conversation list with the server's current view,
// preserving server order.
func (s *ConversationStore) Load(ctx context.Context) error {
	resp, err := s.client.Conversations(ctx)
	if err != nil {
		return err
	}
	s.conversations = resp.Conversations
	return nil
}

// RefreshUnreadTotal fetches the aggregate unread count. The endpoint is
// advisory; on failure the badge falls back to the sum of per-conversation
// counts and the error is only logged.
func (s *ConversationStore) RefreshUnreadTotal(ctx context.Context) {
	resp, err := s.client.UnreadCount(ctx)
	if err != nil {
		logx.Debug("unread count refresh failed", "error", err.Error())
		s.unreadTotal = s.localUnreadSum()
		return
	}
	s.unreadTotal = resp.UnreadCount
}

func (s *ConversationStore) localUnreadSum() int {
	total := 0
	for _, c := range s.conversations {
		total += c.UnreadCount
	}
	return total
}

// UnreadTotal returns the current badge count.
func (s *ConversationStore) UnreadTotal() int {
	return s.unreadTotal
}

// Conversations returns the list in server order.
func (s *ConversationStore) Conversations() []api.Conversation {
	return s.conversations
}

// Get returns the conversation with the given ID, if present.
func (s *ConversationStore) Get(id string) (api.Conversation, bool) {
	for _, c := range s.conversations {
		if c.ID == id {
			return c, true
		}
	}
	return api.Conversation{}, false
}

// CreateOrResume starts a conversation with the given participants, or
// resumes the existing one for that participant set. A resumed conversation
// already in the list is returned as-is; anything else is prepended.
func (s *ConversationStore) CreateOrResume(ctx context.Context, chatType string, participantIDs []string) (api.Conversation, error) {
	resp, err := s.client.CreateConversation(ctx, &api.CreateConversationRequest{
		ChatType:       chatType,
		ParticipantIDs: participantIDs,
	})
	if err != nil {
		return api.Conversation{}, err
	}

	if resp.Existing {
		if existing, ok := s.Get(resp.Conversation.ID); ok {
			return existing, nil
		}
	}
	s.conversations = append([]api.Conversation{resp.Conversation}, s.conversations...)
	return resp.Conversation, nil
}

// MarkRead zeroes the local unread count for a conversation, fires the
// read receipt, and refreshes the aggregate badge. The receipt failing is
// non-critical: the local state stays zeroed and the server re-delivers
// the count on the next list load.
func (s *ConversationStore) MarkRead(ctx context.Context, conversationID string) {
	for i := range s.conversations {
		if s.conversations[i].ID == conversationID {
			s.conversations[i].UnreadCount = 0
			break
		}
	}
	if err := s.client.MarkConversationRead(ctx, conversationID); err != nil {
		logx.Debug("mark read failed", "conversation", conversationID, "error", err.Error())
	}
	s.RefreshUnreadTotal(ctx)
}

// ApplyMessageEvent records an inbound message for a conversation that is
// not currently open: unread count up by one, preview and timestamp
// overwritten. Returns false when the conversation is unknown locally, in
// which case the caller should reload the list.
func (s *ConversationStore) ApplyMessageEvent(conversationID string, msg api.Message) bool {
	for i := range s.conversations {
		if s.conversations[i].ID == conversationID {
			s.conversations[i].UnreadCount++
			s.conversations[i].LastMessage = msg.Content
			s.conversations[i].LastMessageAt = msg.SentAt
			return true
		}
	}
	return false
}

// UpdatePreview overwrites a conversation's last-message preview without
// touching its unread count. Used for the open conversation and for the
// user's own sends.
func (s *ConversationStore) UpdatePreview(conversationID string, msg api.Message) {
	for i := range s.conversations {
		if s.conversations[i].ID == conversationID {
			s.conversations[i].LastMessage = msg.Content
			s.conversations[i].LastMessageAt = msg.SentAt
			return
		}
	}
}

// DisplayName resolves what the list shows for a conversation: the group
// name, or for direct conversations the other participant's name.
func (s *ConversationStore) DisplayName(c api.Conversation) string {
	if c.ChatType == "group" || c.Name != "" {
		return c.Name
	}
	for _, p := range c.Participants {
		if p.ID != s.selfID {
			return p.Name
		}
	}
	return c.ID
}

// Filter returns the conversations whose display name contains query,
// case-insensitively. An empty query returns the full list. Render-path
// only: the stored list is untouched.
func (s *ConversationStore) Filter(query string) []api.Conversation {
	if query == "" {
		return s.conversations
	}
	q := strings.ToLower(query)
	var out []api.Conversation
	for _, c := range s.conversations {
		if strings.Contains(strings.ToLower(s.DisplayName(c)), q) {
			out = append(out, c)
		}
	}
	return out
}
