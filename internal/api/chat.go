package api

import (
	"context"
	"fmt"
	"net/url"
)

// Chat endpoint contracts. The client holds no authoritative chat state;
// everything below is a transient projection of server-owned records.

// Participant is a member of a conversation.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// Conversation is a direct (2-party) or group thread of messages.
type Conversation struct {
	ID            string        `json:"id"`
	ChatType      string        `json:"chat_type"` // "direct" or "group"
	Name          string        `json:"name,omitempty"`
	Participants  []Participant `json:"participants"`
	LastMessage   string        `json:"last_message,omitempty"`
	LastMessageAt string        `json:"last_message_at,omitempty"`
	UnreadCount   int           `json:"unread_count"`
}

// Message is a single chat message.
type Message struct {
	ID         string   `json:"id"`
	SenderID   string   `json:"sender_id"`
	SenderName string   `json:"sender_name"`
	SenderRole string   `json:"sender_role,omitempty"`
	Content    string   `json:"content"`
	SentAt     string   `json:"sent_at"`
	ReadBy     []string `json:"read_by,omitempty"`
}

// ConversationsResponse is the response from GET /api/chat/conversations.
type ConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
}

// Conversations lists the conversations visible to the signed-in user,
// in server-determined order (typically recency).
func (c *Client) Conversations(ctx context.Context) (*ConversationsResponse, error) {
	var resp ConversationsResponse
	if err := c.get(ctx, "/api/chat/conversations", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UnreadCountResponse is the response from GET /api/chat/unread-count.
type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

// UnreadCount returns the aggregate unread message count.
func (c *Client) UnreadCount(ctx context.Context) (*UnreadCountResponse, error) {
	var resp UnreadCountResponse
	if err := c.get(ctx, "/api/chat/unread-count", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MessagesResponse is the response from
// GET /api/chat/conversations/{id}/messages.
type MessagesResponse struct {
	Messages []Message `json:"messages"`
}

// Messages fetches the full message history for a conversation.
func (c *Client) Messages(ctx context.Context, conversationID string) (*MessagesResponse, error) {
	var resp MessagesResponse
	path := fmt.Sprintf("/api/chat/conversations/%s/messages", url.PathEscape(conversationID))
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateConversationRequest is the request body for
// POST /api/chat/conversations.
type CreateConversationRequest struct {
	ChatType       string   `json:"chat_type"`
	ParticipantIDs []string `json:"participant_ids"`
}

// CreateConversationResponse is the response from
// POST /api/chat/conversations. Existing is true when the server resumed
// a conversation that already existed for the participant set.
type CreateConversationResponse struct {
	Conversation Conversation `json:"conversation"`
	Existing     bool         `json:"existing"`
}

// CreateConversation creates or resumes a conversation.
func (c *Client) CreateConversation(ctx context.Context, req *CreateConversationRequest) (*CreateConversationResponse, error) {
	var resp CreateConversationResponse
	if err := c.post(ctx, "/api/chat/conversations", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendMessageRequest is the request body for
// POST /api/chat/conversations/{id}/messages.
type SendMessageRequest struct {
	Content     string `json:"content"`
	MessageType string `json:"message_type"`
}

// SendMessageResponse is the response from
// POST /api/chat/conversations/{id}/messages.
type SendMessageResponse struct {
	Message Message `json:"message"`
}

// SendMessage posts a message to a conversation and returns the
// server-assigned copy.
func (c *Client) SendMessage(ctx context.Context, conversationID string, req *SendMessageRequest) (*SendMessageResponse, error) {
	var resp SendMessageResponse
	path := fmt.Sprintf("/api/chat/conversations/%s/messages", url.PathEscape(conversationID))
	if err := c.post(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MarkConversationRead fires a read receipt for a conversation. The server
// acknowledges with an empty body; only the status code matters.
func (c *Client) MarkConversationRead(ctx context.Context, conversationID string) error {
	path := fmt.Sprintf("/api/chat/conversations/%s/read", url.PathEscape(conversationID))
	return c.post(ctx, path, nil, nil)
}

// UserSearchResult is a staff user in the new-conversation picker.
type UserSearchResult struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role,omitempty"`
	Department string `json:"department,omitempty"`
}

// SearchUsersResponse is the response from GET /api/chat/users/search.
type SearchUsersResponse struct {
	Users []UserSearchResult `json:"users"`
}

// SearchUsers searches staff users for starting a new conversation.
func (c *Client) SearchUsers(ctx context.Context, query string) (*SearchUsersResponse, error) {
	var resp SearchUsersResponse
	q := url.Values{}
	q.Set("query", query)
	if err := c.get(ctx, "/api/chat/users/search", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
