package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestConversations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/api/chat/conversations" {
			t.Errorf("Expected /api/chat/conversations, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Expected Authorization 'Bearer tok-1', got %q", got)
		}

		resp := ConversationsResponse{
			Conversations: []Conversation{
				{
					ID:       "c1",
					ChatType: "direct",
					Participants: []Participant{
						{ID: "u1", Name: "Akosua Mensah", Role: "pharmacist"},
						{ID: "u2", Name: "Kofi Boateng", Role: "radiologist"},
					},
					LastMessage: "Scan is ready",
					UnreadCount: 3,
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewWithToken(server.URL, "tok-1")
	resp, err := c.Conversations(context.Background())
	if err != nil {
		t.Fatalf("Conversations() error: %v", err)
	}
	if len(resp.Conversations) != 1 {
		t.Fatalf("Expected 1 conversation, got %d", len(resp.Conversations))
	}
	if resp.Conversations[0].UnreadCount != 3 {
		t.Errorf("UnreadCount = %d, want 3", resp.Conversations[0].UnreadCount)
	}
	if resp.Conversations[0].Participants[1].Name != "Kofi Boateng" {
		t.Errorf("Participant name = %q", resp.Conversations[0].Participants[1].Name)
	}
}

func TestSendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/api/chat/conversations/c1/messages" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}

		var req SendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.Content != "Hello" {
			t.Errorf("Content = %q, want Hello", req.Content)
		}
		if req.MessageType != "text" {
			t.Errorf("MessageType = %q, want text", req.MessageType)
		}

		resp := SendMessageResponse{Message: Message{
			ID:         "m9",
			SenderID:   "u1",
			SenderName: "Akosua Mensah",
			Content:    "Hello",
			SentAt:     "2026-02-11T09:30:00Z",
		}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewWithToken(server.URL, "tok-1")
	resp, err := c.SendMessage(context.Background(), "c1", &SendMessageRequest{
		Content:     "Hello",
		MessageType: "text",
	})
	if err != nil {
		t.Fatalf("SendMessage() error: %v", err)
	}
	if resp.Message.ID != "m9" {
		t.Errorf("Message.ID = %q, want m9", resp.Message.ID)
	}
}

func TestCreateConversation_Existing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req CreateConversationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.ChatType != "direct" {
			t.Errorf("ChatType = %q, want direct", req.ChatType)
		}
		if len(req.ParticipantIDs) != 1 || req.ParticipantIDs[0] != "u2" {
			t.Errorf("ParticipantIDs = %v, want [u2]", req.ParticipantIDs)
		}

		resp := CreateConversationResponse{
			Conversation: Conversation{ID: "c1", ChatType: "direct"},
			Existing:     true,
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewWithToken(server.URL, "tok-1")
	resp, err := c.CreateConversation(context.Background(), &CreateConversationRequest{
		ChatType:       "direct",
		ParticipantIDs: []string{"u2"},
	})
	if err != nil {
		t.Fatalf("CreateConversation() error: %v", err)
	}
	if !resp.Existing {
		t.Error("Expected existing=true")
	}
}

func TestMarkConversationRead(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if r.URL.Path != "/api/chat/conversations/c1/read" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewWithToken(server.URL, "tok-1")
	if err := c.MarkConversationRead(context.Background(), "c1"); err != nil {
		t.Fatalf("MarkConversationRead() error: %v", err)
	}
	if !called {
		t.Error("Expected read receipt request")
	}
}

func TestSearchUsers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got != "kofi" {
			t.Errorf("query = %q, want kofi", got)
		}
		resp := SearchUsersResponse{Users: []UserSearchResult{
			{ID: "u2", Name: "Kofi Boateng", Role: "radiologist", Department: "Radiology"},
		}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewWithToken(server.URL, "tok-1")
	resp, err := c.SearchUsers(context.Background(), "kofi")
	if err != nil {
		t.Fatalf("SearchUsers() error: %v", err)
	}
	if len(resp.Users) != 1 || resp.Users[0].Department != "Radiology" {
		t.Errorf("Unexpected users: %+v", resp.Users)
	}
}

func TestUnreadCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/unread-count" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(UnreadCountResponse{UnreadCount: 7})
	}))
	defer server.Close()

	c := NewWithToken(server.URL, "tok-1")
	resp, err := c.UnreadCount(context.Background())
	if err != nil {
		t.Fatalf("UnreadCount() error: %v", err)
	}
	if resp.UnreadCount != 7 {
		t.Errorf("UnreadCount = %d, want 7", resp.UnreadCount)
	}
}
