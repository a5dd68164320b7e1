package chat

import "time"

// TypingTTL is how long a typing indicator stays visible without a fresh
// frame. A dropped "stopped" frame therefore cannot pin an indicator on.
const TypingTTL = 5 * time.Second

type typingEntry struct {
	name       string
	receivedAt time.Time
}

// TypingIndicators tracks, per conversation, who is currently typing.
// Entries expire after TypingTTL. Not safe for concurrent use; the owning
// Session serializes access.
type TypingIndicators struct {
	ttl     time.Duration
	entries map[string]typingEntry
}

// NewTypingIndicators returns an empty indicator set with the default TTL.
func NewTypingIndicators() *TypingIndicators {
	return &TypingIndicators{ttl: TypingTTL, entries: make(map[string]typingEntry)}
}

// Apply records a typing frame. A start stamps the entry with now; a stop
// clears it immediately.
func (t *TypingIndicators) Apply(conversationID, userName string, isTyping bool, now time.Time) {
	if !isTyping {
		delete(t.entries, conversationID)
		return
	}
	t.entries[conversationID] = typingEntry{name: userName, receivedAt: now}
}

// Active returns the name shown as typing in a conversation, or false when
// nobody is typing or the last frame has gone stale.
func (t *TypingIndicators) Active(conversationID string, now time.Time) (string, bool) {
	e, ok := t.entries[conversationID]
	if !ok {
		return "", false
	}
	if now.Sub(e.receivedAt) > t.ttl {
		delete(t.entries, conversationID)
		return "", false
	}
	return e.name, true
}
