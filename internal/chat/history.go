package chat

import (
	"time"

	"github.com/jhustinvs-a11y/mi-chat-web/internal/session"
)

// ChatMessage is one retained chat message. Messages are immutable once
// appended.
type ChatMessage struct {
	ID         int64        `json:"id"`
	SenderKey  string       `json:"sender_email"`
	SenderName string       `json:"sender_name"`
	FromAdmin  bool         `json:"is_admin"`
	Text       string       `json:"text"`
	SentAt     time.Time    `json:"sent_at"`
}

// History is the bounded, append-only message log. Ids come from a counter
// owned here so they stay strictly increasing regardless of the clock.
// History is not internally locked; the hub serializes all access.
type History struct {
	capacity int
	nextID   int64
	entries  []ChatMessage
}

func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{
		capacity: capacity,
		nextID:   1,
		entries:  make([]ChatMessage, 0, capacity),
	}
}

// Append stamps and stores a message, evicting from the oldest end when the
// log would exceed its capacity.
func (h *History) Append(sender session.Identity, text string, at time.Time) ChatMessage {
	msg := ChatMessage{
		ID:         h.nextID,
		SenderKey:  sender.Key,
		SenderName: sender.Name,
		FromAdmin:  sender.Role.IsAdmin(),
		Text:       text,
		SentAt:     at,
	}
	h.nextID++

	h.entries = append(h.entries, msg)
	if excess := len(h.entries) - h.capacity; excess > 0 {
		h.entries = append(h.entries[:0], h.entries[excess:]...)
	}
	return msg
}

// Recent returns the last min(n, len) messages, oldest first. The slice is
// a copy.
func (h *History) Recent(n int) []ChatMessage {
	if n > len(h.entries) {
		n = len(h.entries)
	}
	if n <= 0 {
		return []ChatMessage{}
	}
	out := make([]ChatMessage, n)
	copy(out, h.entries[len(h.entries)-n:])
	return out
}

// DeleteByID removes the message with the given id, keeping the relative
// order of the rest. It reports whether a removal happened.
func (h *History) DeleteByID(id int64) bool {
	for i, m := range h.entries {
		if m.ID == id {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (h *History) Len() int { return len(h.entries) }
