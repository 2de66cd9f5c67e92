package chat

import "github.com/jhustinvs-a11y/mi-chat-web/internal/session"

// Wire event names. Inbound and outbound events share one envelope.
const (
	EventAuthenticate     = "authenticate"
	EventChatMessage      = "chat message"
	EventDeleteMessage    = "delete message"
	EventPreviousMessages = "previous messages"
	EventMessageDeleted   = "message deleted"
	EventUsersList        = "users list"
	EventUserJoined       = "user joined"
	EventUserLeft         = "user left"
	EventRateLimit        = "rate_limit"
)

// Event is the JSON envelope exchanged with clients. Only the fields
// relevant to a given Type are set.
type Event struct {
	Type      string        `json:"type"`
	Key       string        `json:"key,omitempty"`
	Text      string        `json:"text,omitempty"`
	MessageID int64         `json:"message_id,omitempty"`
	Message   *ChatMessage  `json:"message,omitempty"`
	Messages  []ChatMessage `json:"messages,omitempty"`
	Users     []UserEntry   `json:"users,omitempty"`
	Name      string        `json:"name,omitempty"`
}

// UserEntry is one row of the broadcast users list.
type UserEntry struct {
	Name string       `json:"name"`
	Role session.Role `json:"role"`
}

// EventSink delivers one outbound event to a single connection. Push must
// not block; it reports false when the event was dropped.
type EventSink interface {
	Push(ev Event) bool
}
