package chat

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jhustinvs-a11y/mi-chat-web/internal/session"
)

// SessionLookup is the read the hub performs against the user directory
// while binding a connection.
type SessionLookup interface {
	Lookup(key string) (session.Identity, bool)
}

// Options tune the hub. Zero values fall back to the defaults below.
type Options struct {
	HistoryCapacity int
	HistoryReplay   int
	MaxMessageChars int
	RateLimitMax    int
	RateLimitWindow time.Duration
	// PresenceDebounce coalesces rapid users-list changes into one
	// emission. Zero emits immediately.
	PresenceDebounce time.Duration
}

const (
	defaultHistoryCapacity = 50
	defaultHistoryReplay   = 20
	defaultMaxMessageChars = 500
	defaultRateLimitMax    = 10
	defaultRateLimitWindow = time.Minute
)

func (o Options) withDefaults() Options {
	if o.HistoryCapacity <= 0 {
		o.HistoryCapacity = defaultHistoryCapacity
	}
	if o.HistoryReplay <= 0 {
		o.HistoryReplay = defaultHistoryReplay
	}
	if o.MaxMessageChars <= 0 {
		o.MaxMessageChars = defaultMaxMessageChars
	}
	if o.RateLimitMax <= 0 {
		o.RateLimitMax = defaultRateLimitMax
	}
	if o.RateLimitWindow <= 0 {
		o.RateLimitWindow = defaultRateLimitWindow
	}
	return o
}

type conn struct {
	id          string
	sink        EventSink
	identity    *session.Identity
	connectedAt time.Time
}

// Hub owns the registry, the message log, and the rate limiter, and is the
// only component that mutates them. Every operation takes the hub mutex, so
// id assignment, eviction, and list snapshots are linearizable. Delivery to
// a sink never blocks; a slow connection drops its own events and nobody
// else's.
type Hub struct {
	mu       sync.Mutex
	sessions SessionLookup
	opts     Options

	conns    map[string]*conn
	registry *Registry
	history  *History
	limiter  *Limiter

	presencePending bool
	presenceTimer   *time.Timer
	closed          bool

	log *zap.SugaredLogger
	now func() time.Time
}

func NewHub(sessions SessionLookup, opts Options, log *zap.SugaredLogger) *Hub {
	opts = opts.withDefaults()
	return &Hub{
		sessions: sessions,
		opts:     opts,
		conns:    make(map[string]*conn),
		registry: NewRegistry(),
		history:  NewHistory(opts.HistoryCapacity),
		limiter:  NewLimiter(opts.RateLimitMax, opts.RateLimitWindow),
		log:      log,
		now:      time.Now,
	}
}

// Connect registers a new, still unauthenticated connection.
func (h *Hub) Connect(id string, sink EventSink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.conns[id] = &conn{id: id, sink: sink, connectedAt: h.now()}
	h.log.Debugw("connection opened", "conn", id, "total", len(h.conns))
}

// Authenticate binds the connection to the identity behind key. An unknown
// key leaves the connection untouched and emits nothing; callers get no
// failure signal.
func (h *Hub) Authenticate(id, key string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[id]
	if !ok || c.identity != nil {
		return
	}
	ident, found := h.sessions.Lookup(key)
	if !found {
		h.log.Debugw("authenticate for unknown identity ignored", "conn", id)
		return
	}

	c.identity = &ident
	h.registry.Bind(id, ident)

	c.sink.Push(Event{Type: EventPreviousMessages, Messages: h.history.Recent(h.opts.HistoryReplay)})
	if !ident.Role.IsAdmin() {
		h.broadcastExcept(id, Event{Type: EventUserJoined, Name: ident.Name})
	}
	h.schedulePresence()
	h.log.Infow("user authenticated", "conn", id, "user", ident.Name)
}

// Send validates, stores, and broadcasts one chat message from the
// connection. Unauthenticated senders are ignored.
func (h *Hub) Send(id, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[id]
	if !ok || c.identity == nil {
		return
	}
	if !h.limiter.Admit(id, h.now()) {
		c.sink.Push(Event{Type: EventRateLimit, Text: "too many messages, wait a moment"})
		h.log.Debugw("message rate limited", "conn", id, "user", c.identity.Name)
		return
	}
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > h.opts.MaxMessageChars {
		return
	}

	msg := h.history.Append(*c.identity, text, h.now())
	h.broadcastAll(Event{Type: EventChatMessage, Message: &msg})
}

// Delete removes a message by id on behalf of an admin and announces the
// removal. Non-admins and unauthenticated connections are ignored.
func (h *Hub) Delete(id string, messageID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[id]
	if !ok || c.identity == nil || !c.identity.Role.IsAdmin() {
		return
	}
	if h.history.DeleteByID(messageID) {
		h.broadcastAll(Event{Type: EventMessageDeleted, MessageID: messageID})
		h.log.Infow("message deleted", "id", messageID, "by", c.identity.Name)
	}
}

// Disconnect drops the connection and, when it was the one bound in the
// registry, announces the departure. Safe to call once per connection from
// the transport's read loop.
func (h *Hub) Disconnect(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[id]
	if !ok {
		return
	}
	delete(h.conns, id)
	h.limiter.Forget(id)

	if c.identity == nil {
		return
	}
	removed, unbound := h.registry.Unbind(id)
	if !unbound {
		// superseded by a newer connection for the same identity
		return
	}
	if !removed.Role.IsAdmin() {
		h.broadcastAll(Event{Type: EventUserLeft, Name: removed.Name})
	}
	h.schedulePresence()
	h.log.Infow("user disconnected", "conn", id, "user", removed.Name)
}

// Close stops background timers. Connections are expected to be torn down
// by their transports.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	if h.presenceTimer != nil {
		h.presenceTimer.Stop()
	}
}

// Online reports how many identities are currently bound.
func (h *Hub) Online() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registry.Len()
}

// schedulePresence emits the users list, or arms the debounce timer when
// coalescing is configured. Callers hold h.mu.
func (h *Hub) schedulePresence() {
	if h.opts.PresenceDebounce <= 0 {
		h.broadcastAll(Event{Type: EventUsersList, Users: h.registry.List()})
		return
	}
	if h.presencePending {
		return
	}
	h.presencePending = true
	h.presenceTimer = time.AfterFunc(h.opts.PresenceDebounce, h.flushPresence)
}

func (h *Hub) flushPresence() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.presencePending || h.closed {
		return
	}
	h.presencePending = false
	h.broadcastAll(Event{Type: EventUsersList, Users: h.registry.List()})
}

// broadcastAll pushes an event to every authenticated connection. A
// connection that has not completed the authenticate exchange receives
// nothing. Callers hold h.mu.
func (h *Hub) broadcastAll(ev Event) {
	h.broadcastExcept("", ev)
}

func (h *Hub) broadcastExcept(exceptID string, ev Event) {
	for _, c := range h.conns {
		if c.id == exceptID || c.identity == nil {
			continue
		}
		if !c.sink.Push(ev) {
			h.log.Debugw("event dropped for slow connection", "conn", c.id, "type", ev.Type)
		}
	}
}
