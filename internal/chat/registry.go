package chat

import (
	"sort"

	"github.com/jhustinvs-a11y/mi-chat-web/internal/session"
)

type presence struct {
	connID   string
	identity session.Identity
	seq      uint64
}

// Registry tracks which identities are online and the connection each one
// is bound to. At most one entry exists per identity key: binding the same
// identity from a second connection supersedes the first entry without
// touching the first transport link. Not internally locked; the hub
// serializes all access.
type Registry struct {
	byKey  map[string]*presence
	byConn map[string]string
	seq    uint64
}

func NewRegistry() *Registry {
	return &Registry{
		byKey:  make(map[string]*presence),
		byConn: make(map[string]string),
	}
}

// Bind inserts or replaces the entry for the identity. Rebinding keeps the
// identity's original position in the list.
func (r *Registry) Bind(connID string, id session.Identity) {
	if p, ok := r.byKey[id.Key]; ok {
		delete(r.byConn, p.connID)
		p.connID = connID
		p.identity = id
		r.byConn[connID] = id.Key
		return
	}
	r.seq++
	r.byKey[id.Key] = &presence{connID: connID, identity: id, seq: r.seq}
	r.byConn[connID] = id.Key
}

// Unbind removes the entry bound to the connection, if any. A connection
// whose entry was superseded by a later bind matches nothing here.
func (r *Registry) Unbind(connID string) (session.Identity, bool) {
	key, ok := r.byConn[connID]
	if !ok {
		return session.Identity{}, false
	}
	p := r.byKey[key]
	delete(r.byConn, connID)
	delete(r.byKey, key)
	return p.identity, true
}

// List snapshots the online users: admins first, then members, each group
// in insertion order.
func (r *Registry) List() []UserEntry {
	entries := make([]*presence, 0, len(r.byKey))
	for _, p := range r.byKey {
		entries = append(entries, p)
	}
	sort.Slice(entries, func(i, j int) bool {
		ai, aj := entries[i].identity.Role.IsAdmin(), entries[j].identity.Role.IsAdmin()
		if ai != aj {
			return ai
		}
		return entries[i].seq < entries[j].seq
	})

	out := make([]UserEntry, len(entries))
	for i, p := range entries {
		out[i] = UserEntry{Name: p.identity.Name, Role: p.identity.Role}
	}
	return out
}

func (r *Registry) Len() int { return len(r.byKey) }
