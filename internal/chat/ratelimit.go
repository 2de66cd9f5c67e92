package chat

import "time"

type window struct {
	start time.Time
	count int
}

// Limiter caps how many messages a connection may send per window. State is
// created lazily on a connection's first message and dropped on disconnect,
// so memory stays bounded by the live-connection count. Not internally
// locked; the hub serializes all access.
type Limiter struct {
	max    int
	window time.Duration
	conns  map[string]*window
}

func NewLimiter(max int, win time.Duration) *Limiter {
	if max < 1 {
		max = 1
	}
	if win <= 0 {
		win = time.Minute
	}
	return &Limiter{max: max, window: win, conns: make(map[string]*window)}
}

// Admit counts one message against the connection's current window and
// reports whether it is allowed. The window restarts once it has elapsed.
func (l *Limiter) Admit(connID string, now time.Time) bool {
	w, ok := l.conns[connID]
	if !ok {
		w = &window{start: now}
		l.conns[connID] = w
	}
	if now.Sub(w.start) > l.window {
		w.start = now
		w.count = 0
	}
	w.count++
	return w.count <= l.max
}

// Forget drops the connection's counter state.
func (l *Limiter) Forget(connID string) {
	delete(l.conns, connID)
}
