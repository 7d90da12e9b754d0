package history

import (
	"log/slog"
	"sync"
	"time"
)

// Registry maps session IDs to their stores. Its own lock only guards the
// map; entry mutations take the per-session lock.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Store
	now      func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Store), now: time.Now}
}

// Append records e in the session, creating the session's store on first use.
func (r *Registry) Append(sessionID string, e Entry) Entry {
	return r.store(sessionID, true).Append(e)
}

// List returns the session's entries; unknown sessions have none.
func (r *Registry) List(sessionID string) []Entry {
	st := r.store(sessionID, false)
	if st == nil {
		return []Entry{}
	}
	return st.List()
}

// Clear empties the session's history.
func (r *Registry) Clear(sessionID string) {
	if st := r.store(sessionID, false); st != nil {
		st.Clear()
	}
}

// Delete removes the session's entries stamped ts.
func (r *Registry) Delete(sessionID, ts string) int {
	st := r.store(sessionID, false)
	if st == nil {
		return 0
	}
	return st.Delete(ts)
}

// End discards a session and its history.
func (r *Registry) End(sessionID string) {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
}

// Sessions returns the number of live sessions.
func (r *Registry) Sessions() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep ends sessions that have not been used for longer than idle.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	ended := 0
	for id, st := range r.sessions {
		if st.lastTouched().Before(cutoff) {
			delete(r.sessions, id)
			ended++
		}
	}
	if ended > 0 {
		slog.Info("ended idle history sessions", "ended", ended, "idle_timeout", idle)
	}
	return ended
}

func (r *Registry) store(sessionID string, create bool) *Store {
	r.mu.RLock()
	st := r.sessions[sessionID]
	r.mu.RUnlock()
	if st != nil || !create {
		return st
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if st = r.sessions[sessionID]; st == nil {
		st = newStore(r.now)
		r.sessions[sessionID] = st
	}
	return st
}
