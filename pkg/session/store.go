package session

import "sync"

// Store is the in-memory session registry. Sessions are created lazily
// on first use and live for the process lifetime.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session for the id, creating it on first use.
// The same instance is returned for the same id for the life of the
// process.
func (st *Store) GetOrCreate(id string) *Session {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		return s
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		return s
	}
	s = newSession(id)
	st.sessions[id] = s
	return s
}

// Summary returns a snapshot of the session's summary, or an empty
// default for an unknown id. It never fails: the summary endpoint must
// answer cold ids.
func (st *Store) Summary(id string) Summary {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()

	if !ok {
		return emptySummary(id)
	}
	return s.Summary()
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
