package session

import (
	"sync"
	"time"
)

// Store keeps sessions by id.
type Store struct {
	opts Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty store. Every session it creates gets opts.
func NewStore(opts Options) *Store {
	return &Store{opts: opts, sessions: make(map[string]*Session)}
}

// Get returns the session for id.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// GetOrCreate returns the session for id, creating it if needed.
func (st *Store) GetOrCreate(id string) (*Session, error) {
	if s, ok := st.Get(id); ok {
		return s, nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		return s, nil
	}
	s, err := New(id, st.opts)
	if err != nil {
		return nil, err
	}
	st.sessions[id] = s
	return s, nil
}

// Delete closes and removes the session for id.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Len returns the number of sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Prune removes sessions untouched since before now-maxIdle and returns how
// many were removed.
func (st *Store) Prune(now time.Time, maxIdle time.Duration) int {
	cutoff := now.Add(-maxIdle)

	st.mu.Lock()
	var stale []*Session
	for id, s := range st.sessions {
		if s.Touched().Before(cutoff) {
			stale = append(stale, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}
