package game

import "sync"

// Registry owns the set of live sessions. It only guards the session map;
// session state has its own lock, so operations on different sessions never
// serialize through the registry.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// CreateOrGet returns the session for id, allocating a fresh WAITING session
// if none exists. Idempotent under concurrent calls: at most one Session is
// ever materialized per ID.
func (r *Registry) CreateOrGet(id string, rules Rules, notify func(Event)) *Session {
	r.mu.RLock()
	session, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		return session
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[id]; ok {
		return session
	}
	session = newSession(id, rules, notify)
	r.sessions[id] = session
	return session
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return session, nil
}

// Remove tears a session down, e.g. when everyone leaves while WAITING.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// List snapshots the live sessions, optionally filtered by status and game
// type ("" matches everything).
func (r *Registry) List(status Status, gameType string) []*Snapshot {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	r.mu.RUnlock()

	snapshots := make([]*Snapshot, 0, len(sessions))
	for _, session := range sessions {
		snap := session.Snapshot()
		if status != "" && snap.Status != status {
			continue
		}
		if gameType != "" && snap.GameType != gameType {
			continue
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots
}
