package game

import "sync"

// Event is an outbound push message. State updates go to every subscriber of
// a session; participant errors are delivered directly to the acting
// connection and are never broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func StateUpdateEvent(snap *Snapshot) Event {
	return Event{Type: "gameUpdate", Data: map[string]any{"gameState": snap}}
}

func ErrorEvent(username, message string) Event {
	return Event{Type: "gameError", Data: map[string]any{"player": username, "error": message}}
}

// ChatUpdateEvent mirrors the game state update for chat sessions; kind is
// what changed ("created", "newMessage", "newParticipant").
func ChatUpdateEvent(result any, kind string) Event {
	return Event{Type: "chatUpdate", Data: map[string]any{"result": result, "type": kind}}
}

// Subscriber is one connection's receiving end. Deliver must not block: the
// websocket layer enqueues onto a buffered outbox drained by a single writer
// goroutine, which keeps per-session delivery in publish order.
type Subscriber interface {
	Deliver(event Event)
}

// Hub scopes event delivery: a connection only receives events for sessions
// it has subscribed to. Publishes for one session are serialized by that
// session's mutex, so iteration order here is the only fan-out concern.
type Hub struct {
	mu    sync.RWMutex
	subs  map[string]map[Subscriber]bool // sessionID -> subscribers
	bySub map[Subscriber]map[string]bool // subscriber -> sessionIDs
	order map[string]*sync.Mutex         // per-session publish ordering
}

func NewHub() *Hub {
	return &Hub{
		subs:  make(map[string]map[Subscriber]bool),
		bySub: make(map[Subscriber]map[string]bool),
		order: make(map[string]*sync.Mutex),
	}
}

// Subscribe adds sub to sessionID's audience and reports whether it was
// newly added (false when already subscribed).
func (h *Hub) Subscribe(sessionID string, sub Subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[Subscriber]bool)
	}
	if h.subs[sessionID][sub] {
		return false
	}
	h.subs[sessionID][sub] = true

	if h.bySub[sub] == nil {
		h.bySub[sub] = make(map[string]bool)
	}
	h.bySub[sub][sessionID] = true
	return true
}

// Unsubscribe is safe to call redundantly.
func (h *Hub) Unsubscribe(sessionID string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sessionID, sub)
}

// Drop removes a session's audience entirely, invalidating future delivery
// for that ID. Used when a session is torn down.
func (h *Hub) Drop(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[sessionID] {
		h.removeLocked(sessionID, sub)
	}
	delete(h.order, sessionID)
}

// SessionsOf lists the session IDs sub is currently subscribed to. Used for
// teardown when a connection is lost.
func (h *Hub) SessionsOf(sub Subscriber) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.bySub[sub]))
	for id := range h.bySub[sub] {
		ids = append(ids, id)
	}
	return ids
}

// Publish delivers event to exactly the connections currently subscribed to
// sessionID, each once. Publishes for one session are serialized so every
// subscriber observes them in call order; publishes to different sessions
// run concurrently.
func (h *Hub) Publish(sessionID string, event Event) {
	h.mu.Lock()
	if len(h.subs[sessionID]) == 0 {
		// Nobody to order the event for; don't allocate ordering state.
		h.mu.Unlock()
		return
	}
	lock, ok := h.order[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		h.order[sessionID] = lock
	}
	h.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[sessionID] {
		sub.Deliver(event)
	}
}

func (h *Hub) removeLocked(sessionID string, sub Subscriber) {
	if subs, ok := h.subs[sessionID]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.subs, sessionID)
			delete(h.order, sessionID)
		}
	}
	if ids, ok := h.bySub[sub]; ok {
		delete(ids, sessionID)
		if len(ids) == 0 {
			delete(h.bySub, sub)
		}
	}
}
