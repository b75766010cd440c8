package game

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultGameType is assumed when a join references a session ID the
// registry has never seen.
const DefaultGameType = "Nim"

// SnapshotStore persists accepted game states. Saves are fire-and-forget:
// failures are logged and never surfaced to participants.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *Snapshot) error
}

// Config carries the rule knobs the coordinator needs.
type Config struct {
	NimStartObjects int
	MoveTimeout     time.Duration
}

// Coordinator sequences registry lookup -> membership -> rule engine ->
// broadcast, and is the single place a component error becomes a
// participant-scoped error event. Participant identity and the connection
// handle are passed into every call; nothing is looked up ambiently.
type Coordinator struct {
	registry    *Registry
	hub         *Hub
	store       SnapshotStore
	rules       map[string]func() Rules
	moveTimeout time.Duration

	timerMu sync.Mutex
	timers  map[string]*time.Timer

	saveMu sync.Mutex
	savers map[string]*snapshotSaver
}

// snapshotSaver serializes the saves of one session; a snapshot older than
// the newest one already stored is dropped rather than written, so a slow
// save can never clobber a finished game's record with a stale state.
type snapshotSaver struct {
	mu        sync.Mutex
	lastSaved uint64
}

func NewCoordinator(store SnapshotStore, cfg Config) *Coordinator {
	c := &Coordinator{
		registry:    NewRegistry(),
		hub:         NewHub(),
		store:       store,
		moveTimeout: cfg.MoveTimeout,
		timers:      make(map[string]*time.Timer),
		savers:      make(map[string]*snapshotSaver),
	}
	c.rules = map[string]func() Rules{
		"Nim": func() Rules { return NewNimRules(cfg.NimStartObjects) },
	}
	return c
}

// Hub exposes the broadcast channel so the chat layer can share it.
func (c *Coordinator) Hub() *Hub { return c.hub }

// Create allocates a fresh session with a new ID. Used by the HTTP API.
func (c *Coordinator) Create(gameType string) (*Snapshot, error) {
	build, ok := c.rules[gameType]
	if !ok {
		return nil, fmt.Errorf("unknown game type %q", gameType)
	}
	id := uuid.New().String()
	session := c.registry.CreateOrGet(id, build(), c.notifyFor(id))
	return session.Snapshot(), nil
}

func (c *Coordinator) Get(gameID string) (*Snapshot, error) {
	session, err := c.registry.Get(gameID)
	if err != nil {
		return nil, err
	}
	return session.Snapshot(), nil
}

func (c *Coordinator) List(status Status, gameType string) []*Snapshot {
	return c.registry.List(status, gameType)
}

// Join subscribes sub to the session's broadcasts and seats username,
// creating the session on first join of a fresh ID. Subscription and seat
// change happen together: a failed join rolls the subscription back (unless
// sub was already subscribed, e.g. as a watcher). Rejoining is an idempotent
// success; the rejoiner alone is sent the last known state.
func (c *Coordinator) Join(gameID, username string, sub Subscriber) {
	session := c.registry.CreateOrGet(gameID, c.rules[DefaultGameType](), c.notifyFor(gameID))

	added := c.hub.Subscribe(gameID, sub)
	_, rejoined, err := session.Join(username)
	if err != nil {
		if added {
			c.hub.Unsubscribe(gameID, sub)
		}
		sub.Deliver(ErrorEvent(username, err.Error()))
		return
	}
	if rejoined {
		session.DeliverState(sub)
		return
	}

	log.Printf("Player %s joined game %s", username, gameID)
	c.persist(session)
	c.resetMoveTimer(session)
}

// Move submits a payload to the session's rule engine. A rejected move is
// invisible to everyone but the actor: no state update is broadcast and only
// sub receives the error event.
func (c *Coordinator) Move(gameID, username string, payload json.RawMessage, sub Subscriber) {
	session, err := c.registry.Get(gameID)
	if err != nil {
		sub.Deliver(ErrorEvent(username, fmt.Sprintf("game %s not found", gameID)))
		return
	}
	if err := session.SubmitMove(username, payload); err != nil {
		sub.Deliver(ErrorEvent(username, err.Error()))
		return
	}
	c.persist(session)
	c.resetMoveTimer(session)
}

// Leave vacates or forfeits username's seat (the state update is published
// by the session), then unsubscribes sub. A WAITING session left empty is
// removed from the registry.
func (c *Coordinator) Leave(gameID, username string, sub Subscriber) {
	session, err := c.registry.Get(gameID)
	if err != nil {
		sub.Deliver(ErrorEvent(username, fmt.Sprintf("game %s not found", gameID)))
		return
	}
	if err := session.Leave(username); err != nil {
		sub.Deliver(ErrorEvent(username, err.Error()))
		return
	}
	c.hub.Unsubscribe(gameID, sub)
	c.finishLeave(gameID, session)
	log.Printf("Player %s left game %s", username, gameID)
}

// Watch subscribes sub to a session without taking a seat and delivers the
// current state to the watcher only.
func (c *Coordinator) Watch(gameID, username string, sub Subscriber) {
	session, err := c.registry.Get(gameID)
	if err != nil {
		sub.Deliver(ErrorEvent(username, fmt.Sprintf("game %s not found", gameID)))
		return
	}
	c.hub.Subscribe(gameID, sub)
	session.DeliverState(sub)
}

func (c *Coordinator) Unwatch(gameID string, sub Subscriber) {
	c.hub.Unsubscribe(gameID, sub)
}

// Disconnect tears down everything sub was subscribed to after its
// connection dropped. A held seat in a game in progress takes the same
// forfeiture path as an explicit leave, so no session is ever left stalled
// waiting on a participant who silently disappeared.
func (c *Coordinator) Disconnect(username string, sub Subscriber) {
	for _, id := range c.hub.SessionsOf(sub) {
		session, err := c.registry.Get(id)
		if err == nil {
			if _, seated := session.SeatOf(username); seated {
				if err := session.Leave(username); err == nil {
					c.finishLeave(id, session)
				}
			}
		}
		c.hub.Unsubscribe(id, sub)
	}
	log.Printf("Player %s disconnected", username)
}

func (c *Coordinator) finishLeave(gameID string, session *Session) {
	if session.Status() == StatusWaiting && session.Empty() {
		c.registry.Remove(gameID)
		c.hub.Drop(gameID)
		c.clearMoveTimer(gameID)
		c.saveMu.Lock()
		delete(c.savers, gameID)
		c.saveMu.Unlock()
		return
	}
	c.persist(session)
	c.resetMoveTimer(session)
}

func (c *Coordinator) notifyFor(gameID string) func(Event) {
	return func(event Event) {
		c.hub.Publish(gameID, event)
	}
}

// persist saves the current snapshot without blocking the action that
// produced it. Saves of one session are serialized through its snapshotSaver
// and ordered by snapshot version: the stored record only ever advances.
func (c *Coordinator) persist(session *Session) {
	if c.store == nil {
		return
	}
	snap := session.Snapshot()
	saver := c.saverFor(snap.GameID)
	go func() {
		saver.mu.Lock()
		defer saver.mu.Unlock()
		if snap.Version <= saver.lastSaved {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.store.SaveSnapshot(ctx, snap); err != nil {
			log.Printf("Failed to save snapshot of game %s: %v", snap.GameID, err)
			return
		}
		saver.lastSaved = snap.Version
	}()
}

func (c *Coordinator) saverFor(gameID string) *snapshotSaver {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()
	saver, ok := c.savers[gameID]
	if !ok {
		saver = &snapshotSaver{}
		c.savers[gameID] = saver
	}
	return saver
}

// resetMoveTimer arms the optional turn timeout for whoever moves next; the
// timer forfeits the seat if it expires before the next accepted action.
// Disabled when no timeout is configured.
func (c *Coordinator) resetMoveTimer(session *Session) {
	if c.moveTimeout <= 0 {
		return
	}

	c.timerMu.Lock()
	defer c.timerMu.Unlock()

	if timer, ok := c.timers[session.ID]; ok {
		timer.Stop()
		delete(c.timers, session.ID)
	}

	holder, moves := session.Turn()
	if holder == "" {
		return
	}
	gameID := session.ID
	c.timers[gameID] = time.AfterFunc(c.moveTimeout, func() {
		c.expireTurn(gameID, holder, moves)
	})
}

func (c *Coordinator) clearMoveTimer(gameID string) {
	if c.moveTimeout <= 0 {
		return
	}
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	if timer, ok := c.timers[gameID]; ok {
		timer.Stop()
		delete(c.timers, gameID)
	}
}

// expireTurn fires when the armed timeout elapses. The forfeit only lands if
// the player who was on turn when the timer was set still hasn't moved.
func (c *Coordinator) expireTurn(gameID, username string, moves int) {
	session, err := c.registry.Get(gameID)
	if err != nil {
		return
	}
	if !session.ForfeitIfIdle(username, moves) {
		return
	}
	log.Printf("Player %s timed out in game %s", username, gameID)
	c.finishLeave(gameID, session)
}
