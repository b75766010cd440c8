package game_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackarena/stackarena-backend/game"
)

// memStore is an in-memory game.SnapshotStore.
type memStore struct {
	mu    sync.Mutex
	saves []*game.Snapshot
}

func (s *memStore) SaveSnapshot(_ context.Context, snap *game.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves = append(s.saves, snap)
	return nil
}

func (s *memStore) Last() *game.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saves) == 0 {
		return nil
	}
	return s.saves[len(s.saves)-1]
}

func (s *memStore) Saves() []*game.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*game.Snapshot(nil), s.saves...)
}

func newTestCoordinator(cfg game.Config) (*game.Coordinator, *memStore) {
	store := &memStore{}
	return game.NewCoordinator(store, cfg), store
}

func snapshotOf(t *testing.T, event game.Event) *game.Snapshot {
	t.Helper()
	require.Equal(t, "gameUpdate", event.Type)
	data, ok := event.Data.(map[string]any)
	require.True(t, ok)
	snap, ok := data["gameState"].(*game.Snapshot)
	require.True(t, ok)
	return snap
}

func errorPayload(t *testing.T, event game.Event) (player, message string) {
	t.Helper()
	require.Equal(t, "gameError", event.Type)
	data, ok := event.Data.(map[string]any)
	require.True(t, ok)
	return data["player"].(string), data["error"].(string)
}

func TestCoordinator_JoinCreatesSession(t *testing.T) {
	coordinator, _ := newTestCoordinator(game.Config{NimStartObjects: 7})
	alice := &fakeSubscriber{}

	coordinator.Join("g1", "alice", alice)

	events := alice.EventsOfType("gameUpdate")
	require.Len(t, events, 1)
	snap := snapshotOf(t, events[0])
	assert.Equal(t, game.StatusWaiting, snap.Status)
	assert.Equal(t, []string{"alice", ""}, snap.Seats)

	fromRegistry, err := coordinator.Get("g1")
	require.NoError(t, err)
	assert.Equal(t, game.StatusWaiting, fromRegistry.Status)
}

func TestCoordinator_FullNimGame(t *testing.T) {
	coordinator, store := newTestCoordinator(game.Config{NimStartObjects: 7})
	alice := &fakeSubscriber{}
	bob := &fakeSubscriber{}

	coordinator.Join("g1", "alice", alice)
	coordinator.Join("g1", "bob", bob)

	coordinator.Move("g1", "alice", nimMove(3), alice)
	coordinator.Move("g1", "bob", nimMove(3), bob)
	coordinator.Move("g1", "alice", nimMove(1), alice)

	// Both participants observed the same ordered sequence of states.
	for _, sub := range []*fakeSubscriber{alice, bob} {
		assert.Empty(t, sub.EventsOfType("gameError"))
	}
	bobUpdates := bob.EventsOfType("gameUpdate")
	require.Len(t, bobUpdates, 4) // own join + three moves

	final := snapshotOf(t, bobUpdates[len(bobUpdates)-1])
	assert.Equal(t, game.StatusOver, final.Status)
	assert.Equal(t, []string{"bob"}, final.Winners)
	assert.Equal(t, game.NimState{Remaining: 0}, final.State)
	require.Len(t, final.Moves, 3)
	assert.Equal(t, "alice", final.Moves[0].Player)
	assert.Equal(t, "bob", final.Moves[1].Player)
	assert.Equal(t, "alice", final.Moves[2].Player)

	// The finished state reaches the snapshot store.
	require.Eventually(t, func() bool {
		last := store.Last()
		return last != nil && last.Status == game.StatusOver
	}, time.Second, 10*time.Millisecond)
}

func TestCoordinator_PersistedSnapshotNeverRegresses(t *testing.T) {
	coordinator, store := newTestCoordinator(game.Config{NimStartObjects: 7})
	alice := &fakeSubscriber{}
	bob := &fakeSubscriber{}

	coordinator.Join("g1", "alice", alice)
	coordinator.Join("g1", "bob", bob)
	coordinator.Move("g1", "alice", nimMove(3), alice)
	coordinator.Move("g1", "bob", nimMove(3), bob)
	coordinator.Move("g1", "alice", nimMove(1), alice)

	// Two joins and three moves: revision 5 is the finished game and must
	// be the last write the store ever sees.
	require.Eventually(t, func() bool {
		last := store.Last()
		return last != nil && last.Version == 5
	}, time.Second, 10*time.Millisecond)

	last := store.Last()
	assert.Equal(t, game.StatusOver, last.Status)
	assert.Equal(t, []string{"bob"}, last.Winners)
	assert.Len(t, last.Moves, 3)

	assert.Never(t, func() bool {
		return store.Last().Version != 5
	}, 100*time.Millisecond, 10*time.Millisecond, "a stale save overwrote the finished game")

	saves := store.Saves()
	for i := 1; i < len(saves); i++ {
		assert.Greater(t, saves[i].Version, saves[i-1].Version,
			"saves landed out of order at position %d", i)
	}
}

func TestCoordinator_WatchDuringMovesStaysOrdered(t *testing.T) {
	coordinator, _ := newTestCoordinator(game.Config{NimStartObjects: 500})
	alice := &fakeSubscriber{}
	bob := &fakeSubscriber{}

	coordinator.Join("g1", "alice", alice)
	coordinator.Join("g1", "bob", bob)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			coordinator.Move("g1", "alice", nimMove(1), alice)
			coordinator.Move("g1", "bob", nimMove(1), bob)
		}
	}()

	// Watchers and rejoiners get their initial state while moves are in
	// flight; none of them may see it after a newer broadcast.
	watchers := make([]*fakeSubscriber, 0, 50)
	for i := 0; i < 50; i++ {
		watcher := &fakeSubscriber{}
		watchers = append(watchers, watcher)
		coordinator.Watch("g1", "carol", watcher)
		coordinator.Join("g1", "alice", alice)
	}
	<-done

	for _, sub := range append(watchers, alice, bob) {
		updates := sub.EventsOfType("gameUpdate")
		require.NotEmpty(t, updates)
		prev := uint64(0)
		for i, event := range updates {
			snap := snapshotOf(t, event)
			require.GreaterOrEqual(t, snap.Version, prev,
				"state rewound at update %d", i)
			prev = snap.Version
		}
	}
}

func TestCoordinator_RejectedMoveIsInvisible(t *testing.T) {
	coordinator, _ := newTestCoordinator(game.Config{NimStartObjects: 7})
	alice := &fakeSubscriber{}
	bob := &fakeSubscriber{}

	coordinator.Join("g1", "alice", alice)
	coordinator.Join("g1", "bob", bob)
	aliceBefore := alice.Len()

	// Bob moves out of turn: only bob hears about it.
	coordinator.Move("g1", "bob", nimMove(1), bob)

	errs := bob.EventsOfType("gameError")
	require.Len(t, errs, 1)
	player, message := errorPayload(t, errs[0])
	assert.Equal(t, "bob", player)
	assert.Contains(t, message, "not your turn")

	assert.Equal(t, aliceBefore, alice.Len(), "a rejected move must not touch other participants")
	assert.Empty(t, alice.EventsOfType("gameError"))

	snap, err := coordinator.Get("g1")
	require.NoError(t, err)
	assert.Empty(t, snap.Moves)
	assert.Equal(t, game.NimState{Remaining: 7}, snap.State)
}

func TestCoordinator_IllegalMoveOnlyActorHears(t *testing.T) {
	coordinator, _ := newTestCoordinator(game.Config{NimStartObjects: 7})
	alice := &fakeSubscriber{}
	bob := &fakeSubscriber{}

	coordinator.Join("g1", "alice", alice)
	coordinator.Join("g1", "bob", bob)
	bobBefore := bob.Len()

	coordinator.Move("g1", "alice", nimMove(4), alice)

	errs := alice.EventsOfType("gameError")
	require.Len(t, errs, 1)
	player, message := errorPayload(t, errs[0])
	assert.Equal(t, "alice", player)
	assert.Contains(t, message, "illegal move")

	assert.Equal(t, bobBefore, bob.Len())
}

func TestCoordinator_JoinIdempotent(t *testing.T) {
	coordinator, _ := newTestCoordinator(game.Config{NimStartObjects: 7})
	alice := &fakeSubscriber{}
	bob := &fakeSubscriber{}

	coordinator.Join("g1", "alice", alice)
	coordinator.Join("g1", "bob", bob)

	// Rejoin: alice alone receives the last known state, nobody else hears.
	bobBefore := bob.Len()
	coordinator.Join("g1", "alice", alice)
	assert.Equal(t, bobBefore, bob.Len())

	updates := alice.EventsOfType("gameUpdate")
	rejoinSnap := snapshotOf(t, updates[len(updates)-1])
	assert.Equal(t, []string{"alice", "bob"}, rejoinSnap.Seats)

	// The subscription was not duplicated: one move, one update.
	aliceBefore := alice.Len()
	coordinator.Move("g1", "alice", nimMove(1), alice)
	assert.Equal(t, aliceBefore+1, alice.Len())
}

func TestCoordinator_MoveOnUnknownGame(t *testing.T) {
	coordinator, _ := newTestCoordinator(game.Config{NimStartObjects: 7})
	alice := &fakeSubscriber{}

	coordinator.Move("nope", "alice", nimMove(1), alice)

	errs := alice.EventsOfType("gameError")
	require.Len(t, errs, 1)
	_, message := errorPayload(t, errs[0])
	assert.Contains(t, message, "not found")
}

func TestCoordinator_LeaveWaitingTearsDownEmptySession(t *testing.T) {
	coordinator, _ := newTestCoordinator(game.Config{NimStartObjects: 7})
	alice := &fakeSubscriber{}

	coordinator.Join("g1", "alice", alice)
	coordinator.Leave("g1", "alice", alice)

	_, err := coordinator.Get("g1")
	assert.ErrorIs(t, err, game.ErrNotFound)
}

func TestCoordinator_LeaveInProgressForfeits(t *testing.T) {
	coordinator, _ := newTestCoordinator(game.Config{NimStartObjects: 7})
	alice := &fakeSubscriber{}
	bob := &fakeSubscriber{}

	coordinator.Join("g1", "alice", alice)
	coordinator.Join("g1", "bob", bob)

	coordinator.Leave("g1", "alice", alice)

	updates := bob.EventsOfType("gameUpdate")
	final := snapshotOf(t, updates[len(updates)-1])
	assert.Equal(t, game.StatusOver, final.Status)
	assert.Equal(t, []string{"bob"}, final.Winners)

	// The leaver no longer hears later publishes.
	bobBefore := bob.Len()
	aliceBefore := alice.Len()
	coordinator.Hub().Publish("g1", game.Event{Type: "gameUpdate"})
	assert.Equal(t, bobBefore+1, bob.Len())
	assert.Equal(t, aliceBefore, alice.Len())
}

func TestCoordinator_DisconnectForfeitsHeldSeats(t *testing.T) {
	coordinator, _ := newTestCoordinator(game.Config{NimStartObjects: 7})
	alice := &fakeSubscriber{}
	bob := &fakeSubscriber{}

	coordinator.Join("g1", "alice", alice)
	coordinator.Join("g1", "bob", bob)
	bobBefore := len(bob.EventsOfType("gameUpdate"))

	coordinator.Disconnect("alice", alice)

	// Exactly one state update announces the forfeiture.
	updates := bob.EventsOfType("gameUpdate")
	require.Len(t, updates, bobBefore+1)
	final := snapshotOf(t, updates[len(updates)-1])
	assert.Equal(t, game.StatusOver, final.Status)
	assert.Equal(t, []string{"bob"}, final.Winners)

	assert.Empty(t, coordinator.Hub().SessionsOf(alice))
}

func TestCoordinator_WatchWithoutSeat(t *testing.T) {
	coordinator, _ := newTestCoordinator(game.Config{NimStartObjects: 7})
	alice := &fakeSubscriber{}
	bob := &fakeSubscriber{}
	watcher := &fakeSubscriber{}

	coordinator.Join("g1", "alice", alice)
	coordinator.Join("g1", "bob", bob)

	coordinator.Watch("g1", "carol", watcher)
	updates := watcher.EventsOfType("gameUpdate")
	require.Len(t, updates, 1, "watcher immediately receives the current state")
	assert.Equal(t, game.StatusInProgress, snapshotOf(t, updates[0]).Status)

	// Watcher sees moves but holds no seat.
	coordinator.Move("g1", "alice", nimMove(1), alice)
	assert.Len(t, watcher.EventsOfType("gameUpdate"), 2)

	snap, err := coordinator.Get("g1")
	require.NoError(t, err)
	assert.NotContains(t, snap.Seats, "carol")

	coordinator.Unwatch("g1", watcher)
	coordinator.Move("g1", "bob", nimMove(1), bob)
	assert.Len(t, watcher.EventsOfType("gameUpdate"), 2)
}

func TestCoordinator_MoveTimeoutForfeits(t *testing.T) {
	coordinator, _ := newTestCoordinator(game.Config{
		NimStartObjects: 7,
		MoveTimeout:     30 * time.Millisecond,
	})
	alice := &fakeSubscriber{}
	bob := &fakeSubscriber{}

	coordinator.Join("g1", "alice", alice)
	coordinator.Join("g1", "bob", bob)

	// Alice stalls on her turn until the timeout forfeits her seat.
	require.Eventually(t, func() bool {
		snap, err := coordinator.Get("g1")
		return err == nil && snap.Status == game.StatusOver
	}, time.Second, 10*time.Millisecond)

	snap, err := coordinator.Get("g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, snap.Winners)
}

func TestCoordinator_CreateUnknownGameType(t *testing.T) {
	coordinator, _ := newTestCoordinator(game.Config{NimStartObjects: 7})
	_, err := coordinator.Create("Chess")
	assert.Error(t, err)

	snap, err := coordinator.Create("Nim")
	require.NoError(t, err)
	assert.NotEmpty(t, snap.GameID)
	assert.Equal(t, game.StatusWaiting, snap.Status)
}
