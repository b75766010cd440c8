package game_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackarena/stackarena-backend/game"
)

func TestRegistry_CreateOrGet(t *testing.T) {
	registry := game.NewRegistry()

	created := registry.CreateOrGet("g1", game.NewNimRules(7), nil)
	require.NotNil(t, created)
	assert.Equal(t, game.StatusWaiting, created.Status())

	// Same ID returns the same session, fresh rules ignored.
	again := registry.CreateOrGet("g1", game.NewNimRules(99), nil)
	assert.Same(t, created, again)
}

func TestRegistry_CreateOrGetConcurrent(t *testing.T) {
	registry := game.NewRegistry()

	const goroutines = 100
	sessions := make([]*game.Session, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i] = registry.CreateOrGet("g1", game.NewNimRules(7), nil)
		}(i)
	}
	wg.Wait()

	// At most one Session is ever materialized per ID.
	for i := 1; i < goroutines; i++ {
		assert.Same(t, sessions[0], sessions[i])
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	registry := game.NewRegistry()
	_, err := registry.Get("nope")
	assert.ErrorIs(t, err, game.ErrNotFound)
}

func TestRegistry_Remove(t *testing.T) {
	registry := game.NewRegistry()
	registry.CreateOrGet("g1", game.NewNimRules(7), nil)

	registry.Remove("g1")
	_, err := registry.Get("g1")
	assert.ErrorIs(t, err, game.ErrNotFound)

	// Removing twice is harmless.
	registry.Remove("g1")
}

func TestRegistry_List(t *testing.T) {
	registry := game.NewRegistry()
	waiting := registry.CreateOrGet("g1", game.NewNimRules(7), nil)
	inProgress := registry.CreateOrGet("g2", game.NewNimRules(7), nil)

	_, _, err := inProgress.Join("alice")
	require.NoError(t, err)
	_, _, err = inProgress.Join("bob")
	require.NoError(t, err)
	_ = waiting

	all := registry.List("", "")
	assert.Len(t, all, 2)

	live := registry.List(game.StatusInProgress, "")
	require.Len(t, live, 1)
	assert.Equal(t, "g2", live[0].GameID)

	nim := registry.List("", "Nim")
	assert.Len(t, nim, 2)

	none := registry.List("", "Chess")
	assert.Empty(t, none)
}
