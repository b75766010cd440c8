package game_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackarena/stackarena-backend/game"
)

func nimMove(n int) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"numObjects":%d}`, n))
}

func TestNimRules_Legal(t *testing.T) {
	rules := game.NewNimRules(21)

	tests := []struct {
		name      string
		remaining int
		take      int
		wantErr   bool
	}{
		{name: "take one", remaining: 21, take: 1, wantErr: false},
		{name: "take two", remaining: 21, take: 2, wantErr: false},
		{name: "take three", remaining: 21, take: 3, wantErr: false},
		{name: "take zero", remaining: 21, take: 0, wantErr: true},
		{name: "take negative", remaining: 21, take: -1, wantErr: true},
		{name: "take four", remaining: 21, take: 4, wantErr: true},
		{name: "take exactly what remains", remaining: 2, take: 2, wantErr: false},
		{name: "take more than remains", remaining: 3, take: 4, wantErr: true},
		{name: "overdraw small pile", remaining: 1, take: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rules.Legal(game.NimState{Remaining: tt.remaining}, nimMove(tt.take))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNimRules_LegalRejectsGarbagePayload(t *testing.T) {
	rules := game.NewNimRules(21)
	err := rules.Legal(game.NimState{Remaining: 21}, json.RawMessage(`"three"`))
	require.Error(t, err)
}

func TestNimRules_Apply(t *testing.T) {
	rules := game.NewNimRules(21)
	state := rules.Apply(game.NimState{Remaining: 7}, nimMove(3))
	assert.Equal(t, game.NimState{Remaining: 4}, state)
}

func TestNimRules_MisereWinner(t *testing.T) {
	rules := game.NewNimRules(21)

	// Pile not empty: no winner yet.
	winners, over := rules.Winners(game.NimState{Remaining: 1}, game.Seat(0))
	assert.False(t, over)
	assert.Empty(t, winners)

	// Taking the last object loses: the other seat wins.
	winners, over = rules.Winners(game.NimState{Remaining: 0}, game.Seat(0))
	require.True(t, over)
	assert.Equal(t, []game.Seat{1}, winners)

	winners, over = rules.Winners(game.NimState{Remaining: 0}, game.Seat(1))
	require.True(t, over)
	assert.Equal(t, []game.Seat{0}, winners)
}

func TestNimRules_DefaultStartObjects(t *testing.T) {
	rules := game.NewNimRules(0)
	assert.Equal(t, game.NimState{Remaining: game.DefaultNimStartObjects}, rules.InitialState())
}
