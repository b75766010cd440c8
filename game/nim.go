package game

import (
	"encoding/json"
	"fmt"
)

const (
	// DefaultNimStartObjects is the pile size used when no override is
	// configured.
	DefaultNimStartObjects = 21

	nimMinTake = 1
	nimMaxTake = 3
)

// NimState is the derived state of a Nim game: the number of objects left in
// the pile.
type NimState struct {
	Remaining int `bson:"remainingObjects" json:"remainingObjects"`
}

// NimMove is the payload of a single Nim move.
type NimMove struct {
	NumObjects int `json:"numObjects"`
}

// NimRules implements the misère variant of Nim: players alternate removing
// 1-3 objects from the pile, and whoever takes the last object loses.
type NimRules struct {
	startObjects int
}

func NewNimRules(startObjects int) *NimRules {
	if startObjects <= 0 {
		startObjects = DefaultNimStartObjects
	}
	return &NimRules{startObjects: startObjects}
}

func (r *NimRules) GameType() string { return "Nim" }

func (r *NimRules) Seats() int { return 2 }

func (r *NimRules) InitialState() any {
	return NimState{Remaining: r.startObjects}
}

func (r *NimRules) Legal(state any, payload json.RawMessage) error {
	s := state.(NimState)
	move, err := decodeNimMove(payload)
	if err != nil {
		return err
	}
	if move.NumObjects < nimMinTake || move.NumObjects > nimMaxTake {
		return fmt.Errorf("must remove between %d and %d objects", nimMinTake, nimMaxTake)
	}
	if move.NumObjects > s.Remaining {
		return fmt.Errorf("cannot remove %d objects, only %d remain", move.NumObjects, s.Remaining)
	}
	return nil
}

func (r *NimRules) Apply(state any, payload json.RawMessage) any {
	s := state.(NimState)
	move, err := decodeNimMove(payload)
	if err != nil {
		return s
	}
	s.Remaining -= move.NumObjects
	return s
}

// Winners: once the pile is empty the mover has taken the last object and
// loses, so the opposite seat wins.
func (r *NimRules) Winners(state any, mover Seat) ([]Seat, bool) {
	if state.(NimState).Remaining > 0 {
		return nil, false
	}
	return []Seat{1 - mover}, true
}

func decodeNimMove(payload json.RawMessage) (NimMove, error) {
	var move NimMove
	if err := json.Unmarshal(payload, &move); err != nil {
		return move, fmt.Errorf("invalid move payload: %w", err)
	}
	return move, nil
}
