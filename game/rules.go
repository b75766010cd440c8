package game

import "encoding/json"

// Seat is a fixed role slot within a session, numbered from zero. A seat is
// bound to at most one participant.
type Seat int

// Status of a session. Transitions run WAITING -> IN_PROGRESS -> OVER only.
type Status string

const (
	StatusWaiting    Status = "WAITING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusOver       Status = "OVER"
)

// Rules is the pluggable policy a session runs under. Implementations must
// be stateless: all game state lives in the opaque value returned by
// InitialState and threaded back through Legal, Apply and Winners. State
// values must be JSON- and BSON-marshalable for snapshots.
type Rules interface {
	// GameType names the rule set, e.g. "Nim".
	GameType() string

	// Seats is the fixed number of role slots, e.g. 2.
	Seats() int

	// InitialState is the derived state of a fresh game.
	InitialState() any

	// Legal reports whether payload is a playable move given state. A non-nil
	// return carries the human-readable reason and is surfaced to the acting
	// participant only.
	Legal(state any, payload json.RawMessage) error

	// Apply folds an accepted move into the derived state. It is only called
	// with payloads that passed Legal.
	Apply(state any, payload json.RawMessage) any

	// Winners evaluates the terminal condition after mover's move has been
	// applied. It returns the winning seats and true once the game is over.
	Winners(state any, mover Seat) ([]Seat, bool)
}
