package game

import (
	"encoding/json"
	"fmt"
	"time"
)

// SubmitMove validates payload against turn order and the session's rules,
// then appends it to the move log and recomputes the derived state. The
// whole sequence runs under the session mutex: two racing submissions can
// never both read the same log length and both be accepted.
//
// Validation precedes mutation, so a rejected move leaves the session
// exactly as it was and nothing is broadcast.
func (s *Session) SubmitMove(username string, payload json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusInProgress {
		return ErrGameOver
	}

	seat, ok := s.seatOfLocked(username)
	if !ok {
		return ErrNotJoined
	}
	if seat != Seat(len(s.moves)%len(s.seats)) {
		return ErrNotYourTurn
	}
	if err := s.rules.Legal(s.state, payload); err != nil {
		return fmt.Errorf("%w: %s", ErrIllegalMove, err)
	}

	s.moves = append(s.moves, Move{
		Player:    username,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	})
	s.state = s.rules.Apply(s.state, payload)

	if winners, over := s.rules.Winners(s.state, seat); over {
		s.status = StatusOver
		s.winners = winners
	}

	s.publishStateLocked()
	return nil
}
