package game

import (
	"encoding/json"
	"sync"
	"time"
)

// Move is one accepted entry of a session's append-only log. Once accepted a
// move is never retracted or mutated.
type Move struct {
	Player    string          `bson:"player" json:"player"`
	Payload   json.RawMessage `bson:"payload" json:"payload"`
	Timestamp int64           `bson:"timestamp" json:"timestamp"`
}

// Snapshot is the externally visible view of a session, broadcast to
// subscribers and persisted to the snapshot store. Version increases by one
// with every accepted mutation, so two snapshots of the same game are
// comparable by recency.
type Snapshot struct {
	GameID    string    `bson:"gameID" json:"gameID"`
	GameType  string    `bson:"gameType" json:"gameType"`
	Status    Status    `bson:"status" json:"status"`
	Seats     []string  `bson:"seats" json:"seats"`
	Moves     []Move    `bson:"moves" json:"moves"`
	State     any       `bson:"state" json:"state"`
	Winners   []string  `bson:"winners" json:"winners"`
	Version   uint64    `bson:"version" json:"version"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Session is one live game instance. All mutations run under a single mutex
// so the read-validate-apply sequence and the resulting broadcast are
// serialized per session; different sessions never contend.
//
// Whose turn it is is always derived as len(moves) mod seat count, never
// stored, so the log and the turn can't drift apart.
type Session struct {
	ID        string
	rules     Rules
	createdAt time.Time

	mu      sync.Mutex
	status  Status
	seats   []string // seat index -> username, "" while open
	moves   []Move
	state   any
	winners []Seat
	version uint64 // bumped on every accepted mutation

	// notify publishes a state update; called with mu held so every
	// subscriber observes updates in move-log order.
	notify func(Event)
}

func newSession(id string, rules Rules, notify func(Event)) *Session {
	if notify == nil {
		notify = func(Event) {}
	}
	return &Session{
		ID:        id,
		rules:     rules,
		createdAt: time.Now(),
		status:    StatusWaiting,
		seats:     make([]string, rules.Seats()),
		state:     rules.InitialState(),
		notify:    notify,
	}
}

// Join assigns username to the first open seat and reports the assignment.
// Joining a game you are already seated in is an idempotent success with
// rejoined=true so that reconnecting clients are safe. Once every seat is
// taken the game moves to IN_PROGRESS.
func (s *Session) Join(username string) (Seat, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seat, ok := s.seatOfLocked(username); ok {
		return seat, true, nil
	}
	if s.status == StatusOver {
		return -1, false, ErrAlreadyOver
	}

	seat := Seat(-1)
	for i, occupant := range s.seats {
		if occupant == "" {
			seat = Seat(i)
			break
		}
	}
	if seat < 0 {
		return -1, false, ErrSessionFull
	}

	s.seats[seat] = username
	if s.status == StatusWaiting && s.openSeatsLocked() == 0 {
		s.status = StatusInProgress
	}
	s.publishStateLocked()
	return seat, false, nil
}

// Leave removes username's claim on the session. Leaving a game in progress
// forfeits it: the session ends and every remaining seat holder is recorded
// as a winner. Leaving while still WAITING just vacates the seat. Leaving a
// finished game is a no-op success so teardown paths stay simple.
func (s *Session) Leave(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seat, ok := s.seatOfLocked(username)
	if !ok {
		return ErrNotJoined
	}

	switch s.status {
	case StatusInProgress:
		s.forfeitLocked(seat)
	case StatusWaiting:
		s.seats[seat] = ""
		s.publishStateLocked()
	case StatusOver:
		// Finished games stay addressable for late reads; nothing changes.
	}
	return nil
}

// SeatOf reports which seat username holds, if any.
func (s *Session) SeatOf(username string) (Seat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seatOfLocked(username)
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// TurnHolder is the username whose turn it currently is, or "" when the game
// is not in progress.
func (s *Session) TurnHolder() string {
	holder, _ := s.Turn()
	return holder
}

// Turn reports whose turn it currently is together with the move-log length
// it was observed at; holder is "" when the game is not in progress.
func (s *Session) Turn() (holder string, moves int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusInProgress {
		return "", len(s.moves)
	}
	return s.seats[len(s.moves)%len(s.seats)], len(s.moves)
}

// ForfeitIfIdle forfeits username's seat only if the game is still in
// progress, the move log has not advanced past moves, and it is still
// username's turn. A move accepted after the caller observed (holder, moves)
// makes this a no-op, so a player who acted in time is never forfeited.
func (s *Session) ForfeitIfIdle(username string, moves int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusInProgress || len(s.moves) != moves {
		return false
	}
	seat, ok := s.seatOfLocked(username)
	if !ok || s.seats[len(s.moves)%len(s.seats)] != username {
		return false
	}
	s.forfeitLocked(seat)
	return true
}

// Empty reports whether no seat is occupied.
func (s *Session) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openSeatsLocked() == len(s.seats)
}

func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// DeliverState sends the current state to sub alone. It runs under the
// session mutex, the same lock every broadcast is published under, so sub
// never receives this snapshot after a newer update it already observed.
func (s *Session) DeliverState(sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub.Deliver(StateUpdateEvent(s.snapshotLocked()))
}

func (s *Session) seatOfLocked(username string) (Seat, bool) {
	for i, occupant := range s.seats {
		if occupant != "" && occupant == username {
			return Seat(i), true
		}
	}
	return -1, false
}

func (s *Session) openSeatsLocked() int {
	open := 0
	for _, occupant := range s.seats {
		if occupant == "" {
			open++
		}
	}
	return open
}

func (s *Session) forfeitLocked(seat Seat) {
	s.status = StatusOver
	for i, occupant := range s.seats {
		if Seat(i) != seat && occupant != "" {
			s.winners = append(s.winners, Seat(i))
		}
	}
	s.publishStateLocked()
}

func (s *Session) snapshotLocked() *Snapshot {
	winners := make([]string, 0, len(s.winners))
	for _, seat := range s.winners {
		winners = append(winners, s.seats[seat])
	}
	return &Snapshot{
		GameID:    s.ID,
		GameType:  s.rules.GameType(),
		Status:    s.status,
		Seats:     append([]string(nil), s.seats...),
		Moves:     append([]Move(nil), s.moves...),
		State:     s.state,
		Winners:   winners,
		Version:   s.version,
		CreatedAt: s.createdAt,
	}
}

func (s *Session) publishStateLocked() {
	s.version++
	s.notify(StateUpdateEvent(s.snapshotLocked()))
}
