package game

import "errors"

// All validation failures are terminal for the triggering request: nothing is
// retried internally and a rejected action leaves the session untouched.
var (
	// ErrNotFound means the game ID is unknown to the registry.
	ErrNotFound = errors.New("game not found")

	// ErrSessionFull means every seat is taken by someone else.
	ErrSessionFull = errors.New("game is full")

	// ErrAlreadyOver rejects a join attempt on a finished game.
	ErrAlreadyOver = errors.New("game is already over")

	// ErrNotJoined means the participant holds no seat in the game.
	ErrNotJoined = errors.New("player has not joined this game")

	// ErrGameOver rejects a move on a game that is not in progress.
	ErrGameOver = errors.New("game is over")

	// ErrNotYourTurn rejects a move made out of turn order.
	ErrNotYourTurn = errors.New("not your turn")

	// ErrIllegalMove rejects a move whose payload fails the rules.
	ErrIllegalMove = errors.New("illegal move")
)
