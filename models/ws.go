package models

import "encoding/json"

// SocketMessage is an inbound client action on the websocket. Which fields
// are set depends on the action:
//
//	joinGame / leaveGame / watchGame / unwatchGame: GameID
//	makeMove: GameID and Move (rule-specific payload, e.g. {"numObjects": 2})
//	joinChat / leaveChat: ChatID
type SocketMessage struct {
	Action string          `json:"action"`
	GameID string          `json:"gameID,omitempty"`
	ChatID string          `json:"chatID,omitempty"`
	Move   json.RawMessage `json:"move,omitempty"`
}
