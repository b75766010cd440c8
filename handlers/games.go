package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/stackarena/stackarena-backend/common"
	"github.com/stackarena/stackarena-backend/game"
	"github.com/stackarena/stackarena-backend/models"
	"github.com/stackarena/stackarena-backend/repository"
	"github.com/stackarena/stackarena-backend/responses"
	"github.com/stackarena/stackarena-backend/utils"
)

// CreateGame allocates a fresh game of the requested type and returns its
// snapshot. Seats fill later, when players join over the socket.
func CreateGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GameType string `json:"gameType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GameType == "" {
		utils.HandleError(w, responses.BadRequestError{Msg: "gameType is required."})
		return
	}

	snap, err := coordinator.Create(req.GameType)
	if err != nil {
		utils.HandleError(w, responses.BadRequestError{Msg: err.Error()})
		return
	}

	utils.HandleSuccess(w, models.SuccessResponse(snap))
}

// ListGames returns live games, filterable by ?status= and ?gameType=.
func ListGames(w http.ResponseWriter, r *http.Request) {
	status := game.Status(r.URL.Query().Get("status"))
	gameType := r.URL.Query().Get("gameType")
	utils.HandleSuccess(w, models.SuccessResponse(coordinator.List(status, gameType)))
}

// GetGame returns a game's snapshot, reading the live session when it exists
// and falling back to the persisted snapshot for finished games.
func GetGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["gameID"]
	if gameID == "" {
		utils.HandleError(w, responses.BadRequestError{Msg: "gameID is required."})
		return
	}

	snap, err := coordinator.Get(gameID)
	if err == nil {
		utils.HandleSuccess(w, models.SuccessResponse(snap))
		return
	}

	snap, err = gameStore.LoadSnapshot(r.Context(), gameID)
	if err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			utils.HandleError(w, responses.NotFoundError{Msg: "Game not found."})
			return
		}
		log.Printf("Error fetching game %s: %v", gameID, err)
		utils.HandleError(w, responses.InternalServerError{Msg: "Error fetching game."})
		return
	}
	utils.HandleSuccess(w, models.SuccessResponse(snap))
}

// FetchUserGames lists the games the authenticated user took part in.
func FetchUserGames(w http.ResponseWriter, r *http.Request) {
	authInfo, ok := r.Context().Value(common.AuthInfoKey).(*models.CustomClaims)
	if !ok {
		utils.HandleError(w, responses.InternalServerError{Msg: "Error processing request."})
		return
	}

	games, err := gameStore.ListUserGames(authInfo.Username)
	if err != nil {
		log.Printf("Error fetching games: %v", err)
		utils.HandleError(w, responses.InternalServerError{Msg: "Failed to fetch user games."})
		return
	}

	if games == nil {
		games = []models.GameRecord{}
	}
	utils.HandleSuccess(w, models.SuccessResponse(games))
}
