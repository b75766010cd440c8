package handlers

import (
	"github.com/gorilla/mux"

	"github.com/stackarena/stackarena-backend/game"
	"github.com/stackarena/stackarena-backend/middleware"
	"github.com/stackarena/stackarena-backend/repository"
)

var (
	coordinator *game.Coordinator
	gameStore   *repository.GameStore
)

func NewRouter(coord *game.Coordinator, store *repository.GameStore) *mux.Router {
	coordinator = coord
	gameStore = store

	r := mux.NewRouter()

	// Public routes
	r.HandleFunc("/api/register", Register).Methods("POST")
	r.HandleFunc("/api/login", Login).Methods("POST")
	r.HandleFunc("/api/refresh/token", RefreshToken).Methods("POST")
	r.HandleFunc("/ws/{token}", WsHandler)

	// Secured routes
	secured := r.PathPrefix("/api").Subrouter()
	secured.Use(middleware.JWTValidationMiddleware)
	secured.HandleFunc("/logout", Logout).Methods("POST")

	secured.HandleFunc("/games/create", CreateGame).Methods("POST")
	secured.HandleFunc("/games/mine", FetchUserGames).Methods("GET")
	secured.HandleFunc("/games", ListGames).Methods("GET")
	secured.HandleFunc("/games/{gameID}", GetGame).Methods("GET")

	secured.HandleFunc("/chat/createChat", CreateChat).Methods("POST")
	secured.HandleFunc("/chat/getChatsByUser/{username}", GetChatsByUser).Methods("GET")
	secured.HandleFunc("/chat/{chatId}/addMessage", AddMessage).Methods("POST")
	secured.HandleFunc("/chat/{chatId}/addParticipant", AddParticipant).Methods("POST")
	secured.HandleFunc("/chat/{chatId}", GetChat).Methods("GET")

	return r
}
