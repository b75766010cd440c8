package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/stackarena/stackarena-backend/common"
	"github.com/stackarena/stackarena-backend/game"
	"github.com/stackarena/stackarena-backend/models"
	"github.com/stackarena/stackarena-backend/repository"
	"github.com/stackarena/stackarena-backend/responses"
	"github.com/stackarena/stackarena-backend/utils"
)

// CreateChat starts a new conversation with the given participants and
// optional initial messages.
func CreateChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Participants []string             `json:"participants"`
		Messages     []models.ChatMessage `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Participants) == 0 {
		utils.HandleError(w, responses.BadRequestError{Msg: "Invalid request."})
		return
	}

	chat, err := repository.CreateChat(r.Context(), req.Participants, req.Messages)
	if err != nil {
		log.Printf("Error creating chat: %v", err)
		utils.HandleError(w, responses.InternalServerError{Msg: "Failed to create chat."})
		return
	}

	coordinator.Hub().Publish(chat.ID.Hex(), game.ChatUpdateEvent(chat, "created"))
	utils.HandleSuccess(w, models.SuccessResponse(chat))
}

// AddMessage appends a message to a chat's log and pushes the updated chat
// to every connection subscribed to it.
func AddMessage(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		Msg     string `json:"msg"`
		MsgFrom string `json:"msgFrom"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Msg == "" || req.MsgFrom == "" {
		utils.HandleError(w, responses.BadRequestError{Msg: "Invalid request."})
		return
	}

	message := models.ChatMessage{
		MsgFrom:     req.MsgFrom,
		Msg:         req.Msg,
		MsgDateTime: time.Now(),
	}

	chat, err := repository.AddMessageToChat(r.Context(), chatID, message)
	if err != nil {
		handleChatError(w, err, "Error when adding message to chat.")
		return
	}

	coordinator.Hub().Publish(chat.ID.Hex(), game.ChatUpdateEvent(chat, "newMessage"))
	utils.HandleSuccess(w, models.SuccessResponse(chat))
}

// GetChat retrieves a chat by ID. Only participants may read it.
func GetChat(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDFromRequest(w, r)
	if !ok {
		return
	}

	authInfo, ok := r.Context().Value(common.AuthInfoKey).(*models.CustomClaims)
	if !ok {
		utils.HandleError(w, responses.InternalServerError{Msg: "Error processing request."})
		return
	}

	chat, err := repository.GetChat(r.Context(), chatID)
	if err != nil {
		handleChatError(w, err, "Error when retrieving the chat.")
		return
	}

	if !slices.Contains(chat.Participants, authInfo.Username) {
		utils.HandleError(w, responses.ForbiddenError{Msg: "User is not part of the chat."})
		return
	}
	utils.HandleSuccess(w, models.SuccessResponse(chat))
}

// GetChatsByUser lists the chats a username takes part in.
func GetChatsByUser(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	if username == "" {
		utils.HandleError(w, responses.BadRequestError{Msg: "username is required."})
		return
	}

	chats, err := repository.GetChatsByParticipant(r.Context(), username)
	if err != nil {
		log.Printf("Error fetching chats for %s: %v", username, err)
		utils.HandleError(w, responses.InternalServerError{Msg: "Error retrieving chats."})
		return
	}
	utils.HandleSuccess(w, models.SuccessResponse(chats))
}

// AddParticipant adds a user to an existing chat.
func AddParticipant(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		Participant string `json:"participant"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Participant == "" {
		utils.HandleError(w, responses.BadRequestError{Msg: "Invalid request."})
		return
	}

	chat, err := repository.AddParticipantToChat(r.Context(), chatID, req.Participant)
	if err != nil {
		handleChatError(w, err, "Error when adding participant to chat.")
		return
	}

	coordinator.Hub().Publish(chat.ID.Hex(), game.ChatUpdateEvent(chat, "newParticipant"))
	utils.HandleSuccess(w, models.SuccessResponse(chat))
}

func chatIDFromRequest(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	chatIDStr := mux.Vars(r)["chatId"]
	if chatIDStr == "" {
		utils.HandleError(w, responses.BadRequestError{Msg: "chatId is required."})
		return primitive.NilObjectID, false
	}
	chatID, err := primitive.ObjectIDFromHex(chatIDStr)
	if err != nil {
		utils.HandleError(w, responses.BadRequestError{Msg: "Invalid chatId format."})
		return primitive.NilObjectID, false
	}
	return chatID, true
}

func handleChatError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, repository.ErrChatNotFound) {
		utils.HandleError(w, responses.NotFoundError{Msg: "Chat not found."})
		return
	}
	log.Println(err)
	utils.HandleError(w, responses.InternalServerError{Msg: fallback})
}
