package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stackarena/stackarena-backend/models"
)

var ErrChatNotFound = errors.New("chat not found")

func chatCollection() *mongo.Collection {
	return MongoDBClient.Database(mongoDatabase).Collection("chats")
}

func CreateChat(ctx context.Context, participants []string, messages []models.ChatMessage) (*models.Chat, error) {
	now := time.Now()
	chat := &models.Chat{
		Participants: participants,
		Messages:     messages,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if chat.Messages == nil {
		chat.Messages = []models.ChatMessage{}
	}
	result, err := chatCollection().InsertOne(ctx, chat)
	if err != nil {
		return nil, err
	}
	chat.ID = result.InsertedID.(primitive.ObjectID)
	return chat, nil
}

func GetChat(ctx context.Context, chatID primitive.ObjectID) (*models.Chat, error) {
	var chat models.Chat
	err := chatCollection().FindOne(ctx, bson.M{"_id": chatID}).Decode(&chat)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return &chat, nil
}

// AddMessageToChat appends a message to the chat's log and returns the
// updated document. The log is append-only.
func AddMessageToChat(ctx context.Context, chatID primitive.ObjectID, message models.ChatMessage) (*models.Chat, error) {
	var chat models.Chat
	err := chatCollection().FindOneAndUpdate(ctx,
		bson.M{"_id": chatID},
		bson.M{
			"$push": bson.M{"messages": message},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&chat)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return &chat, nil
}

// AddParticipantToChat adds a participant if not already present.
func AddParticipantToChat(ctx context.Context, chatID primitive.ObjectID, username string) (*models.Chat, error) {
	var chat models.Chat
	err := chatCollection().FindOneAndUpdate(ctx,
		bson.M{"_id": chatID},
		bson.M{
			"$addToSet": bson.M{"participants": username},
			"$set":      bson.M{"updatedAt": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&chat)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return &chat, nil
}

// GetChatsByParticipant lists every chat username takes part in, most
// recently updated first.
func GetChatsByParticipant(ctx context.Context, username string) ([]models.Chat, error) {
	cursor, err := chatCollection().Find(ctx,
		bson.M{"participants": username},
		options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	chats := []models.Chat{}
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}
