package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChatMessage struct {
	MsgFrom     string    `bson:"msgFrom" json:"msgFrom"`
	Msg         string    `bson:"msg" json:"msg"`
	MsgDateTime time.Time `bson:"msgDateTime" json:"msgDateTime"`
}

// Chat is a direct-message conversation document. Messages are an
// append-only log; corrections happen only by appending further messages.
type Chat struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Participants []string           `bson:"participants" json:"participants"`
	Messages     []ChatMessage      `bson:"messages" json:"messages"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
