package model

import "go.mongodb.org/mongo-driver/bson/primitive"

type (
	// Message is one encrypted chat message. The body is AEAD ciphertext;
	// plaintext never reaches the messages collection. Timestamp is wall
	// clock seconds since epoch. Documents are append-only.
	Message struct {
		ID         primitive.ObjectID `bson:"_id,omitempty"`
		SenderID   primitive.ObjectID `bson:"sender_id"`
		ReceiverID primitive.ObjectID `bson:"receiver_id"`
		Ciphertext []byte             `bson:"message"`
		Timestamp  float64            `bson:"timestamp"`
	}
)
