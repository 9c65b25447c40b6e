package message

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"cryptchat/internal/model"
)

// Repository is the messages collection. Append-only: no update or delete.
type Repository interface {
	Insert(ctx context.Context, msg *model.Message) error

	// ListBetween returns every message exchanged between a and b, in either
	// direction, ordered by timestamp ascending with insertion order breaking
	// ties.
	ListBetween(ctx context.Context, a, b primitive.ObjectID) ([]model.Message, error)
}
