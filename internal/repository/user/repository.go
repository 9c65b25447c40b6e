package user

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"cryptchat/internal/model"
)

// Repository is the users collection. Lookups return (nil, nil) when no
// document matches; errors are reserved for storage faults.
type Repository interface {
	Create(ctx context.Context, user *model.User) (primitive.ObjectID, error)
	GetByName(ctx context.Context, name string) (*model.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	ListExcept(ctx context.Context, id primitive.ObjectID) ([]model.User, error)
}
