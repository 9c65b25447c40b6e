package message

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cryptchat/internal/common"
	"cryptchat/internal/model"
)

type (
	MongoRepo struct {
		collection *mongo.Collection
	}
)

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{
		collection: db.Collection("chats"),
	}
}

// EnsureIndexes creates the pair indexes that serve conversation loads.
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "receiver_id", Value: 1}, {Key: "timestamp", Value: 1}}},
		{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "sender_id", Value: 1}, {Key: "timestamp", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("%w: creating message indexes: %v", common.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *MongoRepo) Insert(ctx context.Context, msg *model.Message) error {
	res, err := r.collection.InsertOne(ctx, msg)
	if err != nil {
		return fmt.Errorf("%w: inserting message: %v", common.ErrStorageUnavailable, err)
	}

	msg.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *MongoRepo) ListBetween(ctx context.Context, a, b primitive.ObjectID) ([]model.Message, error) {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"sender_id": a, "receiver_id": b},
			bson.M{"sender_id": b, "receiver_id": a},
		},
	}

	// _id as secondary sort key keeps equal timestamps in insertion order
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: finding messages: %v", common.ErrStorageUnavailable, err)
	}

	var messages []model.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("%w: decoding messages: %v", common.ErrStorageUnavailable, err)
	}
	return messages, nil
}
