package user

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
		collection: db.Collection("users"),
	}
}

// EnsureIndexes creates the unique username index registration relies on.
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("%w: creating users index: %v", common.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *MongoRepo) Create(ctx context.Context, user *model.User) (primitive.ObjectID, error) {
	res, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, common.ErrDuplicateUsername
		}
		return primitive.NilObjectID, fmt.Errorf("%w: inserting user: %v", common.ErrStorageUnavailable, err)
	}

	id := res.InsertedID.(primitive.ObjectID)
	user.ID = id
	return id, nil
}

func (r *MongoRepo) GetByName(ctx context.Context, name string) (*model.User, error) {
	filter := bson.M{
		"username": name,
	}

	var user model.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("%w: finding user by name: %v", common.ErrStorageUnavailable, err)
	}

	return &user, nil
}

func (r *MongoRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	filter := bson.M{
		"_id": id,
	}

	var user model.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("%w: finding user by id: %v", common.ErrStorageUnavailable, err)
	}

	return &user, nil
}

// ListExcept returns every user but the given one, in store-native order.
// Callers must not rely on that order for anything beyond display.
func (r *MongoRepo) ListExcept(ctx context.Context, id primitive.ObjectID) ([]model.User, error) {
	filter := bson.M{
		"_id": bson.M{"$ne": id},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: listing users: %v", common.ErrStorageUnavailable, err)
	}

	var users []model.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("%w: decoding users: %v", common.ErrStorageUnavailable, err)
	}
	return users, nil
}
