package model

import "go.mongodb.org/mongo-driver/bson/primitive"

type (
	// User is one registered account. Documents are created at registration
	// and never mutated or deleted afterwards.
	User struct {
		ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
		Username     string             `bson:"username" json:"username"`
		PasswordHash []byte             `bson:"password_hash" json:"-"`
		Salt         []byte             `bson:"salt" json:"-"`
	}
)
