package user

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"cryptchat/internal/common"
	"cryptchat/internal/model"
)

type (
	// MemoryRepo is an in-process Repository used by tests and local demos.
	MemoryRepo struct {
		mu    sync.Mutex
		users []model.User
	}
)

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (r *MemoryRepo) Create(_ context.Context, user *model.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username {
			return primitive.NilObjectID, common.ErrDuplicateUsername
		}
	}

	user.ID = primitive.NewObjectID()
	r.users = append(r.users, *user)
	return user.ID, nil
}

func (r *MemoryRepo) GetByName(_ context.Context, name string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == name {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id primitive.ObjectID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.ID == id {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepo) ListExcept(_ context.Context, id primitive.ObjectID) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.User
	for _, u := range r.users {
		if u.ID != id {
			out = append(out, u)
		}
	}
	return out, nil
}
