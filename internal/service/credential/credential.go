// Package credential handles user registration and login against the users
// collection. Passwords are stored as salted argon2id hashes; the raw
// password exists only for the duration of a call.
package credential

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"cryptchat/internal/common"
	"cryptchat/internal/cryptographic/password"
	"cryptchat/internal/model"
	userRepo "cryptchat/internal/repository/user"
)

type (
	Service struct {
		users userRepo.Repository
	}
)

func NewService(users userRepo.Repository) *Service {
	return &Service{users: users}
}

// Register creates a new user and returns its id. A taken username is
// common.ErrDuplicateUsername; the unique index backstops the pre-check in
// case two registrations race.
func (s *Service) Register(ctx context.Context, username, pass string) (primitive.ObjectID, error) {
	existing, err := s.users.GetByName(ctx, username)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if existing != nil {
		return primitive.NilObjectID, common.ErrDuplicateUsername
	}

	salt := password.NewSalt()
	user := &model.User{
		Username:     username,
		PasswordHash: password.Hash([]byte(pass), salt),
		Salt:         salt,
	}
	id, err := s.users.Create(ctx, user)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return id, nil
}

// Authenticate verifies username/password and returns the matching user.
// Unknown name and wrong password both come back as ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, pass string) (*model.User, error) {
	user, err := s.users.GetByName(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.ErrInvalidCredentials
	}
	if !password.Verify([]byte(pass), user.Salt, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}
	return user, nil
}

// GetUser returns the user with the given id, or nil when none exists.
func (s *Service) GetUser(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// ListOtherUsers returns every user except self, for the peer picker.
func (s *Service) ListOtherUsers(ctx context.Context, selfID primitive.ObjectID) ([]model.User, error) {
	users, err := s.users.ListExcept(ctx, selfID)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}
