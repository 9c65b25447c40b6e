// Package session issues and resolves bearer tokens for the HTTP surface.
// Tokens live in redis with a TTL, so a restarted server keeps sessions and
// idle ones expire on their own.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"cryptchat/internal/common"
)

type (
	// KV is the small piece of the redis wrapper sessions need.
	KV interface {
		Set(ctx context.Context, key string, value any, ttl time.Duration) error
		Get(ctx context.Context, key string) (string, error)
		Del(ctx context.Context, key string) error
	}

	Service struct {
		kv  KV
		ttl time.Duration
	}
)

func NewService(kv KV, ttl time.Duration) *Service {
	return &Service{kv: kv, ttl: ttl}
}

// Create mints a random token bound to userID.
func (s *Service) Create(ctx context.Context, userID primitive.ObjectID) (string, error) {
	token := common.MakeRandHexString(32)
	if err := s.kv.Set(ctx, tokenKey(token), userID.Hex(), s.ttl); err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}
	return token, nil
}

// Resolve returns the user id a token belongs to, or ErrInvalidToken for an
// unknown or expired token.
func (s *Service) Resolve(ctx context.Context, token string) (primitive.ObjectID, error) {
	hexID, err := s.kv.Get(ctx, tokenKey(token))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return primitive.NilObjectID, common.ErrInvalidToken
		}
		return primitive.NilObjectID, err
	}

	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return primitive.NilObjectID, common.ErrInvalidToken
	}
	return id, nil
}

// Revoke drops a session; unknown tokens are a no-op.
func (s *Service) Revoke(ctx context.Context, token string) error {
	return s.kv.Del(ctx, tokenKey(token))
}

func tokenKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}
