// Package common defines shared sentinel errors and small helpers used across
// the client and server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound           = errors.New("not found")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Key lifecycle errors.
	ErrKeyNotFound = errors.New("key not found")

	// Validation outcomes returned to the caller for display.
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmptyMessage       = errors.New("empty message")

	// Ciphertext integrity errors. ErrInvalidCiphertext means authentication
	// failed on a single message; ErrConversationCorrupted is the aggregate
	// signal when loading a conversation hits one.
	ErrInvalidCiphertext     = errors.New("invalid ciphertext")
	ErrConversationCorrupted = errors.New("conversation corrupted")

	// Session errors (HTTP surface).
	ErrInvalidToken = errors.New("invalid token")
)
