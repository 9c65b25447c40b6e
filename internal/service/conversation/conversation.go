// Package conversation is the message custody layer: it encrypts outgoing
// text before persistence, decrypts and orders history on read, and runs the
// background refresh loop behind a displayed chat.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"cryptchat/internal/common"
	"cryptchat/internal/cryptographic/encryption"
	"cryptchat/internal/model"
	messageRepo "cryptchat/internal/repository/message"
	userRepo "cryptchat/internal/repository/user"
)

type (
	// Entry is one decoded conversation line handed to the presentation layer.
	Entry struct {
		Sender string `json:"sender"`
		Text   string `json:"text"`
	}

	Service struct {
		messages messageRepo.Repository
		users    userRepo.Repository
		key      []byte
	}
)

// NewService wires the conversation store. key is the deployment key from the
// keystore; it is read-only shared state and safe across goroutines.
func NewService(messages messageRepo.Repository, users userRepo.Repository, key []byte) *Service {
	return &Service{
		messages: messages,
		users:    users,
		key:      key,
	}
}

// Send encrypts text and appends it to the conversation. Empty or
// whitespace-only text is rejected with common.ErrEmptyMessage before any
// storage is touched.
func (s *Service) Send(ctx context.Context, senderID, receiverID primitive.ObjectID, text string) error {
	if strings.TrimSpace(text) == "" {
		return common.ErrEmptyMessage
	}

	ciphertext, err := encryption.AEADEncrypt(s.key, []byte(text))
	if err != nil {
		return fmt.Errorf("encrypting message: %w", err)
	}

	return s.messages.Insert(ctx, &model.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Ciphertext: ciphertext,
		Timestamp:  now(),
	})
}

// Load returns the full conversation between a and b, both directions,
// timestamp ascending, bodies decrypted and sender ids resolved to usernames.
// The argument order does not matter. A single message that fails
// authentication fails the whole call with common.ErrConversationCorrupted:
// a tampered store must not be mistaken for a shorter conversation.
//
// The whole conversation is fetched and decrypted on every call; fine at
// chat-demo scale, a production store would need pagination.
func (s *Service) Load(ctx context.Context, a, b primitive.ObjectID) ([]Entry, error) {
	messages, err := s.messages.ListBetween(ctx, a, b)
	if err != nil {
		return nil, err
	}

	names := make(map[primitive.ObjectID]string, 2)
	entries := make([]Entry, 0, len(messages))
	for _, msg := range messages {
		plaintext, err := encryption.AEADDecrypt(s.key, msg.Ciphertext)
		if err != nil {
			return nil, fmt.Errorf("%w: message %s: %v", common.ErrConversationCorrupted, msg.ID.Hex(), err)
		}

		name, ok := names[msg.SenderID]
		if !ok {
			user, err := s.users.GetByID(ctx, msg.SenderID)
			if err != nil {
				return nil, err
			}
			// users are never deleted; guard anyway
			name = "unknown"
			if user != nil {
				name = user.Username
			}
			names[msg.SenderID] = name
		}

		entries = append(entries, Entry{Sender: name, Text: string(plaintext)})
	}
	return entries, nil
}

// now is the message timestamp clock: wall seconds since epoch, fractional.
func now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
