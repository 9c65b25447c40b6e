package message

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"cryptchat/internal/model"
)

type (
	// MemoryRepo is an in-process Repository used by tests and local demos.
	MemoryRepo struct {
		mu       sync.Mutex
		messages []model.Message
	}
)

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (r *MemoryRepo) Insert(_ context.Context, msg *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg.ID = primitive.NewObjectID()
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *MemoryRepo) ListBetween(_ context.Context, a, b primitive.ObjectID) ([]model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.Message
	for _, m := range r.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}

	// stable: equal timestamps stay in insertion order
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out, nil
}
