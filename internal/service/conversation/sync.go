package conversation

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"cryptchat/internal/utils/log"
)

type (
	// Pair identifies a conversation by its two participants; order is
	// irrelevant.
	Pair struct {
		A primitive.ObjectID
		B primitive.ObjectID
	}

	// UpdateFunc receives each freshly loaded conversation snapshot.
	UpdateFunc func([]Entry)

	// Syncer is one running refresh loop. Obtain it from StartSync, end it
	// with Stop. A stopped Syncer cannot be restarted; call StartSync again.
	Syncer struct {
		mu      sync.Mutex
		stopped bool
		cancel  context.CancelFunc
	}
)

// StartSync spawns a loop that sleeps period, reloads the conversation and
// hands the snapshot to onUpdate, until Stop is called. Load failures are
// logged and retried on the next tick; the loop itself never dies on them.
// That best-effort retry is deliberate: a flaky store should degrade the
// refresh, not kill it.
func (s *Service) StartSync(pair Pair, onUpdate UpdateFunc, period time.Duration) *Syncer {
	ctx, cancel := context.WithCancel(context.Background())
	sy := &Syncer{cancel: cancel}
	go sy.run(ctx, s, pair, onUpdate, period)
	return sy
}

func (sy *Syncer) run(ctx context.Context, svc *Service, pair Pair, onUpdate UpdateFunc, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			entries, err := svc.Load(ctx, pair.A, pair.B)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Error("conversation refresh failed", zap.Error(err))
				continue
			}
			if !sy.deliver(onUpdate, entries) {
				return
			}
		}
	}
}

// deliver invokes onUpdate unless the syncer has been stopped. Holding the
// mutex across the invocation is what lets Stop guarantee that no new update
// starts after it returns.
func (sy *Syncer) deliver(onUpdate UpdateFunc, entries []Entry) bool {
	sy.mu.Lock()
	defer sy.mu.Unlock()
	if sy.stopped {
		return false
	}
	onUpdate(entries)
	return true
}

// Stop cancels the loop. Safe to call mid-sleep or mid-load, and a no-op on
// an already stopped Syncer. Stop does not wait for an in-flight load; it may
// wait for an in-flight onUpdate delivery, which is the price of the
// no-update-after-Stop guarantee.
func (sy *Syncer) Stop() {
	sy.mu.Lock()
	defer sy.mu.Unlock()
	if sy.stopped {
		return
	}
	sy.stopped = true
	sy.cancel()
}
