package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncer_DeliversNewMessages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	updates := make(chan []Entry, 16)
	sy := f.svc.StartSync(Pair{A: f.alice, B: f.bob}, func(entries []Entry) {
		updates <- entries
	}, 10*time.Millisecond)
	defer sy.Stop()

	// empty conversation still produces snapshots
	select {
	case entries := <-updates:
		assert.Empty(t, entries)
	case <-time.After(time.Second):
		t.Fatal("no update from empty conversation")
	}

	require.NoError(t, f.svc.Send(ctx, f.alice, f.bob, "hi"))

	deadline := time.After(time.Second)
	for {
		select {
		case entries := <-updates:
			if len(entries) == 1 {
				assert.Equal(t, Entry{Sender: "alice", Text: "hi"}, entries[0])
				return
			}
		case <-deadline:
			t.Fatal("update with new message never arrived")
		}
	}
}

func TestSyncer_NoUpdateAfterStop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	updates := make(chan []Entry, 16)
	sy := f.svc.StartSync(Pair{A: f.alice, B: f.bob}, func(entries []Entry) {
		updates <- entries
	}, 10*time.Millisecond)

	select {
	case <-updates:
	case <-time.After(time.Second):
		t.Fatal("loop never ticked")
	}

	sy.Stop()
	for len(updates) > 0 {
		<-updates
	}

	require.NoError(t, f.svc.Send(ctx, f.alice, f.bob, "after stop"))

	select {
	case <-updates:
		t.Fatal("update delivered after Stop")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSyncer_StopIdempotent(t *testing.T) {
	f := newFixture(t)

	sy := f.svc.StartSync(Pair{A: f.alice, B: f.bob}, func([]Entry) {}, time.Hour)
	sy.Stop()
	sy.Stop() // no panic, no deadlock
}

func TestSyncer_RestartIsFresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.svc.StartSync(Pair{A: f.alice, B: f.bob}, func([]Entry) {}, time.Hour)
	first.Stop()

	require.NoError(t, f.svc.Send(ctx, f.alice, f.bob, "hi again"))

	updates := make(chan []Entry, 16)
	second := f.svc.StartSync(Pair{A: f.alice, B: f.bob}, func(entries []Entry) {
		updates <- entries
	}, 10*time.Millisecond)
	defer second.Stop()

	select {
	case entries := <-updates:
		require.Len(t, entries, 1)
		assert.Equal(t, "hi again", entries[0].Text)
	case <-time.After(time.Second):
		t.Fatal("restarted loop never delivered")
	}
}
