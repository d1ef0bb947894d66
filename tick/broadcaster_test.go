package tick

import (
	"context"
	"testing"
	"time"

	"github.com/bittoy/fieldrule/bus"
	"github.com/bittoy/fieldrule/types"
)

func TestBroadcasterSendsToEveryKnownController(t *testing.T) {
	b := bus.NewMemoryBus()
	if err := b.NewQueue("ctrl1", 4); err != nil {
		t.Fatalf("NewQueue: %v", err)
	}
	if err := b.NewQueue("ctrl2", 4); err != nil {
		t.Fatalf("NewQueue: %v", err)
	}

	bc := NewBroadcaster(b, 10*time.Millisecond)
	bc.Add("ctrl1")
	bc.Add("ctrl2")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	_ = bc.Run(ctx)

	for _, name := range []string{"ctrl1", "ctrl2"} {
		msg, ok, err := b.Dequeue(context.Background(), name, 100*time.Millisecond)
		if err != nil || !ok {
			t.Fatalf("expected a TICK message on %s: ok=%v err=%v", name, ok, err)
		}
		if msg.Type != types.Tick {
			t.Fatalf("expected TICK, got %s", msg.Type)
		}
	}
}

func TestAddIsIdempotentPerController(t *testing.T) {
	b := bus.NewMemoryBus()
	bc := NewBroadcaster(b, time.Second)
	t1 := bc.Add("ctrl1")
	t2 := bc.Add("ctrl1")
	if t1 != t2 {
		t.Fatalf("expected Add to return the same Tick for a repeated controller")
	}
}
