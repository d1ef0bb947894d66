package bus

import (
	"context"
	"testing"
	"time"

	"github.com/bittoy/fieldrule/types"
)

func TestFIFOOrdering(t *testing.T) {
	b := NewMemoryBus()
	if err := b.NewQueue("rule1", 4); err != nil {
		t.Fatalf("NewQueue: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		msg := types.NewMessage(types.RunExpression, i)
		if err := b.Enqueue(ctx, "rule1", msg); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}

	for i := 0; i < 3; i++ {
		msg, ok, err := b.Dequeue(ctx, "rule1", time.Second)
		if err != nil || !ok {
			t.Fatalf("Dequeue(%d): ok=%v err=%v", i, ok, err)
		}
		if msg.Payload.(int) != i {
			t.Fatalf("got payload %v, want %d", msg.Payload, i)
		}
	}
}

func TestDequeueTimeout(t *testing.T) {
	b := NewMemoryBus()
	_ = b.NewQueue("rule1", 1)

	start := time.Now()
	_, ok, err := b.Dequeue(context.Background(), "rule1", 20*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected timeout, got a message")
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Fatalf("returned before timeout elapsed")
	}
}

func TestEnqueueBackpressure(t *testing.T) {
	b := NewMemoryBus()
	_ = b.NewQueue("q", 1)
	ctx := context.Background()

	if err := b.Enqueue(ctx, "q", types.NewMessage(types.Tick, nil)); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}

	// Second enqueue should block until we cancel the context, since the
	// queue has capacity 1 and nothing is draining it.
	cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := b.Enqueue(cctx, "q", types.NewMessage(types.Tick, nil)); err == nil {
		t.Fatalf("expected blocked enqueue to return an error on cancellation")
	}
}

func TestEnqueueUnknownQueue(t *testing.T) {
	b := NewMemoryBus()
	if err := b.Enqueue(context.Background(), "nope", types.NewMessage(types.Tick, nil)); err == nil {
		t.Fatalf("expected error enqueueing to unknown queue")
	}
}
