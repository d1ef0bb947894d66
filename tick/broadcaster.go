// Package tick implements the Tick Service described in spec §4.5: a
// periodic liveness broadcast the Rule Engine sends to every controller it
// knows about, using one types.Tick per controller.
package tick

import (
	"context"
	"sync"
	"time"

	"github.com/bittoy/fieldrule/types"
)

// DefaultInterval is the broadcast period used when none is configured.
const DefaultInterval = time.Second

// Broadcaster owns one Tick per controller and periodically enqueues a TICK
// message carrying it onto that controller's queue. It is also the
// get_ticks() telemetry surface spec §4.5 calls for.
type Broadcaster struct {
	bus      types.Bus
	interval time.Duration

	mu    sync.RWMutex
	ticks map[string]*types.Tick
}

// NewBroadcaster returns a Broadcaster that sends TICK messages over bus
// every interval. A non-positive interval falls back to DefaultInterval.
func NewBroadcaster(bus types.Bus, interval time.Duration) *Broadcaster {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Broadcaster{bus: bus, interval: interval, ticks: make(map[string]*types.Tick)}
}

// Add registers controller for ticking if it is not already known, and
// returns its Tick.
func (b *Broadcaster) Add(controller string) *types.Tick {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.ticks[controller]; ok {
		return t
	}
	t := types.NewTick(controller)
	b.ticks[controller] = t
	return t
}

// Ticks returns a snapshot of every known controller's Tick, keyed by
// controller name, for liveness telemetry.
func (b *Broadcaster) Ticks() map[string]*types.Tick {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]*types.Tick, len(b.ticks))
	for k, v := range b.ticks {
		out[k] = v
	}
	return out
}

// broadcast enqueues one TICK message per known controller. Enqueue
// errors (an unknown queue, or ctx canceled while waiting) are
// intentionally swallowed: a missed heartbeat should grow the controller's
// TimeDiff, not stop the Broadcaster itself. A full queue is not an error:
// Enqueue blocks until space frees up or ctx is canceled.
func (b *Broadcaster) broadcast(ctx context.Context) {
	for name, t := range b.Ticks() {
		msg := types.NewMessage(types.Tick, types.TickPayload{Tick: t})
		_ = b.bus.Enqueue(ctx, name, msg)
	}
}

// Run sends a broadcast every interval until ctx is canceled.
func (b *Broadcaster) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			b.broadcast(ctx)
		}
	}
}
