package controller

import (
	"context"
	"testing"
	"time"

	"github.com/bittoy/fieldrule/bus"
	"github.com/bittoy/fieldrule/registry"
	"github.com/bittoy/fieldrule/sourceclass"
	"github.com/bittoy/fieldrule/types"
)

func newTestConfig(t *testing.T) (types.Config, *bus.MemoryBus) {
	t.Helper()
	classes := registry.NewClassRegistry()
	if err := sourceclass.RegisterAll(classes); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	sources := registry.NewSourceRegistry(classes)
	b := bus.NewMemoryBus()
	if err := b.NewQueue("ctrl1", 8); err != nil {
		t.Fatalf("NewQueue(ctrl1): %v", err)
	}
	if err := b.NewQueue("rule1", 8); err != nil {
		t.Fatalf("NewQueue(rule1): %v", err)
	}
	cfg := types.NewConfig(types.WithSourceRegistry(sources), types.WithClassRegistry(classes), types.WithBus(b))
	return cfg, b
}

func TestAddSourceAdoptsAndRegisters(t *testing.T) {
	cfg, b := newTestConfig(t)
	c := NewInternalController("ctrl1", cfg, Options{RuleQueue: "rule1"})

	s, err := cfg.ClassRegistry.NewSource(sourceclass.VariantTypeName, "rule1", "ctrl1", "tagA", nil, cfg)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	if err := b.Enqueue(ctx, "ctrl1", types.NewMessage(types.AddSource, types.AddSourcePayload{Source: s})); err != nil {
		t.Fatalf("Enqueue ADD_SOURCE: %v", err)
	}

	deadline := time.After(time.Second)
	for {
		if _, ok := c.Source("tagA"); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("source was never adopted")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if !cfg.SourceRegistry.Has(s.Reference()) {
		t.Fatalf("expected source registered in the Source Registry")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestInitialObservationFiresRunExpression(t *testing.T) {
	cfg, b := newTestConfig(t)
	c := NewInternalController("ctrl1", cfg, Options{RuleQueue: "rule1", SendEventsOnExternal: true, OldNewComparison: true})

	s, err := cfg.ClassRegistry.NewSource(sourceclass.VariantTypeName, "rule1", "ctrl1", "tagA", nil, cfg)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if err := cfg.SourceRegistry.Add(s); err != nil {
		t.Fatalf("Add: %v", err)
	}
	c.sources["tagA"] = s

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fired, err := c.Observe(ctx, "tagA", 42.0, true, time.Now().UTC())
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if !fired {
		t.Fatalf("expected the first good observation to fire")
	}

	msg, ok, err := b.Dequeue(ctx, "rule1", 500*time.Millisecond)
	if err != nil || !ok {
		t.Fatalf("expected a RUN_EXPRESSION message: ok=%v err=%v", ok, err)
	}
	if msg.Type != types.RunExpression {
		t.Fatalf("expected RUN_EXPRESSION, got %s", msg.Type)
	}
}

func TestWriteSourceGatedBySendEventsOnInternal(t *testing.T) {
	cfg, b := newTestConfig(t)
	c := NewInternalController("ctrl1", cfg, Options{RuleQueue: "rule1", SendEventsOnInternal: false, OldNewComparison: true})

	s, err := cfg.ClassRegistry.NewSource(sourceclass.VariantTypeName, "rule1", "ctrl1", "tagA", nil, cfg)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	c.sources["tagA"] = s

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	if err := b.Enqueue(ctx, "ctrl1", types.NewMessage(types.WriteSource, types.WriteSourcePayload{
		Source: s, Value: 7.0, SourceTime: time.Now().UTC(),
	})); err != nil {
		t.Fatalf("Enqueue WRITE_SOURCE: %v", err)
	}

	// Gated off: no RUN_EXPRESSION should arrive on rule1.
	if _, ok, err := b.Dequeue(ctx, "rule1", 100*time.Millisecond); err != nil || ok {
		t.Fatalf("expected no RUN_EXPRESSION when send_events_on_internal is false: ok=%v err=%v", ok, err)
	}

	cancel()
	<-done
}

func TestAfterAddSourceHookFiresOnAdoption(t *testing.T) {
	cfg, b := newTestConfig(t)
	base := NewBaseController("ctrl1", cfg, Options{RuleQueue: "rule1"})

	s, err := cfg.ClassRegistry.NewSource(sourceclass.VariantTypeName, "rule1", "ctrl1", "tagA", nil, cfg)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	var hooked types.Source
	hookFired := make(chan struct{}, 1)
	hooks := Hooks{AfterAddSource: func(_ context.Context, s types.Source) error {
		hooked = s
		hookFired <- struct{}{}
		return nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- base.Run(ctx, hooks) }()

	// Before ADD_SOURCE is dispatched, the source must not be adopted yet --
	// this is the exact precondition an MQTT-style subscribe-before-dispatch
	// loop would miss.
	if _, ok := base.Source("tagA"); ok {
		t.Fatalf("source must not be adopted before ADD_SOURCE is dispatched")
	}

	if err := b.Enqueue(ctx, "ctrl1", types.NewMessage(types.AddSource, types.AddSourcePayload{Source: s})); err != nil {
		t.Fatalf("Enqueue ADD_SOURCE: %v", err)
	}

	select {
	case <-hookFired:
	case <-time.After(time.Second):
		t.Fatalf("AfterAddSource hook never fired")
	}
	if hooked == nil || hooked.Key() != "tagA" {
		t.Fatalf("expected AfterAddSource called with the newly adopted source, got %v", hooked)
	}
	if _, ok := base.Source("tagA"); !ok {
		t.Fatalf("expected source adopted once AfterAddSource has fired")
	}

	cancel()
	<-done
}

func TestRunStopsOnContextCancel(t *testing.T) {
	cfg, _ := newTestConfig(t)
	c := NewInternalController("ctrl1", cfg, Options{RuleQueue: "rule1", DequeueTimeout: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on cancel: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Run did not return promptly after cancellation")
	}
}
