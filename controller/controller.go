/*
 * Copyright 2023 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package controller implements the base Controller contract of spec §4.3:
// the incoming-queue/outgoing-poll loop model, the message handlers every
// controller shares, and the old/new suppression helper
// (UpdateSourceInstanceValue) every controller uses when accepting a value
// from the external side.
package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bittoy/fieldrule/types"
)

// DefaultDequeueTimeout bounds how long loop_incoming waits for a message
// before the controller returns to loop_outgoing. It is also the slack
// spec §8 property 6 (interrupt liveness) budgets into shutdown time.
const DefaultDequeueTimeout = 200 * time.Millisecond

// Options carry the controller-level flags spec §6 recognizes for every
// controller.
type Options struct {
	// SendEventsOnInternal fires RUN_EXPRESSION for writes applied via
	// WRITE_SOURCE (rule-originated).
	SendEventsOnInternal bool
	// SendEventsOnExternal fires RUN_EXPRESSION for datachanges observed
	// from the external protocol.
	SendEventsOnExternal bool
	// OldNewComparison enables the suppression logic in
	// UpdateSourceInstanceValue.
	OldNewComparison bool
	// SendInitEvent fires an initial RUN_EXPRESSION on ADD_SOURCE.
	SendInitEvent bool
	// DequeueTimeout overrides DefaultDequeueTimeout.
	DequeueTimeout time.Duration
	// RuleQueue is the bus queue name of the rule this controller notifies
	// with RUN_EXPRESSION messages.
	RuleQueue string
}

// BaseController is the shared implementation every concrete controller
// (InternalController, MQTTController, ...) embeds. It owns the adopted
// source map, the registered parser set, and the dispatch loop; protocol
// specifics live in the embedding type.
type BaseController struct {
	name string
	cfg  types.Config
	opts Options

	mu      sync.RWMutex
	sources map[string]types.Source // keyed by Source.Key()
	parsers map[string]bool
}

// NewBaseController builds a BaseController named name, sharing cfg.
func NewBaseController(name string, cfg types.Config, opts Options) *BaseController {
	if opts.DequeueTimeout <= 0 {
		opts.DequeueTimeout = DefaultDequeueTimeout
	}
	return &BaseController{
		name:    name,
		cfg:     cfg,
		opts:    opts,
		sources: make(map[string]types.Source),
		parsers: make(map[string]bool),
	}
}

// Name returns the controller's name, which doubles as its bus queue name.
func (c *BaseController) Name() string { return c.name }

// Logger returns the shared logger from the controller's Config, or nil if
// none was configured.
func (c *BaseController) Logger() types.Logger { return c.cfg.Logger }

// Source returns an adopted source by key.
func (c *BaseController) Source(key string) (types.Source, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sources[key]
	return s, ok
}

// Sources returns a snapshot of all adopted sources.
func (c *BaseController) Sources() []types.Source {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.Source, 0, len(c.sources))
	for _, s := range c.sources {
		out = append(out, s)
	}
	return out
}

// adopt adds s to the controller's own source map and to the Source
// Registry (spec §4.3, ADD_SOURCE handler).
func (c *BaseController) adopt(s types.Source) error {
	if err := c.cfg.SourceRegistry.Add(s); err != nil {
		return err
	}
	c.mu.Lock()
	c.sources[s.Key()] = s
	c.mu.Unlock()
	return nil
}

// UpdateSourceInstanceValue is the shared helper every controller uses when
// accepting a value from the external side (spec §4.3). It mutates s via
// ApplyObservation and, if the observation fires and the controller is
// configured to emit RUN_EXPRESSION for this origin, enqueues one onto the
// owning rule's queue.
//
// origin distinguishes a rule-originated write (WRITE_SOURCE) from a
// protocol-originated datachange, since spec §6 lets each be gated
// independently via send_events_on_internal / send_events_on_external.
func (c *BaseController) UpdateSourceInstanceValue(ctx context.Context, s types.Source, value any, sourceTime time.Time, statusOK bool, origin Origin) (fire bool, err error) {
	fire = s.ApplyObservation(value, sourceTime, statusOK, c.opts.OldNewComparison)
	if c.cfg.Stats != nil {
		c.cfg.Stats.Incr("observations_total", 1)
	}

	shouldEmit := fire && ((origin == OriginInternal && c.opts.SendEventsOnInternal) ||
		(origin == OriginExternal && c.opts.SendEventsOnExternal))
	if !shouldEmit {
		return fire, nil
	}
	return fire, c.emitRunExpression(ctx, s)
}

// Origin distinguishes where an observation came from, for the
// send_events_on_internal/send_events_on_external gating in spec §6.
type Origin int

const (
	// OriginExternal is a datachange observed from the protocol side.
	OriginExternal Origin = iota
	// OriginInternal is a value applied via WRITE_SOURCE.
	OriginInternal
)

func (c *BaseController) emitRunExpression(ctx context.Context, s types.Source) error {
	if c.cfg.Bus == nil || c.opts.RuleQueue == "" {
		return nil
	}
	msg := types.NewMessage(types.RunExpression, types.RunExpressionPayload{Source: s})
	if c.cfg.Stats != nil {
		c.cfg.Stats.Incr("run_expression_emitted_total", 1)
	}
	return c.cfg.Bus.Enqueue(ctx, c.opts.RuleQueue, msg)
}

// HandleAddSource adopts the source carried by msg, and -- if
// SendInitEvent is set -- notifies the rule immediately so liveness/initial
// wiring can be observed without waiting for the first real observation
// (spec §4.3).
func (c *BaseController) HandleAddSource(ctx context.Context, msg types.Message) error {
	payload, ok := msg.Payload.(types.AddSourcePayload)
	if !ok {
		return errors.New("controller: ADD_SOURCE payload has the wrong type")
	}
	if err := c.adopt(payload.Source); err != nil {
		return err
	}
	if c.opts.SendInitEvent {
		return c.emitRunExpression(ctx, payload.Source)
	}
	return nil
}

// HandleAddParser registers a source class name the controller should be
// ready to decode protocol data for (spec §4.3).
func (c *BaseController) HandleAddParser(_ context.Context, msg types.Message) error {
	payload, ok := msg.Payload.(types.AddParserPayload)
	if !ok {
		return errors.New("controller: ADD_PARSER payload has the wrong type")
	}
	c.mu.Lock()
	c.parsers[payload.TypeName] = true
	c.mu.Unlock()
	return nil
}

// HandleWriteSource applies a rule-originated write using the same
// transition table as a protocol observation, gated by
// send_events_on_internal (spec §4.3).
func (c *BaseController) HandleWriteSource(ctx context.Context, msg types.Message) error {
	payload, ok := msg.Payload.(types.WriteSourcePayload)
	if !ok {
		return errors.New("controller: WRITE_SOURCE payload has the wrong type")
	}
	_, err := c.UpdateSourceInstanceValue(ctx, payload.Source, payload.Value, payload.SourceTime, true, OriginInternal)
	return err
}

// HandleTick records that this controller observed the heartbeat (spec
// §4.3, §4.5).
func (c *BaseController) HandleTick(_ context.Context, msg types.Message) error {
	payload, ok := msg.Payload.(types.TickPayload)
	if !ok {
		return errors.New("controller: TICK payload has the wrong type")
	}
	payload.Tick.Acknowledge()
	return nil
}

// Hooks lets an embedding controller override the parts of message handling
// that are genuinely protocol-specific, without re-implementing dispatch or
// the incoming/outgoing loop itself.
type Hooks struct {
	// HandleRead answers READ_SOURCE/READ_ALL. Nil makes both a no-op.
	HandleRead func(context.Context, types.Message) error
	// AfterWrite runs after a WRITE_SOURCE has been applied via
	// UpdateSourceInstanceValue, e.g. to publish the new value back to a
	// protocol. Nil skips the step.
	AfterWrite func(context.Context, types.Source) error
	// AfterAddSource runs after ADD_SOURCE has adopted a new source, e.g. to
	// subscribe to its protocol-side address. A source is only adopted (and
	// so only appears in Sources()) from inside this handler, so a protocol
	// controller MUST hook this rather than walk Sources() once before Run's
	// dispatch loop starts -- at that point nothing has been adopted yet.
	AfterAddSource func(context.Context, types.Source) error
	// Outgoing is called once per loop iteration after the incoming queue
	// has been serviced, for controllers that poll their protocol. Nil
	// skips the step.
	Outgoing func(context.Context)
}

// Dispatch routes msg to the matching handler, consulting hooks for the
// protocol-specific parts (spec §4.3).
func (c *BaseController) Dispatch(ctx context.Context, msg types.Message, hooks Hooks) error {
	switch msg.Type {
	case types.AddSource:
		if err := c.HandleAddSource(ctx, msg); err != nil {
			return err
		}
		if hooks.AfterAddSource != nil {
			payload, ok := msg.Payload.(types.AddSourcePayload)
			if !ok {
				return nil
			}
			return hooks.AfterAddSource(ctx, payload.Source)
		}
		return nil
	case types.AddParser:
		return c.HandleAddParser(ctx, msg)
	case types.WriteSource:
		if err := c.HandleWriteSource(ctx, msg); err != nil {
			return err
		}
		if hooks.AfterWrite != nil {
			payload, ok := msg.Payload.(types.WriteSourcePayload)
			if !ok {
				return nil
			}
			return hooks.AfterWrite(ctx, payload.Source)
		}
		return nil
	case types.Tick:
		return c.HandleTick(ctx, msg)
	case types.ReadSource, types.ReadAll:
		if hooks.HandleRead != nil {
			return hooks.HandleRead(ctx, msg)
		}
		return nil
	default:
		return nil
	}
}

// Run drives the loop_incoming/loop_outgoing alternation of spec §4.3 until
// ctx is canceled.
func (c *BaseController) Run(ctx context.Context, hooks Hooks) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msg, ok, err := c.cfg.Bus.Dequeue(ctx, c.name, c.opts.DequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if ok {
			if err := c.Dispatch(ctx, msg, hooks); err != nil && c.cfg.Logger != nil {
				c.cfg.Logger.Printf("controller %s: error handling %s: %v", c.name, msg.Type, err)
			}
		}

		if hooks.Outgoing != nil {
			hooks.Outgoing(ctx)
		}
	}
}
