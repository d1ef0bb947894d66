// Package engine implements the Rule Engine described in spec §4.4: setup
// of the source graph from declarations, expressions-by-reference fanout,
// and the rule worker's run loop.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bittoy/fieldrule/expression"
	"github.com/bittoy/fieldrule/source"
	"github.com/bittoy/fieldrule/tick"
	"github.com/bittoy/fieldrule/types"
)

// DefaultDequeueTimeout bounds how long the rule worker waits for a
// RUN_EXPRESSION message before re-checking its cancellation signal.
const DefaultDequeueTimeout = 200 * time.Millisecond

// SourceArgDecl declares one expression argument: the key, owning
// controller and rule, source class, and optional initial configuration
// value, resolved and deduplicated at Setup (spec §4.4 step 2).
type SourceArgDecl struct {
	Key        string
	Controller string
	Rule       string
	Type       string
	Value      any
}

// ExpressionDecl declares one user-authored expression: which evaluator
// compiles it, its source text, and its ordered argument list.
type ExpressionDecl struct {
	ID        string
	Evaluator string
	Source    string
	Args      []SourceArgDecl
}

// RuleEngine is the default types.Rule implementation.
type RuleEngine struct {
	name       string
	cfg        types.Config
	evaluators map[string]types.Evaluator
	ticks      *tick.Broadcaster

	mu               sync.RWMutex
	expressionsByRef map[string][]types.Expression
	expressions      []*expression.Expression
	dequeueTimeout   time.Duration
}

// New returns a RuleEngine named name. evaluators maps an
// ExpressionDecl.Evaluator name ("expr", "js", ...) to the types.Evaluator
// that compiles and runs it.
func New(name string, cfg types.Config, evaluators map[string]types.Evaluator, tickInterval time.Duration) *RuleEngine {
	return &RuleEngine{
		name:             name,
		cfg:              cfg,
		evaluators:       evaluators,
		ticks:            tick.NewBroadcaster(cfg.Bus, tickInterval),
		expressionsByRef: make(map[string][]types.Expression),
		dequeueTimeout:   DefaultDequeueTimeout,
	}
}

// Name returns the rule's name, which doubles as its bus queue name.
func (r *RuleEngine) Name() string { return r.name }

// Ticks returns the liveness telemetry surface spec §4.5 calls get_ticks().
func (r *RuleEngine) Ticks() map[string]*types.Tick { return r.ticks.Ticks() }

// Setup resolves every expression's declared arguments into live Sources,
// deduplicating against the Source Registry, binding each new Source's
// write-back callback, and notifying each owning controller with
// ADD_PARSER/ADD_SOURCE exactly once per (controller, type) / reference
// pair (spec §4.4 steps 1-6). Any resolution failure is setup-fatal.
func (r *RuleEngine) Setup(ctx context.Context, decls []ExpressionDecl) error {
	sentParser := make(map[string]bool)
	sentSource := make(map[string]bool)
	knownControllers := make(map[string]bool)

	for _, ed := range decls {
		evaluator, ok := r.evaluators[ed.Evaluator]
		if !ok {
			return types.NewConfigError(ed.ID, fmt.Errorf("unknown evaluator %q", ed.Evaluator))
		}
		expr, err := expression.New(ed.ID, evaluator, ed.Source)
		if err != nil {
			return types.NewConfigError(ed.ID, err)
		}

		for _, ad := range ed.Args {
			s, err := r.resolveSource(ad)
			if err != nil {
				return types.NewConfigError(ed.ID, err)
			}
			expr.AddArg(s)
			r.index(s.Reference(), expr)
			knownControllers[ad.Controller] = true

			parserKey := ad.Controller + "|" + ad.Type
			if !sentParser[parserKey] {
				sentParser[parserKey] = true
				msg := types.NewMessage(types.AddParser, types.AddParserPayload{TypeName: ad.Type})
				if err := r.cfg.Bus.Enqueue(ctx, ad.Controller, msg); err != nil {
					return types.NewConfigError(ed.ID, err)
				}
			}
			if !sentSource[s.Reference()] {
				sentSource[s.Reference()] = true
				msg := types.NewMessage(types.AddSource, types.AddSourcePayload{Source: s})
				if err := r.cfg.Bus.Enqueue(ctx, ad.Controller, msg); err != nil {
					return types.NewConfigError(ed.ID, err)
				}
			}
		}

		r.mu.Lock()
		r.expressions = append(r.expressions, expr)
		r.mu.Unlock()
	}

	for name := range knownControllers {
		r.ticks.Add(name)
	}
	return nil
}

// resolveSource materializes or reuses the Source named by ad, per spec
// §4.4 step 2: "Deduplicate against the Source Registry -- if an instance
// with the same reference already exists, reuse it."
func (r *RuleEngine) resolveSource(ad SourceArgDecl) (types.Source, error) {
	ref := source.Reference(ad.Controller, ad.Type, ad.Key)
	if existing, ok := r.cfg.SourceRegistry.Get(ref); ok {
		return existing, nil
	}

	s, err := r.cfg.ClassRegistry.NewSource(ad.Type, ad.Rule, ad.Controller, ad.Key, ad.Value, r.cfg)
	if err != nil {
		return nil, err
	}
	if err := r.cfg.SourceRegistry.Add(s); err != nil {
		var dup *types.DuplicateSourceError
		if errors.As(err, &dup) {
			if existing, ok := r.cfg.SourceRegistry.Get(ref); ok {
				return existing, nil
			}
		}
		return nil, err
	}

	controllerName := s.Controller()
	s.BindSetCallback(func(value any, sourceTime time.Time) error {
		msg := types.NewMessage(types.WriteSource, types.WriteSourcePayload{
			Source: s, Value: value, SourceTime: sourceTime,
		})
		return r.cfg.Bus.Enqueue(context.Background(), controllerName, msg)
	})
	return s, nil
}

// index registers expr against reference, ensuring it appears at most once
// (spec §3, "the same Expression may appear in the expression-by-reference
// index of several sources" -- but not twice against the same one).
func (r *RuleEngine) index(reference string, expr types.Expression) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.expressionsByRef[reference] {
		if existing == expr {
			return
		}
	}
	r.expressionsByRef[reference] = append(r.expressionsByRef[reference], expr)
}

func (r *RuleEngine) expressionsFor(reference string) []types.Expression {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.Expression, len(r.expressionsByRef[reference]))
	copy(out, r.expressionsByRef[reference])
	return out
}

// Run services RUN_EXPRESSION messages until ctx is canceled (spec §4.4,
// "Run loop"). Each dispatched expression's failure is counted and logged;
// it never stops the worker.
func (r *RuleEngine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msg, ok, err := r.cfg.Bus.Dequeue(ctx, r.name, r.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if ok {
			r.handleRunExpression(ctx, msg)
		}
	}
}

func (r *RuleEngine) handleRunExpression(ctx context.Context, msg types.Message) {
	payload, ok := msg.Payload.(types.RunExpressionPayload)
	if !ok {
		return
	}
	for _, expr := range r.expressionsFor(payload.Source.Reference()) {
		start := time.Now()
		err := expr.Run(ctx)
		expressionDuration.WithLabelValues(r.name, expr.ID()).Observe(time.Since(start).Seconds())
		runExpressionsTotal.WithLabelValues(r.name, expr.ID()).Inc()
		if err != nil {
			evaluatorErrorsTotal.WithLabelValues(r.name, expr.ID()).Inc()
			if r.cfg.Stats != nil {
				r.cfg.Stats.Incr("evaluator_errors_total", 1)
			}
			if r.cfg.Logger != nil {
				r.cfg.Logger.Printf("rule %s: expression %s: %v", r.name, expr.ID(), err)
			}
		}
	}
}

// StartTicking runs the Tick Service broadcast loop until ctx is canceled.
// Callers typically run it in its own goroutine alongside Run.
func (r *RuleEngine) StartTicking(ctx context.Context) error {
	return r.ticks.Run(ctx)
}

var _ types.Rule = (*RuleEngine)(nil)
