// Package expression implements the user-authored Expression described in
// spec §3/§6: an evaluator bound to an ordered list of Source arguments,
// compiled once at setup and invoked once per RUN_EXPRESSION delivery.
package expression

import (
	"context"

	"github.com/bittoy/fieldrule/types"
)

// Expression is the default types.Expression implementation. It is a thin
// binding between a compiled types.Program and the evaluator that produced
// it; all language semantics live behind the types.Evaluator interface.
type Expression struct {
	id        string
	evaluator types.Evaluator
	program   types.Program
	args      []types.Source
}

// New compiles source with evaluator and returns an Expression identified
// by id. Compile failures are setup-fatal (spec §4.4).
func New(id string, evaluator types.Evaluator, source string) (*Expression, error) {
	program, err := evaluator.Compile(id, source)
	if err != nil {
		return nil, err
	}
	return &Expression{id: id, evaluator: evaluator, program: program}, nil
}

// ID identifies the expression for diagnostics and EvaluatorError reporting.
func (e *Expression) ID() string { return e.id }

// AddArg appends a bound Source argument in declaration order.
func (e *Expression) AddArg(src types.Source) {
	e.args = append(e.args, src)
}

// Args returns the bound argument list in declaration order.
func (e *Expression) Args() []types.Source {
	return e.args
}

// Run invokes the bound evaluator against the bound arguments. A failing
// evaluator never panics the caller; it returns a *types.EvaluatorError or
// whatever typed error the evaluator itself raises (spec §4.4, §7).
func (e *Expression) Run(ctx context.Context) error {
	return e.evaluator.Run(ctx, e.program, e.args)
}

var _ types.Expression = (*Expression)(nil)
