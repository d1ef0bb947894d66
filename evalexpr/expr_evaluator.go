// Package evalexpr provides the two pluggable expression evaluators wired
// behind types.Evaluator: ExprEvaluator (github.com/expr-lang/expr) and
// JSEvaluator (github.com/dop251/goja), grounded on the teacher's
// example/expr.go compile/run usage and utils/js/js_engine.go's
// GojaJsEngine respectively.
package evalexpr

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/bittoy/fieldrule/types"
)

// ExprEvaluator runs expr-lang/expr expressions against a source argument
// environment. Every bound Source contributes its current value under its
// Key(), plus a write(key, value) function an expression calls to request a
// write-back via Source.Set.
type ExprEvaluator struct{}

// NewExprEvaluator returns an ExprEvaluator.
func NewExprEvaluator() *ExprEvaluator { return &ExprEvaluator{} }

func (e *ExprEvaluator) Name() string { return "expr" }

// Compile parses source with expr.Compile. Typed env binding is
// deliberately skipped: a Source's concrete value type is only known once
// arguments are bound at Run time (spec §6 binds arguments after compile).
func (e *ExprEvaluator) Compile(id, source string) (types.Program, error) {
	program, err := expr.Compile(source)
	if err != nil {
		return nil, &types.EvaluatorError{ExpressionID: id, Cause: err}
	}
	return program, nil
}

// Run evaluates program against an environment built from args.
func (e *ExprEvaluator) Run(_ context.Context, program types.Program, args []types.Source) error {
	prog, ok := program.(*vm.Program)
	if !ok {
		return fmt.Errorf("expr evaluator: program has the wrong type %T", program)
	}
	env := buildEnv(args)
	if _, err := expr.Run(prog, env); err != nil {
		return err
	}
	return nil
}

// buildEnv exposes every argument's current value by Key(), plus a write
// function that routes a value back through the matching Source's Set.
func buildEnv(args []types.Source) map[string]any {
	index := make(map[string]types.Source, len(args))
	env := make(map[string]any, len(args)+1)
	for _, a := range args {
		index[a.Key()] = a
		env[a.Key()] = a.Value()
	}
	env["write"] = func(key string, value any) error {
		s, ok := index[key]
		if !ok {
			return fmt.Errorf("expr evaluator: write to unbound source %q", key)
		}
		return s.Set(value)
	}
	return env
}

var _ types.Evaluator = (*ExprEvaluator)(nil)
