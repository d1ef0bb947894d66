package evalexpr

import (
	"context"
	"errors"
	"fmt"

	"github.com/dop251/goja"

	"github.com/bittoy/fieldrule/types"
)

// JSEvaluator runs a precompiled goja.Program expected to define a top-level
// "run" function, adapted from the teacher's GojaJsEngine: compile once,
// then spin up a fresh goja.Runtime per invocation (goja Runtimes are not
// safe for concurrent use, and expressions across rules can run in
// parallel) and call run(values) with every bound Source's current value
// keyed by Key(). A "write(key, value)" global lets the script request a
// write-back via Source.Set.
type JSEvaluator struct {
	logger types.Logger
}

// NewJSEvaluator returns a JSEvaluator that logs failed write-backs from the
// script's write(key, value) calls through logger (which may be nil).
func NewJSEvaluator(logger types.Logger) *JSEvaluator {
	return &JSEvaluator{logger: logger}
}

func (j *JSEvaluator) Name() string { return "js" }

// Compile precompiles source with goja.Compile. source is expected to
// define a "run(values)" function; Compile itself does not invoke it.
func (j *JSEvaluator) Compile(id, source string) (types.Program, error) {
	program, err := goja.Compile(id, source, false)
	if err != nil {
		return nil, &types.EvaluatorError{ExpressionID: id, Cause: err}
	}
	return program, nil
}

// Run executes the precompiled script's "run" function against a fresh VM
// seeded with args' current values.
func (j *JSEvaluator) Run(_ context.Context, program types.Program, args []types.Source) error {
	prog, ok := program.(*goja.Program)
	if !ok {
		return fmt.Errorf("js evaluator: program has the wrong type %T", program)
	}

	vm := goja.New()
	if _, err := vm.RunProgram(prog); err != nil {
		return err
	}

	index := make(map[string]types.Source, len(args))
	values := make(map[string]any, len(args))
	for _, a := range args {
		index[a.Key()] = a
		values[a.Key()] = a.Value()
	}

	if err := vm.Set("write", func(key string, value any) {
		if s, ok := index[key]; ok {
			if err := s.Set(value); err != nil && j.logger != nil {
				j.logger.Printf("js evaluator: write %q: %v", key, err)
			}
		}
	}); err != nil {
		return err
	}

	run, ok := goja.AssertFunction(vm.Get("run"))
	if !ok {
		return errors.New("js evaluator: script does not define a run function")
	}
	if _, err := run(goja.Undefined(), vm.ToValue(values)); err != nil {
		return err
	}
	return nil
}

var _ types.Evaluator = (*JSEvaluator)(nil)
