package evalexpr

import (
	"context"
	"testing"
	"time"

	"github.com/bittoy/fieldrule/types"
)

type memSource struct {
	key   string
	value any
	set   any
}

func (s *memSource) Key() string                                         { return s.key }
func (s *memSource) Reference() string                                   { return s.key }
func (s *memSource) Controller() string                                  { return "ctrl" }
func (s *memSource) Rule() string                                        { return "rule" }
func (s *memSource) Interface() types.ValueInterface                     { return nil }
func (s *memSource) Value() any                                          { return s.value }
func (s *memSource) SourceTime() time.Time                               { return time.Time{} }
func (s *memSource) StatusCode() types.StatusCode                        { return types.StatusGood }
func (s *memSource) ApplyObservation(any, time.Time, bool, bool) bool    { return false }
func (s *memSource) Set(v any) error                                     { s.set = v; return nil }
func (s *memSource) BindSetCallback(types.SetCallback)                   {}

func TestExprEvaluatorReadsAndWrites(t *testing.T) {
	e := NewExprEvaluator()
	program, err := e.Compile("expr1", `write("out", a + b)`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	a := &memSource{key: "a", value: 2.0}
	b := &memSource{key: "b", value: 3.0}
	out := &memSource{key: "out"}

	if err := e.Run(context.Background(), program, []types.Source{a, b, out}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.set != 5.0 {
		t.Fatalf("expected write-back of 5.0, got %v", out.set)
	}
}

func TestExprEvaluatorCompileError(t *testing.T) {
	e := NewExprEvaluator()
	if _, err := e.Compile("expr1", "this is not ) valid"); err == nil {
		t.Fatalf("expected a compile error")
	}
}

func TestJSEvaluatorReadsAndWrites(t *testing.T) {
	j := NewJSEvaluator(nil)
	program, err := j.Compile("expr1", `function run(values) { write("out", values["a"] + values["b"]); }`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	a := &memSource{key: "a", value: 2.0}
	b := &memSource{key: "b", value: 3.0}
	out := &memSource{key: "out"}

	if err := j.Run(context.Background(), program, []types.Source{a, b, out}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.set != 5.0 {
		t.Fatalf("expected write-back of 5.0, got %v", out.set)
	}
}

func TestJSEvaluatorMissingRunFunction(t *testing.T) {
	j := NewJSEvaluator(nil)
	program, err := j.Compile("expr1", `var x = 1;`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := j.Run(context.Background(), program, nil); err == nil {
		t.Fatalf("expected an error when run is undefined")
	}
}
