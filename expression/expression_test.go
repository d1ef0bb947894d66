package expression

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bittoy/fieldrule/types"
)

type stubEvaluator struct {
	name    string
	runErr  error
	lastArg []types.Source
	calls   int
}

func (s *stubEvaluator) Name() string { return s.name }

func (s *stubEvaluator) Compile(id, source string) (types.Program, error) {
	return source, nil
}

func (s *stubEvaluator) Run(_ context.Context, _ types.Program, args []types.Source) error {
	s.calls++
	s.lastArg = args
	return s.runErr
}

type stubSource struct{ key string }

func (s *stubSource) Key() string                 { return s.key }
func (s *stubSource) Reference() string            { return s.key }
func (s *stubSource) Controller() string           { return "ctrl" }
func (s *stubSource) Rule() string                 { return "rule" }
func (s *stubSource) Interface() types.ValueInterface { return nil }
func (s *stubSource) Value() any                   { return nil }
func (s *stubSource) SourceTime() time.Time        { return time.Time{} }
func (s *stubSource) StatusCode() types.StatusCode { return types.StatusGood }
func (s *stubSource) ApplyObservation(any, time.Time, bool, bool) bool { return false }
func (s *stubSource) Set(any) error                { return nil }
func (s *stubSource) BindSetCallback(types.SetCallback) {}

func TestExpressionBindsArgsAndDelegatesToEvaluator(t *testing.T) {
	ev := &stubEvaluator{name: "stub"}
	expr, err := New("expr1", ev, "tagA + tagB")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	a := &stubSource{key: "tagA"}
	b := &stubSource{key: "tagB"}
	expr.AddArg(a)
	expr.AddArg(b)

	if got := expr.Args(); len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("unexpected bound args: %v", got)
	}

	if err := expr.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ev.calls != 1 {
		t.Fatalf("expected evaluator.Run called once, got %d", ev.calls)
	}
}

func TestExpressionPropagatesEvaluatorError(t *testing.T) {
	wantErr := errors.New("boom")
	ev := &stubEvaluator{name: "stub", runErr: wantErr}
	expr, err := New("expr1", ev, "true")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := expr.Run(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("expected underlying error to propagate, got %v", err)
	}
}
