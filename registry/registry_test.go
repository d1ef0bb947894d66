package registry

import (
	"testing"
	"time"

	"github.com/bittoy/fieldrule/types"
)

type stubSource struct {
	ref string
}

func (s *stubSource) Key() string                 { return s.ref }
func (s *stubSource) Reference() string           { return s.ref }
func (s *stubSource) Controller() string          { return "c1" }
func (s *stubSource) Rule() string                { return "r1" }
func (s *stubSource) Interface() types.ValueInterface { return nil }
func (s *stubSource) Value() any                  { return nil }
func (s *stubSource) SourceTime() time.Time       { return time.Time{} }
func (s *stubSource) StatusCode() types.StatusCode { return types.StatusNone }
func (s *stubSource) ApplyObservation(any, time.Time, bool, bool) bool { return false }
func (s *stubSource) Set(any) error                { return nil }
func (s *stubSource) BindSetCallback(types.SetCallback) {}

func TestSourceRegistryUniqueness(t *testing.T) {
	reg := NewSourceRegistry(nil)
	a := &stubSource{ref: "ctrl:dict:tag1"}
	b := &stubSource{ref: "ctrl:dict:tag1"}

	if err := reg.Add(a); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := reg.Add(a); err != nil {
		t.Fatalf("re-add of same instance should be idempotent: %v", err)
	}
	if err := reg.Add(b); err == nil {
		t.Fatalf("expected DuplicateSourceError adding a different instance under the same reference")
	} else if _, ok := err.(*types.DuplicateSourceError); !ok {
		t.Fatalf("expected *types.DuplicateSourceError, got %T", err)
	}

	got, ok := reg.Get("ctrl:dict:tag1")
	if !ok || got != a {
		t.Fatalf("Get returned %v, %v; want the original instance", got, ok)
	}
}

func TestClassRegistry(t *testing.T) {
	classes := NewClassRegistry()
	ctor := func(rule, controller, key string, value any, cfg types.Config) (types.Source, error) {
		return &stubSource{ref: controller + ":dict:" + key}, nil
	}
	if err := classes.RegisterClass("DictSource", ctor); err != nil {
		t.Fatalf("RegisterClass: %v", err)
	}
	if err := classes.RegisterClass("DictSource", ctor); err == nil {
		t.Fatalf("expected error re-registering the same class name")
	}

	s, err := classes.NewSource("DictSource", "r1", "c1", "tag1", nil, types.Config{})
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if s.Reference() != "c1:dict:tag1" {
		t.Fatalf("unexpected reference: %s", s.Reference())
	}

	if _, err := classes.NewSource("Nope", "r1", "c1", "tag1", nil, types.Config{}); err == nil {
		t.Fatalf("expected ConfigError for unknown class")
	}
}
