package sourceclass

import (
	"testing"

	"github.com/bittoy/fieldrule/registry"
	"github.com/bittoy/fieldrule/types"
)

func TestRegisterAllAndDedupeViaRegistry(t *testing.T) {
	classes := registry.NewClassRegistry()
	if err := RegisterAll(classes); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}

	reg := registry.NewSourceRegistry(classes)

	s1, err := reg.Classes().NewSource(VariantTypeName, "rule1", "ctrl1", "tagA", nil, types.Config{})
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if err := reg.Add(s1); err != nil {
		t.Fatalf("Add: %v", err)
	}

	s2, err := reg.Classes().NewSource(VariantTypeName, "rule2", "ctrl1", "tagA", nil, types.Config{})
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	// s2 has the same (controller, type, key) so it collides with s1's
	// reference, even though it's a distinct instance.
	if err := reg.Add(s2); err == nil {
		t.Fatalf("expected DuplicateSourceError for colliding reference")
	}
}

func TestHoldingRegisterOptionsDefaults(t *testing.T) {
	opts, err := DecodeHoldingRegisterOptions(types.Configuration{
		"unitId":  1,
		"address": 100,
	})
	if err != nil {
		t.Fatalf("DecodeHoldingRegisterOptions: %v", err)
	}
	if opts.Width != 1 {
		t.Fatalf("expected default width 1, got %d", opts.Width)
	}
	if opts.UnitID != 1 || opts.Address != 100 {
		t.Fatalf("unexpected options: %+v", opts)
	}
}

func TestDictInterfaceDeepEquality(t *testing.T) {
	iface := dictInterface{}
	a := map[string]any{"x": 1, "y": []any{"a", "b"}}
	b := map[string]any{"x": 1, "y": []any{"a", "b"}}
	c := map[string]any{"x": 2}

	if !iface.Equal(a, b) {
		t.Fatalf("expected deep-equal maps to compare equal")
	}
	if iface.Equal(a, c) {
		t.Fatalf("expected differing maps to compare unequal")
	}
}
