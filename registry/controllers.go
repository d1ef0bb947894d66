package registry

import (
	"fmt"
	"sync"

	"github.com/bittoy/fieldrule/types"
)

var _ types.ControllerRegistry = (*ControllerRegistry)(nil)

// ControllerRegistry resolves a controller type name to the factory that
// builds it, mirroring Controllers.py's CONTROLLERDICT/register() decorator
// (spec §6, "Controller registration").
type ControllerRegistry struct {
	mu        sync.RWMutex
	factories map[string]types.ControllerFactory
}

// NewControllerRegistry returns an empty ControllerRegistry.
func NewControllerRegistry() *ControllerRegistry {
	return &ControllerRegistry{factories: make(map[string]types.ControllerFactory)}
}

// RegisterController adds factory under typeName. Registering the same
// typeName twice is an error.
func (r *ControllerRegistry) RegisterController(typeName string, factory types.ControllerFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[typeName]; ok {
		return fmt.Errorf("registry: controller %q already registered", typeName)
	}
	r.factories[typeName] = factory
	return nil
}

// Has reports whether typeName has a registered factory.
func (r *ControllerRegistry) Has(typeName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[typeName]
	return ok
}

// NewController builds a Controller of the registered class typeName, named
// name, bound to cfg. name and typeName differ when the instance was created
// through a controller_aliases entry (spec §6); otherwise they are the same
// string.
func (r *ControllerRegistry) NewController(typeName, name string, cfg types.Config) (types.Controller, error) {
	r.mu.RLock()
	factory, ok := r.factories[typeName]
	r.mu.RUnlock()
	if !ok {
		return nil, types.NewConfigError(typeName, fmt.Errorf("unknown controller type"))
	}
	return factory(name, cfg)
}

// Bootstrap builds the set of running Controllers from the two top-level
// configuration dictionaries spec §6 requires: "controllers" (name ->
// enabled flag) and "controller_aliases" (alias -> origin). It mirrors
// Controllers.py's load()/init() pair: load() walks "controllers" to decide
// which registered classes actually start, then walks "controller_aliases"
// to give an already-registered class a second running instance under a
// different name; init() is the construction step itself.
type Bootstrap struct {
	classes *ControllerRegistry
	cfg     types.Config
}

// NewBootstrap returns a Bootstrap that resolves controller classes from
// classes and binds each built instance to cfg.
func NewBootstrap(classes *ControllerRegistry, cfg types.Config) *Bootstrap {
	return &Bootstrap{classes: classes, cfg: cfg}
}

// Build returns one Controller per name in enabled whose flag is true, plus
// one Controller per alias in aliases whose origin names an enabled (or
// otherwise registered) controller class -- the alias runs under its own
// name and bus queue but is built from the origin's factory, exactly as
// Controllers.py's `self.items[name] = self.items[origin]` reuses the origin
// class under the alias name. An alias whose origin has no registered
// factory, or a name enabled with no registered factory, is a setup-fatal
// ConfigError (spec §7).
func (b *Bootstrap) Build(enabled map[string]bool, aliases map[string]string) ([]types.Controller, error) {
	var out []types.Controller

	for name, on := range enabled {
		if !on {
			continue
		}
		c, err := b.classes.NewController(name, name, b.cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	for alias, origin := range aliases {
		if !b.classes.Has(origin) {
			return nil, types.NewConfigError(alias, fmt.Errorf("controller_aliases: origin %q not registered", origin))
		}
		c, err := b.classes.NewController(origin, alias, b.cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	return out, nil
}
