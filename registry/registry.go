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

// Package registry implements the Source Registry and source class
// registry described in spec §4.2: the process-wide reference -> Source map
// that enforces at-most-one-live-instance-per-reference, and the type-name
// -> constructor table the Rule Engine uses when materializing sources from
// configuration.
package registry

import (
	"fmt"
	"sync"

	"github.com/bittoy/fieldrule/types"
)

var _ types.SourceRegistry = (*SourceRegistry)(nil)
var _ types.ClassRegistry = (*ClassRegistry)(nil)

// SourceRegistry is the default process-wide Source Registry. Reads
// dominate writes in steady state, so it is backed by a sync.RWMutex rather
// than anything fancier.
type SourceRegistry struct {
	classes *ClassRegistry

	mu      sync.RWMutex
	sources map[string]types.Source
}

// NewSourceRegistry returns an empty SourceRegistry backed by classes. If
// classes is nil, a fresh ClassRegistry is created.
func NewSourceRegistry(classes *ClassRegistry) *SourceRegistry {
	if classes == nil {
		classes = NewClassRegistry()
	}
	return &SourceRegistry{
		classes: classes,
		sources: make(map[string]types.Source),
	}
}

// Add registers instance under instance.Reference(). Re-adding the exact
// same instance is a no-op success; adding a different instance under an
// already-registered reference fails with *types.DuplicateSourceError
// (spec §4.2, invariant 1 in §8).
func (r *SourceRegistry) Add(instance types.Source) error {
	ref := instance.Reference()

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sources[ref]; ok {
		if existing == instance {
			return nil
		}
		return &types.DuplicateSourceError{Reference: ref}
	}
	r.sources[ref] = instance
	return nil
}

// Has reports whether reference is registered.
func (r *SourceRegistry) Has(reference string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sources[reference]
	return ok
}

// Get returns the instance registered under reference, if any.
func (r *SourceRegistry) Get(reference string) (types.Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[reference]
	return s, ok
}

// Classes returns the source class registry backing this SourceRegistry.
func (r *SourceRegistry) Classes() types.ClassRegistry {
	return r.classes
}

// ClassRegistry is the default registry of source classes (parsers),
// keyed by type name (spec §6).
type ClassRegistry struct {
	mu      sync.RWMutex
	classes map[string]types.SourceClassCtor
}

// NewClassRegistry returns an empty ClassRegistry.
func NewClassRegistry() *ClassRegistry {
	return &ClassRegistry{classes: make(map[string]types.SourceClassCtor)}
}

// RegisterClass adds ctor under typeName. Registering the same typeName
// twice is an error, mirroring the component registry's "already exists"
// contract.
func (c *ClassRegistry) RegisterClass(typeName string, ctor types.SourceClassCtor) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.classes[typeName]; ok {
		return fmt.Errorf("registry: source class %q already registered", typeName)
	}
	c.classes[typeName] = ctor
	return nil
}

// HasClass reports whether typeName is registered.
func (c *ClassRegistry) HasClass(typeName string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.classes[typeName]
	return ok
}

// NewSource materializes a new Source of the given class. Returns a
// *types.ConfigError if typeName is unregistered, since an unresolved
// source type is a setup-fatal condition (spec §4.4, §7).
func (c *ClassRegistry) NewSource(typeName, rule, controller, key string, value any, cfg types.Config) (types.Source, error) {
	c.mu.RLock()
	ctor, ok := c.classes[typeName]
	c.mu.RUnlock()
	if !ok {
		return nil, types.NewConfigError(typeName, fmt.Errorf("unknown source class"))
	}
	return ctor(rule, controller, key, value, cfg)
}
