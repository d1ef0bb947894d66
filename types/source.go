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

package types

import "time"

// StatusCode is a Source's position in the state machine from spec §3:
//
//	NONE -> INITIAL -> GOOD <-> INVALID
//
// A bad observation seen while still NONE leaves the source at NONE; it
// never "arms" a source that has not yet reported anything real.
type StatusCode int

const (
	// StatusNone means no value has ever been observed.
	StatusNone StatusCode = iota
	// StatusInitial means the first good observation has landed. An
	// INITIAL update always fires a downstream RUN_EXPRESSION.
	StatusInitial
	// StatusGood means a good observation has landed and the source
	// previously held INITIAL, GOOD or INVALID status.
	StatusGood
	// StatusInvalid means the most recent observation was bad and the
	// source had previously observed at least one good value.
	StatusInvalid
)

func (s StatusCode) String() string {
	switch s {
	case StatusNone:
		return "NONE"
	case StatusInitial:
		return "INITIAL"
	case StatusGood:
		return "GOOD"
	case StatusInvalid:
		return "INVALID"
	default:
		return "UNKNOWN"
	}
}

// ValueInterface describes how a source's value type is compared and,
// where needed, coerced. Structured values require a well-defined deep
// equality; Equal must not rely on pointer identity (spec §9).
type ValueInterface interface {
	// Name identifies the interface for diagnostics, e.g. "dict", "variant".
	Name() string
	// Equal reports whether a and b are the same value under this
	// interface's comparison rules.
	Equal(a, b any) bool
}

// SetCallback is invoked when a rule-side expression mutates a Source's
// value. Implementations enqueue a WRITE_SOURCE message on the owning
// controller's queue; the callback must never mutate the Source directly
// (spec §9, "callback-driven mutation").
type SetCallback func(newValue any, sourceTime time.Time) error

// Source is a single external data point (spec §3). The Source Registry
// owns the single live instance per reference; every other component holds
// a non-owning reference to it.
//
// Source implementations must be safe for concurrent access: the owning
// Controller mutates value/time/status from its own goroutine, while
// expressions call Value()/StatusCode()/Set() concurrently from the Rule
// worker.
type Source interface {
	// Key is the opaque configuration-supplied identifier.
	Key() string
	// Reference is the canonical (controller, type, key) identity string
	// used for deduplication by the Source Registry.
	Reference() string
	// Controller is the name of the owning controller. Immutable after
	// registration.
	Controller() string
	// Rule is the name of the owning rule, or "*" for any rule.
	// Immutable after registration.
	Rule() string
	// Interface returns the value-type descriptor used for coercion and
	// equality comparisons.
	Interface() ValueInterface

	// Value returns the current value.
	Value() any
	// SourceTime returns the UTC timestamp of the last observed value.
	SourceTime() time.Time
	// StatusCode returns the current state-machine position.
	StatusCode() StatusCode

	// ApplyObservation mutates value/time/status directly according to the
	// §4.3 transition table. It is the single mutation primitive a
	// Controller uses, both for protocol-sourced updates and for applying
	// a WRITE_SOURCE. It returns fire=true exactly when a downstream
	// RUN_EXPRESSION should be emitted.
	ApplyObservation(value any, sourceTime time.Time, statusOK bool, oldNewCheck bool) (fire bool)

	// Set is called by an expression to request a new value. It never
	// mutates the source; it forwards to the bound SetCallback, which
	// turns the request into a WRITE_SOURCE message on the bus.
	Set(value any) error
	// BindSetCallback installs the callback used by Set. Called once by
	// the Rule Engine at setup, before the source is handed to any
	// expression.
	BindSetCallback(cb SetCallback)
}

// SourceClassCtor builds a new Source instance for a registered source
// class (spec §6, "source class registration"). rule and controller are the
// resolved owner names; key is the configuration-supplied identifier; value
// is the raw initial value from configuration (possibly nil).
type SourceClassCtor func(rule, controller, key string, value any, cfg Config) (Source, error)

// ClassRegistry resolves a source class (parser) name to its constructor.
type ClassRegistry interface {
	// RegisterClass adds a class under typeName. Re-registering the same
	// typeName returns an error.
	RegisterClass(typeName string, ctor SourceClassCtor) error
	// NewSource materializes a new Source of the given class.
	NewSource(typeName, rule, controller, key string, value any, cfg Config) (Source, error)
	// HasClass reports whether typeName is registered.
	HasClass(typeName string) bool
}

// SourceRegistry is the process-wide reference -> Source map (spec §4.2).
// Implementations must be safe for concurrent reads and writes; writes are
// confined to setup and to each controller's ADD_SOURCE handler.
type SourceRegistry interface {
	// Add registers instance under its Reference(). It is idempotent if
	// the same instance is re-added, and returns a *DuplicateSourceError
	// if a different instance already holds the reference.
	Add(instance Source) error
	// Has reports whether reference is registered.
	Has(reference string) bool
	// Get returns the instance registered under reference, if any.
	Get(reference string) (Source, bool)
	// Classes returns the class registry shared by this Source Registry.
	Classes() ClassRegistry
}
