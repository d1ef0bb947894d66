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

// Package source implements the Source type from spec §3: the status state
// machine, identity by reference, and the callback-driven write path rule
// expressions use to request a value change.
package source

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bittoy/fieldrule/types"
)

var _ types.Source = (*BaseSource)(nil)

// Reference builds the canonical (controller, source type, key) identity
// string used for deduplication (spec §3).
func Reference(controller, typeName, key string) string {
	return fmt.Sprintf("%s:%s:%s", controller, typeName, key)
}

// BaseSource is the concrete Source implementation shared by every source
// class. Source classes (DictSource, VariantSource, HoldingRegisterSource,
// ...) embed a *BaseSource and supply their own types.ValueInterface.
type BaseSource struct {
	key        string
	reference  string
	controller string
	rule       string
	iface      types.ValueInterface

	mu         sync.Mutex
	value      any
	sourceTime time.Time
	status     types.StatusCode
	setCB      types.SetCallback
}

// NewBaseSource constructs a BaseSource identified by (controller, typeName,
// key), owned by rule, comparing values with iface. The source starts at
// StatusNone with a nil value, per spec §3's invariant that status_code ==
// NONE iff no value has ever been observed.
func NewBaseSource(controller, typeName, key, rule string, iface types.ValueInterface) *BaseSource {
	return &BaseSource{
		key:        key,
		reference:  Reference(controller, typeName, key),
		controller: controller,
		rule:       rule,
		iface:      iface,
		status:     types.StatusNone,
	}
}

func (s *BaseSource) Key() string                     { return s.key }
func (s *BaseSource) Reference() string               { return s.reference }
func (s *BaseSource) Controller() string              { return s.controller }
func (s *BaseSource) Rule() string                     { return s.rule }
func (s *BaseSource) Interface() types.ValueInterface { return s.iface }

func (s *BaseSource) Value() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *BaseSource) SourceTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sourceTime
}

func (s *BaseSource) StatusCode() types.StatusCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// ApplyObservation implements the old/new suppression and status transition
// table of spec §4.3 (update_source_instance_value). It is the only
// primitive that mutates value/time/status, and only a Controller should
// call it -- spec §3's invariant that only a Controller may move a source
// out of NONE.
func (s *BaseSource) ApplyObservation(value any, sourceTime time.Time, statusOK bool, oldNewCheck bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevValue, prevStatus := s.value, s.status

	if statusOK {
		if oldNewCheck && s.equal(prevValue, value) && (prevStatus == types.StatusGood || prevStatus == types.StatusInitial) {
			return false
		}
		s.value = value
		s.sourceTime = sourceTime
		if prevStatus == types.StatusNone {
			s.status = types.StatusInitial
		} else {
			s.status = types.StatusGood
		}
		return true
	}

	// Bad observation: never fires, and never arms a source that hasn't
	// yet seen a real value.
	if oldNewCheck && s.equal(prevValue, value) && prevStatus == types.StatusInvalid {
		return false
	}
	s.value = value
	s.sourceTime = sourceTime
	if prevStatus != types.StatusNone {
		s.status = types.StatusInvalid
	}
	return false
}

func (s *BaseSource) equal(a, b any) bool {
	if s.iface == nil {
		return a == b
	}
	return s.iface.Equal(a, b)
}

// Set is the expression-facing write path: it never mutates the source
// directly, it forwards to the bound SetCallback, which the Rule Engine
// wires at setup to enqueue a WRITE_SOURCE on the owning controller's queue
// (spec §9, "callback-driven mutation").
func (s *BaseSource) Set(value any) error {
	s.mu.Lock()
	cb := s.setCB
	s.mu.Unlock()
	if cb == nil {
		return errors.New("source: no set callback bound")
	}
	return cb(value, time.Now().UTC())
}

// BindSetCallback installs cb. Called once by the Rule Engine at setup,
// before the source is handed to any expression.
func (s *BaseSource) BindSetCallback(cb types.SetCallback) {
	s.mu.Lock()
	s.setCB = cb
	s.mu.Unlock()
}
