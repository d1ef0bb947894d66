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

import (
	"errors"
	"fmt"
)

// ErrInterrupted is the sentinel for the "interrupted" error category. The
// bus's blocking operations do not return it: an interrupted Enqueue or
// Dequeue returns the context's own error (ctx.Err()).
var ErrInterrupted = errors.New("fieldrule: interrupted")

// ConfigError is a setup-time misconfiguration: an unknown controller, an
// unknown source class, or a rule that could not be resolved. ConfigError is
// always fatal at startup (spec §7).
type ConfigError struct {
	Subject string // the controller, rule, or source key that failed to resolve
	Cause   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Subject, e.Cause)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// NewConfigError wraps cause as a ConfigError about subject.
func NewConfigError(subject string, cause error) *ConfigError {
	return &ConfigError{Subject: subject, Cause: cause}
}

// DuplicateSourceError is raised by the Source Registry when add() is called
// with a reference that already names a different live instance (spec §4.2).
type DuplicateSourceError struct {
	Reference string
}

func (e *DuplicateSourceError) Error() string {
	return fmt.Sprintf("duplicate source: reference %q already registered", e.Reference)
}

// ProtocolError is a recoverable external-protocol error: disconnect,
// timeout, malformed payload. It is logged and retried per adapter policy
// and never propagates past the owning controller (spec §7).
type ProtocolError struct {
	Controller string
	Cause      error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error on controller %q: %s", e.Controller, e.Cause)
}

func (e *ProtocolError) Unwrap() error { return e.Cause }

// NewProtocolError wraps cause as a ProtocolError from the named controller.
func NewProtocolError(controller string, cause error) *ProtocolError {
	return &ProtocolError{Controller: controller, Cause: cause}
}

// EvaluatorError wraps a failure raised by an Expression's evaluator. It is
// counted and logged by the Rule Engine; it never stops the rule worker
// (spec §4.4, §7).
type EvaluatorError struct {
	ExpressionID string
	Cause        error
}

func (e *EvaluatorError) Error() string {
	return fmt.Sprintf("evaluator error in expression %q: %s", e.ExpressionID, e.Cause)
}

func (e *EvaluatorError) Unwrap() error { return e.Cause }

// BusFullError describes a producer blocked on a queue at capacity. The
// in-memory bus does not return it: a blocked Enqueue waits for space and,
// if its context is canceled first, returns the context's error.
type BusFullError struct {
	Queue string
}

func (e *BusFullError) Error() string {
	return fmt.Sprintf("bus queue %q is full", e.Queue)
}
