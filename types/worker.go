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

import "context"

// Controller is a long-running worker bound to one external protocol
// endpoint (spec §2, §4.3). Run must honor ctx: when ctx is canceled, the
// controller performs protocol-specific teardown and returns.
type Controller interface {
	// Name is the controller's unique name, used as its bus queue name and
	// as the "controller" field of every Source it adopts.
	Name() string
	// Run services the incoming queue and polls adopted sources until ctx
	// is canceled. It must return within the configured dequeue timeout
	// plus whatever protocol-specific teardown takes (spec §8, property 6).
	Run(ctx context.Context) error
}

// ControllerFactory builds a named Controller instance bound to cfg (spec
// §6, "controller registration").
type ControllerFactory func(name string, cfg Config) (Controller, error)

// ControllerRegistry resolves a controller type name to its factory.
type ControllerRegistry interface {
	RegisterController(typeName string, factory ControllerFactory) error
	NewController(typeName, name string, cfg Config) (Controller, error)
}

// Rule is a long-running worker that hosts expressions (spec §2, §4.4).
type Rule interface {
	// Name is the rule's unique name, used as its bus queue name.
	Name() string
	// Run services the incoming queue, dispatching RUN_EXPRESSION messages
	// to the expressions registered against the triggering source's
	// reference, until ctx is canceled.
	Run(ctx context.Context) error
}
