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
	"sync"
	"time"
)

// Tick is a (controller_name, last_tick_time) pair (spec §3, §4.5). It is
// mutated only by the controller that receives it and observed by the rule
// for liveness telemetry.
type Tick struct {
	controller string

	mu       sync.Mutex
	lastTick time.Time
}

// NewTick returns a Tick for the named controller, initialized to now.
func NewTick(controller string) *Tick {
	return &Tick{controller: controller, lastTick: time.Now().UTC()}
}

// Controller returns the owning controller's name.
func (t *Tick) Controller() string {
	return t.controller
}

// Acknowledge records that the controller has just serviced a TICK message.
// Called only by the owning controller's TICK handler.
func (t *Tick) Acknowledge() {
	t.mu.Lock()
	t.lastTick = time.Now().UTC()
	t.mu.Unlock()
}

// LastTick returns the last time the controller acknowledged a tick.
func (t *Tick) LastTick() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastTick
}

// TimeDiff returns how long it has been since the controller last
// acknowledged a tick -- the controller's apparent lag.
func (t *Tick) TimeDiff() time.Duration {
	return time.Since(t.LastTick())
}
