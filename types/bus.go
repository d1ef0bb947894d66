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
	"context"
	"time"
)

// Bus is a collection of bounded, named FIFO queues, one per worker (spec
// §4.1). No ordering is guaranteed across queues; within one queue, delivery
// is strict FIFO.
type Bus interface {
	// NewQueue registers a named queue with the given capacity. Calling it
	// twice for the same name is an error.
	NewQueue(name string, capacity int) error

	// Enqueue appends msg to the named queue. If the queue is at capacity,
	// Enqueue blocks until space is available or ctx is done, in which
	// case it returns ctx.Err(). This is the bus's intentional
	// backpressure: a stuck consumer blocks its producers rather than
	// growing memory without bound.
	Enqueue(ctx context.Context, queue string, msg Message) error

	// Dequeue blocks for up to timeout waiting for a message on the named
	// queue. It returns (msg, true, nil) if one arrived, (zero, false,
	// nil) on timeout, and (zero, false, err) if ctx was canceled first.
	Dequeue(ctx context.Context, queue string, timeout time.Duration) (Message, bool, error)

	// Len reports the current depth of the named queue, for statistics and
	// tests.
	Len(queue string) int
}
