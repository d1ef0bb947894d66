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
	"time"

	"github.com/gofrs/uuid/v5"
)

// MessageType is the closed taxonomy of payloads carried by the Message Bus
// (spec §4.1).
type MessageType string

const (
	// AddSource: rule -> controller. Payload is AddSourcePayload.
	AddSource MessageType = "ADD_SOURCE"
	// AddParser: rule -> controller. Payload is AddParserPayload.
	AddParser MessageType = "ADD_PARSER"
	// ReadSource: rule -> controller. Payload is ReadSourcePayload.
	ReadSource MessageType = "READ_SOURCE"
	// ReadAll: rule -> controller. Payload is nil (marker only).
	ReadAll MessageType = "READ_ALL"
	// WriteSource: rule -> controller. Payload is WriteSourcePayload.
	WriteSource MessageType = "WRITE_SOURCE"
	// Tick: rule -> controller. Payload is TickPayload.
	Tick MessageType = "TICK"
	// RunExpression: controller -> rule. Payload is RunExpressionPayload.
	RunExpression MessageType = "RUN_EXPRESSION"
)

// Message is the tagged pair (MessageType, payload) that flows through the
// bus. Every Message carries its own correlation ID for tracing and
// statistics, minted with gofrs/uuid the same way the teacher's message type
// mints identifiers.
type Message struct {
	ID      string
	Type    MessageType
	Payload any
}

// NewMessage builds a Message of the given type with a fresh correlation ID.
func NewMessage(t MessageType, payload any) Message {
	id, err := uuid.NewV4()
	if err != nil {
		// uuid.NewV4 only fails if the system entropy source is broken;
		// fall back to a time-based id rather than panic mid-dispatch.
		return Message{ID: time.Now().UTC().Format(time.RFC3339Nano), Type: t, Payload: payload}
	}
	return Message{ID: id.String(), Type: t, Payload: payload}
}

// AddSourcePayload carries a newly materialized Source for the controller to
// adopt.
type AddSourcePayload struct {
	Source Source
}

// AddParserPayload tells a controller which source class it should be ready
// to decode protocol data for.
type AddParserPayload struct {
	TypeName string
}

// ReadSourcePayload requests a refresh of a single adopted source.
type ReadSourcePayload struct {
	Source Source
}

// WriteSourcePayload carries a rule-originated write destined for the
// owning controller.
type WriteSourcePayload struct {
	Source     Source
	Value      any
	SourceTime time.Time
}

// TickPayload carries the heartbeat the rule broadcasts to a controller.
type TickPayload struct {
	Tick *Tick
}

// RunExpressionPayload names the Source whose change triggered this event.
type RunExpressionPayload struct {
	Source Source
}
