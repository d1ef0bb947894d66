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

// Package sourceclass provides the concrete source classes (parsers)
// described in spec §6: DictSource, VariantSource, and
// HoldingRegisterSource. Each registers itself under a stable type name and
// exposes a types.SourceClassCtor.
package sourceclass

import (
	"github.com/bittoy/fieldrule/source"
	"github.com/bittoy/fieldrule/types"
)

// VariantTypeName is the registered name of VariantSource.
const VariantTypeName = "VariantSource"

// variantInterface compares scalar numeric/bool/string values by ordinary
// Go equality. Values that arrive as different numeric types (e.g. int32
// from one controller, float64 from another) are normalized to float64
// first so "42" and "42.0" compare equal across protocol boundaries.
type variantInterface struct{}

func (variantInterface) Name() string { return "variant" }

func (variantInterface) Equal(a, b any) bool {
	na, aok := toFloat(a)
	nb, bok := toFloat(b)
	if aok && bok {
		return na == nb
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint16:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// VariantSource is a scalar numeric/bool/string data point: the simplest
// source class, typically backed by an OPC UA variant or an MQTT scalar
// payload.
//
// NewVariantSource is the types.SourceClassCtor registered under
// VariantTypeName.
func NewVariantSource(rule, controller, key string, value any, _ types.Config) (types.Source, error) {
	s := source.NewBaseSource(controller, VariantTypeName, key, rule, variantInterface{})
	return s, nil
}
