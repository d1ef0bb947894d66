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

package sourceclass

import (
	"reflect"

	"github.com/bittoy/fieldrule/source"
	"github.com/bittoy/fieldrule/types"
)

// DictTypeName is the registered name of DictSource.
const DictTypeName = "DictSource"

// dictInterface compares structured (map[string]any-shaped) values with
// reflect.DeepEqual. Spec §9 requires a well-defined deep equality for
// structured values rather than pointer identity; reflect.DeepEqual is the
// standard library's answer and no pack dependency offers a narrower one for
// arbitrary map/slice trees (see DESIGN.md).
type dictInterface struct{}

func (dictInterface) Name() string { return "dict" }

func (dictInterface) Equal(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// NewDictSource is the types.SourceClassCtor registered under DictTypeName.
// It backs structured sources such as an OPC UA complex type or a JSON MQTT
// payload.
func NewDictSource(rule, controller, key string, value any, _ types.Config) (types.Source, error) {
	if value == nil {
		value = map[string]any{}
	}
	return source.NewBaseSource(controller, DictTypeName, key, rule, dictInterface{}), nil
}
