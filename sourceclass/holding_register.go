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
	"fmt"
	"reflect"

	"github.com/fatih/structs"
	"github.com/mitchellh/mapstructure"

	"github.com/bittoy/fieldrule/source"
	"github.com/bittoy/fieldrule/types"
)

// HoldingRegisterTypeName is the registered name of HoldingRegisterSource.
const HoldingRegisterTypeName = "HoldingRegisterSource"

// HoldingRegisterOptions is the per-source configuration for a Modbus
// holding-register-backed source, bound from types.Configuration with
// mapstructure -- the same "convert the configuration map to your
// component's configuration struct" step the teacher's Node.Init
// documentation prescribes.
type HoldingRegisterOptions struct {
	// UnitID is the Modbus unit/slave identifier.
	UnitID uint8 `mapstructure:"unitId"`
	// Address is the starting register address.
	Address uint16 `mapstructure:"address"`
	// Width is the number of 16-bit registers this source spans (1 for a
	// single register, 2 for a 32-bit value, ...).
	Width int `mapstructure:"width"`
}

// DecodeHoldingRegisterOptions binds raw into a HoldingRegisterOptions,
// defaulting Width to 1 when unset.
func DecodeHoldingRegisterOptions(raw types.Configuration) (HoldingRegisterOptions, error) {
	var opts HoldingRegisterOptions
	if err := mapstructure.Decode(map[string]any(raw), &opts); err != nil {
		return opts, fmt.Errorf("holding register options: %w", err)
	}
	if opts.Width <= 0 {
		opts.Width = 1
	}
	return opts, nil
}

// Fields flattens opts into a map for diagnostics/admin surfaces, using
// fatih/structs the way the statistics sink flattens its snapshot struct
// (SPEC_FULL §3.2).
func (opts HoldingRegisterOptions) Fields() map[string]any {
	return structs.Map(opts)
}

// holdingRegisterInterface compares register slices ([]uint16) by value.
type holdingRegisterInterface struct{}

func (holdingRegisterInterface) Name() string { return "holdingRegister" }

func (holdingRegisterInterface) Equal(a, b any) bool {
	ra, aok := a.([]uint16)
	rb, bok := b.([]uint16)
	if aok && bok {
		return reflect.DeepEqual(ra, rb)
	}
	return a == b
}

// NewHoldingRegisterSource is the types.SourceClassCtor registered under
// HoldingRegisterTypeName. value, if provided, is expected to be a
// types.Configuration carrying unitId/address/width; decode failures are
// setup-fatal (spec §4.4, "failure to resolve a source's ... type at setup
// raises a setup-fatal error").
func NewHoldingRegisterSource(rule, controller, key string, value any, _ types.Config) (types.Source, error) {
	if cfg, ok := value.(types.Configuration); ok {
		if _, err := DecodeHoldingRegisterOptions(cfg); err != nil {
			return nil, err
		}
	}
	return source.NewBaseSource(controller, HoldingRegisterTypeName, key, rule, holdingRegisterInterface{}), nil
}
