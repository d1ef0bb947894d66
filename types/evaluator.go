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

// Program is an opaque compiled expression, as returned by an Evaluator's
// Compile. Its concrete type is evaluator-specific (e.g. a goja.Program or
// an expr-lang *vm.Program).
type Program any

// Evaluator is the boundary interface to the expression language described
// in spec §6: "run expression with these source arguments". Distilled
// spec.md treats the language itself as an external collaborator; SPEC_FULL
// wires two concrete evaluators (ExprEvaluator, JSEvaluator) against it.
//
// Compile reports a parse failure as *EvaluatorError. Run returns the
// evaluator's own error unwrapped; the Rule Engine counts and logs it. A
// failing expression must never panic the calling Rule worker (spec §4.4).
type Evaluator interface {
	// Name identifies the evaluator for diagnostics, e.g. "expr", "js".
	Name() string
	// Compile parses source into a reusable Program. Called once per
	// expression at setup.
	Compile(id string, source string) (Program, error)
	// Run executes program with args bound as the expression's ordered
	// source arguments. Implementations read args[i].Value() and may call
	// args[i].Set(v) to request a write-back.
	Run(ctx context.Context, program Program, args []Source) error
}

// Expression is a user-authored evaluator bound to an ordered list of Source
// arguments (spec §3, §6). The same Expression may be registered against
// several sources' expressions-by-reference entries.
type Expression interface {
	// ID identifies the expression for diagnostics and EvaluatorError
	// reporting.
	ID() string
	// AddArg appends a bound Source argument.
	AddArg(src Source)
	// Args returns the bound argument list in declaration order.
	Args() []Source
	// Run invokes the bound evaluator's Program against Args().
	Run(ctx context.Context) error
}
