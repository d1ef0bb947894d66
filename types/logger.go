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
	"log"
	"os"
)

// Logger is the logging sink used throughout the runtime. It intentionally
// mirrors the stdlib log.Logger's Printf signature so the default
// implementation needs no adapter.
type Logger interface {
	Printf(format string, v ...any)
}

// DefaultLogger returns a Logger backed by the standard library's log
// package, writing to stderr with a timestamp prefix.
func DefaultLogger() Logger {
	return log.New(os.Stderr, "[fieldrule] ", log.LstdFlags)
}
