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

// Config is the shared context handed to every Controller and Rule at
// construction time. It carries the process-wide collaborators described in
// spec §6: configuration lookup, the Message Bus, the Source Registry, and
// the statistics sink.
//
// Config follows the functional-options pattern: build one with NewConfig and
// zero or more Option values.
type Config struct {
	// SourceRegistry is the process-wide reference -> Source map (spec §4.2).
	SourceRegistry SourceRegistry
	// ClassRegistry resolves a source class (parser) name to its constructor
	// (spec §6, "source class registration").
	ClassRegistry ClassRegistry
	// Bus is the named-queue message bus shared by every controller and rule
	// (spec §4.1).
	Bus Bus
	// Logger is the logging sink, defaulting to DefaultLogger().
	Logger Logger
	// Properties are global key/value properties carried alongside the other
	// collaborators. Nothing in this module reads them or substitutes them
	// into controller or source options.
	Properties Properties
	// Stats is the process-wide statistics sink (spec §5, "Statistics
	// counters are a process-wide mapping, touched from many workers").
	Stats StatsSink
}

// Option mutates a Config during construction.
type Option func(*Config) error

// NewConfig builds a Config with sane defaults and applies opts in order.
func NewConfig(opts ...Option) Config {
	c := &Config{
		Logger:     DefaultLogger(),
		Properties: NewProperties(),
	}
	for _, opt := range opts {
		_ = opt(c)
	}
	return *c
}

// WithSourceRegistry sets the Source Registry.
func WithSourceRegistry(r SourceRegistry) Option {
	return func(c *Config) error {
		c.SourceRegistry = r
		return nil
	}
}

// WithClassRegistry sets the source class registry.
func WithClassRegistry(r ClassRegistry) Option {
	return func(c *Config) error {
		c.ClassRegistry = r
		return nil
	}
}

// WithBus sets the message bus.
func WithBus(b Bus) Option {
	return func(c *Config) error {
		c.Bus = b
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// WithProperties sets the global properties map.
func WithProperties(properties Properties) Option {
	return func(c *Config) error {
		c.Properties = properties
		return nil
	}
}

// WithStats sets the statistics sink.
func WithStats(stats StatsSink) Option {
	return func(c *Config) error {
		c.Stats = stats
		return nil
	}
}

// Properties is a simple key/value map used for global substitution values.
// 键值格式的全局属性
type Properties map[string]any

// NewProperties returns an empty Properties map.
func NewProperties() Properties {
	return make(Properties)
}

// Copy returns a shallow copy of the Properties map.
func (p Properties) Copy() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// GetValue returns the value for key, or nil if absent.
func (p Properties) GetValue(key string) any {
	return p[key]
}

// Configuration is the per-item configuration map for a source or controller,
// lifted from the rule chain DSL in the teacher and, here, from the logical
// configuration described in spec §6.
type Configuration map[string]any

// Copy returns a shallow copy of the Configuration map.
func (c Configuration) Copy() Configuration {
	if c == nil {
		return nil
	}
	cp := make(Configuration, len(c))
	for k, v := range c {
		cp[k] = v
	}
	return cp
}

// StatsSink is the process-wide statistics counter surface (spec §5, §6).
// Implementations must be safe for concurrent use; atomicity per key is
// sufficient (no cross-key transactions are required).
type StatsSink interface {
	// Incr adds delta to the named counter.
	Incr(name string, delta int64)
	// Snapshot returns a point-in-time copy of all counters.
	Snapshot() map[string]int64
}
