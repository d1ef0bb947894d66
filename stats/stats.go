// Package stats implements the process-wide statistics sink described in
// spec §5/§6: a counter map touched from many workers, where atomicity per
// key is sufficient (spec §5, "Statistics counters are a process-wide
// mapping ... atomicity per key is sufficient").
package stats

import (
	"sync"

	"github.com/fatih/structs"

	"github.com/bittoy/fieldrule/types"
)

// Sink is the default types.StatsSink: a mutex-guarded counter map. A
// sync.Map was considered and rejected -- Snapshot needs a consistent full
// read, which sync.Map does not make cheaper than a regular map under a
// Mutex for this access pattern.
type Sink struct {
	mu       sync.Mutex
	counters map[string]int64
}

// New returns an empty Sink.
func New() *Sink {
	return &Sink{counters: make(map[string]int64)}
}

// Incr adds delta to the named counter.
func (s *Sink) Incr(name string, delta int64) {
	s.mu.Lock()
	s.counters[name] += delta
	s.mu.Unlock()
}

// Snapshot returns a point-in-time copy of every counter.
func (s *Sink) Snapshot() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.counters))
	for k, v := range s.counters {
		out[k] = v
	}
	return out
}

// Summary is a fixed set of counters most admin/diagnostic surfaces care
// about, flattened from a Snapshot via fatih/structs the way
// sourceclass.HoldingRegisterOptions.Fields flattens its own options.
type Summary struct {
	ObservationsTotal        int64
	RunExpressionEmittedTotal int64
	EvaluatorErrorsTotal     int64
	BusFullTotal             int64
}

// Summarize pulls the well-known counters out of a Snapshot into a Summary,
// leaving zero for any that were never touched.
func Summarize(snapshot map[string]int64) Summary {
	return Summary{
		ObservationsTotal:         snapshot["observations_total"],
		RunExpressionEmittedTotal: snapshot["run_expression_emitted_total"],
		EvaluatorErrorsTotal:      snapshot["evaluator_errors_total"],
		BusFullTotal:              snapshot["bus_full_total"],
	}
}

// Fields flattens a Summary into a map for diagnostics/admin surfaces.
func (s Summary) Fields() map[string]any {
	return structs.Map(s)
}

var _ types.StatsSink = (*Sink)(nil)
