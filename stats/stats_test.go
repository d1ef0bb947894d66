package stats

import "testing"

func TestIncrAndSnapshot(t *testing.T) {
	s := New()
	s.Incr("observations_total", 3)
	s.Incr("observations_total", 2)
	s.Incr("evaluator_errors_total", 1)

	snap := s.Snapshot()
	if snap["observations_total"] != 5 {
		t.Fatalf("expected observations_total=5, got %d", snap["observations_total"])
	}
	if snap["evaluator_errors_total"] != 1 {
		t.Fatalf("expected evaluator_errors_total=1, got %d", snap["evaluator_errors_total"])
	}
}

func TestSummarizeAndFields(t *testing.T) {
	s := New()
	s.Incr("observations_total", 10)
	s.Incr("bus_full_total", 2)

	summary := Summarize(s.Snapshot())
	if summary.ObservationsTotal != 10 || summary.BusFullTotal != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	fields := summary.Fields()
	if fields["ObservationsTotal"] != int64(10) {
		t.Fatalf("expected Fields to expose ObservationsTotal, got %v", fields["ObservationsTotal"])
	}
}
