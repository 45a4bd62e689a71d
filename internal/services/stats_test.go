package services

import (
	"strings"
	"testing"
)

func TestRunStatsCountsDistinctSources(t *testing.T) {
	s := NewRunStats()
	s.RecordScanned()
	s.RecordScanned()

	if !s.RecordTarget("photos/a.jpg") {
		t.Fatalf("first output for a source should be reported as new")
	}
	if s.RecordTarget("photos/./a.jpg") {
		t.Fatalf("same source after cleaning should not be new")
	}
	if !s.RecordTarget("photos/b.jpg") {
		t.Fatalf("second source should be new")
	}

	if s.Scanned() != 2 || s.Sources() != 2 || s.Targets() != 3 {
		t.Fatalf("unexpected counters scanned=%d sources=%d targets=%d", s.Scanned(), s.Sources(), s.Targets())
	}
}

func TestRunStatsReport(t *testing.T) {
	s := NewRunStats()
	s.RecordScanned()
	s.RecordTarget("a.jpg")

	lines := s.Report()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for i, want := range []string{"Scan Count:   1", "Source Count: 1", "Target Count: 1"} {
		if !strings.Contains(lines[i], want) {
			t.Errorf("line %d = %q, want it to contain %q", i, lines[i], want)
		}
	}
}
