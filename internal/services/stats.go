package services

import (
	"fmt"
	"path/filepath"
)

// RunStats accumulates the counters reported at the end of a run.
type RunStats struct {
	scanned int
	targets int

	// sources holds each source path that produced at least one output
	sources map[string]struct{}
}

func NewRunStats() *RunStats {
	return &RunStats{sources: make(map[string]struct{})}
}

// RecordScanned counts a file that passed the extension filter.
func (s *RunStats) RecordScanned() {
	s.scanned++
}

// RecordTarget counts a written output for source. It reports whether this
// is the first output recorded for that source.
func (s *RunStats) RecordTarget(source string) bool {
	s.targets++
	key := filepath.Clean(source)
	if _, ok := s.sources[key]; ok {
		return false
	}
	s.sources[key] = struct{}{}
	return true
}

func (s *RunStats) Scanned() int { return s.scanned }
func (s *RunStats) Sources() int { return len(s.sources) }
func (s *RunStats) Targets() int { return s.targets }

// Report formats the three summary lines.
func (s *RunStats) Report() []string {
	return []string{
		fmt.Sprintf("\tScan Count:   %d\t(total images found)", s.Scanned()),
		fmt.Sprintf("\tSource Count: %d\t(total that needed conversion)", s.Sources()),
		fmt.Sprintf("\tTarget Count: %d\t(total output images)", s.Targets()),
	}
}
