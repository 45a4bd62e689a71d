// Package ignore decides which paths a run skips. Patterns come from a plain
// text file, one exact path per line; there is no glob or prefix matching.
package ignore

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type loadState int

const (
	unloaded loadState = iota
	loaded
)

// Matcher loads its ignore file on the first ShouldIgnore call and keeps the
// result for the rest of the run, including an empty result when the file
// could not be read.
type Matcher struct {
	path      string
	resizeDir string
	log       *slog.Logger

	state    loadState
	patterns map[string]struct{}
}

// NewMatcher returns a matcher for the given ignore file. Paths whose last
// element equals resizeDir are always ignored.
func NewMatcher(path, resizeDir string, log *slog.Logger) *Matcher {
	return &Matcher{
		path:      path,
		resizeDir: resizeDir,
		log:       log,
	}
}

// ShouldIgnore reports whether path is listed in the ignore file or names a
// resize output directory.
func (m *Matcher) ShouldIgnore(path string) bool {
	m.ensureLoaded()

	clean := filepath.Clean(path)
	if filepath.Base(clean) == m.resizeDir {
		return true
	}
	_, ok := m.patterns[clean]
	return ok
}

// Loaded reports whether the ignore file has been read.
func (m *Matcher) Loaded() bool {
	return m.state == loaded
}

// Patterns returns the number of loaded patterns.
func (m *Matcher) Patterns() int {
	return len(m.patterns)
}

func (m *Matcher) ensureLoaded() {
	if m.state == loaded {
		return
	}
	m.state = loaded
	m.patterns = make(map[string]struct{})

	patterns, err := readPatterns(m.path)
	for _, p := range patterns {
		m.patterns[p] = struct{}{}
	}
	switch {
	case err != nil && len(patterns) > 0:
		m.log.Warn(
			"ignore file could not be read completely, using the patterns read so far",
			"path", filepath.Clean(m.path),
			"patterns", len(patterns),
			"error", err,
		)
		return
	case err != nil:
		m.log.Warn(
			"ignore file does not exist or is not readable, skipping",
			"path", filepath.Clean(m.path),
			"error", err,
		)
		return
	}

	m.log.Debug("loaded ignore file", "path", filepath.Clean(m.path), "patterns", len(patterns))
}

// maxPatternLine bounds a single ignore file line.
const maxPatternLine = 1 << 20

// readPatterns returns the patterns read before any error.
func readPatterns(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxPatternLine)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, filepath.Clean(line))
	}
	if err := sc.Err(); err != nil {
		return patterns, fmt.Errorf("failed to read ignore file %s: %w", path, err)
	}
	return patterns, nil
}
