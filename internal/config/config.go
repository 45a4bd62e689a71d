// Package config holds the run configuration: defaults, an optional YAML
// defaults file and validation. A Config is built once before the run starts
// and treated as read-only afterwards.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// CodecName selects the image codec backend.
type CodecName string

const (
	CodecLilliput CodecName = "lilliput" // Native OpenCV based codec (default).
	CodecImaging  CodecName = "imaging"  // Pure Go codec.
)

const (
	MinQuality = 1
	MaxQuality = 100
)

type Config struct {
	Recurse bool
	Verbose bool
	Quiet   bool
	Clobber bool

	// Quality is passed to the encoder, 1-100.
	Quality int

	// Widths are the target pixel widths, processed in order.
	Widths []int

	// ResizeDir is the subdirectory created next to each source image that
	// holds one directory per width. Paths named like it are never entered.
	ResizeDir string

	// IgnoreFile lists exact paths to skip, one per line.
	IgnoreFile string

	// Extensions accepted as images, compared case-sensitively with the dot.
	Extensions []string

	Codec CodecName
}

// DefaultConfig returns the configuration used when no flags are given.
func DefaultConfig() Config {
	return Config{
		Recurse:    true,
		Quality:    95,
		Widths:     []int{400, 800},
		ResizeDir:  "resized",
		IgnoreFile: ".ruby-run-resize-ignore",
		Extensions: []string{".jpg", ".png"},
		Codec:      CodecLilliput,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.Quality < MinQuality || c.Quality > MaxQuality {
		return fmt.Errorf("quality must be between %d and %d (got %d)", MinQuality, MaxQuality, c.Quality)
	}
	if len(c.Widths) == 0 {
		return errors.New("at least one dimension is required")
	}
	for _, w := range c.Widths {
		if w <= 0 {
			return fmt.Errorf("dimension must be a positive integer (got %d)", w)
		}
	}
	if strings.TrimSpace(c.ResizeDir) == "" {
		return errors.New("resize dir must not be empty")
	}
	if strings.ContainsRune(c.ResizeDir, filepath.Separator) || c.ResizeDir == "." || c.ResizeDir == ".." {
		return fmt.Errorf("resize dir must be a single directory name (got %q)", c.ResizeDir)
	}
	if len(c.Extensions) == 0 {
		return errors.New("at least one extension is required")
	}
	for _, e := range c.Extensions {
		if !strings.HasPrefix(e, ".") || len(e) < 2 {
			return fmt.Errorf("extension must include the leading dot (got %q)", e)
		}
	}
	switch c.Codec {
	case CodecLilliput, CodecImaging:
	default:
		return fmt.Errorf("invalid codec %q (use 'lilliput' or 'imaging')", c.Codec)
	}
	return nil
}

// AcceptsExtension reports whether ext is one of the configured extensions.
func (c *Config) AcceptsExtension(ext string) bool {
	for _, e := range c.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}
