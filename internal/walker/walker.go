// Package walker traverses the paths given on the command line and hands
// regular files to the resize pipeline.
package walker

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/giobyte8/run-resize/internal/fsutil"
)

type FileProcessor interface {
	ProcessFile(ctx context.Context, path string) error
}

type IgnoreMatcher interface {
	ShouldIgnore(path string) bool
}

type Walker struct {
	recurse bool
	ignore  IgnoreMatcher
	files   FileProcessor
	log     *slog.Logger
}

// New returns a walker. With recurse disabled, a directory's direct file
// children are still processed but its subdirectories are not entered.
func New(
	recurse bool,
	ignore IgnoreMatcher,
	files FileProcessor,
	log *slog.Logger,
) *Walker {
	return &Walker{
		recurse: recurse,
		ignore:  ignore,
		files:   files,
		log:     log,
	}
}

// Process handles a single path. Missing, unreadable or special paths are
// logged and skipped; the only error returned is the context's.
func (w *Walker) Process(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p := filepath.Clean(path)
	w.log.Debug("processing", "path", p)

	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			w.log.Error("path does not exist, skipping", "path", p)
		} else {
			w.log.Error("cannot stat path, skipping", "path", p, "error", err)
		}
		return nil
	}

	if !fsutil.Readable(p) {
		w.log.Error("file/dir is not readable, skipping", "path", p)
		return nil
	}

	// Matches both directories and files
	if w.ignore.ShouldIgnore(p) {
		w.log.Debug("ignoring", "path", p)
		return nil
	}

	switch {
	case info.IsDir():
		return w.processDir(ctx, p)
	case info.Mode().IsRegular():
		return w.files.ProcessFile(ctx, p)
	default:
		w.log.Error("neither file nor directory, skipping", "path", p, "mode", info.Mode().String())
		return nil
	}
}

func (w *Walker) processDir(ctx context.Context, dir string) error {
	w.log.Debug("directory", "path", dir)

	// ReadDir returns what it could read alongside the error
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.log.Error("failed to read directory", "path", dir, "error", err)
	}

	for _, entry := range entries {
		child := filepath.Join(dir, entry.Name())
		if !w.recurse && !fsutil.IsRegular(child) {
			continue
		}
		if err := w.Process(ctx, child); err != nil {
			return err
		}
	}
	return nil
}
