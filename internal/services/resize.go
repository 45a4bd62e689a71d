package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/giobyte8/run-resize/internal/codec"
	"github.com/giobyte8/run-resize/internal/config"
	"github.com/giobyte8/run-resize/internal/fsutil"
	"github.com/giobyte8/run-resize/internal/telemetry"
	"github.com/giobyte8/run-resize/internal/telemetry/metrics"
)

// ResizeService writes the resized copies of a single source image, one per
// configured width.
type ResizeService struct {
	config    *config.Config
	codec     codec.Codec
	stats     *RunStats
	telemetry *telemetry.TelemetrySvc
	log       *slog.Logger
}

func NewResizeService(
	config *config.Config,
	codec codec.Codec,
	stats *RunStats,
	telemetry *telemetry.TelemetrySvc,
	log *slog.Logger,
) *ResizeService {
	return &ResizeService{
		config:    config,
		codec:     codec,
		stats:     stats,
		telemetry: telemetry,
		log:       log,
	}
}

// OutputPath returns <source-dir>/<resizeDir>/<width>/<source-name>.
func OutputPath(sourcePath, resizeDir string, width int) string {
	return filepath.Join(
		outputDir(sourcePath, resizeDir, width),
		filepath.Base(sourcePath),
	)
}

func outputDir(sourcePath, resizeDir string, width int) string {
	return filepath.Join(
		filepath.Dir(sourcePath),
		resizeDir,
		strconv.Itoa(width),
	)
}

// ProcessFile resizes sourcePath to every configured width that still needs
// an output. Failures are logged and skipped; the only error returned is the
// context's when the run is cancelled.
func (s *ResizeService) ProcessFile(ctx context.Context, sourcePath string) error {
	sourcePath = filepath.Clean(sourcePath)
	s.log.Debug("file", "path", sourcePath)

	if !s.config.AcceptsExtension(extension(sourcePath)) {
		s.log.Debug("not a supported image type, skipping", "path", sourcePath)
		return nil
	}

	s.stats.RecordScanned()
	s.increment(metrics.ImageScanned, sourcePath, nil)

	// Decoded on first need, released once every width is resolved
	var source codec.Source
	defer func() {
		if source == nil {
			return
		}
		if err := source.Close(); err != nil {
			s.log.Warn("failed to release source image", "path", sourcePath, "error", err)
		}
	}()

	for _, width := range s.config.Widths {
		select {
		case <-ctx.Done():
			s.log.Warn("Context cancelled during resize", "path", sourcePath)
			return ctx.Err()
		default:
		}

		targetDir := outputDir(sourcePath, s.config.ResizeDir, width)
		targetFile := OutputPath(sourcePath, s.config.ResizeDir, width)
		s.log.Debug("processing dimension", "width", width, "dir", targetDir)

		if !s.prepareTarget(targetDir, targetFile) {
			continue
		}

		if source == nil {
			s.log.Debug("loading source image into memory", "path", sourcePath, "codec", s.codec.Name())
			src, err := s.codec.Open(sourcePath)
			if err != nil {
				s.log.Error("failed to load source image, skipping", "path", sourcePath, "error", err)
				return nil
			}
			source = src
		}

		if err := s.resize(sourcePath, source, targetFile, width); err != nil {
			s.log.Error("failed to resize, skipping dimension", "path", sourcePath, "width", width, "error", err)
		}
	}

	return nil
}

// prepareTarget applies the clobber policy and makes sure the width
// directory is usable. It reports whether a resize should be attempted.
func (s *ResizeService) prepareTarget(targetDir, targetFile string) bool {
	_, err := os.Lstat(targetFile)
	switch {
	case err == nil:
		if !s.config.Clobber {
			s.log.Debug("target file exists and no clobber, skipping", "target", targetFile)
			return false
		}
		s.log.Debug("target file exists and clobber specified, clobber it", "target", targetFile)
		if err := os.Remove(targetFile); err != nil {
			s.log.Error("failed to remove existing target, skipping", "target", targetFile, "error", err)
			return false
		}
		return true

	case !errors.Is(err, fs.ErrNotExist):
		s.log.Error("failed to stat target, skipping", "target", targetFile, "error", err)
		return false
	}

	if !fsutil.IsDir(targetDir) {
		s.log.Debug("output directory does not exist, creating", "dir", targetDir)

		// Result checked below, a concurrent creator is fine
		_ = os.MkdirAll(targetDir, 0755)
	}

	if !fsutil.WritableDir(targetDir) {
		s.log.Error(
			"dimension output directory does not exist or not writable, skipping conversion",
			"dir", targetDir,
		)
		return false
	}
	return true
}

func (s *ResizeService) resize(
	sourcePath string,
	source codec.Source,
	targetFile string,
	width int,
) error {
	ratio := float64(width) / float64(source.Width())
	s.log.Debug(
		"resize",
		"dst", targetFile,
		"dstWidth", width,
		"srcWidth", source.Width(),
		"ratio", ratio,
		"interlaced", source.Interlaced(),
	)

	out, err := source.WriteScaled(targetFile, ratio, s.config.Quality)
	if err != nil {
		// Leave nothing behind that a later run would mistake for an output
		if rmErr := os.Remove(targetFile); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			s.log.Warn("failed to remove partial output", "target", targetFile, "error", rmErr)
		}
		return err
	}

	s.log.Info(
		"resized",
		"file", filepath.Base(sourcePath),
		"width", width,
		"target", targetFile,
	)

	attrs := map[string]string{
		"width":     strconv.Itoa(width),
		"origWidth": strconv.Itoa(source.Width()),
		"height":    strconv.Itoa(out.Height),
		"bytes":     fmt.Sprintf("%d", out.Bytes),
	}
	s.increment(metrics.OutputWritten, sourcePath, attrs)
	if s.stats.RecordTarget(sourcePath) {
		s.increment(metrics.SourceConverted, sourcePath, nil)
	}
	return nil
}

func (s *ResizeService) increment(
	metric metrics.MetricName,
	sourcePath string,
	attrs map[string]string,
) {
	if attrs == nil {
		attrs = make(map[string]string, 2)
	}
	attrs["filePath"] = sourcePath
	attrs["runId"] = s.telemetry.RunID().String()
	s.telemetry.Metrics().Increment(metric, attrs)
}

// extension returns the final extension of path's base name. A leading dot
// marks a hidden file, not an extension, so ".jpg" has none.
func extension(path string) string {
	return filepath.Ext(strings.TrimLeft(filepath.Base(path), "."))
}
