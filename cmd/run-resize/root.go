package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/giobyte8/run-resize/internal/codec"
	"github.com/giobyte8/run-resize/internal/codec/lilliputcodec"
	"github.com/giobyte8/run-resize/internal/config"
	"github.com/giobyte8/run-resize/internal/ignore"
	"github.com/giobyte8/run-resize/internal/logging"
	"github.com/giobyte8/run-resize/internal/services"
	"github.com/giobyte8/run-resize/internal/telemetry"
	"github.com/giobyte8/run-resize/internal/telemetry/metrics"
	"github.com/giobyte8/run-resize/internal/walker"
)

type rootFlags struct {
	Config      string
	Clobber     bool
	Shallow     bool
	Quality     int
	Dimensions  []int
	ResizeDir   string
	IgnoreFile  string
	Extensions  []string
	Quiet       bool
	Verbose     bool
	Codec       string
	ShowVersion bool
}

// runCLI executes the root command with args. A --version anywhere before
// "--" prints the version and returns, ahead of help and flag parsing.
func runCLI(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if versionRequested(args) {
		printVersion(stdout)
		return nil
	}
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func versionRequested(args []string) bool {
	for _, a := range args {
		switch {
		case a == "--":
			return false
		case a == "--version":
			return true
		case strings.HasPrefix(a, "--version="):
			if v, err := strconv.ParseBool(strings.TrimPrefix(a, "--version=")); err == nil && v {
				return true
			}
		}
	}
	return false
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "run-resize [options] PATH [PATH...]",
		Short:         "Write resized copies of images into per-width subdirectories",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.ShowVersion {
				printVersion(stdout)
				return nil
			}
			if len(args) == 0 {
				return cmd.Help()
			}
			cfg, err := buildConfig(cmd, flags)
			if err != nil {
				return &ExitError{Code: ExitArg, Msg: err.Error()}
			}
			return run(cmd.Context(), stdout, stderr, cfg, args)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitArg, Msg: err.Error()}
	})
	bindFlags(root, flags)
	return root
}

func bindFlags(cmd *cobra.Command, flags *rootFlags) {
	d := config.DefaultConfig()
	f := cmd.Flags()
	f.BoolVarP(&flags.Clobber, "clobber", "c", d.Clobber, "delete existing output files")
	f.BoolVarP(&flags.Shallow, "shallow", "s", !d.Recurse, "do not recurse into directories")
	f.IntVarP(&flags.Quality, "quality", "y", d.Quality, "image quality for output files (1-100)")
	f.IntSliceVarP(&flags.Dimensions, "dimensions", "d", d.Widths, "comma-delimited list of pixel widths")
	f.StringVarP(&flags.ResizeDir, "resize-dir", "r", d.ResizeDir, "subfolder in which to store resized images")
	f.StringVarP(&flags.IgnoreFile, "ignore-file", "i", d.IgnoreFile, "file containing paths of images to ignore")
	f.StringSliceVarP(&flags.Extensions, "extensions", "e", d.Extensions, "comma-delimited list of image extensions, including the dot")
	f.BoolVarP(&flags.Quiet, "quiet", "q", false, "suppress output (quiet mode)")
	f.BoolVarP(&flags.Verbose, "verbose", "v", false, "enable verbose mode")
	f.StringVar(&flags.Config, "config", "", "YAML file with default option values")
	f.StringVar(&flags.Codec, "codec", string(d.Codec), "image codec: lilliput | imaging")
	f.BoolVar(&flags.ShowVersion, "version", false, "print the version")
}

// buildConfig layers defaults, the optional YAML file and the flags the user
// actually set, then validates the result.
func buildConfig(cmd *cobra.Command, flags *rootFlags) (config.Config, error) {
	cfg := config.DefaultConfig()
	if flags.Config != "" {
		file, err := config.LoadFile(flags.Config)
		if err != nil {
			return cfg, err
		}
		file.Apply(&cfg)
	}
	if logging.VerboseFromEnv() {
		cfg.Verbose = true
	}

	f := cmd.Flags()
	if f.Changed("clobber") {
		cfg.Clobber = flags.Clobber
	}
	if f.Changed("shallow") {
		cfg.Recurse = !flags.Shallow
	}
	if f.Changed("quality") {
		cfg.Quality = flags.Quality
	}
	if f.Changed("dimensions") {
		cfg.Widths = append([]int(nil), flags.Dimensions...)
	}
	if f.Changed("resize-dir") {
		cfg.ResizeDir = flags.ResizeDir
	}
	if f.Changed("ignore-file") {
		cfg.IgnoreFile = flags.IgnoreFile
	}
	if f.Changed("extensions") {
		cfg.Extensions = cleanList(flags.Extensions)
	}
	if f.Changed("quiet") {
		cfg.Quiet = flags.Quiet
	}
	if f.Changed("verbose") {
		cfg.Verbose = flags.Verbose
	}
	if f.Changed("codec") {
		cfg.Codec = config.CodecName(strings.ToLower(flags.Codec))
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func newCodec(name config.CodecName) codec.Codec {
	if name == config.CodecImaging {
		return codec.NewImagingCodec()
	}
	return lilliputcodec.NewLilliputCodec()
}

func run(
	ctx context.Context,
	stdout, stderr io.Writer,
	cfg config.Config,
	paths []string,
) error {
	log := logging.New(stdout, stderr, logging.Options{
		Verbose: cfg.Verbose,
		Quiet:   cfg.Quiet,
	})

	tel, err := telemetry.NewTelemetrySvc(ctx)
	if err != nil {
		log.Warn("Failed to initialize telemetry, metrics disabled", "error", err)
		tel = telemetry.NewWithMetrics(metrics.NewNoopMetricsSvc())
	}
	defer shutdownTelemetry(tel, log)

	log.Debug(
		"Starting run",
		"runId", tel.RunID().String(),
		"codec", cfg.Codec,
		"widths", cfg.Widths,
		"recurse", cfg.Recurse,
		"clobber", cfg.Clobber,
	)

	stats := services.NewRunStats()
	resizer := services.NewResizeService(&cfg, newCodec(cfg.Codec), stats, tel, log)
	matcher := ignore.NewMatcher(cfg.IgnoreFile, cfg.ResizeDir, log)
	w := walker.New(cfg.Recurse, matcher, resizer, log)

	var runErr error
	for _, p := range paths {
		if err := w.Process(ctx, p); err != nil {
			log.Warn("Run interrupted", "reason", err)
			runErr = &ExitError{Code: ExitInterrupted}
			break
		}
	}

	if !cfg.Quiet {
		if stats.Targets() > 0 {
			fmt.Fprintln(stdout)
		}
		fmt.Fprintln(stdout, "Processing Summary:")
		for _, line := range stats.Report() {
			fmt.Fprintln(stdout, line)
		}
	}
	return runErr
}

func shutdownTelemetry(tel *telemetry.TelemetrySvc, log *slog.Logger) {
	// The run context may already be cancelled, the final export gets its own
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		log.Error("Failed to shutdown telemetry services", "error", err)
	}
}
