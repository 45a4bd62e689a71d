package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("LOG_LEVEL", "")
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	err := runCLI(context.Background(), args, stdout, stderr)
	return stdout.String(), stderr.String(), err
}

func writeJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func imageSize(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return cfg.Width, cfg.Height
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var ee *ExitError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExitError, got %T: %v", err, err)
	}
	return ee.Code
}

func TestVersion(t *testing.T) {
	stdout, _, err := execRoot(t, "--version", "ignored/path")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if stdout != "run-resize 0.1\n" {
		t.Fatalf("unexpected output: %q", stdout)
	}
}

func TestVersionBypassesOtherArguments(t *testing.T) {
	tests := [][]string{
		{"--version", "-h"},
		{"-h", "--version"},
		{"--version", "--quality", "abc"},
		{"--no-such-flag", "--version"},
		{"--version=true", "-y", "0"},
	}
	for _, args := range tests {
		stdout, _, err := execRoot(t, args...)
		if err != nil {
			t.Errorf("args %v: unexpected err: %v", args, err)
		}
		if stdout != "run-resize 0.1\n" {
			t.Errorf("args %v: unexpected output %q", args, stdout)
		}
	}
}

func TestVersionRequested(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"--version"}, true},
		{[]string{"photos", "--version"}, true},
		{[]string{"--version=1"}, true},
		{[]string{"--version=false"}, false},
		{[]string{"--", "--version"}, false},
		{[]string{"-v", "photos"}, false},
	}
	for _, tt := range tests {
		if got := versionRequested(tt.args); got != tt.want {
			t.Errorf("versionRequested(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}

func TestNoArgsPrintsUsage(t *testing.T) {
	stdout, _, err := execRoot(t)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.Contains(stdout, "run-resize [options] PATH [PATH...]") {
		t.Fatalf("expected usage, got %q", stdout)
	}
	if strings.Contains(stdout, "Processing Summary") {
		t.Fatalf("no work should be done")
	}
}

func TestInvalidOptions(t *testing.T) {
	dir := t.TempDir()
	tests := [][]string{
		{"--quality", "0", dir},
		{"--quality", "101", dir},
		{"--dimensions", "400,-5", dir},
		{"--dimensions", "abc", dir},
		{"--extensions", "jpg", dir},
		{"--codec", "magick", dir},
		{"--no-such-flag", dir},
		{"--config", filepath.Join(dir, "missing.yaml"), dir},
	}
	for _, args := range tests {
		_, _, err := execRoot(t, args...)
		if code := exitCode(t, err); code != ExitArg {
			t.Errorf("args %v: want exit %d, got %d", args, ExitArg, code)
		}
	}
}

func TestEndToEnd(t *testing.T) {
	root := t.TempDir()
	writeJPEG(t, filepath.Join(root, "a.jpg"), 800, 600)
	if err := os.WriteFile(filepath.Join(root, "b.txt"), []byte("text"), 0o644); err != nil {
		t.Fatal(err)
	}
	ignoreFile := filepath.Join(t.TempDir(), "ignore")
	args := []string{"--codec", "imaging", "-d", "400", "-e", ".jpg", "-i", ignoreFile, root}

	stdout, stderr, err := execRoot(t, args...)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	out := filepath.Join(root, "resized", "400", "a.jpg")
	if w, h := imageSize(t, out); w != 400 || h != 300 {
		t.Fatalf("unexpected output size %dx%d", w, h)
	}
	if _, err := os.Stat(filepath.Join(root, "resized", "400", "b.txt")); !os.IsNotExist(err) {
		t.Fatalf("b.txt should not be resized")
	}
	for _, want := range []string{"Scan Count:   1", "Source Count: 1", "Target Count: 1", "msg=resized"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
	if !strings.Contains(stderr, "ignore file does not exist") {
		t.Errorf("missing ignore file should be reported on stderr: %q", stderr)
	}

	// Second run without clobber leaves the output alone
	before, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	stdout, _, err = execRoot(t, args...)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "Scan Count:   1") || !strings.Contains(stdout, "Target Count: 0") {
		t.Fatalf("second run should write nothing:\n%s", stdout)
	}
	after, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	if !after.ModTime().Equal(before.ModTime()) {
		t.Fatalf("output should not be rewritten")
	}

	// Clobber always rewrites
	stdout, _, err = execRoot(t, append([]string{"--clobber"}, args...)...)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "Target Count: 1") {
		t.Fatalf("clobber run should rewrite the output:\n%s", stdout)
	}
}

func TestEndToEndDefaultCodec(t *testing.T) {
	root := t.TempDir()
	writeJPEG(t, filepath.Join(root, "a.jpg"), 800, 600)
	ignoreFile := filepath.Join(t.TempDir(), "ignore")

	stdout, _, err := execRoot(t, "-d", "400,200", "-e", ".jpg", "-i", ignoreFile, root)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if w, h := imageSize(t, filepath.Join(root, "resized", "400", "a.jpg")); w != 400 || h != 300 {
		t.Fatalf("unexpected 400 output size %dx%d", w, h)
	}
	if w, h := imageSize(t, filepath.Join(root, "resized", "200", "a.jpg")); w != 200 || h != 150 {
		t.Fatalf("unexpected 200 output size %dx%d", w, h)
	}
	for _, want := range []string{"Scan Count:   1", "Source Count: 1", "Target Count: 2"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
}

func TestShallowAndIgnore(t *testing.T) {
	root := t.TempDir()
	writeJPEG(t, filepath.Join(root, "a.jpg"), 100, 50)
	writeJPEG(t, filepath.Join(root, "skip.jpg"), 100, 50)
	writeJPEG(t, filepath.Join(root, "sub", "c.jpg"), 100, 50)

	ignoreFile := filepath.Join(t.TempDir(), "ignore")
	body := "# generated by test\n\n" + filepath.Join(root, "skip.jpg") + "\n"
	if err := os.WriteFile(ignoreFile, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := execRoot(t, "--codec", "imaging", "-s", "-d", "50", "-e", ".jpg", "-i", ignoreFile, root)
	if err != nil {
		t.Fatal(err)
	}
	if w, h := imageSize(t, filepath.Join(root, "resized", "50", "a.jpg")); w != 50 || h != 25 {
		t.Fatalf("unexpected size %dx%d", w, h)
	}
	if _, err := os.Stat(filepath.Join(root, "resized", "50", "skip.jpg")); !os.IsNotExist(err) {
		t.Fatalf("ignored file should not be resized")
	}
	if _, err := os.Stat(filepath.Join(root, "sub", "resized")); !os.IsNotExist(err) {
		t.Fatalf("shallow mode should not enter subdirectories")
	}
	if !strings.Contains(stdout, "Scan Count:   1") {
		t.Fatalf("ignored and nested files must not be counted:\n%s", stdout)
	}
}

func TestMissingRootDoesNotAbortBatch(t *testing.T) {
	root := t.TempDir()
	writeJPEG(t, filepath.Join(root, "a.jpg"), 80, 40)
	ignoreFile := filepath.Join(t.TempDir(), "ignore")

	stdout, stderr, err := execRoot(t, "--codec", "imaging", "-d", "40", "-e", ".jpg", "-i", ignoreFile,
		filepath.Join(root, "missing"), root)
	if err != nil {
		t.Fatalf("missing roots are not fatal: %v", err)
	}
	if !strings.Contains(stderr, "path does not exist") {
		t.Fatalf("expected diagnostic on stderr: %q", stderr)
	}
	if !strings.Contains(stdout, "Target Count: 1") {
		t.Fatalf("remaining roots should run:\n%s", stdout)
	}
}

func TestQuietSuppressesSummary(t *testing.T) {
	root := t.TempDir()
	writeJPEG(t, filepath.Join(root, "a.jpg"), 80, 40)
	ignoreFile := filepath.Join(t.TempDir(), "ignore")

	stdout, _, err := execRoot(t, "-q", "--codec", "imaging", "-d", "40", "-e", ".jpg", "-i", ignoreFile, root)
	if err != nil {
		t.Fatal(err)
	}
	if stdout != "" {
		t.Fatalf("quiet run should print nothing to stdout, got %q", stdout)
	}
	if _, err := os.Stat(filepath.Join(root, "resized", "40", "a.jpg")); err != nil {
		t.Fatalf("quiet run should still resize: %v", err)
	}
}

func TestConfigFileWithFlagOverride(t *testing.T) {
	root := t.TempDir()
	writeJPEG(t, filepath.Join(root, "a.jpg"), 200, 100)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "resize.yaml")
	body := "codec: imaging\ndimensions: [20, 40]\nextensions: [\".jpg\"]\nresize_dir: thumbs\nignore_file: " +
		filepath.Join(dir, "ignore") + "\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := execRoot(t, "--config", cfgPath, "-d", "100", root)
	if err != nil {
		t.Fatal(err)
	}
	if w, _ := imageSize(t, filepath.Join(root, "thumbs", "100", "a.jpg")); w != 100 {
		t.Fatalf("flag should override config dimensions, got width %d", w)
	}
	if _, err := os.Stat(filepath.Join(root, "thumbs", "20")); !os.IsNotExist(err) {
		t.Fatalf("config dimensions should have been replaced")
	}
	if !strings.Contains(stdout, "Target Count: 1") {
		t.Fatalf("unexpected summary:\n%s", stdout)
	}
}
