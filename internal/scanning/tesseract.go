package scanning

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"os"
	"os/exec"
)

const (
	// defaultTesseractBinary is resolved against PATH.
	defaultTesseractBinary = "tesseract"

	// fallbackInstallPath is the single well-known install location tried
	// when the binary cannot be located on the first invocation.
	fallbackInstallPath = "/usr/local/bin/tesseract"
)

// commandRunner executes a recognition binary and returns its stdout
type commandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// Tesseract implements the Recognizer interface by shelling out to the
// tesseract CLI, the same engine the receipt was most likely scanned with
type Tesseract struct {
	binary   string
	fallback string
	run      commandRunner
}

// NewTesseract creates a new Tesseract recognizer. An empty binary path
// resolves tesseract against PATH.
func NewTesseract(binary string) *Tesseract {
	if binary == "" {
		binary = defaultTesseractBinary
	}
	return &Tesseract{
		binary:   binary,
		fallback: fallbackInstallPath,
		run:      runCommand,
	}
}

// runCommand is the default commandRunner backed by os/exec
func runCommand(ctx context.Context, binary string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %s", err, stderr.String())
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// isLocateError reports whether err means the engine binary could not be
// found or executed at all, as opposed to the engine running and failing
func isLocateError(err error) bool {
	return errors.Is(err, exec.ErrNotFound) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission)
}

// Recognize runs the tesseract binary on the normalized image and returns
// the recognized text with its original line breaks.
//
// If the first invocation fails because the binary cannot be located, exactly
// one retry is made against the well-known fallback install path. Only when
// that also fails with a not-found/permission class error does Recognize
// return ErrEngineMissing; every other failure class is surfaced as a
// descriptive error so callers do not mistake a transient failure for a
// missing engine. There are no retries beyond the single fallback attempt.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	tmpFile, err := os.CreateTemp("", "receipt-*.png")
	if err != nil {
		return "", fmt.Errorf("creating temp image: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if err := png.Encode(tmpFile, img); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("encoding image: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("flushing temp image: %w", err)
	}

	out, err := t.run(ctx, t.binary, tmpFile.Name(), "stdout")
	if err == nil {
		return string(out), nil
	}
	if !isLocateError(err) {
		return "", fmt.Errorf("extracting text: %w", err)
	}

	// Single fallback attempt against the well-known install path
	out, err = t.run(ctx, t.fallback, tmpFile.Name(), "stdout")
	if err == nil {
		return string(out), nil
	}
	if isLocateError(err) {
		return "", ErrEngineMissing
	}
	return "", fmt.Errorf("extracting text (fallback attempt): %w", err)
}

// Close closes the recognizer (no-op for the CLI engine)
func (t *Tesseract) Close() error {
	return nil
}
