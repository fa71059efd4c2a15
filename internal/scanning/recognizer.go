package scanning

import (
	"context"
	"errors"
	"image"
)

// ErrEngineMissing signals that the text recognition engine could not be
// located, even after the single fallback-path attempt. Callers branch on it
// to show an installation-required message instead of a generic failure.
var ErrEngineMissing = errors.New("text recognition engine not found")

// Recognizer defines the interface for text recognition engines
type Recognizer interface {
	// Recognize extracts the raw multi-line text from a normalized receipt image
	Recognize(ctx context.Context, img image.Image) (string, error)
	// Close closes the recognizer and releases resources
	Close() error
}
