// Package ocr extracts plain text from PDF documents through an external
// OCR service. The pipeline talks to the Client interface only; OCRSpace is
// the production implementation.
package ocr

import (
	"context"
	"errors"
	"fmt"
)

// Client extracts text from a remote PDF by URL or from inline PDF bytes.
// A single call is made per extraction; vendors bill per call, so no retry
// happens at this layer.
type Client interface {
	ExtractURL(ctx context.Context, url, language string) (string, error)
	ExtractBytes(ctx context.Context, data []byte, filename, language string) (string, error)
}

var (
	// ErrMissingKey means the OCR credential was absent at construction time.
	ErrMissingKey = errors.New("ocr: missing API key")

	// ErrProcessing means the service accepted the request but reported a
	// processing failure for the document itself.
	ErrProcessing = errors.New("ocr: processing failed")

	// ErrUnavailable means the service could not be reached or answered
	// with a non-2xx status.
	ErrUnavailable = errors.New("ocr: service unavailable")
)

// Error wraps a failure with the operation that produced it.
type Error struct {
	Op     string
	Err    error
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("ocr: %s: %s: %v", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("ocr: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
