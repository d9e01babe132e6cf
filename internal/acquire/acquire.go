// Package acquire turns one of three input modes into plain text: literal
// text, a remote PDF URL, or inline PDF bytes supplied as base64. Literal
// text always wins and never touches the OCR collaborator.
package acquire

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mayedalfalasi/bizdoc-min/internal/ocr"
)

var (
	// ErrMissingInput means none of text, url, or file bytes was supplied.
	ErrMissingInput = errors.New("acquire: no input provided")

	// ErrInvalidInput means an input was supplied but unusable (bad URL,
	// undecodable base64, oversized file).
	ErrInvalidInput = errors.New("acquire: invalid input")

	// ErrEmptyExtraction means OCR ran but produced no text.
	ErrEmptyExtraction = errors.New("acquire: no text extracted")
)

// MaxInlineBytes caps inline uploads. Matches the original service limit.
const MaxInlineBytes = 5 << 20

var httpURLRe = regexp.MustCompile(`(?i)^https?://`)

// Input is the request surface of the acquisition stage. Exactly one of
// Text, URL, or FileBase64 is expected; they are tried in that order.
type Input struct {
	Text       string
	URL        string
	FileBase64 string // raw base64 or a data: URI
	Filename   string
	Language   string // OCR language hint, defaults to "eng"
}

// Text resolves the input to plain text. The OCR client is only consulted
// for the URL and inline-bytes modes; it may be nil when callers guarantee
// the literal text path.
func Text(ctx context.Context, in Input, client ocr.Client) (string, error) {
	if strings.TrimSpace(in.Text) != "" {
		return in.Text, nil
	}

	lang := strings.TrimSpace(in.Language)
	if lang == "" {
		lang = "eng"
	}

	if strings.TrimSpace(in.URL) != "" {
		u := strings.TrimSpace(in.URL)
		if !httpURLRe.MatchString(u) {
			return "", fmt.Errorf("%w: url must start with http:// or https://", ErrInvalidInput)
		}
		if client == nil {
			return "", fmt.Errorf("%w: ocr client not configured", ErrInvalidInput)
		}
		text, err := client.ExtractURL(ctx, u, lang)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			return "", ErrEmptyExtraction
		}
		return text, nil
	}

	if strings.TrimSpace(in.FileBase64) != "" {
		data, err := decodePayload(in.FileBase64)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if len(data) == 0 {
			return "", fmt.Errorf("%w: empty file payload", ErrInvalidInput)
		}
		if len(data) > MaxInlineBytes {
			return "", fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, MaxInlineBytes)
		}
		if client == nil {
			return "", fmt.Errorf("%w: ocr client not configured", ErrInvalidInput)
		}
		text, err := client.ExtractBytes(ctx, data, in.Filename, lang)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			return "", ErrEmptyExtraction
		}
		return text, nil
	}

	return "", ErrMissingInput
}

// decodePayload accepts either a bare base64 string or a data: URI with a
// base64 payload after the first comma.
func decodePayload(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		i := strings.IndexByte(s, ',')
		if i < 0 {
			return nil, errors.New("malformed data URI")
		}
		s = s[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		// some clients strip padding
		data, err = base64.RawStdEncoding.DecodeString(s)
	}
	return data, err
}
