// Package render lays out an analysis result, plus any rasterized charts,
// into a downloadable document. PDF is the full paginated layout; DOCX is a
// simpler flowing layout for callers that need an editable file.
package render

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Format selects the output document type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// ErrRender tags fatal layout failures, such as an undecodable chart image.
var ErrRender = errors.New("render: layout failed")

// DefaultConfidenceFloor is the smallest confidence ever displayed; stored
// values below it render as the floor.
const DefaultConfidenceFloor = 0.05

// Options carries render-time tunables.
type Options struct {
	// ConfidenceFloor overrides DefaultConfidenceFloor when > 0.
	ConfidenceFloor float64

	// GeneratedAt is stamped into the running header; zero means now.
	GeneratedAt time.Time
}

func (o Options) confidenceFloor() float64 {
	if o.ConfidenceFloor > 0 {
		return o.ConfidenceFloor
	}
	return DefaultConfidenceFloor
}

func (o Options) generatedAt() time.Time {
	if o.GeneratedAt.IsZero() {
		return time.Now().UTC()
	}
	return o.GeneratedAt
}

// ContentType returns the MIME type for a format.
func ContentType(f Format) string {
	if f == FormatDOCX {
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/pdf"
}

var unsafeNameRe = regexp.MustCompile(`[^\w\-]+`)

// Filename sanitizes a caller-supplied name and appends the format's
// extension. Matches the original service: word characters and dashes only,
// capped at 64 runes, with a stable fallback.
func Filename(name string, f Format) string {
	s := unsafeNameRe.ReplaceAllString(strings.TrimSpace(name), "_")
	s = strings.Trim(s, "_")
	if len(s) > 64 {
		s = s[:64]
	}
	if s == "" {
		s = "BizDoc_Report"
	}
	return s + "." + string(f)
}
