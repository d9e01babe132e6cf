package search

import (
	"context"
)

// Result is one hit returned by a research lookup. Snippet may carry
// provider markup; consumers strip it before display.
type Result struct {
	Title   string
	URL     string
	Snippet string
	Source  string // which provider produced the hit
}

// Provider runs research lookups for the analysis and enrichment stages.
// A nil Provider means research is unconfigured and those stages skip it.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
	Name() string
}
