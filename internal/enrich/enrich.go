// Package enrich appends external citations to an analysis result. It is the
// one stage whose failure is absorbed: a report is always produced even when
// the search collaborator is down, so nothing here returns an error.
package enrich

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/mayedalfalasi/bizdoc-min/internal/analysis"
	"github.com/mayedalfalasi/bizdoc-min/internal/search"
)

// Enricher merges search results into a result's sources. A nil Provider
// makes every call a no-op.
type Enricher struct {
	Provider   search.Provider
	MaxResults int
}

// Append looks up queryText and merges the hits into r.Sources with
// URL-based dedup: existing entries keep their positions, new entries are
// appended in the order received, first occurrence of a URL wins.
func (e *Enricher) Append(ctx context.Context, r *analysis.Result, queryText string) {
	if e == nil || e.Provider == nil {
		return
	}
	query := strings.TrimSpace(queryText)
	if query == "" {
		query = fallbackQuery(r)
	}
	if query == "" {
		return
	}
	limit := e.MaxResults
	if limit <= 0 {
		limit = 6
	}
	results, err := e.Provider.Search(ctx, query, limit)
	if err != nil {
		log.Warn().Err(err).Str("provider", e.Provider.Name()).Str("query", query).
			Msg("enrichment lookup failed; report proceeds without extra sources")
		return
	}
	incoming := make([]analysis.Source, 0, len(results))
	for _, res := range results {
		incoming = append(incoming, analysis.Source{
			Title: stripMarkup(res.Title),
			URL:   res.URL,
		})
	}
	r.Sources = analysis.AppendSources(r.Sources, incoming...)
}

func fallbackQuery(r *analysis.Result) string {
	if strings.TrimSpace(r.Title) != "" {
		return strings.TrimSpace(r.Title)
	}
	if len(r.Entities.Companies) > 0 {
		return r.Entities.Companies[0]
	}
	return ""
}

// stripMarkup drops any HTML tags a provider left in a result title and
// collapses the remaining text. Providers highlight query terms with <b>
// or <em> wrappers.
func stripMarkup(s string) string {
	if !strings.ContainsRune(s, '<') {
		return strings.TrimSpace(s)
	}
	var b strings.Builder
	tz := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := tz.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.Write(tz.Text())
		}
	}
	return strings.TrimSpace(strings.Join(strings.Fields(b.String()), " "))
}
