package enrich

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/mayedalfalasi/bizdoc-min/internal/analysis"
	"github.com/mayedalfalasi/bizdoc-min/internal/search"
)

type stubProvider struct {
	results []search.Result
	err     error
}

func (p *stubProvider) Search(ctx context.Context, query string, limit int) ([]search.Result, error) {
	return p.results, p.err
}

func (p *stubProvider) Name() string { return "stub" }

func TestAppend_DedupPreservesExistingOrder(t *testing.T) {
	r := &analysis.Result{
		Title: "Acme Q1",
		Sources: []analysis.Source{
			{Title: "Existing", URL: "https://keep.example/a"},
		},
	}
	e := &Enricher{Provider: &stubProvider{results: []search.Result{
		{Title: "Dup of existing", URL: "https://keep.example/a"},
		{Title: "<b>Fresh</b> filing", URL: "https://new.example/b"},
	}}}
	e.Append(context.Background(), r, "")

	want := []analysis.Source{
		{Title: "Existing", URL: "https://keep.example/a"},
		{Title: "Fresh filing", URL: "https://new.example/b"},
	}
	if !reflect.DeepEqual(r.Sources, want) {
		t.Fatalf("sources mismatch:\n got %+v\nwant %+v", r.Sources, want)
	}
}

func TestAppend_ProviderFailureLeavesSourcesUntouched(t *testing.T) {
	r := &analysis.Result{
		Title:   "Acme Q1",
		Sources: []analysis.Source{{Title: "Only", URL: "https://only.example"}},
	}
	e := &Enricher{Provider: &stubProvider{err: errors.New("timeout")}}
	e.Append(context.Background(), r, "acme")
	if len(r.Sources) != 1 || r.Sources[0].URL != "https://only.example" {
		t.Fatalf("sources must be unchanged on failure: %+v", r.Sources)
	}
}

func TestAppend_NilProviderIsNoop(t *testing.T) {
	r := &analysis.Result{Title: "T"}
	var e *Enricher
	e.Append(context.Background(), r, "q") // must not panic
	(&Enricher{}).Append(context.Background(), r, "q")
	if len(r.Sources) != 0 {
		t.Fatalf("unexpected sources: %+v", r.Sources)
	}
}
