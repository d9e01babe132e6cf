package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mayedalfalasi/bizdoc-min/internal/acquire"
	"github.com/mayedalfalasi/bizdoc-min/internal/pipeline"
)

type fakeGenerator struct {
	doc *pipeline.Document
	err error
	req pipeline.Request
}

func (f *fakeGenerator) Generate(ctx context.Context, req pipeline.Request) (*pipeline.Document, error) {
	f.req = req
	return f.doc, f.err
}

func newServer(g Generator) *httptest.Server {
	s := &Server{Pipeline: g, Health: Health{LLMConfigured: true, OCRConfigured: true}}
	return httptest.NewServer(s.Routes())
}

func TestReport_Success(t *testing.T) {
	gen := &fakeGenerator{doc: &pipeline.Document{
		Bytes:       []byte("%PDF-1.4 fake"),
		Filename:    "Acme_Q1.pdf",
		ContentType: "application/pdf",
	}}
	srv := newServer(gen)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/report", "application/json",
		strings.NewReader(`{"text":"Revenue grew to $10M.","format":"pdf"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "Acme_Q1.pdf") {
		t.Fatalf("disposition %q", cd)
	}
	if gen.req.Text != "Revenue grew to $10M." {
		t.Fatalf("request not forwarded: %+v", gen.req)
	}
}

func TestReport_SchemaRejectsUnknownFields(t *testing.T) {
	srv := newServer(&fakeGenerator{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/report", "application/json",
		strings.NewReader(`{"text":"x","bogus":true}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("error response must be JSON: %v", err)
	}
	if ok, _ := body["ok"].(bool); ok {
		t.Fatalf("expected ok:false, got %v", body)
	}
}

func TestReport_PipelineErrorMapsToStatus(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want int
	}{
		{acquire.ErrMissingInput, http.StatusBadRequest},
		{acquire.ErrEmptyExtraction, http.StatusUnprocessableEntity},
		{pipeline.ErrMissingConfiguration, http.StatusInternalServerError},
	} {
		srv := newServer(&fakeGenerator{err: tc.err})
		resp, err := http.Post(srv.URL+"/api/report", "application/json", strings.NewReader(`{"text":"x"}`))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		var body map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		srv.Close()
		if resp.StatusCode != tc.want {
			t.Errorf("%v: status %d, want %d", tc.err, resp.StatusCode, tc.want)
		}
		if _, has := body["error"]; !has {
			t.Errorf("%v: missing error field in %v", tc.err, body)
		}
	}
}

func TestReport_MethodNotAllowed(t *testing.T) {
	srv := newServer(&fakeGenerator{})
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/api/report")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status %d", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	srv := newServer(&fakeGenerator{})
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ok, _ := body["ok"].(bool); !ok {
		t.Fatalf("expected ok:true, got %v", body)
	}
	if v, _ := body["llmConfigured"].(bool); !v {
		t.Fatalf("expected llmConfigured:true, got %v", body)
	}
}
