package ocr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOCRSpace_ExtractURL_JoinsPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("apikey"); got != "k" {
			t.Errorf("missing apikey header, got %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.Form.Get("OCREngine") != "2" || r.Form.Get("filetype") != "PDF" {
			t.Errorf("unexpected form fields: %v", r.Form)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ParsedResults":[{"ParsedText":"page one"},{"ParsedText":"page two"}],"IsErroredOnProcessing":false}`))
	}))
	defer srv.Close()

	c := &OCRSpace{APIKey: "k", BaseURL: srv.URL}
	text, err := c.ExtractURL(context.Background(), "https://example.com/doc.pdf", "eng")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if text != "page one\npage two" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestOCRSpace_ExtractBytes_Multipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		if !strings.HasSuffix(hdr.Filename, ".pdf") {
			t.Errorf("filename not normalized: %q", hdr.Filename)
		}
		if r.FormValue("language") != "ara" {
			t.Errorf("language not forwarded: %q", r.FormValue("language"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ParsedResults":[{"ParsedText":"extracted"}]}`))
	}))
	defer srv.Close()

	c := &OCRSpace{APIKey: "k", BaseURL: srv.URL}
	text, err := c.ExtractBytes(context.Background(), []byte("%PDF-1.4"), "report", "ARA")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if text != "extracted" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestOCRSpace_ProcessingError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"IsErroredOnProcessing":true,"ErrorMessage":["bad page size"],"ErrorDetails":"E216"}`))
	}))
	defer srv.Close()

	c := &OCRSpace{APIKey: "k", BaseURL: srv.URL}
	_, err := c.ExtractURL(context.Background(), "https://example.com/x.pdf", "")
	if !errors.Is(err, ErrProcessing) {
		t.Fatalf("expected ErrProcessing, got %v", err)
	}
	if !strings.Contains(err.Error(), "bad page size") {
		t.Fatalf("expected vendor message in error, got %v", err)
	}
}

func TestOCRSpace_MissingKey(t *testing.T) {
	c := &OCRSpace{}
	if _, err := c.ExtractURL(context.Background(), "https://example.com/x.pdf", ""); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}
}
