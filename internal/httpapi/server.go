// Package httpapi exposes the report pipeline over HTTP, mirroring the
// original service's endpoints. Callers always get either document bytes or
// a parseable {ok:false, error} JSON body, never a bare failure.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mayedalfalasi/bizdoc-min/internal/acquire"
	"github.com/mayedalfalasi/bizdoc-min/internal/analyze"
	"github.com/mayedalfalasi/bizdoc-min/internal/chart"
	"github.com/mayedalfalasi/bizdoc-min/internal/ocr"
	"github.com/mayedalfalasi/bizdoc-min/internal/pipeline"
	"github.com/mayedalfalasi/bizdoc-min/internal/render"
)

// maxBodyBytes bounds the request body; inline files arrive base64-encoded,
// so this sits above the 5 MB raw file cap with encoding overhead.
const maxBodyBytes = 8 << 20

// Generator is the piece of the pipeline the server needs; tests substitute
// a fake.
type Generator interface {
	Generate(ctx context.Context, req pipeline.Request) (*pipeline.Document, error)
}

// Health reports which collaborators are configured, without leaking keys.
type Health struct {
	LLMConfigured    bool `json:"llmConfigured"`
	OCRConfigured    bool `json:"ocrConfigured"`
	SearchConfigured bool `json:"searchConfigured"`
}

// Server handles the /api routes.
type Server struct {
	Pipeline Generator
	Health   Health
}

var requestSchema = jsonschema.MustCompileString("report-request.json", `{
	"type": "object",
	"properties": {
		"text": {"type": "string"},
		"url": {"type": "string"},
		"fileBase64": {"type": "string"},
		"filename": {"type": "string", "maxLength": 256},
		"language": {"type": "string", "maxLength": 8},
		"format": {"enum": ["pdf", "docx"]}
	},
	"additionalProperties": false
}`)

type reportRequest struct {
	Text       string `json:"text"`
	URL        string `json:"url"`
	FileBase64 string `json:"fileBase64"`
	Filename   string `json:"filename"`
	Language   string `json:"language"`
	Format     string `json:"format"`
}

// Routes builds the handler. Permissive CORS matches the original service.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/api/health", s.handleHealth)
	return withCORS(mux)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":               true,
		"llmConfigured":    s.Health.LLMConfigured,
		"ocrConfigured":    s.Health.OCRConfigured,
		"searchConfigured": s.Health.SearchConfigured,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	reqID := uuid.NewString()
	logger := log.With().Str("request_id", reqID).Logger()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	if len(body) > maxBodyBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	var loose any
	if err := json.Unmarshal(body, &loose); err != nil {
		writeError(w, http.StatusBadRequest, "body must be a JSON object")
		return
	}
	if err := requestSchema.Validate(loose); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	var req reportRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "body must be a JSON object")
		return
	}

	start := time.Now()
	doc, err := s.Pipeline.Generate(r.Context(), pipeline.Request{
		Text:       req.Text,
		URL:        req.URL,
		FileBase64: req.FileBase64,
		Filename:   req.Filename,
		Language:   req.Language,
		Format:     render.Format(req.Format),
	})
	if err != nil {
		status := statusFor(err)
		logger.Warn().Err(err).Int("status", status).Dur("elapsed", time.Since(start)).Msg("report failed")
		writeError(w, status, err.Error())
		return
	}

	logger.Info().Str("filename", doc.Filename).Int("bytes", len(doc.Bytes)).
		Dur("elapsed", time.Since(start)).Msg("report served")
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Bytes)
}

// statusFor maps the pipeline error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, acquire.ErrMissingInput), errors.Is(err, acquire.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, acquire.ErrEmptyExtraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrMissingConfiguration), errors.Is(err, ocr.ErrMissingKey):
		return http.StatusInternalServerError
	case errors.Is(err, analyze.ErrUpstreamUnavailable),
		errors.Is(err, analyze.ErrUpstreamFormat),
		errors.Is(err, analyze.ErrUpstreamRefused),
		errors.Is(err, ocr.ErrUnavailable),
		errors.Is(err, ocr.ErrProcessing),
		errors.Is(err, chart.ErrRender):
		return http.StatusBadGateway
	case errors.Is(err, render.ErrRender):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}
