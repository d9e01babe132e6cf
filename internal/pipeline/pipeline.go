// Package pipeline wires the report stages together: acquire text, analyze
// it, enrich sources, derive and rasterize charts, and render the document.
// One Pipeline serves many requests; requests share no mutable state.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mayedalfalasi/bizdoc-min/internal/acquire"
	"github.com/mayedalfalasi/bizdoc-min/internal/analysis"
	"github.com/mayedalfalasi/bizdoc-min/internal/analyze"
	"github.com/mayedalfalasi/bizdoc-min/internal/chart"
	"github.com/mayedalfalasi/bizdoc-min/internal/enrich"
	"github.com/mayedalfalasi/bizdoc-min/internal/llm"
	"github.com/mayedalfalasi/bizdoc-min/internal/ocr"
	"github.com/mayedalfalasi/bizdoc-min/internal/render"
	"github.com/mayedalfalasi/bizdoc-min/internal/search"
)

// ErrMissingConfiguration means a required collaborator credential was
// absent at construction time. It is distinct from transient upstream
// failures so operators can tell a deploy problem from a vendor outage.
var ErrMissingConfiguration = errors.New("pipeline: missing configuration")

// Config names every recognized option. OCR and LLM credentials are
// required; search is optional (enrichment becomes a no-op); the chart
// endpoint defaults to the public rasterizer when empty.
type Config struct {
	OCRKey        string
	LLMKey        string
	LLMBaseURL    string
	LLMModel      string
	SearchKey     string
	ChartEndpoint string

	// ConfidenceFloor overrides the display floor; zero keeps the default.
	ConfidenceFloor float64

	// Per-stage deadlines. Collaborator calls otherwise run unbounded, so
	// each stage gets a context deadline; expiry surfaces as that stage's
	// unavailable error. Zero picks the default.
	OCRTimeout    time.Duration // default 60s
	LLMTimeout    time.Duration // default 180s, covers both passes
	SearchTimeout time.Duration // default 15s
	ChartTimeout  time.Duration // default 30s

	MaxSearchResults int
}

// Request is one report generation job.
type Request struct {
	Text       string
	URL        string
	FileBase64 string
	Filename   string
	Language   string
	Format     render.Format // defaults to PDF
}

// Document is the finished artifact handed back to the caller.
type Document struct {
	Bytes       []byte
	Filename    string
	ContentType string
}

// Pipeline holds the collaborators. Fields are exported so tests can
// assemble one from fakes; production code goes through New.
type Pipeline struct {
	OCR        ocr.Client
	LLM        llm.Client
	Search     search.Provider // nil when unconfigured
	Rasterizer chart.Rasterizer

	cfg Config
}

// New validates configuration once and builds production collaborators.
func New(cfg Config) (*Pipeline, error) {
	var missing []string
	if strings.TrimSpace(cfg.OCRKey) == "" {
		missing = append(missing, "ocrKey")
	}
	if strings.TrimSpace(cfg.LLMKey) == "" {
		missing = append(missing, "llmKey")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfiguration, strings.Join(missing, ", "))
	}

	p := &Pipeline{
		OCR:        &ocr.OCRSpace{APIKey: cfg.OCRKey},
		LLM:        llm.NewOpenAI(cfg.LLMKey, cfg.LLMBaseURL),
		Rasterizer: &chart.QuickChart{Endpoint: cfg.ChartEndpoint},
		cfg:        cfg,
	}
	if strings.TrimSpace(cfg.SearchKey) != "" {
		p.Search = &search.SerpAPI{APIKey: cfg.SearchKey}
	}
	return p, nil
}

// WithConfig lets tests set tunables on a hand-assembled pipeline.
func (p *Pipeline) WithConfig(cfg Config) *Pipeline {
	p.cfg = cfg
	return p
}

func (c Config) ocrTimeout() time.Duration    { return orDuration(c.OCRTimeout, 60*time.Second) }
func (c Config) llmTimeout() time.Duration    { return orDuration(c.LLMTimeout, 180*time.Second) }
func (c Config) searchTimeout() time.Duration { return orDuration(c.SearchTimeout, 15*time.Second) }
func (c Config) chartTimeout() time.Duration  { return orDuration(c.ChartTimeout, 30*time.Second) }

func orDuration(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}

// Generate runs the full pipeline for one request. Stages run strictly in
// sequence; only enrichment failures are absorbed.
func (p *Pipeline) Generate(ctx context.Context, req Request) (*Document, error) {
	format := req.Format
	if format == "" {
		format = render.FormatPDF
	}
	if format != render.FormatPDF && format != render.FormatDOCX {
		return nil, fmt.Errorf("%w: format must be pdf or docx", acquire.ErrInvalidInput)
	}

	start := time.Now()

	// 1) Text acquisition
	text, err := p.acquireText(ctx, req)
	if err != nil {
		return nil, err
	}

	// 2) Analysis (two passes; research context inside)
	result, err := p.analyzeText(ctx, text, req)
	if err != nil {
		return nil, err
	}

	// 3) Enrichment, optional and never fatal
	p.enrichSources(ctx, result)

	// 4) Charts. PDF only; a derived chart that fails to rasterize aborts
	// the request.
	var images []chart.Image
	if format == render.FormatPDF {
		images, err = p.renderCharts(ctx, result)
		if err != nil {
			return nil, err
		}
	}

	// 5) Document rendering
	opts := render.Options{ConfidenceFloor: p.cfg.ConfidenceFloor}
	var data []byte
	switch format {
	case render.FormatDOCX:
		data, err = render.DOCX(result, opts)
	default:
		data, err = render.PDF(result, images, opts)
	}
	if err != nil {
		return nil, err
	}

	name := req.Filename
	if name == "" {
		name = result.Title
	}
	doc := &Document{
		Bytes:       data,
		Filename:    render.Filename(name, format),
		ContentType: render.ContentType(format),
	}
	log.Info().
		Str("filename", doc.Filename).
		Int("bytes", len(doc.Bytes)).
		Int("sources", len(result.Sources)).
		Int("charts", len(images)).
		Dur("elapsed", time.Since(start)).
		Msg("report generated")
	return doc, nil
}

func (p *Pipeline) acquireText(ctx context.Context, req Request) (string, error) {
	in := acquire.Input{
		Text:       req.Text,
		URL:        req.URL,
		FileBase64: req.FileBase64,
		Filename:   req.Filename,
		Language:   req.Language,
	}
	// the literal-text path never dials out; only OCR needs a deadline
	if strings.TrimSpace(req.Text) != "" {
		return acquire.Text(ctx, in, p.OCR)
	}
	ocrCtx, cancel := context.WithTimeout(ctx, p.cfg.ocrTimeout())
	defer cancel()
	return acquire.Text(ocrCtx, in, p.OCR)
}

func (p *Pipeline) analyzeText(ctx context.Context, text string, req Request) (*analysis.Result, error) {
	a := &analyze.Analyzer{
		Client:             p.LLM,
		Model:              p.cfg.LLMModel,
		Research:           p.Search,
		MaxResearchResults: p.cfg.MaxSearchResults,
	}
	llmCtx, cancel := context.WithTimeout(ctx, p.cfg.llmTimeout())
	defer cancel()
	meta := map[string]any{}
	if req.URL != "" {
		meta["source"] = req.URL
	}
	if req.Filename != "" {
		meta["filename"] = req.Filename
	}
	if req.Language != "" {
		meta["language"] = req.Language
	}
	return a.Analyze(llmCtx, analyze.Input{Text: text, TitleHint: req.Filename, Meta: meta})
}

func (p *Pipeline) enrichSources(ctx context.Context, result *analysis.Result) {
	if p.Search == nil {
		return
	}
	e := &enrich.Enricher{Provider: p.Search, MaxResults: p.cfg.MaxSearchResults}
	searchCtx, cancel := context.WithTimeout(ctx, p.cfg.searchTimeout())
	defer cancel()
	e.Append(searchCtx, result, result.Title)
}

func (p *Pipeline) renderCharts(ctx context.Context, result *analysis.Result) ([]chart.Image, error) {
	if p.Rasterizer == nil {
		return nil, nil
	}
	specs := chart.Derive(result)
	images := make([]chart.Image, 0, len(specs))
	for _, spec := range specs {
		chartCtx, cancel := context.WithTimeout(ctx, p.cfg.chartTimeout())
		img, err := p.Rasterizer.Render(chartCtx, spec)
		cancel()
		if err != nil {
			return nil, err
		}
		images = append(images, chart.Image{Spec: spec, Bytes: img})
	}
	return images, nil
}
