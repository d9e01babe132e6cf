package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mayedalfalasi/bizdoc-min/internal/acquire"
	"github.com/mayedalfalasi/bizdoc-min/internal/chart"
	"github.com/mayedalfalasi/bizdoc-min/internal/render"
	"github.com/mayedalfalasi/bizdoc-min/internal/search"
)

type fakeOCR struct {
	text  string
	calls int
}

func (f *fakeOCR) ExtractURL(ctx context.Context, url, language string) (string, error) {
	f.calls++
	return f.text, nil
}

func (f *fakeOCR) ExtractBytes(ctx context.Context, data []byte, filename, language string) (string, error) {
	f.calls++
	return f.text, nil
}

type fakeLLM struct {
	responses []string
	calls     int
}

func (f *fakeLLM) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	i := f.calls
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	f.calls++
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Content: f.responses[i]},
		}},
	}, nil
}

type failingSearch struct{}

func (failingSearch) Search(ctx context.Context, query string, limit int) ([]search.Result, error) {
	return nil, errors.New("network unreachable")
}

func (failingSearch) Name() string { return "failing" }

type pngRasterizer struct{}

func (pngRasterizer) Render(ctx context.Context, spec chart.Spec) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type failingRasterizer struct{}

func (failingRasterizer) Render(ctx context.Context, spec chart.Spec) ([]byte, error) {
	return nil, chart.ErrRender
}

const finalAnalysisJSON = `{
	"title": "Acme Q1",
	"executiveSummary": "Revenue grew to $10M in Q1 [1].",
	"keyMetrics": [
		{"label": "Revenue", "value": 10000000, "unit": "USD"},
		{"label": "Gross Profit", "value": 4000000, "unit": "USD"}
	],
	"riskScores": {"financialStability": 4, "liquidity": 3, "concentrationRisk": 2, "compliance": 4, "growthOutlook": 5},
	"keyFindings": ["Strong quarter"],
	"sources": [{"title": "Press release", "url": "https://acme.example/pr"}],
	"confidence": 0.8
}`

func testPipeline(llm *fakeLLM, prov search.Provider, ras chart.Rasterizer) *Pipeline {
	return (&Pipeline{
		OCR:        &fakeOCR{},
		LLM:        llm,
		Search:     prov,
		Rasterizer: ras,
	}).WithConfig(Config{})
}

func TestGenerate_TextInputProducesPDF(t *testing.T) {
	fllm := &fakeLLM{responses: []string{`{"title":"draft"}`, finalAnalysisJSON}}
	focr := &fakeOCR{text: "should not be used"}
	p := testPipeline(fllm, nil, pngRasterizer{})
	p.OCR = focr

	doc, err := p.Generate(context.Background(), Request{Text: "Revenue grew to $10M in Q1."})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !bytes.HasPrefix(doc.Bytes, []byte("%PDF")) {
		t.Fatalf("expected PDF signature, got %q", doc.Bytes[:8])
	}
	if doc.ContentType != "application/pdf" {
		t.Fatalf("content type: %q", doc.ContentType)
	}
	if !strings.HasSuffix(doc.Filename, ".pdf") {
		t.Fatalf("filename: %q", doc.Filename)
	}
	if focr.calls != 0 {
		t.Fatalf("text input must bypass OCR, got %d calls", focr.calls)
	}
	if fllm.calls != 2 {
		t.Fatalf("expected draft + fact-check passes, got %d", fllm.calls)
	}
}

func TestGenerate_EmptyExtractionFailsWithoutBytes(t *testing.T) {
	p := testPipeline(&fakeLLM{responses: []string{`{}`}}, nil, pngRasterizer{})
	p.OCR = &fakeOCR{text: "   "}

	doc, err := p.Generate(context.Background(), Request{URL: "https://example.com/not-a-pdf"})
	if !errors.Is(err, acquire.ErrEmptyExtraction) {
		t.Fatalf("expected ErrEmptyExtraction, got %v", err)
	}
	if doc != nil {
		t.Fatalf("no document bytes may be returned on failure")
	}
}

func TestGenerate_EnrichmentFailureStillProducesReport(t *testing.T) {
	fllm := &fakeLLM{responses: []string{`{"title":"draft"}`, finalAnalysisJSON}}
	p := testPipeline(fllm, failingSearch{}, pngRasterizer{})

	doc, err := p.Generate(context.Background(), Request{Text: "Acme had a strong quarter."})
	if err != nil {
		t.Fatalf("enrichment failure must be absorbed: %v", err)
	}
	if !bytes.HasPrefix(doc.Bytes, []byte("%PDF")) {
		t.Fatalf("expected a PDF despite enrichment failure")
	}
}

func TestGenerate_ChartFailureAborts(t *testing.T) {
	fllm := &fakeLLM{responses: []string{`{"title":"draft"}`, finalAnalysisJSON}}
	p := testPipeline(fllm, nil, failingRasterizer{})

	_, err := p.Generate(context.Background(), Request{Text: "Acme had a strong quarter."})
	if !errors.Is(err, chart.ErrRender) {
		t.Fatalf("expected chart render failure to abort, got %v", err)
	}
}

func TestGenerate_DocxFormat(t *testing.T) {
	fllm := &fakeLLM{responses: []string{`{"title":"draft"}`, finalAnalysisJSON}}
	p := testPipeline(fllm, nil, failingRasterizer{}) // charts must not run for docx

	doc, err := p.Generate(context.Background(), Request{Text: "Acme.", Format: render.FormatDOCX})
	if err != nil {
		t.Fatalf("generate docx: %v", err)
	}
	if !bytes.HasPrefix(doc.Bytes, []byte("PK")) {
		t.Fatalf("expected zip signature")
	}
	if doc.ContentType != render.ContentType(render.FormatDOCX) {
		t.Fatalf("content type: %q", doc.ContentType)
	}
}

func TestGenerate_UnknownFormatIsInvalidInput(t *testing.T) {
	p := testPipeline(&fakeLLM{responses: []string{`{}`}}, nil, nil)
	_, err := p.Generate(context.Background(), Request{Text: "x", Format: render.Format("rtf")})
	if !errors.Is(err, acquire.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNew_MissingConfiguration(t *testing.T) {
	_, err := New(Config{LLMKey: "k"})
	if !errors.Is(err, ErrMissingConfiguration) {
		t.Fatalf("expected ErrMissingConfiguration, got %v", err)
	}
	if !strings.Contains(err.Error(), "ocrKey") {
		t.Fatalf("error should name the missing key, got %v", err)
	}
	if _, err := New(Config{OCRKey: "o", LLMKey: "l"}); err != nil {
		t.Fatalf("complete config must construct: %v", err)
	}
}
