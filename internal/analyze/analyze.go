// Package analyze runs the structured-extraction stage: a first-draft pass
// over the raw text, an optional research lookup, and a fact-check pass that
// produces the final canonical analysis.
package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/mayedalfalasi/bizdoc-min/internal/analysis"
	"github.com/mayedalfalasi/bizdoc-min/internal/llm"
	"github.com/mayedalfalasi/bizdoc-min/internal/search"
)

// MaxPromptChars bounds how much document text is sent upstream. This is a
// cost and latency bound, not a correctness one; longer documents simply
// degrade summary quality past this prefix.
const MaxPromptChars = 45000

const defaultModel = "gpt-4o-mini"

var (
	// ErrUpstreamUnavailable means the model endpoint was unreachable or
	// answered with a transport-level failure.
	ErrUpstreamUnavailable = errors.New("analyze: upstream unavailable")

	// ErrUpstreamFormat means the response envelope could not be parsed as
	// the strict JSON object that was requested.
	ErrUpstreamFormat = errors.New("analyze: upstream returned malformed payload")

	// ErrUpstreamRefused means the service returned an explicit error
	// payload, typically a credential or quota problem.
	ErrUpstreamRefused = errors.New("analyze: upstream refused request")
)

// Analyzer drives the extraction model. Research is optional: when nil, the
// fact-check pass runs without external context.
type Analyzer struct {
	Client             llm.Client
	Model              string
	Research           search.Provider
	MaxResearchResults int
}

// Input bundles acquired text with request metadata carried through to the
// result's pass-through bags.
type Input struct {
	Text      string
	TitleHint string
	Meta      map[string]any
}

// Analyze produces the canonical analysis result. Pass one drafts a
// structured analysis from text alone; pass two verifies it against any
// research findings and emits the final scores, confidence, and citations.
// The draft never survives: pass two's output supersedes it entirely.
func (a *Analyzer) Analyze(ctx context.Context, in Input) (*analysis.Result, error) {
	if a.Client == nil {
		return nil, fmt.Errorf("%w: no client configured", ErrUpstreamUnavailable)
	}
	model := a.Model
	if model == "" {
		model = defaultModel
	}
	text := truncate(in.Text, MaxPromptChars)

	draft, err := a.complete(ctx, model, 0.3, draftPrompt(text, in.TitleHint))
	if err != nil {
		return nil, err
	}

	findings := a.research(ctx, draft, in.TitleHint)

	final, err := a.complete(ctx, model, 0.2, factCheckPrompt(draft, findings))
	if err != nil {
		return nil, err
	}

	result := analysis.FromMap(final)
	if result.Title == "" {
		result.Title = strings.TrimSpace(in.TitleHint)
	}
	result.Meta = map[string]any{
		"generatedAt": time.Now().UTC().Format(time.RFC3339),
		"model":       model,
	}
	input := map[string]any{"bytes": len(in.Text)}
	for k, v := range in.Meta {
		input[k] = v
	}
	result.Input = input
	return result, nil
}

// truncate cuts s to at most max bytes, backing off so the cut never lands
// inside a multi-byte rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// complete issues one strict-JSON chat completion and decodes the envelope.
func (a *Analyzer) complete(ctx context.Context, model string, temperature float32, user string) (map[string]any, error) {
	req := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a senior financial/business analyst. Return only valid JSON."},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		N: 1,
	}
	resp, err := a.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: %s", ErrUpstreamRefused, apiErr.Message)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty choices", ErrUpstreamFormat)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	var doc map[string]any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFormat, err)
	}
	return doc, nil
}

// research runs the optional lookup between the two passes. Failures here
// are logged and ignored; the fact-check pass simply gets no context.
func (a *Analyzer) research(ctx context.Context, draft map[string]any, titleHint string) []search.Result {
	if a.Research == nil {
		return nil
	}
	query := researchQuery(draft, titleHint)
	if query == "" {
		return nil
	}
	limit := a.MaxResearchResults
	if limit <= 0 {
		limit = 6
	}
	results, err := a.Research.Search(ctx, query, limit)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("research lookup failed; fact-check pass proceeds without context")
		return nil
	}
	return results
}

// researchQuery prefers the draft title, then the first company entity,
// then the caller's hint.
func researchQuery(draft map[string]any, titleHint string) string {
	if t, ok := draft["title"].(string); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	if e, ok := draft["entities"].(map[string]any); ok {
		if cs, ok := e["companies"].([]any); ok && len(cs) > 0 {
			if c, ok := cs[0].(string); ok && strings.TrimSpace(c) != "" {
				return strings.TrimSpace(c)
			}
		}
	}
	return strings.TrimSpace(titleHint)
}
