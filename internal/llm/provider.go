package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// Client is everything the analysis stage asks of a chat model: one
// completion call. Keeping the surface this small lets tests script
// responses with a fake and lets deployments point at any
// OpenAI-compatible backend.
type Client interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIProvider adapts *openai.Client to the Client interface.
type OpenAIProvider struct {
	Inner *openai.Client
}

func (p *OpenAIProvider) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return p.Inner.CreateChatCompletion(ctx, request)
}

// NewOpenAI builds a provider for the given API key. baseURL overrides the
// default endpoint when pointing at a compatible proxy; empty keeps the
// public default.
func NewOpenAI(apiKey, baseURL string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{Inner: openai.NewClientWithConfig(cfg)}
}
