// ABOUTME: OpenAI chat-completions backend with JSON-schema structured output.
// ABOUTME: Works against the hosted API or any compatible server via BaseURL.

package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/2389/partnergen/internal/prompt"
)

// DefaultTemperature keeps answers close to the instructions.
const DefaultTemperature = 0.2

// OpenAIConfig configures OpenAIBackend.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	HTTPClient  *http.Client
}

// OpenAIBackend talks to an OpenAI-compatible chat completions endpoint.
type OpenAIBackend struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func init() {
	Register("openai", func(_ context.Context, cfg ProviderConfig) (Backend, error) {
		return NewOpenAIBackend(OpenAIConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
	})
}

// NewOpenAIBackend creates a backend from cfg.
func NewOpenAIBackend(cfg OpenAIConfig) (*OpenAIBackend, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("openai: model is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	return &OpenAIBackend{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (b *OpenAIBackend) Name() string  { return "openai" }
func (b *OpenAIBackend) Model() string { return b.model }

// Complete sends req as a system and user message pair.
func (b *OpenAIBackend) Complete(ctx context.Context, req prompt.Request) (*Response, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature:         b.temperature,
		MaxCompletionTokens: b.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.SchemaName,
				Schema: req.Schema,
				Strict: false,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	out := &Response{Messages: make([]Message, 0, len(resp.Choices))}
	for _, choice := range resp.Choices {
		out.Messages = append(out.Messages, Message{
			Content:      choice.Message.Content,
			FinishReason: string(choice.FinishReason),
		})
	}
	return out, nil
}
