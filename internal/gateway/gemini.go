// ABOUTME: Gemini backend using the Google Gen AI SDK with a JSON response schema.
// ABOUTME: Maps candidates, including function-call arguments, onto gateway messages.

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/2389/partnergen/internal/prompt"
)

// GeminiConfig configures GeminiBackend.
type GeminiConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int32
	HTTPClient  *http.Client
}

// GeminiBackend talks to the Gemini API.
type GeminiBackend struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

func init() {
	Register("gemini", func(ctx context.Context, cfg ProviderConfig) (Backend, error) {
		return NewGeminiBackend(ctx, GeminiConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   int32(cfg.MaxTokens),
		})
	})
}

// NewGeminiBackend creates a backend from cfg.
func NewGeminiBackend(ctx context.Context, cfg GeminiConfig) (*GeminiBackend, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("gemini: model is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiBackend{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (b *GeminiBackend) Name() string  { return "gemini" }
func (b *GeminiBackend) Model() string { return b.model }

// Complete sends req with the schema as the response contract.
func (b *GeminiBackend) Complete(ctx context.Context, req prompt.Request) (*Response, error) {
	var schema any
	if len(req.Schema) > 0 {
		if err := json.Unmarshal(req.Schema, &schema); err != nil {
			return nil, fmt.Errorf("decode schema: %w", err)
		}
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction:  genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:        genai.Ptr(b.temperature),
		ResponseMIMEType:   "application/json",
		ResponseJsonSchema: schema,
	}
	if b.maxTokens > 0 {
		config.MaxOutputTokens = b.maxTokens
	}

	resp, err := b.client.Models.GenerateContent(ctx, b.model, genai.Text(req.User), config)
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}
	return fromGemini(resp), nil
}

func fromGemini(resp *genai.GenerateContentResponse) *Response {
	out := &Response{}
	if resp == nil {
		return out
	}
	for _, cand := range resp.Candidates {
		if cand == nil {
			continue
		}
		msg := Message{FinishReason: geminiFinishReason(cand.FinishReason)}
		if cand.Content != nil {
			var text strings.Builder
			for _, part := range cand.Content.Parts {
				if part == nil || part.Thought {
					continue
				}
				if part.FunctionCall != nil && msg.Parsed == nil {
					msg.Parsed = part.FunctionCall.Args
				}
				text.WriteString(part.Text)
			}
			msg.Content = text.String()
		}
		out.Messages = append(out.Messages, msg)
	}
	return out
}

// geminiFinishReason maps Gemini reasons onto the OpenAI vocabulary used in logs.
func geminiFinishReason(r genai.FinishReason) string {
	switch r {
	case genai.FinishReasonStop:
		return "stop"
	case genai.FinishReasonMaxTokens:
		return "length"
	case "":
		return ""
	default:
		return strings.ToLower(string(r))
	}
}
