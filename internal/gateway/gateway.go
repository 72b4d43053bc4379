// ABOUTME: Provider-independent gateway to a generative language service.
// ABOUTME: Runs the extractor chain and checks the contacts envelope on every response.

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/2389/partnergen/internal/prompt"
)

// Message is one candidate answer from the service.
type Message struct {
	Parsed       map[string]any
	Content      string
	FinishReason string
}

// Response holds the shapes a service may answer with. Any of them may be empty.
type Response struct {
	Parsed   map[string]any
	Messages []Message
}

func (r *Response) first() *Message {
	if r == nil || len(r.Messages) == 0 {
		return nil
	}
	return &r.Messages[0]
}

func (r *Response) size() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, m := range r.Messages {
		n += len(m.Content)
	}
	return n
}

// Backend sends one request to a concrete provider.
type Backend interface {
	Name() string
	Model() string
	Complete(ctx context.Context, req prompt.Request) (*Response, error)
}

// Result is a successful generation.
type Result struct {
	Contacts     []any
	Repaired     bool
	FinishReason string
	Extractor    string
}

// CallInfo describes one finished call, successful or not.
type CallInfo struct {
	Provider      string
	Model         string
	Duration      time.Duration
	ResponseBytes int
	FinishReason  string
	Repaired      bool
	Err           error
}

// Gateway turns prompt requests into raw contact lists.
type Gateway struct {
	backend    Backend
	extractors []Extractor
	logger     *zap.Logger
	timeout    time.Duration
	hook       func(CallInfo)
	envelope   *gojsonschema.Schema
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithTimeout bounds each call. Zero means no extra bound.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.timeout = d }
}

// WithExtractors replaces the default extractor chain.
func WithExtractors(ex ...Extractor) Option {
	return func(g *Gateway) { g.extractors = ex }
}

// WithCallHook registers a function called after every request.
func WithCallHook(fn func(CallInfo)) Option {
	return func(g *Gateway) { g.hook = fn }
}

var envelopeSchema = gojsonschema.NewGoLoader(map[string]any{
	"type":     "object",
	"required": []string{"contacts"},
	"properties": map[string]any{
		"contacts": map[string]any{"type": "array"},
	},
})

// New creates a gateway over backend.
func New(backend Backend, opts ...Option) (*Gateway, error) {
	if backend == nil {
		return nil, errors.New("gateway: backend is required")
	}
	envelope, err := gojsonschema.NewSchema(envelopeSchema)
	if err != nil {
		return nil, fmt.Errorf("compile envelope schema: %w", err)
	}
	g := &Gateway{
		backend:    backend,
		extractors: DefaultExtractors(),
		logger:     zap.NewNop(),
		envelope:   envelope,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Provider returns the backend name.
func (g *Gateway) Provider() string {
	return g.backend.Name()
}

// Generate sends req and returns the raw contacts array from the answer.
func (g *Gateway) Generate(ctx context.Context, req prompt.Request) (*Result, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.backend.Complete(ctx, req)
	info := CallInfo{
		Provider:      g.backend.Name(),
		Model:         g.backend.Model(),
		Duration:      time.Since(start),
		ResponseBytes: resp.size(),
	}
	if m := resp.first(); m != nil {
		info.FinishReason = m.FinishReason
	}

	result, err := g.interpret(resp, err)
	if result != nil {
		info.Repaired = result.Repaired
	}
	info.Err = err
	g.report(info)
	return result, err
}

func (g *Gateway) interpret(resp *Response, callErr error) (*Result, error) {
	provider := g.backend.Name()
	if callErr != nil {
		return nil, &GatewayError{Op: OpRequest, Provider: provider, Err: callErr}
	}

	for _, ex := range g.extractors {
		if !ex.CanExtract(resp) {
			continue
		}
		out, err := ex.Extract(resp)
		if err != nil {
			var gwErr *GatewayError
			if errors.As(err, &gwErr) {
				gwErr.Provider = provider
				return nil, gwErr
			}
			return nil, &GatewayError{Op: OpExtract, Provider: provider, Err: err}
		}

		contacts, err := g.contacts(out.Doc)
		if err != nil {
			return nil, &GatewayError{Op: OpContract, Provider: provider, Err: err}
		}

		result := &Result{Contacts: contacts, Repaired: out.Repaired, Extractor: ex.Name()}
		if m := resp.first(); m != nil {
			result.FinishReason = m.FinishReason
		}
		if out.Repaired {
			g.logger.Warn("repaired truncated response",
				zap.String("provider", provider),
				zap.Int("contacts", len(contacts)),
				zap.String("finish_reason", result.FinishReason))
		}
		return result, nil
	}

	return nil, &GatewayError{Op: OpExtract, Provider: provider, Err: errors.New("response contains no usable content")}
}

func (g *Gateway) contacts(doc any) ([]any, error) {
	res, err := g.envelope.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("check envelope: %w", err)
	}
	if !res.Valid() {
		return nil, fmt.Errorf("payload is not a contacts object: %v", res.Errors())
	}
	obj, _ := doc.(map[string]any)
	if list, ok := obj["contacts"].([]any); ok {
		return list, nil
	}

	// Typed slices from pre-parsed responses go through JSON once.
	b, err := json.Marshal(obj["contacts"])
	if err != nil {
		return nil, fmt.Errorf("encode contacts: %w", err)
	}
	var list []any
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("decode contacts: %w", err)
	}
	return list, nil
}

func (g *Gateway) report(info CallInfo) {
	fields := []zap.Field{
		zap.String("provider", info.Provider),
		zap.String("model", info.Model),
		zap.Duration("duration", info.Duration),
		zap.Int("response_bytes", info.ResponseBytes),
		zap.String("finish_reason", info.FinishReason),
	}
	if info.Err != nil {
		g.logger.Debug("generation call failed", append(fields, zap.Error(info.Err))...)
	} else {
		g.logger.Debug("generation call", fields...)
	}
	if g.hook != nil {
		g.hook(info)
	}
}
