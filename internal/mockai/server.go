// ABOUTME: OpenAI-compatible mock chat-completions service for dry runs and end-to-end tests.
// ABOUTME: Reads the hard constraints out of the prompt and fabricates matching contacts.

package mockai

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/2389/partnergen/internal/auth"
	apierrors "github.com/2389/partnergen/internal/errors"
	"github.com/2389/partnergen/internal/logging"
	"github.com/2389/partnergen/internal/mockai/seed"
)

// Model names with special behavior. Any other model answers normally.
const (
	ModelDefault  = "mock-contacts"
	ModelTruncate = "mock-truncate"
	ModelError    = "mock-error"
)

// maxBatch caps the contacts returned per call, like a real service running
// out of output tokens on large requests.
const maxBatch = 60

var (
	constraintsRe = regexp.MustCompile(`country=([^,\s]+), language=([^,\s]+), type=([a-z]+)`)
	targetRe      = regexp.MustCompile(`at least (\d+) '`)
	cityRe        = regexp.MustCompile(`strongly tied to (.+?)\.\n`)
)

// chatRequest is the subset of a chat completion request the mock reads.
// The response schema is kept raw; the service never enforces it.
type chatRequest struct {
	Model               string                         `json:"model"`
	Messages            []openai.ChatCompletionMessage `json:"messages"`
	ResponseFormat      json.RawMessage                `json:"response_format,omitempty"`
	MaxCompletionTokens int                            `json:"max_completion_tokens,omitempty"`
}

type item struct {
	Name         string  `json:"name"`
	Email        *string `json:"email"`
	Country      string  `json:"country"`
	Language     string  `json:"language"`
	City         string  `json:"city"`
	Instagram    *string `json:"instagram"`
	Phone        *string `json:"phone"`
	Organization *string `json:"organization"`
	Type         string  `json:"type"`
	Notes        *string `json:"notes"`
}

// Server fabricates contacts. Each (city, type) keeps its own cursor into the
// seed pools so follow-up calls return new contacts.
type Server struct {
	logger *zap.Logger
	tokens []string

	mu      sync.Mutex
	cursors map[string]int
	calls   int
}

// New creates a Server. When tokens is non-empty only those bearer tokens
// are accepted.
func New(logger *zap.Logger, tokens ...string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		logger:  logger,
		tokens:  tokens,
		cursors: make(map[string]int),
	}
}

// Calls returns how many chat completions have been served.
func (s *Server) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(logging.Middleware(s.logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(s.tokens...))
		r.Get("/v1/models", s.listModels)
		r.Post("/v1/chat/completions", s.chatCompletions)
	})

	return r
}

func (s *Server) listModels(w http.ResponseWriter, r *http.Request) {
	now := time.Now().Unix()
	var models []openai.Model
	for _, id := range []string{ModelDefault, ModelTruncate, ModelError} {
		models = append(models, openai.Model{ID: id, Object: "model", CreatedAt: now, OwnedBy: "partnergen"})
	}
	writeJSON(w, http.StatusOK, map[string]any{"object": "list", "data": models})
}

func (s *Server) chatCompletions(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrInvalidBody, "Invalid JSON body: "+err.Error())
		return
	}
	if req.Model == "" {
		apierrors.WriteErrorWithParam(w, http.StatusBadRequest, apierrors.ErrMissingField,
			"you must provide a model parameter", "model")
		return
	}
	if len(req.Messages) == 0 {
		apierrors.WriteErrorWithParam(w, http.StatusBadRequest, apierrors.ErrMissingField,
			"messages must not be empty", "messages")
		return
	}
	if req.Model == ModelError {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrInternal,
			"The server had an error while processing your request.")
		return
	}

	user := lastUserMessage(req.Messages)
	m := constraintsRe.FindStringSubmatch(user)
	if m == nil {
		apierrors.WriteErrorWithParam(w, http.StatusBadRequest, apierrors.ErrInvalidRequest,
			"user message carries no hard constraints", "messages")
		return
	}
	country, language, partnerType := m[1], m[2], m[3]
	city := "Unknown"
	if cm := cityRe.FindStringSubmatch(user + "\n"); cm != nil {
		city = cm[1]
	}
	target := 10
	if tm := targetRe.FindStringSubmatch(user); tm != nil {
		if n, err := strconv.Atoi(tm[1]); err == nil && n > 0 {
			target = n
		}
	}
	if target > maxBatch {
		target = maxBatch
	}

	offset := s.advance(city+"|"+partnerType, target)
	items := make([]item, 0, target+1)
	for _, c := range seed.Contacts(city, partnerType, offset, target) {
		items = append(items, item{
			Name:         c.Name,
			Email:        nullable(c.Email),
			Country:      country,
			Language:     language,
			City:         city,
			Instagram:    nullable(c.Instagram),
			Phone:        nullable(c.Phone),
			Organization: nullable(c.Organization),
			Type:         partnerType,
			Notes:        nullable(c.Notes),
		})
	}
	// Services repeat themselves; clients are expected to dedupe.
	if len(items) > 1 {
		items = append(items, items[0])
	}

	body, err := json.Marshal(map[string]any{"contacts": items})
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrInternal, err.Error())
		return
	}
	content := string(body)
	finish := openai.FinishReasonStop
	if req.Model == ModelTruncate {
		content = content[:len(content)*2/3]
		finish = openai.FinishReasonLength
	}

	s.logger.Debug("mock completion",
		zap.String("model", req.Model),
		zap.String("city", city),
		zap.String("type", partnerType),
		zap.Int("contacts", len(items)),
		zap.Int("offset", offset),
		zap.String("finish_reason", string(finish)))

	writeJSON(w, http.StatusOK, openai.ChatCompletionResponse{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []openai.ChatCompletionChoice{{
			Index: 0,
			Message: openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: content,
			},
			FinishReason: finish,
		}},
		Usage: openai.Usage{
			PromptTokens:     len(user) / 4,
			CompletionTokens: len(content) / 4,
			TotalTokens:      (len(user) + len(content)) / 4,
		},
	})
}

func (s *Server) advance(key string, n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	offset := s.cursors[key]
	s.cursors[key] = offset + n
	return offset
}

func lastUserMessage(msgs []openai.ChatCompletionMessage) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == openai.ChatMessageRoleUser {
			return msgs[i].Content
		}
	}
	return ""
}

func nullable(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
