package nl2sql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/querysmith/querysmith/internal/observability"
)

// DefaultFallbackModels is tried, in order, after any models reported
// live by the provider. Later entries are older families kept as a
// safety net for regional availability gaps.
var DefaultFallbackModels = []string{
	"gemini-2.5-pro",
	"gemini-1.5",
	"gemini-1.0",
	"gemini-1",
}

const (
	conventionGenerate = "generate-content"
	conventionChat     = "chat"

	defaultGeminiTimeout = 15 * time.Second
)

type GeminiConfig struct {
	BaseURL        string
	APIKey         string
	FallbackModels []string
	Temperature    float64
	Timeout        time.Duration
	HTTPClient     *http.Client
	Logger         *slog.Logger
}

// GeminiTranslator converts natural language to SQL by walking an
// ordered list of model candidates, trying each model under both call
// conventions before moving on.
type GeminiTranslator struct {
	baseURL        string
	apiKey         string
	fallbackModels []string
	temperature    float64
	client         *http.Client
	logger         *slog.Logger
}

func NewGeminiTranslator(cfg GeminiConfig) (*GeminiTranslator, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("gemini base url is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	fallbacks := cfg.FallbackModels
	if len(fallbacks) == 0 {
		fallbacks = DefaultFallbackModels
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultGeminiTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiTranslator{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		fallbackModels: append([]string(nil), fallbacks...),
		temperature:    cfg.Temperature,
		client:         client,
		logger:         logger,
	}, nil
}

// Attempt records one model invocation during fallback.
type Attempt struct {
	Model      string `json:"model"`
	Convention string `json:"convention"`
	Message    string `json:"message"`
}

// ExhaustionError reports that every candidate model failed to produce
// usable SQL. It carries the full attempt log so callers can show why
// each candidate was rejected.
type ExhaustionError struct {
	Candidates []string
	Attempts   []Attempt
}

func (e *ExhaustionError) Error() string {
	var b strings.Builder
	b.WriteString("all model candidates exhausted [")
	b.WriteString(strings.Join(e.Candidates, ", "))
	b.WriteString("]")
	for _, attempt := range e.Attempts {
		b.WriteString("; ")
		b.WriteString(attempt.Model)
		b.WriteString(" (")
		b.WriteString(attempt.Convention)
		b.WriteString("): ")
		b.WriteString(attempt.Message)
	}
	return b.String()
}

func (t *GeminiTranslator) Translate(ctx context.Context, req Request) (Result, error) {
	prompt := BuildPrompt(req)
	available := t.listModels(ctx)
	candidates := mergeCandidates(available, t.fallbackModels)

	result, attempts := t.invokeCandidates(ctx, candidates, prompt)
	if result != nil {
		return *result, nil
	}

	observability.IncrementTranslateExhausted()
	return Result{}, &ExhaustionError{Candidates: candidates, Attempts: attempts}
}

// listModels asks the provider which models the key can use. Failures
// are logged and swallowed; the static fallback list still applies.
func (t *GeminiTranslator) listModels(ctx context.Context) []string {
	url := t.baseURL + "/v1beta/models"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	httpReq.Header.Set("x-goog-api-key", t.apiKey)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		t.logger.Warn("model discovery failed", "error", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.logger.Warn("model discovery failed", "status", resp.StatusCode)
		return nil
	}

	var body struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.logger.Warn("model discovery decode failed", "error", err)
		return nil
	}

	names := make([]string, 0, len(body.Models))
	for _, model := range body.Models {
		names = append(names, strings.TrimPrefix(model.Name, "models/"))
	}
	return names
}

// mergeCandidates combines discovered models with static fallbacks,
// dropping blanks and duplicates while keeping first-seen order.
func mergeCandidates(available, fallbacks []string) []string {
	seen := make(map[string]struct{}, len(available)+len(fallbacks))
	merged := make([]string, 0, len(available)+len(fallbacks))
	for _, name := range append(append([]string(nil), available...), fallbacks...) {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		merged = append(merged, name)
	}
	return merged
}

// invokeCandidates walks the candidate list until one attempt yields
// non-empty SQL. It returns the winning result, or nil plus the full
// attempt log when every candidate failed.
func (t *GeminiTranslator) invokeCandidates(ctx context.Context, candidates []string, prompt string) (*Result, []Attempt) {
	attempts := make([]Attempt, 0, len(candidates)*2)
	for _, model := range candidates {
		for _, convention := range []string{conventionGenerate, conventionChat} {
			sql, err := t.invoke(ctx, model, convention, prompt)
			if err != nil {
				observability.ObserveTranslateAttempt(model, convention, "error")
				t.logger.Debug("model attempt failed", "model", model, "convention", convention, "error", err)
				attempts = append(attempts, Attempt{Model: model, Convention: convention, Message: err.Error()})
				continue
			}
			if sql == "" {
				observability.ObserveTranslateAttempt(model, convention, "empty")
				attempts = append(attempts, Attempt{Model: model, Convention: convention, Message: "empty response"})
				continue
			}
			observability.ObserveTranslateAttempt(model, convention, "ok")
			return &Result{SQL: sql, Provider: "gemini", Model: model}, attempts
		}
	}
	return nil, attempts
}

func (t *GeminiTranslator) invoke(ctx context.Context, model, convention, prompt string) (string, error) {
	switch convention {
	case conventionGenerate:
		return t.generateContent(ctx, model, prompt)
	case conventionChat:
		return t.chatCompletion(ctx, model, prompt)
	default:
		return "", fmt.Errorf("unknown call convention %q", convention)
	}
}

func (t *GeminiTranslator) generateContent(ctx context.Context, model, prompt string) (string, error) {
	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", t.baseURL, model)
	payload, err := t.post(ctx, url, body, map[string]string{"x-goog-api-key": t.apiKey})
	if err != nil {
		return "", err
	}
	return CleanSQL(ExtractText(payload)), nil
}

func (t *GeminiTranslator) chatCompletion(ctx context.Context, model, prompt string) (string, error) {
	body := map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": prompt},
		},
		"temperature": t.temperature,
	}
	url := t.baseURL + "/v1beta/openai/chat/completions"
	payload, err := t.post(ctx, url, body, map[string]string{"Authorization": "Bearer " + t.apiKey})
	if err != nil {
		return "", err
	}
	return CleanSQL(ExtractText(payload)), nil
}

func (t *GeminiTranslator) post(ctx context.Context, url string, body any, headers map[string]string) ([]byte, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, truncateBody(payload))
	}
	return payload, nil
}

func truncateBody(payload []byte) string {
	const limit = 256
	text := strings.TrimSpace(string(payload))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
