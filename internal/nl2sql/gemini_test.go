package nl2sql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/querysmith/querysmith/internal/schema"
)

func TestMergeCandidates(t *testing.T) {
	got := mergeCandidates(
		[]string{"gemini-2.5-pro", "", "gemini-flash", "gemini-2.5-pro"},
		[]string{"gemini-flash", "gemini-1.5", " "},
	)
	want := []string{"gemini-2.5-pro", "gemini-flash", "gemini-1.5"}
	if len(got) != len(want) {
		t.Fatalf("mergeCandidates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("mergeCandidates = %v, want %v", got, want)
		}
	}
}

func newTestTranslator(t *testing.T, baseURL string, fallbacks []string) *GeminiTranslator {
	t.Helper()
	translator, err := NewGeminiTranslator(GeminiConfig{
		BaseURL:        baseURL,
		APIKey:         "test-key",
		FallbackModels: fallbacks,
	})
	if err != nil {
		t.Fatalf("NewGeminiTranslator: %v", err)
	}
	return translator
}

func TestTranslateFirstCandidateWins(t *testing.T) {
	var generateCalls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1beta/models":
			json.NewEncoder(w).Encode(map[string]any{
				"models": []map[string]string{{"name": "models/gemini-2.5-pro"}},
			})
		case strings.HasSuffix(r.URL.Path, ":generateContent"):
			generateCalls.Add(1)
			if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
				t.Errorf("api key header = %q", got)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"candidates": []map[string]any{{
					"content": map[string]any{
						"parts": []map[string]string{{"text": "```sql\nSELECT * FROM customers;\n```"}},
					},
				}},
			})
		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	translator := newTestTranslator(t, server.URL, []string{"gemini-1.5"})
	result, err := translator.Translate(context.Background(), Request{
		NaturalLanguage: "show me all customers",
		Dialect:         "MySQL",
		Schema: schema.Summary{Databases: []schema.DatabaseSchema{{
			Name:   "shop",
			Tables: []schema.TableSchema{{Name: "customers", Columns: []string{"id", "name"}}},
		}}},
	})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if result.SQL != "SELECT * FROM customers;" {
		t.Fatalf("SQL = %q", result.SQL)
	}
	if result.Model != "gemini-2.5-pro" || result.Provider != "gemini" {
		t.Fatalf("unexpected result metadata: %+v", result)
	}
	if calls := generateCalls.Load(); calls != 1 {
		t.Fatalf("generateContent called %d times, want 1", calls)
	}
}

func TestTranslateFallsBackToChatConvention(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1beta/models":
			w.WriteHeader(http.StatusForbidden)
		case strings.HasSuffix(r.URL.Path, ":generateContent"):
			w.WriteHeader(http.StatusNotFound)
		case r.URL.Path == "/v1beta/openai/chat/completions":
			if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
				t.Errorf("authorization header = %q", got)
			}
			var body struct {
				Model       string  `json:"model"`
				Temperature float64 `json:"temperature"`
				Messages    []struct {
					Role string `json:"role"`
				} `json:"messages"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode chat body: %v", err)
			}
			if body.Temperature != 0 {
				t.Errorf("temperature = %v, want 0", body.Temperature)
			}
			if len(body.Messages) != 2 || body.Messages[0].Role != "system" {
				t.Errorf("unexpected messages: %+v", body.Messages)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{{
					"message": map[string]string{"role": "assistant", "content": "SELECT count(*) FROM orders;"},
				}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	translator := newTestTranslator(t, server.URL, []string{"gemini-1.5"})
	result, err := translator.Translate(context.Background(), Request{NaturalLanguage: "how many orders"})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if result.SQL != "SELECT count(*) FROM orders;" {
		t.Fatalf("SQL = %q", result.SQL)
	}
	if result.Model != "gemini-1.5" {
		t.Fatalf("model = %q", result.Model)
	}
}

func TestTranslateExhaustionListsEveryCandidate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1beta/models" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "quota exceeded")
	}))
	defer server.Close()

	fallbacks := []string{"gemini-2.5-pro", "gemini-1.5", "gemini-1.0"}
	translator := newTestTranslator(t, server.URL, fallbacks)
	_, err := translator.Translate(context.Background(), Request{NaturalLanguage: "anything"})
	if err == nil {
		t.Fatal("expected exhaustion error")
	}

	var exhausted *ExhaustionError
	if !errors.As(err, &exhausted) {
		t.Fatalf("error type = %T, want *ExhaustionError", err)
	}
	if len(exhausted.Attempts) != len(fallbacks)*2 {
		t.Fatalf("attempts = %d, want %d", len(exhausted.Attempts), len(fallbacks)*2)
	}

	message := err.Error()
	for _, model := range fallbacks {
		if !strings.Contains(message, model) {
			t.Fatalf("exhaustion message missing %q: %s", model, message)
		}
	}
	if !strings.Contains(message, "quota exceeded") {
		t.Fatalf("exhaustion message missing provider error: %s", message)
	}
}

func TestTranslateSkipsEmptyResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1beta/models":
			w.WriteHeader(http.StatusForbidden)
		case strings.Contains(r.URL.Path, "gemini-2.5-pro"):
			json.NewEncoder(w).Encode(map[string]any{
				"candidates": []map[string]any{{
					"content": map[string]any{
						"parts": []map[string]string{{"text": ""}},
					},
				}},
			})
		case r.URL.Path == "/v1beta/openai/chat/completions":
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{{
					"message": map[string]string{"content": ""},
				}},
			})
		default:
			json.NewEncoder(w).Encode(map[string]any{
				"candidates": []map[string]any{{
					"content": map[string]any{
						"parts": []map[string]string{{"text": "SELECT 1;"}},
					},
				}},
			})
		}
	}))
	defer server.Close()

	translator := newTestTranslator(t, server.URL, []string{"gemini-2.5-pro", "gemini-1.5"})
	result, err := translator.Translate(context.Background(), Request{NaturalLanguage: "ping"})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if result.SQL != "SELECT 1;" {
		t.Fatalf("SQL = %q", result.SQL)
	}
	if result.Model != "gemini-1.5" {
		t.Fatalf("model = %q, want gemini-1.5", result.Model)
	}
}

func TestNewGeminiTranslatorValidation(t *testing.T) {
	if _, err := NewGeminiTranslator(GeminiConfig{APIKey: "k"}); err == nil {
		t.Fatal("expected error for missing base url")
	}
	if _, err := NewGeminiTranslator(GeminiConfig{BaseURL: "https://example.com"}); err == nil {
		t.Fatal("expected error for missing api key")
	}
	translator, err := NewGeminiTranslator(GeminiConfig{BaseURL: "https://example.com/", APIKey: "k"})
	if err != nil {
		t.Fatalf("NewGeminiTranslator: %v", err)
	}
	if translator.baseURL != "https://example.com" {
		t.Fatalf("baseURL = %q, want trailing slash trimmed", translator.baseURL)
	}
	if len(translator.fallbackModels) != len(DefaultFallbackModels) {
		t.Fatalf("fallbackModels = %v, want defaults", translator.fallbackModels)
	}
}
