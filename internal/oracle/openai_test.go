package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
)

func openAIServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
			return
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
			t.Errorf("expected JSON response format")
		}

		resp := openai.ChatCompletionResponse{
			ID:    "chatcmpl-123",
			Model: "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: "assistant", Content: content}, FinishReason: "stop"},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newTestOpenAI(t *testing.T, baseURL string) *OpenAIOracle {
	t.Helper()
	o, err := NewOpenAIOracle(Config{APIKey: "test-key", BaseURL: baseURL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("Failed to create oracle: %v", err)
	}
	return o
}

func TestOpenAIOracle_Disambiguate_Success(t *testing.T) {
	server := openAIServer(t, http.StatusOK, `{"profile_url": "https://linkedin.com/in/jsmith-go", "confident": true, "reason": "Go"}`)
	defer server.Close()

	d, err := newTestOpenAI(t, server.URL).Disambiguate(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Disambiguate failed: %v", err)
	}
	if d.ProfileURL != "https://linkedin.com/in/jsmith-go" {
		t.Errorf("Unexpected selection: %s", d.ProfileURL)
	}
	if d.Model != "gpt-4o-mini" {
		t.Errorf("Unexpected model: %s", d.Model)
	}
}

func TestOpenAIOracle_Disambiguate_Decline(t *testing.T) {
	server := openAIServer(t, http.StatusOK, `{"profile_url": "", "confident": false}`)
	defer server.Close()

	_, err := newTestOpenAI(t, server.URL).Disambiguate(context.Background(), sampleRequest())
	if !errors.Is(err, ErrNoConfidentChoice) {
		t.Fatalf("expected ErrNoConfidentChoice, got %v", err)
	}
}

func TestOpenAIOracle_Disambiguate_ServerErrorIsTransient(t *testing.T) {
	server := openAIServer(t, http.StatusInternalServerError, "")
	defer server.Close()

	_, err := newTestOpenAI(t, server.URL).Disambiguate(context.Background(), sampleRequest())
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !IsTransient(err) {
		t.Errorf("expected transient error, got %v", err)
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestOpenAIOracle_Disambiguate_RateLimit(t *testing.T) {
	server := openAIServer(t, http.StatusTooManyRequests, "")
	defer server.Close()

	_, err := newTestOpenAI(t, server.URL).Disambiguate(context.Background(), sampleRequest())
	if !IsTransient(err) {
		t.Errorf("expected transient error for 429, got %v", err)
	}
}

func TestOpenAIOracle_Disambiguate_Unauthorized(t *testing.T) {
	server := openAIServer(t, http.StatusUnauthorized, "")
	defer server.Close()

	_, err := newTestOpenAI(t, server.URL).Disambiguate(context.Background(), sampleRequest())
	if IsTransient(err) {
		t.Errorf("401 must not be retried: %v", err)
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestNewOpenAIOracle_MissingKey(t *testing.T) {
	if _, err := NewOpenAIOracle(Config{}); err == nil {
		t.Error("expected error for missing API key")
	}
}
