package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAnthropicOracle_Disambiguate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Expected path /v1/messages, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("Expected x-api-key test-key, got %s", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("Expected anthropic-version header")
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.System != systemPrompt {
			t.Errorf("Unexpected system prompt: %s", req.System)
		}

		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"model": "claude-3-5-haiku-latest",
			"content": [{"type": "text", "text": "{\"profile_url\": \"https://linkedin.com/in/jsmith-baker\", \"confident\": true}"}]
		}`))
	}))
	defer server.Close()

	o, err := NewAnthropicOracle(Config{APIKey: "test-key", BaseURL: server.URL + "/"})
	if err != nil {
		t.Fatalf("Failed to create oracle: %v", err)
	}

	d, err := o.Disambiguate(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Disambiguate failed: %v", err)
	}
	if d.ProfileURL != "https://linkedin.com/in/jsmith-baker" {
		t.Errorf("Unexpected selection: %s", d.ProfileURL)
	}
	if d.Model != "claude-3-5-haiku-latest" {
		t.Errorf("Unexpected model: %s", d.Model)
	}
}

func TestAnthropicOracle_Disambiguate_Overloaded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(529)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "overloaded_error", "message": "Overloaded"}}`))
	}))
	defer server.Close()

	o, err := NewAnthropicOracle(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create oracle: %v", err)
	}

	_, err = o.Disambiguate(context.Background(), sampleRequest())
	if !IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestAnthropicOracle_Disambiguate_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "msg_1", "content": []}`))
	}))
	defer server.Close()

	o, err := NewAnthropicOracle(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create oracle: %v", err)
	}

	_, err = o.Disambiguate(context.Background(), sampleRequest())
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestNewAnthropicOracle_MissingKey(t *testing.T) {
	if _, err := NewAnthropicOracle(Config{}); err == nil {
		t.Error("expected error for missing API key")
	}
}
