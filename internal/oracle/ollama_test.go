package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaOracle_Disambiguate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected path /api/generate, got %s", r.URL.Path)
		}

		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Format != "json" || req.Stream {
			t.Errorf("expected non-streaming JSON request, got format=%q stream=%v", req.Format, req.Stream)
		}

		resp := ollamaResponse{
			Model:    "llama3.1",
			Response: `{"profile_url": "https://linkedin.com/in/jsmith-go", "confident": true}`,
			Done:     true,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	o, err := NewOllamaOracle(Config{BaseURL: server.URL, Model: "llama3.1"})
	if err != nil {
		t.Fatalf("Failed to create oracle: %v", err)
	}

	d, err := o.Disambiguate(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Disambiguate failed: %v", err)
	}
	if d.ProfileURL != "https://linkedin.com/in/jsmith-go" {
		t.Errorf("Unexpected selection: %s", d.ProfileURL)
	}
}

func TestOllamaOracle_Disambiguate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "model 'llama3.1' not found"}`))
	}))
	defer server.Close()

	o, err := NewOllamaOracle(Config{BaseURL: server.URL, Model: "llama3.1"})
	if err != nil {
		t.Fatalf("Failed to create oracle: %v", err)
	}

	_, err = o.Disambiguate(context.Background(), sampleRequest())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if IsTransient(err) {
		t.Error("missing model must not be retried")
	}
}

func TestOllamaOracle_Disambiguate_Garbage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model": "llama3.1", "response": "the first one", "done": true}`))
	}))
	defer server.Close()

	o, err := NewOllamaOracle(Config{BaseURL: server.URL, Model: "llama3.1"})
	if err != nil {
		t.Fatalf("Failed to create oracle: %v", err)
	}

	_, err = o.Disambiguate(context.Background(), sampleRequest())
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestNewOllamaOracle_RequiresModel(t *testing.T) {
	if _, err := NewOllamaOracle(Config{}); err == nil {
		t.Error("expected error when model is missing")
	}
}
