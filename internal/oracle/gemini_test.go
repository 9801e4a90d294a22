package oracle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/genai"
)

type tempNetErr struct{}

func (tempNetErr) Error() string   { return "temp net err" }
func (tempNetErr) Timeout() bool   { return true }
func (tempNetErr) Temporary() bool { return true }

func TestClassifyGeminiErr(t *testing.T) {
	tests := []struct {
		name          string
		in            error
		wantTransient bool
	}{
		{name: "api_429", in: genai.APIError{Code: 429}, wantTransient: true},
		{name: "api_503", in: genai.APIError{Code: 503}, wantTransient: true},
		{name: "api_400", in: genai.APIError{Code: 400}, wantTransient: false},
		{name: "net_timeout", in: tempNetErr{}, wantTransient: true},
		{name: "plain", in: errors.New("boom"), wantTransient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyGeminiErr(context.Background(), tt.in)
			if IsTransient(got) != tt.wantTransient {
				t.Fatalf("transient=%v want=%v (err=%v)", IsTransient(got), tt.wantTransient, got)
			}
		})
	}
}

func TestClassifyErr_CancelledParentNotRetried(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if IsTransient(classifyErr(ctx, context.DeadlineExceeded)) {
		t.Error("cancelled runs must not be retried")
	}
}

func TestGeminiOracle_Disambiguate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"role": "model", "parts": [{"text": "{\"profile_url\": \"https://linkedin.com/in/jsmith-go\", \"confident\": true}"}]},
				"finishReason": "STOP"
			}]
		}`))
	}))
	defer server.Close()

	o, err := NewGeminiOracle(context.Background(), Config{APIKey: "test-key", BaseURL: server.URL, Model: "gemini-test"})
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
	if d.Model != "gemini-test" {
		t.Errorf("Unexpected model: %s", d.Model)
	}
}

func TestNewGeminiOracle_MissingKey(t *testing.T) {
	if _, err := NewGeminiOracle(context.Background(), Config{}); err == nil {
		t.Error("expected error for missing API key")
	}
}
