package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// endpoint is one JSON-over-HTTP backend route
type endpoint struct {
	client  *http.Client
	url     string
	headers map[string]string
	label   string // used in error messages, e.g. "Anthropic API"

	// apiMessage extracts the backend's own error text from a non-200 body.
	// An empty result falls back to the raw body.
	apiMessage func(body []byte) string
}

// post sends in as JSON and decodes a 200 response into out. Failures are
// classified so that rate limits, 5xx and network timeouts are transient.
func (e endpoint) post(ctx context.Context, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range e.headers {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return classifyErr(ctx, fmt.Errorf("execute request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyErr(ctx, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		msg := ""
		if e.apiMessage != nil {
			msg = e.apiMessage(raw)
		}
		if msg == "" {
			msg = truncate(string(raw), 200)
		}
		err := fmt.Errorf("%s error (%d): %s", e.label, resp.StatusCode, msg)
		return withRetryAfter(classifyStatus(resp.StatusCode, err), resp.Header)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: unmarshal response: %v", ErrMalformedResponse, err)
	}
	return nil
}
