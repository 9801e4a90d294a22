package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/rollcall/internal/util"
)

const (
	anthropicDefaultURL   = "https://api.anthropic.com"
	anthropicVersion      = "2023-06-01"
	anthropicDefaultModel = "claude-3-5-haiku-latest"
)

// AnthropicOracle disambiguates with the Anthropic Messages API
type AnthropicOracle struct {
	messages endpoint
	model    string
	config   Config
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// text joins the text blocks of a reply
func (r *anthropicResponse) text() string {
	var b strings.Builder
	for _, block := range r.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

func anthropicMessageOf(body []byte) string {
	var e struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) != nil || e.Error.Message == "" {
		return ""
	}
	return e.Error.Type + " - " + e.Error.Message
}

// NewAnthropicOracle creates a new Anthropic oracle
func NewAnthropicOracle(config Config) (*AnthropicOracle, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	base := strings.TrimSuffix(config.BaseURL, "/")
	if base == "" {
		base = anthropicDefaultURL
	}
	model := config.Model
	if model == "" {
		model = anthropicDefaultModel
	}

	return &AnthropicOracle{
		messages: endpoint{
			client: util.NewHTTPClient(config.timeout(), config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			url:    base + "/v1/messages",
			headers: map[string]string{
				"x-api-key":         config.APIKey,
				"anthropic-version": anthropicVersion,
			},
			label:      "Anthropic API",
			apiMessage: anthropicMessageOf,
		},
		model:  model,
		config: config,
	}, nil
}

// Name returns the provider name
func (o *AnthropicOracle) Name() string { return "anthropic" }

// Endpoint returns the Messages API URL
func (o *AnthropicOracle) Endpoint() string { return o.messages.url }

// Disambiguate asks Claude to pick one candidate
func (o *AnthropicOracle) Disambiguate(ctx context.Context, req Request) (Decision, error) {
	var resp anthropicResponse
	err := o.messages.post(ctx, anthropicRequest{
		Model:       o.model,
		MaxTokens:   o.config.maxTokens(),
		System:      systemPrompt,
		Messages:    []anthropicMessage{{Role: "user", Content: BuildPrompt(req)}},
		Temperature: 0,
	}, &resp)
	if err != nil {
		return Decision{}, err
	}

	text := resp.text()
	if text == "" {
		return Decision{}, fmt.Errorf("%w: no text content in Anthropic response", ErrMalformedResponse)
	}

	decision, err := ParseDecision(text, req)
	if err != nil {
		return Decision{}, err
	}
	decision.Model = resp.Model
	return decision, nil
}
