package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/rollcall/internal/util"
)

const ollamaDefaultURL = "http://localhost:11434"

// OllamaOracle disambiguates with a local Ollama model
type OllamaOracle struct {
	generate endpoint
	config   Config
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	System  string        `json:"system,omitempty"`
	Format  string        `json:"format,omitempty"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func ollamaMessageOf(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	return e.Error
}

// NewOllamaOracle creates a new Ollama oracle. A model is required since
// local installations have no common default.
func NewOllamaOracle(config Config) (*OllamaOracle, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("ollama model must be specified (e.g., llama3.1:8b, mistral)")
	}

	base := strings.TrimSuffix(config.BaseURL, "/")
	if base == "" {
		base = ollamaDefaultURL
	}

	// Local models are slower than hosted ones.
	if config.Timeout <= 0 {
		config.Timeout = 2 * DefaultConfig().Timeout
	}

	return &OllamaOracle{
		generate: endpoint{
			client:     util.NewHTTPClient(config.timeout(), config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			url:        base + "/api/generate",
			label:      "ollama API",
			apiMessage: ollamaMessageOf,
		},
		config: config,
	}, nil
}

// Name returns the provider name
func (o *OllamaOracle) Name() string { return "ollama" }

// Endpoint returns the generate API URL
func (o *OllamaOracle) Endpoint() string { return o.generate.url }

// Disambiguate asks the local model for a JSON decision
func (o *OllamaOracle) Disambiguate(ctx context.Context, req Request) (Decision, error) {
	var resp ollamaResponse
	err := o.generate.post(ctx, ollamaRequest{
		Model:  o.config.Model,
		Prompt: BuildPrompt(req),
		System: systemPrompt,
		Format: "json",
		Options: ollamaOptions{
			Temperature: 0,
			NumPredict:  o.config.maxTokens(),
		},
	}, &resp)
	if err != nil {
		return Decision{}, err
	}

	decision, err := ParseDecision(strings.TrimSpace(resp.Response), req)
	if err != nil {
		return Decision{}, err
	}
	decision.Model = resp.Model
	return decision, nil
}
