package oracle

import (
	"context"
	"fmt"
	"strings"
)

// New creates the backend named by config.Provider. An empty provider
// disables the oracle and returns nil.
func New(ctx context.Context, config Config) (Oracle, error) {
	switch strings.ToLower(strings.TrimSpace(config.Provider)) {
	case "openai":
		return NewOpenAIOracle(config)

	case "gemini", "google":
		return NewGeminiOracle(ctx, config)

	case "anthropic", "claude":
		return NewAnthropicOracle(config)

	case "ollama":
		return NewOllamaOracle(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown oracle provider: %s (supported: openai, gemini, anthropic, ollama)", config.Provider)
	}
}
