// Package oracle asks an external ranking service to pick one profile among
// ambiguous candidates for the same name.
//
// A backend answers with exactly one of the candidate URLs, or declines with
// ErrNoConfidentChoice. Anything else (timeouts, HTTP failures, answers that
// cannot be parsed or that name a URL outside the candidate list) is an error
// distinct from a decline.
package oracle

import (
	"context"
	"errors"
	"time"

	"github.com/ppiankov/rollcall/internal/model"
)

var (
	// ErrNoConfidentChoice is the explicit decline signal
	ErrNoConfidentChoice = errors.New("no confident choice")

	// ErrMalformedResponse means the answer could not be understood or selected
	// a URL that was not offered
	ErrMalformedResponse = errors.New("malformed oracle response")

	// ErrUnavailable means the backend could not be reached or refused the call
	ErrUnavailable = errors.New("oracle unavailable")
)

// Oracle selects one profile among ambiguous candidates
type Oracle interface {
	// Name returns the backend name
	Name() string

	// Disambiguate returns the selected profile or ErrNoConfidentChoice
	Disambiguate(ctx context.Context, req Request) (Decision, error)
}

// Request describes one ambiguous group
type Request struct {
	PersonName     string
	NormalizedName string

	// SourceContext is where the person was seen, e.g. "conf:Devcon/2024"
	SourceContext string

	Candidates []model.CandidateIdentity
}

// CandidateURLs returns the candidate profile URLs in request order
func (r Request) CandidateURLs() []string {
	urls := make([]string, 0, len(r.Candidates))
	for _, c := range r.Candidates {
		urls = append(urls, c.ProfileURL)
	}
	return urls
}

// Decision is a confident selection
type Decision struct {
	ProfileURL string `json:"profile_url"`
	Reason     string `json:"reason,omitempty"`
	Model      string `json:"model,omitempty"`
}

// TransientError marks failures worth retrying (rate limits, 5xx, timeouts)
type TransientError struct {
	Err error

	// RetryAfter is the server-requested pause, if any
	RetryAfter time.Duration
}

func (e *TransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is marked retryable
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// Config holds oracle backend configuration
type Config struct {
	// Provider name: "openai", "gemini", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (proxies, Ollama, tests)
	BaseURL string

	// Timeout per call
	Timeout time.Duration

	// MaxTokens for the answer
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30 * time.Second,
		MaxTokens: 300,
	}
}

// ConfigFromModel converts the application config section
func ConfigFromModel(c model.OracleConfig) Config {
	cfg := DefaultConfig()
	cfg.Provider = c.Provider
	cfg.Model = c.Model
	cfg.APIKey = c.APIKey
	cfg.BaseURL = c.BaseURL
	if c.Timeout > 0 {
		cfg.Timeout = time.Duration(c.Timeout) * time.Second
	}
	cfg.HTTPProxy = c.HTTPProxy
	cfg.HTTPSProxy = c.HTTPSProxy
	cfg.NoProxy = c.NoProxy
	return cfg
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return c.Timeout
}

func (c Config) maxTokens() int {
	if c.MaxTokens <= 0 {
		return 300
	}
	return c.MaxTokens
}
