package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/ppiankov/rollcall/internal/util"
)

// GeminiOracle disambiguates with Gemini structured JSON output
type GeminiOracle struct {
	client  *genai.Client
	config  Config
	baseURL string
}

const geminiDefaultURL = "https://generativelanguage.googleapis.com/"

var decisionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"profile_url": {Type: genai.TypeString},
		"confident":   {Type: genai.TypeBoolean},
		"reason":      {Type: genai.TypeString},
	},
	Required: []string{"profile_url", "confident"},
}

// NewGeminiOracle creates a new Gemini oracle
func NewGeminiOracle(ctx context.Context, config Config) (*GeminiOracle, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:     strings.TrimSpace(config.APIKey),
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: util.NewHTTPClient(config.timeout(), config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
	}
	if strings.TrimSpace(config.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(config.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	baseURL := cc.HTTPOptions.BaseURL
	if baseURL == "" {
		baseURL = geminiDefaultURL
	}
	return &GeminiOracle{client: client, config: config, baseURL: baseURL}, nil
}

// Name returns the provider name
func (o *GeminiOracle) Name() string {
	return "gemini"
}

// Endpoint returns the Gemini API base URL
func (o *GeminiOracle) Endpoint() string {
	return o.baseURL
}

func (o *GeminiOracle) model() string {
	if o.config.Model != "" {
		return o.config.Model
	}
	return "gemini-2.0-flash"
}

// Disambiguate asks Gemini to pick one candidate
func (o *GeminiOracle) Disambiguate(ctx context.Context, req Request) (Decision, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.config.timeout())
	defer cancel()

	temperature := float32(0)
	resp, err := o.client.Models.GenerateContent(
		callCtx,
		o.model(),
		genai.Text(systemPrompt+"\n\n"+BuildPrompt(req)),
		&genai.GenerateContentConfig{
			CandidateCount:   1,
			Temperature:      &temperature,
			MaxOutputTokens:  int32(o.config.maxTokens()),
			ResponseMIMEType: "application/json",
			ResponseSchema:   decisionSchema,
		},
	)
	if err != nil {
		return Decision{}, classifyGeminiErr(ctx, err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return Decision{}, fmt.Errorf("%w: empty Gemini response", ErrMalformedResponse)
	}

	decision, err := ParseDecision(text, req)
	if err != nil {
		return Decision{}, err
	}
	decision.Model = o.model()
	return decision, nil
}

func classifyGeminiErr(ctx context.Context, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, fmt.Errorf("Gemini API error: %w", err))
	}
	return classifyErr(ctx, fmt.Errorf("Gemini API error: %w", err))
}
