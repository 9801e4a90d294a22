package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/rollcall/internal/util"
)

// OpenAIOracle disambiguates with OpenAI chat completions in JSON mode
type OpenAIOracle struct {
	client  *openai.Client
	config  Config
	baseURL string
}

// NewOpenAIOracle creates a new OpenAI oracle
func NewOpenAIOracle(config Config) (*OpenAIOracle, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = util.NewHTTPClient(config.timeout(), config.HTTPProxy, config.HTTPSProxy, config.NoProxy)

	return &OpenAIOracle{
		client:  openai.NewClientWithConfig(clientConfig),
		config:  config,
		baseURL: clientConfig.BaseURL,
	}, nil
}

// Name returns the provider name
func (o *OpenAIOracle) Name() string {
	return "openai"
}

// Endpoint returns the API base URL
func (o *OpenAIOracle) Endpoint() string {
	return o.baseURL
}

func (o *OpenAIOracle) model() string {
	if o.config.Model != "" {
		return o.config.Model
	}
	return openai.GPT4oMini
}

// Disambiguate asks the chat model to pick one candidate
func (o *OpenAIOracle) Disambiguate(ctx context.Context, req Request) (Decision, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.config.timeout())
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: o.model(),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(req)},
		},
		MaxTokens:   o.config.maxTokens(),
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := o.client.CreateChatCompletion(callCtx, chatReq)
	if err != nil {
		return Decision{}, o.classify(ctx, err)
	}

	if len(resp.Choices) == 0 {
		return Decision{}, fmt.Errorf("%w: no choices from OpenAI", ErrMalformedResponse)
	}

	decision, err := ParseDecision(strings.TrimSpace(resp.Choices[0].Message.Content), req)
	if err != nil {
		return Decision{}, err
	}
	decision.Model = resp.Model
	return decision, nil
}

func (o *OpenAIOracle) classify(ctx context.Context, err error) error {
	err = fmt.Errorf("OpenAI API error: %w", err)

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, err)
	}
	return classifyErr(ctx, err)
}
