package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/rollcall/internal/cache"
	"github.com/ppiankov/rollcall/internal/worker"
)

var fastRetry = RetryPolicy{Attempts: 3, Delay: time.Millisecond, MaxJitter: time.Millisecond}

func TestRetrying_RetriesTransientThenSucceeds(t *testing.T) {
	next := &scriptedOracle{answers: []scriptedAnswer{
		{err: &TransientError{Err: ErrUnavailable}},
		{decision: Decision{ProfileURL: "https://linkedin.com/in/jsmith-go"}},
	}}

	d, err := NewRetrying(next, fastRetry).Disambiguate(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "https://linkedin.com/in/jsmith-go", d.ProfileURL)
	assert.EqualValues(t, 2, next.calls.Load())
}

func TestRetrying_GivesUpAfterAttempts(t *testing.T) {
	transient := &TransientError{Err: ErrUnavailable}
	next := &scriptedOracle{answers: []scriptedAnswer{{err: transient}}}

	_, err := NewRetrying(next, fastRetry).Disambiguate(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.EqualValues(t, 3, next.calls.Load())
}

func TestRetrying_DoesNotRetryDecline(t *testing.T) {
	next := &scriptedOracle{answers: []scriptedAnswer{{err: ErrNoConfidentChoice}}}

	_, err := NewRetrying(next, fastRetry).Disambiguate(context.Background(), sampleRequest())
	assert.True(t, errors.Is(err, ErrNoConfidentChoice))
	assert.EqualValues(t, 1, next.calls.Load())
}

func TestCached_StoresSelectionsAndDeclines(t *testing.T) {
	c := cache.NewMemoryCache(time.Minute, time.Minute)

	next := &scriptedOracle{answers: []scriptedAnswer{{decision: Decision{ProfileURL: "https://linkedin.com/in/jsmith-go"}}}}
	cached := NewCached(next, c)

	for i := 0; i < 3; i++ {
		d, err := cached.Disambiguate(context.Background(), sampleRequest())
		require.NoError(t, err)
		assert.Equal(t, "https://linkedin.com/in/jsmith-go", d.ProfileURL)
	}
	assert.EqualValues(t, 1, next.calls.Load())

	// Candidate order does not change the key.
	req := sampleRequest()
	req.Candidates[0], req.Candidates[1] = req.Candidates[1], req.Candidates[0]
	_, err := cached.Disambiguate(context.Background(), req)
	require.NoError(t, err)
	assert.EqualValues(t, 1, next.calls.Load())

	require.NoError(t, c.Clear())
	decliner := &scriptedOracle{answers: []scriptedAnswer{{err: ErrNoConfidentChoice}}}
	cached = NewCached(decliner, c)
	for i := 0; i < 2; i++ {
		_, err := cached.Disambiguate(context.Background(), sampleRequest())
		assert.True(t, errors.Is(err, ErrNoConfidentChoice))
	}
	assert.EqualValues(t, 1, decliner.calls.Load())
}

func TestCached_DoesNotStoreFailures(t *testing.T) {
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	next := &scriptedOracle{answers: []scriptedAnswer{{err: ErrMalformedResponse}}}
	cached := NewCached(next, c)

	for i := 0; i < 2; i++ {
		_, err := cached.Disambiguate(context.Background(), sampleRequest())
		assert.True(t, errors.Is(err, ErrMalformedResponse))
	}
	assert.EqualValues(t, 2, next.calls.Load())
	assert.Equal(t, 0, c.Len())
}

func TestLimited_WaitsForLimiter(t *testing.T) {
	next := &scriptedOracle{answers: []scriptedAnswer{{decision: Decision{ProfileURL: "u"}}}}
	limited := NewLimited(next, worker.NewLimiter(0.001, 1))

	_, err := limited.Disambiguate(context.Background(), sampleRequest())
	require.NoError(t, err)

	// The only token is spent; a cancelled wait must fail without calling through.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = limited.Disambiguate(ctx, sampleRequest())
	assert.Error(t, err)
	assert.EqualValues(t, 1, next.calls.Load())
}

func TestLimited_HonorsRetryAfter(t *testing.T) {
	next := &scriptedOracle{answers: []scriptedAnswer{
		{err: &TransientError{Err: ErrUnavailable, RetryAfter: 60 * time.Millisecond}},
		{decision: Decision{ProfileURL: "u"}},
	}}
	limited := NewLimited(next, worker.NewLimiter(0, 1))

	_, err := limited.Disambiguate(context.Background(), sampleRequest())
	require.True(t, IsTransient(err))

	start := time.Now()
	d, err := limited.Disambiguate(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "u", d.ProfileURL)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

// hostedOracle is a scripted backend that reports the URL it calls
type hostedOracle struct {
	scriptedOracle
	url string
}

func (o *hostedOracle) Endpoint() string { return o.url }

func TestLimitKey(t *testing.T) {
	assert.Equal(t, "scripted", LimitKey(&scriptedOracle{}))
	assert.Equal(t, "scripted", LimitKey(&hostedOracle{}), "empty endpoint falls back to the name")
	assert.Equal(t, "http://llm.internal:11434/api/generate",
		LimitKey(&hostedOracle{url: "http://llm.internal:11434/api/generate"}))
}

func TestLimitKey_HTTPBackends(t *testing.T) {
	ollama, err := NewOllamaOracle(Config{BaseURL: "http://gpu-box:11434/", Model: "llama3.1"})
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:11434/api/generate", LimitKey(ollama))

	anthropic, err := NewAnthropicOracle(Config{APIKey: "sk-ant", BaseURL: "https://proxy.internal"})
	require.NoError(t, err)
	assert.Equal(t, "https://proxy.internal/v1/messages", LimitKey(anthropic))

	openai, err := NewOpenAIOracle(Config{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, "https://api.openai.com/v1", LimitKey(openai))
}

func TestLimited_SameHostSharesBudget(t *testing.T) {
	ok := []scriptedAnswer{{decision: Decision{ProfileURL: "u"}}}
	first := &hostedOracle{scriptedOracle{answers: ok}, "https://llm.internal/v1/messages"}
	second := &hostedOracle{scriptedOracle{answers: ok}, "https://llm.internal/v1/chat"}
	elsewhere := &hostedOracle{scriptedOracle{answers: ok}, "https://other.internal/v1/chat"}

	limiter := worker.NewLimiter(0.001, 1)
	_, err := NewLimited(first, limiter).Disambiguate(context.Background(), sampleRequest())
	require.NoError(t, err)

	// The host's only token is spent, so a cancelled wait fails without calling through.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewLimited(second, limiter).Disambiguate(ctx, sampleRequest())
	assert.Error(t, err)
	assert.Zero(t, second.calls.Load())

	_, err = NewLimited(elsewhere, limiter).Disambiguate(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.EqualValues(t, 1, elsewhere.calls.Load())
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 3*time.Second, parseRetryAfter("3", now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("", now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("-1", now))
	assert.Equal(t, 30*time.Second, parseRetryAfter("Mon, 01 Jan 2024 12:00:30 GMT", now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("soon", now))
}

func TestNew_Factory(t *testing.T) {
	o, err := New(context.Background(), Config{})
	require.NoError(t, err)
	assert.Nil(t, o, "empty provider disables the oracle")

	o, err = New(context.Background(), Config{Provider: "OpenAI", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "openai", o.Name())

	o, err = New(context.Background(), Config{Provider: "claude", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", o.Name())

	o, err = New(context.Background(), Config{Provider: "ollama", Model: "llama3.1"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", o.Name())

	_, err = New(context.Background(), Config{Provider: "watson"})
	assert.Error(t, err)
}
