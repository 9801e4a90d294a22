package oracle

import (
	"context"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/ppiankov/rollcall/internal/logging"
)

// RetryPolicy bounds retries of transient failures
type RetryPolicy struct {
	Attempts  uint
	Delay     time.Duration
	MaxJitter time.Duration
}

// Retrying retries transient failures of the wrapped oracle with backoff.
// Declines and malformed answers are returned immediately.
type Retrying struct {
	next   Oracle
	policy RetryPolicy
}

// NewRetrying wraps next with policy
func NewRetrying(next Oracle, policy RetryPolicy) *Retrying {
	if policy.Attempts == 0 {
		policy.Attempts = 1
	}
	return &Retrying{next: next, policy: policy}
}

// Name returns the wrapped backend name
func (r *Retrying) Name() string { return r.next.Name() }

// Disambiguate calls through, retrying transient failures under the policy
func (r *Retrying) Disambiguate(ctx context.Context, req Request) (Decision, error) {
	var lastErr error
	decision, err := retry.DoWithData(
		func() (Decision, error) {
			d, err := r.next.Disambiguate(ctx, req)
			lastErr = err
			return d, err
		},
		retry.Context(ctx),
		retry.Attempts(r.policy.Attempts),
		retry.Delay(r.policy.Delay),
		retry.MaxJitter(r.policy.MaxJitter),
		retry.RetryIf(IsTransient),
		retry.OnRetry(func(n uint, err error) {
			logging.FromContext(ctx).Debug().
				Err(err).
				Uint("attempt", n+1).
				Str("oracle", r.next.Name()).
				Str("person", req.NormalizedName).
				Msg("retrying oracle call")
		}),
	)
	if err != nil {
		// Report the backend's own error rather than the retry summary.
		if lastErr != nil && ctx.Err() == nil {
			return Decision{}, lastErr
		}
		return Decision{}, err
	}
	return decision, nil
}
