package oracle

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ppiankov/rollcall/internal/cache"
	"github.com/ppiankov/rollcall/internal/logging"
	"github.com/ppiankov/rollcall/internal/normalize"
)

// Cached memoizes confident selections and explicit declines. Failures are
// never cached so they are retried on the next run.
type Cached struct {
	next  Oracle
	cache cache.Cache
}

type cachedDecision struct {
	Decision Decision `json:"decision"`
	Declined bool     `json:"declined,omitempty"`
	Reason   string   `json:"reason,omitempty"`
}

// NewCached wraps next with c
func NewCached(next Oracle, c cache.Cache) *Cached {
	return &Cached{next: next, cache: c}
}

// Name returns the wrapped backend name
func (c *Cached) Name() string { return c.next.Name() }

// Disambiguate answers from the cache when it can, otherwise calls through
func (c *Cached) Disambiguate(ctx context.Context, req Request) (Decision, error) {
	urls := make([]string, 0, len(req.Candidates))
	for _, u := range req.CandidateURLs() {
		urls = append(urls, normalize.ProfileURL(u))
	}
	key := cache.DecisionKey(req.NormalizedName, urls)
	log := logging.FromContext(ctx)

	if raw, ok := c.cache.Get(key); ok {
		var hit cachedDecision
		if err := json.Unmarshal(raw, &hit); err == nil {
			log.Debug().Str("person", req.NormalizedName).Bool("declined", hit.Declined).Msg("oracle cache hit")
			if hit.Declined {
				return Decision{}, declined(hit.Reason)
			}
			return hit.Decision, nil
		}
	}

	decision, err := c.next.Disambiguate(ctx, req)

	var entry cachedDecision
	switch {
	case err == nil:
		entry.Decision = decision
	case errors.Is(err, ErrNoConfidentChoice):
		entry.Declined = true
		entry.Reason = err.Error()
	default:
		return Decision{}, err
	}

	if raw, mErr := json.Marshal(entry); mErr == nil {
		if sErr := c.cache.Set(key, raw, 0); sErr != nil {
			log.Warn().Err(sErr).Msg("cannot store oracle decision")
		}
	}
	return decision, err
}

func declined(reason string) error {
	if reason == "" || reason == ErrNoConfidentChoice.Error() {
		return ErrNoConfidentChoice
	}
	return &declineError{reason: reason}
}

// declineError replays a cached decline with its original message
type declineError struct{ reason string }

func (e *declineError) Error() string { return e.reason }
func (e *declineError) Unwrap() error { return ErrNoConfidentChoice }
