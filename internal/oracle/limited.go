package oracle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ppiankov/rollcall/internal/logging"
	"github.com/ppiankov/rollcall/internal/worker"
)

// Limited throttles calls to the wrapped oracle. After a failure carrying a
// Retry-After hint, calls also wait out the server-requested pause.
type Limited struct {
	next    Oracle
	limiter *worker.Limiter

	mu       sync.Mutex
	resumeAt time.Time
}

// endpointer is implemented by backends that know the URL they call
type endpointer interface {
	Endpoint() string
}

// LimitKey is the limiter key for o: the backend's endpoint URL when it
// exposes one, so backends on the same host share a budget, otherwise its
// name.
func LimitKey(o Oracle) string {
	if e, ok := o.(endpointer); ok {
		if u := e.Endpoint(); u != "" {
			return u
		}
	}
	return o.Name()
}

// NewLimited wraps next with a limiter keyed by LimitKey(next)
func NewLimited(next Oracle, limiter *worker.Limiter) *Limited {
	return &Limited{next: next, limiter: limiter}
}

// Name returns the wrapped backend name
func (l *Limited) Name() string { return l.next.Name() }

// Disambiguate waits for the backend budget, then calls through
func (l *Limited) Disambiguate(ctx context.Context, req Request) (Decision, error) {
	key := LimitKey(l.next)

	l.mu.Lock()
	pause := time.Until(l.resumeAt)
	l.mu.Unlock()
	if pause < 0 {
		pause = 0
	}

	if pause > 0 || !l.limiter.Allow(key) {
		logging.FromContext(ctx).Debug().Str("oracle", l.next.Name()).Str("limit_key", key).Dur("cooldown", pause).Msg("oracle throttled")
		if err := l.limiter.WaitWithDelay(ctx, key, pause); err != nil {
			return Decision{}, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	d, err := l.next.Disambiguate(ctx, req)

	var te *TransientError
	if errors.As(err, &te) && te.RetryAfter > 0 {
		l.mu.Lock()
		if until := time.Now().Add(te.RetryAfter); until.After(l.resumeAt) {
			l.resumeAt = until
		}
		l.mu.Unlock()
	}
	return d, err
}
