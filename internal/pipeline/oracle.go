package pipeline

import (
	"context"
	"fmt"

	"github.com/ppiankov/rollcall/internal/cache"
	"github.com/ppiankov/rollcall/internal/model"
	"github.com/ppiankov/rollcall/internal/oracle"
	"github.com/ppiankov/rollcall/internal/worker"
)

// NewOracle builds the configured oracle backend wrapped with rate limiting,
// retries and the decision cache. It returns nil when no provider is set.
func NewOracle(ctx context.Context, cfg *model.Config) (oracle.Oracle, error) {
	base, err := oracle.New(ctx, oracle.ConfigFromModel(cfg.Oracle))
	if err != nil {
		return nil, fmt.Errorf("create oracle: %w", err)
	}
	if base == nil {
		return nil, nil
	}

	limiter := worker.NewLimiter(cfg.Oracle.RequestsPerSecond, cfg.Oracle.BurstSize)
	if base.Name() == "ollama" {
		// local model, no quota
		limiter.SetRate(oracle.LimitKey(base), 0, 0)
	}

	// Every attempt waits for the limiter, so retries are throttled too.
	var o oracle.Oracle = oracle.NewLimited(base, limiter)
	o = oracle.NewRetrying(o, oracle.RetryPolicy{
		Attempts:  cfg.Oracle.MaxAttempts,
		Delay:     cfg.Oracle.RetryDelay,
		MaxJitter: cfg.Oracle.RetryMaxJitter,
	})

	if cfg.Cache.Enabled {
		c := cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		o = oracle.NewCached(o, c)
	}
	return o, nil
}
