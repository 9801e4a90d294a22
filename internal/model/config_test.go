package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidate_CollectsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Path = " "
	cfg.Oracle.Provider = "Clippy"
	cfg.Oracle.MaxAttempts = 0
	cfg.Cache.DiskTTL = -time.Hour
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)

	var joined interface{ Unwrap() []error }
	require.True(t, errors.As(err, &joined))
	assert.Len(t, joined.Unwrap(), 5)
	for _, key := range []string{"store.path", "oracle.provider", "oracle.max_attempts", "cache.disk_ttl", "log.format"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestConfigValidate_ProviderAliases(t *testing.T) {
	for _, p := range []string{"OpenAI", "google", "claude", "ollama", ""} {
		cfg := DefaultConfig()
		cfg.Oracle.Provider = p
		assert.NoError(t, cfg.Validate(), p)
	}
}

func TestConfigValidate_DisabledCacheNeedsNoDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.Cache.Dir = ""
	cfg.Cache.DiskTTL = 0
	assert.NoError(t, cfg.Validate())
}
