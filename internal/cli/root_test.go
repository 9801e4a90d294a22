package cli

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/rollcall/internal/model"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	setDefaults(model.DefaultConfig())
	viper.SetEnvPrefix("ROLLCALL")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()
	t.Cleanup(viper.Reset)
}

func TestLoadConfig_Defaults(t *testing.T) {
	resetViper(t)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "rollcall.db", cfg.Store.Path)
	assert.Equal(t, 4, cfg.Concurrency.Workers)
	assert.Equal(t, time.Hour, cfg.Cache.MemoryTTL)
	assert.Empty(t, cfg.Oracle.Provider)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ROLLCALL_ORACLE_PROVIDER", "openai")
	t.Setenv("ROLLCALL_CONCURRENCY_WORKERS", "9")
	t.Setenv("ROLLCALL_CACHE_DISK_TTL", "48h")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	resetViper(t)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Oracle.Provider)
	assert.Equal(t, 9, cfg.Concurrency.Workers)
	assert.Equal(t, 48*time.Hour, cfg.Cache.DiskTTL)
	assert.Equal(t, "sk-env", cfg.Oracle.APIKey)
}

func TestLoadConfig_ExplicitKeyWins(t *testing.T) {
	t.Setenv("ROLLCALL_ORACLE_PROVIDER", "anthropic")
	t.Setenv("ROLLCALL_ORACLE_API_KEY", "sk-config")
	t.Setenv("ANTHROPIC_API_KEY", "sk-env")
	resetViper(t)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sk-config", cfg.Oracle.APIKey)
}

func TestLoadConfig_OllamaBaseURL(t *testing.T) {
	t.Setenv("ROLLCALL_ORACLE_PROVIDER", "ollama")
	t.Setenv("OLLAMA_BASE_URL", "http://gpu-box:11434")
	resetViper(t)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:11434", cfg.Oracle.BaseURL)
}

func TestParseObservedAt(t *testing.T) {
	got, err := parseObservedAt("2024-04-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = parseObservedAt("last tuesday")
	assert.Error(t, err)

	now, err := parseObservedAt("")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), now, time.Minute)
}

func TestLoadConfig_RejectsInvalidSettings(t *testing.T) {
	t.Setenv("ROLLCALL_ORACLE_PROVIDER", "clippy")
	t.Setenv("ROLLCALL_CONCURRENCY_WORKERS", "0")
	resetViper(t)

	_, err := loadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle.provider")
	assert.Contains(t, err.Error(), "concurrency.workers")
}

func TestDefaultConfigFile_RoundTrips(t *testing.T) {
	data, err := defaultConfigFile()
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Rollcall Configuration File")

	var cfg model.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, *model.DefaultConfig(), cfg)
}
