package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	for _, k := range []string{"PORT", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "STORAGE_TYPE", "DATABASE_URL", "LOG_LEVEL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []string{"anthropic", "openai", "gemini"}, cfg.Providers.Priority)
	assert.Equal(t, 25*time.Second, cfg.Providers.Timeout)
	assert.Equal(t, 1500, cfg.Providers.MaxTokens)
	assert.Equal(t, ModeChain, cfg.AI.Mode)
	assert.Equal(t, StrategyCombined, cfg.Resources.Strategy)
	assert.True(t, cfg.Render.SafeMode)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, 6*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, time.Hour, cfg.RateLimit.Window)
	assert.Equal(t, 30, cfg.RateLimit.MaxRequests)
	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Catalog.Path)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
server:
  port: 9090
ai:
  mode: ALL
providers:
  priority: [gemini, openai]
  timeout: 10s
resources:
  strategy: single
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, ModeAll, cfg.AI.Mode)
	assert.Equal(t, []string{"gemini", "openai"}, cfg.Providers.Priority)
	assert.Equal(t, 10*time.Second, cfg.Providers.Timeout)
	assert.Equal(t, StrategySingle, cfg.Resources.Strategy)
	// Defaults still apply for unset values
	assert.Equal(t, 30, cfg.RateLimit.MaxRequests)
}

func TestLoadPlainEnvNames(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PORT", "7070")
	t.Setenv("OPENAI_API_KEY", "sk-from-env-123456")
	t.Setenv("GEMINI_API_KEY", "gemini-from-env-123")
	t.Setenv("DATABASE_URL", "postgres://localhost/guide")
	t.Setenv("AWS_S3_BUCKET", "guide-bucket")
	t.Setenv("STORAGE_TYPE", "s3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "postgres://localhost/guide", cfg.Database.URL)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "guide-bucket", cfg.Storage.S3Bucket)

	creds := cfg.Credentials()
	assert.Equal(t, "sk-from-env-123456", creds["openai"])
	assert.Equal(t, "gemini-from-env-123", creds["gemini"])
}

func TestLoadPrefixedEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GUIDE_AI_MODE", "all")
	t.Setenv("GUIDE_RESOURCES_STRATEGY", "off")
	t.Setenv("GUIDE_CACHE_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ModeAll, cfg.AI.Mode)
	assert.Equal(t, StrategyOff, cfg.Resources.Strategy)
	assert.False(t, cfg.Cache.Enabled)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			AI:        AIConfig{Mode: ModeChain},
			Resources: ResourcesConfig{Strategy: StrategyCombined},
			Storage:   StorageConfig{Type: "local"},
			RateLimit: RateLimitConfig{Enabled: true, Window: time.Minute, MaxRequests: 5},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad mode", func(c *Config) { c.AI.Mode = "vote" }, "ai.mode"},
		{"bad strategy", func(c *Config) { c.Resources.Strategy = "both" }, "resources.strategy"},
		{"bad storage", func(c *Config) { c.Storage.Type = "gcs" }, "storage.type"},
		{"s3 without bucket", func(c *Config) { c.Storage.Type = "s3" }, "s3_bucket"},
		{"zero rate limit", func(c *Config) { c.RateLimit.MaxRequests = 0 }, "rate_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInitLogger(t *testing.T) {
	defer zap.ReplaceGlobals(zap.NewNop())

	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))

	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	assert.False(t, zap.L().Core().Enabled(zap.InfoLevel))

	assert.Error(t, InitLogger(LogConfig{Level: "loud"}))
}
