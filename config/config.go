package config

import (
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AI modes.
const (
	ModeChain = "chain"
	ModeAll   = "all"
)

// Resource suggestion strategies.
const (
	StrategyCombined = "combined"
	StrategySingle   = "single"
	StrategyOff      = "off"
)

// Config holds the full application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Providers ProvidersConfig `yaml:"providers" mapstructure:"providers"`
	AI        AIConfig        `yaml:"ai" mapstructure:"ai"`
	Resources ResourcesConfig `yaml:"resources" mapstructure:"resources"`
	Render    RenderConfig    `yaml:"render" mapstructure:"render"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	Database  DatabaseConfig  `yaml:"database" mapstructure:"database"`
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int           `yaml:"port" mapstructure:"port"`
	Mode            string        `yaml:"mode" mapstructure:"mode"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ProvidersConfig configures the AI vendors.
type ProvidersConfig struct {
	Priority    []string      `yaml:"priority" mapstructure:"priority"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64       `yaml:"temperature" mapstructure:"temperature"`
	OpenAI      VendorConfig  `yaml:"openai" mapstructure:"openai"`
	Anthropic   VendorConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini      VendorConfig  `yaml:"gemini" mapstructure:"gemini"`
}

// VendorConfig holds one vendor's credentials and endpoint.
type VendorConfig struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AIConfig selects how providers are called for an answer.
type AIConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"`
}

// ResourcesConfig controls AI-suggested resources.
type ResourcesConfig struct {
	Strategy          string `yaml:"strategy" mapstructure:"strategy"`
	PreferredProvider string `yaml:"preferred_provider" mapstructure:"preferred_provider"`
	MaxTokens         int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// RenderConfig controls markdown rendering.
type RenderConfig struct {
	SafeMode bool `yaml:"safe_mode" mapstructure:"safe_mode"`
}

// StorageConfig selects the blob store behind the cache and rate limiter.
type StorageConfig struct {
	Type            string `yaml:"type" mapstructure:"type"`
	LocalPath       string `yaml:"local_path" mapstructure:"local_path"`
	S3Bucket        string `yaml:"s3_bucket" mapstructure:"s3_bucket"`
	S3Region        string `yaml:"s3_region" mapstructure:"s3_region"`
	AccessKeyID     string `yaml:"access_key_id" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" mapstructure:"secret_access_key"`
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// RateLimitConfig configures the soft per-client limit on questions.
type RateLimitConfig struct {
	Enabled     bool          `yaml:"enabled" mapstructure:"enabled"`
	Window      time.Duration `yaml:"window" mapstructure:"window"`
	MaxRequests int           `yaml:"max_requests" mapstructure:"max_requests"`
}

// DatabaseConfig configures the optional question log.
type DatabaseConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// CatalogConfig points at an optional catalog override file.
type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// Credentials returns provider id -> API key.
func (c *Config) Credentials() map[string]string {
	return map[string]string{
		"openai":    c.Providers.OpenAI.APIKey,
		"anthropic": c.Providers.Anthropic.APIKey,
		"gemini":    c.Providers.Gemini.APIKey,
	}
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if !slices.Contains([]string{ModeChain, ModeAll}, c.AI.Mode) {
		return eris.Errorf("config: ai.mode must be %q or %q, got %q", ModeChain, ModeAll, c.AI.Mode)
	}
	if !slices.Contains([]string{StrategyCombined, StrategySingle, StrategyOff}, c.Resources.Strategy) {
		return eris.Errorf("config: unknown resources.strategy %q", c.Resources.Strategy)
	}
	if !slices.Contains([]string{"local", "s3"}, c.Storage.Type) {
		return eris.Errorf("config: unknown storage.type %q", c.Storage.Type)
	}
	if c.Storage.Type == "s3" && c.Storage.S3Bucket == "" {
		return eris.New("config: storage.s3_bucket is required for s3 storage")
	}
	if c.RateLimit.Enabled && (c.RateLimit.MaxRequests <= 0 || c.RateLimit.Window <= 0) {
		return eris.New("config: rate_limit needs a positive window and max_requests")
	}
	return nil
}

// envAliases maps config keys to the plain environment names operators
// already use. GUIDE_<SECTION>_<KEY> works for every key as well.
var envAliases = map[string][]string{
	"server.port":                 {"PORT"},
	"server.mode":                 {"GIN_MODE"},
	"log.level":                   {"LOG_LEVEL"},
	"log.format":                  {"LOG_FORMAT"},
	"providers.openai.api_key":    {"OPENAI_API_KEY"},
	"providers.anthropic.api_key": {"ANTHROPIC_API_KEY"},
	"providers.gemini.api_key":    {"GEMINI_API_KEY"},
	"storage.type":                {"STORAGE_TYPE"},
	"storage.local_path":          {"STORAGE_LOCAL_PATH"},
	"storage.s3_bucket":           {"AWS_S3_BUCKET"},
	"storage.s3_region":           {"AWS_REGION"},
	"storage.access_key_id":       {"AWS_ACCESS_KEY_ID"},
	"storage.secret_access_key":   {"AWS_SECRET_ACCESS_KEY"},
	"database.url":                {"DATABASE_URL"},
}

// LoadDotEnv loads a .env file from the working directory or, failing that,
// from the project root relative to cmd/<binary>/.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			zap.L().Debug("no .env file found, using environment variables")
		}
	}
}

// Load reads configuration from .env, an optional config.yaml and the
// environment.
func Load() (*Config, error) {
	LoadDotEnv()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GUIDE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		envKey := "GUIDE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, envKey}, names...)...); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("providers.priority", []string{"anthropic", "openai", "gemini"})
	v.SetDefault("providers.timeout", 25*time.Second)
	v.SetDefault("providers.max_tokens", 1500)
	v.SetDefault("providers.temperature", 0.4)
	v.SetDefault("providers.openai.api_key", "")
	v.SetDefault("providers.openai.model", "gpt-4o-mini")
	v.SetDefault("providers.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("providers.anthropic.api_key", "")
	v.SetDefault("providers.anthropic.model", "claude-3-5-haiku-latest")
	v.SetDefault("providers.anthropic.base_url", "")
	v.SetDefault("providers.gemini.api_key", "")
	v.SetDefault("providers.gemini.model", "gemini-1.5-flash")
	v.SetDefault("providers.gemini.base_url", "")
	v.SetDefault("ai.mode", ModeChain)
	v.SetDefault("resources.strategy", StrategyCombined)
	v.SetDefault("resources.preferred_provider", "gemini")
	v.SetDefault("resources.max_tokens", 800)
	v.SetDefault("render.safe_mode", true)
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./data")
	v.SetDefault("storage.s3_bucket", "")
	v.SetDefault("storage.s3_region", "us-west-2")
	v.SetDefault("storage.access_key_id", "")
	v.SetDefault("storage.secret_access_key", "")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", 6*time.Hour)
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.window", time.Hour)
	v.SetDefault("rate_limit.max_requests", 30)
	v.SetDefault("database.url", "")
	v.SetDefault("catalog.path", "")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	cfg.AI.Mode = strings.ToLower(strings.TrimSpace(cfg.AI.Mode))
	cfg.Resources.Strategy = strings.ToLower(strings.TrimSpace(cfg.Resources.Strategy))
	cfg.Storage.Type = strings.ToLower(strings.TrimSpace(cfg.Storage.Type))
	for i, p := range cfg.Providers.Priority {
		cfg.Providers.Priority[i] = strings.ToLower(strings.TrimSpace(p))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
