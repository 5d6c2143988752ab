// Package provider wraps AI text-completion vendors behind a single Client
// contract and orchestrates calls across them.
package provider

import (
	"context"
	"net/http"
	"strings"
	"time"

	"parentguide-backend/metrics"
)

// Provider identifiers.
const (
	NameOpenAI    = "openai"
	NameAnthropic = "anthropic"
	NameGemini    = "gemini"
)

const (
	// DefaultTimeout bounds a single completion call, connect included.
	DefaultTimeout   = 25 * time.Second
	defaultMaxTokens = 1500
	maxResponseBytes = 4 << 20
)

// DefaultPriority is the provider order used when none is configured.
var DefaultPriority = []string{NameAnthropic, NameOpenAI, NameGemini}

// Client is a single AI vendor.
type Client interface {
	// Name returns the provider identifier, e.g. "openai".
	Name() string
	// HasValidKey reports whether a configured, non-placeholder credential exists.
	HasValidKey() bool
	// Complete returns non-empty text or an *Error describing why it could not.
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
}

// CompletionOptions tunes one completion call.
type CompletionOptions struct {
	MaxTokens   int
	Temperature float64
	System      string
}

func (o CompletionOptions) maxTokens() int {
	if o.MaxTokens > 0 {
		return o.MaxTokens
	}
	return defaultMaxTokens
}

// Config holds the settings shared by every vendor adapter.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{
		Timeout: c.timeout(),
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

var placeholderKeys = []string{
	"your-api-key", "your_api_key", "your-key-here", "changeme", "change-me",
	"placeholder", "replace-me", "todo", "xxx", "<", "sk-...",
}

// ValidKey reports whether key looks like a real credential rather than an
// empty value or a template placeholder.
func ValidKey(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	if len(k) < 8 {
		return false
	}
	for _, p := range placeholderKeys {
		if strings.Contains(k, p) {
			return false
		}
	}
	return true
}

// observe records the outcome of one call.
func observe(provider string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
	}
	metrics.RecordProviderCall(provider, outcome, time.Since(start))
}
