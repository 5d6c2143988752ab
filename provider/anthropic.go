package provider

import (
	"context"
	"errors"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicDefaultModel = "claude-3-5-haiku-latest"

// AnthropicClient calls the Anthropic messages API through the official SDK.
type AnthropicClient struct {
	apiKey  string
	model   string
	timeout time.Duration
	client  sdk.Client
}

// NewAnthropic creates an Anthropic client. SDK retries are disabled so the
// orchestrator's fallback chain decides what happens after a failure.
func NewAnthropic(cfg Config) *AnthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithMaxRetries(0),
		option.WithHTTPClient(cfg.httpClient()),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = anthropicDefaultModel
	}
	return &AnthropicClient{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   model,
		timeout: cfg.timeout(),
		client:  sdk.NewClient(opts...),
	}
}

func (c *AnthropicClient) Name() string { return NameAnthropic }

func (c *AnthropicClient) HasValidKey() bool { return ValidKey(c.apiKey) }

func (c *AnthropicClient) Complete(ctx context.Context, prompt string, opts CompletionOptions) (text string, err error) {
	start := time.Now()
	defer func() { observe(NameAnthropic, start, err) }()

	if !c.HasValidKey() {
		return "", missingKey(NameAnthropic)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: int64(opts.maxTokens()),
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(prompt))},
	}
	if opts.System != "" {
		params.System = []sdk.TextBlockParam{{Text: opts.System}}
	}
	if opts.Temperature > 0 {
		params.Temperature = sdk.Float(opts.Temperature)
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return "", statusError(NameAnthropic, apiErr.StatusCode, apiErr.Error())
		}
		return "", sdkError(NameAnthropic, err)
	}

	text = messageText(msg)
	if text == "" {
		return "", malformed(NameAnthropic, "empty completion", nil)
	}
	return text, nil
}

// messageText concatenates the text blocks of msg.
func messageText(msg *sdk.Message) string {
	if msg == nil {
		return ""
	}
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(b.String())
}
