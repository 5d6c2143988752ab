package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	openAIBaseURL      = "https://api.openai.com/v1"
	openAIDefaultModel = "gpt-4o-mini"
)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Index   int         `json:"index"`
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// OpenAIClient calls the OpenAI chat completions endpoint.
type OpenAIClient struct {
	apiKey  string
	baseURL string
	model   string
	timeout time.Duration
	http    *http.Client
}

// NewOpenAI creates an OpenAI client. Unset fields fall back to defaults.
func NewOpenAI(cfg Config) *OpenAIClient {
	c := &OpenAIClient{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		timeout: cfg.timeout(),
		http:    cfg.httpClient(),
	}
	if c.baseURL == "" {
		c.baseURL = openAIBaseURL
	}
	if c.model == "" {
		c.model = openAIDefaultModel
	}
	return c
}

func (c *OpenAIClient) Name() string { return NameOpenAI }

func (c *OpenAIClient) HasValidKey() bool { return ValidKey(c.apiKey) }

func (c *OpenAIClient) Complete(ctx context.Context, prompt string, opts CompletionOptions) (text string, err error) {
	start := time.Now()
	defer func() { observe(NameOpenAI, start, err) }()

	if !c.HasValidKey() {
		return "", missingKey(NameOpenAI)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	maxTokens := opts.maxTokens()
	req := chatRequest{Model: c.model, MaxTokens: &maxTokens}
	if opts.Temperature > 0 {
		req.Temperature = &opts.Temperature
	}
	if opts.System != "" {
		req.Messages = append(req.Messages, chatMessage{Role: "system", Content: opts.System})
	}
	req.Messages = append(req.Messages, chatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(req)
	if err != nil {
		return "", malformed(NameOpenAI, "marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", transportError(NameOpenAI, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", transportError(NameOpenAI, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", transportError(NameOpenAI, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", statusError(NameOpenAI, resp.StatusCode, vendorMessage(respBody))
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", malformed(NameOpenAI, "unmarshal response", err)
	}
	if len(out.Choices) == 0 {
		return "", malformed(NameOpenAI, "response has no choices", nil)
	}
	text = strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", malformed(NameOpenAI, "empty completion", nil)
	}
	return text, nil
}

// vendorMessage extracts the error message from a JSON error body, falling
// back to a truncated copy of the raw body.
func vendorMessage(body []byte) string {
	var e apiErrorBody
	if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
