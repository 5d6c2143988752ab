package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/rotisserie/eris"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const geminiDefaultModel = "gemini-1.5-flash"

// generator is the slice of the Gemini SDK the client depends on.
type generator interface {
	generate(ctx context.Context, prompt string, opts CompletionOptions) (*genai.GenerateContentResponse, error)
}

type sdkGenerator struct {
	client *genai.Client
	model  string
}

func (g *sdkGenerator) generate(ctx context.Context, prompt string, opts CompletionOptions) (*genai.GenerateContentResponse, error) {
	m := g.client.GenerativeModel(g.model)
	m.SetMaxOutputTokens(int32(opts.maxTokens()))
	if opts.Temperature > 0 {
		m.SetTemperature(float32(opts.Temperature))
	}
	if opts.System != "" {
		m.SystemInstruction = genai.NewUserContent(genai.Text(opts.System))
	}
	return m.GenerateContent(ctx, genai.Text(prompt))
}

// GeminiClient calls Google's Gemini API through the generative-ai-go SDK.
type GeminiClient struct {
	apiKey  string
	timeout time.Duration
	client  *genai.Client
	gen     generator
}

// NewGemini creates a Gemini client. No SDK client is created when the key is
// missing; Complete then reports an auth error without a network call.
func NewGemini(ctx context.Context, cfg Config) (*GeminiClient, error) {
	c := &GeminiClient{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		timeout: cfg.timeout(),
	}
	if !c.HasValidKey() {
		return c, nil
	}

	opts := []option.ClientOption{option.WithAPIKey(c.apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}

	model := cfg.Model
	if model == "" {
		model = geminiDefaultModel
	}
	c.client = client
	c.gen = &sdkGenerator{client: client, model: model}
	return c, nil
}

func (c *GeminiClient) Name() string { return NameGemini }

func (c *GeminiClient) HasValidKey() bool { return ValidKey(c.apiKey) }

// Close releases the underlying SDK connection.
func (c *GeminiClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *GeminiClient) Complete(ctx context.Context, prompt string, opts CompletionOptions) (text string, err error) {
	start := time.Now()
	defer func() { observe(NameGemini, start, err) }()

	if !c.HasValidKey() || c.gen == nil {
		return "", missingKey(NameGemini)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.gen.generate(ctx, prompt, opts)
	if err != nil {
		return "", classifyGemini(err)
	}

	text = responseText(resp)
	if text == "" {
		return "", malformed(NameGemini, "empty completion", nil)
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return strings.TrimSpace(b.String())
}

func classifyGemini(err error) *Error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &Error{Provider: NameGemini, Kind: KindUpstream, Message: "response blocked", Err: err}
	}

	if isTimeout(err) {
		return transportError(NameGemini, err)
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if code := apiErr.HTTPCode(); code > 0 {
			// An invalid key comes back as 400 INVALID_ARGUMENT.
			if code == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Error()), "api key") {
				code = http.StatusUnauthorized
			}
			return statusError(NameGemini, code, apiErr.Error())
		}
		if st := apiErr.GRPCStatus(); st != nil {
			return grpcError(st, err)
		}
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return grpcError(st, err)
	}
	return sdkError(NameGemini, err)
}

func grpcError(st *status.Status, err error) *Error {
	e := &Error{Provider: NameGemini, Kind: KindUpstream, Message: st.Message(), Err: err}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		e.Kind = KindAuth
	case codes.DeadlineExceeded:
		e.Kind = KindTimeout
	case codes.Unavailable:
		e.Kind = KindNetwork
	}
	return e
}
