package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"parentguide-backend/combiner"
	"parentguide-backend/config"
	"parentguide-backend/i18n"
	"parentguide-backend/provider"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoSuggestions is returned when no provider produced a usable list.
var ErrNoSuggestions = errors.New("no resource suggestions available")

// SuggestionService asks providers for web resources and ranks them.
type SuggestionService struct {
	orchestrator *provider.Orchestrator
	strategy     string
	preferred    string
	maxTokens    int
}

// SuggestionServiceOption is a functional option for SuggestionService
type SuggestionServiceOption func(*SuggestionService)

// SuggestWithStrategy sets combined, single or off
func SuggestWithStrategy(strategy string) SuggestionServiceOption {
	return func(s *SuggestionService) {
		s.strategy = strategy
	}
}

// SuggestWithPreferredProvider sets the provider whose list wins ties
func SuggestWithPreferredProvider(name string) SuggestionServiceOption {
	return func(s *SuggestionService) {
		s.preferred = name
	}
}

// SuggestWithMaxTokens bounds each suggestion completion
func SuggestWithMaxTokens(n int) SuggestionServiceOption {
	return func(s *SuggestionService) {
		s.maxTokens = n
	}
}

// NewSuggestionService creates a new suggestion service
func NewSuggestionService(orchestrator *provider.Orchestrator, opts ...SuggestionServiceOption) *SuggestionService {
	s := &SuggestionService{
		orchestrator: orchestrator,
		strategy:     config.StrategyCombined,
		preferred:    provider.NameGemini,
		maxTokens:    800,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Strategy returns the configured strategy.
func (s *SuggestionService) Strategy() string {
	return s.strategy
}

// Suggest returns at most combiner.MaxResults resources. Providers in exclude
// are not asked. With the off strategy it returns nothing and no error.
func (s *SuggestionService) Suggest(ctx context.Context, question, lang, location string, exclude []string) ([]combiner.Candidate, error) {
	if s == nil || s.orchestrator == nil || s.strategy == config.StrategyOff {
		return nil, nil
	}

	picked := s.pick(exclude)
	if len(picked) == 0 {
		return nil, ErrNoSuggestions
	}

	prompt := suggestionPrompt(question, lang, location)
	opts := provider.CompletionOptions{MaxTokens: s.maxTokens, Temperature: 0.2}

	lists := make([][]combiner.Candidate, len(picked))
	var g errgroup.Group
	for i, c := range picked {
		g.Go(func() error {
			text, err := c.Complete(ctx, prompt, opts)
			if err != nil {
				zap.L().Warn("resource suggestion call failed", zap.String("provider", c.Name()), zap.Error(err))
				return nil
			}
			list, err := parseCandidates(text)
			if err != nil {
				zap.L().Warn("resource suggestion unreadable", zap.String("provider", c.Name()), zap.Error(err))
				return nil
			}
			lists[i] = list
			return nil
		})
	}
	_ = g.Wait()

	var a, b []combiner.Candidate
	a = lists[0]
	if len(lists) > 1 {
		b = lists[1]
	}
	if len(a) == 0 && len(b) == 0 {
		return nil, ErrNoSuggestions
	}

	preferA := picked[0].Name() == s.preferred
	return combiner.New(preferA).Combine(a, b), nil
}

// pick chooses the clients to ask: the preferred provider first, then for
// the combined strategy the next enabled provider in priority order.
func (s *SuggestionService) pick(exclude []string) []provider.Client {
	var available []provider.Client
	for _, name := range s.orchestrator.Providers() {
		if slices.Contains(exclude, name) {
			continue
		}
		if c, ok := s.orchestrator.Client(name); ok {
			available = append(available, c)
		}
	}
	if len(available) == 0 {
		return nil
	}

	if i := slices.IndexFunc(available, func(c provider.Client) bool { return c.Name() == s.preferred }); i > 0 {
		preferred := available[i]
		available = append([]provider.Client{preferred}, slices.Delete(available, i, i+1)...)
	}

	n := 2
	if s.strategy == config.StrategySingle {
		n = 1
	}
	if len(available) < n {
		n = len(available)
	}
	return available[:n]
}

func suggestionPrompt(question, lang, location string) string {
	var b strings.Builder
	b.WriteString("Recommend up to 5 reputable websites that would help a parent with this special education question.\n\n")
	fmt.Fprintf(&b, "QUESTION: %s\n", question)
	if location != "" {
		fmt.Fprintf(&b, "LOCATION: %s\n", location)
	}
	b.WriteString(`
Prefer government (.gov), university (.edu) and established nonprofit sources.
Respond ONLY with a JSON array. Each element must have the keys
"title", "url", "description", "type" and "relevance". No other text.
`)
	fmt.Fprintf(&b, "Write descriptions in %s.\n", i18n.T(lang, "language_name"))
	return b.String()
}

// parseCandidates extracts a JSON resource list from model output that may
// be wrapped in prose or a code fence.
func parseCandidates(text string) ([]combiner.Candidate, error) {
	start := strings.IndexAny(text, "[{")
	if start < 0 {
		return nil, eris.New("service: no JSON in suggestion")
	}
	body := text[start:]

	if body[0] == '[' {
		end := strings.LastIndex(body, "]")
		if end < 0 {
			return nil, eris.New("service: unterminated JSON array")
		}
		var list []combiner.Candidate
		if err := json.Unmarshal([]byte(body[:end+1]), &list); err != nil {
			return nil, eris.Wrap(err, "service: decode suggestion list")
		}
		return list, nil
	}

	end := strings.LastIndex(body, "}")
	if end < 0 {
		return nil, eris.New("service: unterminated JSON object")
	}
	var wrapped struct {
		Resources []combiner.Candidate `json:"resources"`
	}
	if err := json.Unmarshal([]byte(body[:end+1]), &wrapped); err != nil {
		return nil, eris.Wrap(err, "service: decode suggestion object")
	}
	return wrapped.Resources, nil
}
