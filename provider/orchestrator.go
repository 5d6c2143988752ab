package provider

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Response is the result of one provider call.
type Response struct {
	Provider  string
	Text      string
	Err       error
	Timestamp time.Time
}

// OK reports whether the call produced usable text.
func (r Response) OK() bool {
	return r.Err == nil && strings.TrimSpace(r.Text) != ""
}

// Outcome is what a request-level call across providers produced.
type Outcome struct {
	Text      string
	Provider  string
	Timestamp time.Time
	// Errors maps provider name to a human-readable failure.
	Errors map[string]string
	// Excluded lists providers that failed authentication and must not be
	// retried for the rest of the request.
	Excluded []string
}

func newOutcome() *Outcome {
	return &Outcome{Errors: make(map[string]string)}
}

func (o *Outcome) record(name string, err error) {
	o.Errors[name] = err.Error()
	if IsAuth(err) && !slices.Contains(o.Excluded, name) {
		o.Excluded = append(o.Excluded, name)
	}
}

// Orchestrator calls a prioritized set of clients.
type Orchestrator struct {
	clients []Client
}

// NewOrchestrator keeps the clients that have a valid key, ordered by
// priority. Clients missing from priority keep their relative order after
// the listed ones.
func NewOrchestrator(clients []Client, priority []string) *Orchestrator {
	rank := func(name string) int {
		if i := slices.Index(priority, name); i >= 0 {
			return i
		}
		return len(priority)
	}

	var usable []Client
	for _, c := range clients {
		if c == nil {
			continue
		}
		if !c.HasValidKey() {
			zap.L().Info("provider disabled, no valid API key", zap.String("provider", c.Name()))
			continue
		}
		usable = append(usable, c)
	}
	sort.SliceStable(usable, func(i, j int) bool {
		return rank(usable[i].Name()) < rank(usable[j].Name())
	})
	return &Orchestrator{clients: usable}
}

// Providers returns the enabled provider names in priority order.
func (o *Orchestrator) Providers() []string {
	names := make([]string, len(o.clients))
	for i, c := range o.clients {
		names[i] = c.Name()
	}
	return names
}

// Client returns the enabled client with the given name.
func (o *Orchestrator) Client(name string) (Client, bool) {
	for _, c := range o.clients {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// InitialResponses calls every enabled client concurrently and returns one
// Response per provider. Each call is bounded by its own client timeout, so a
// slow provider cannot hold up the others beyond that. The error is
// ErrNoProvidersConfigured when nothing is enabled and ErrAllProvidersFailed
// when no call produced text; the map is returned in both cases.
func (o *Orchestrator) InitialResponses(ctx context.Context, prompt string, opts CompletionOptions) (map[string]Response, error) {
	out := make(map[string]Response, len(o.clients))
	if len(o.clients) == 0 {
		return out, ErrNoProvidersConfigured
	}

	results := make([]Response, len(o.clients))
	var g errgroup.Group
	for i, c := range o.clients {
		g.Go(func() error {
			text, err := c.Complete(ctx, prompt, opts)
			results[i] = Response{Provider: c.Name(), Text: text, Err: err, Timestamp: time.Now().UTC()}
			return nil
		})
	}
	_ = g.Wait()

	anyOK := false
	for _, r := range results {
		out[r.Provider] = r
		if r.OK() {
			anyOK = true
		} else {
			logFailure(r.Provider, r.Err)
		}
	}
	if !anyOK {
		return out, ErrAllProvidersFailed
	}
	return out, nil
}

// BestResponse picks the first successful response in priority order. When no
// prioritized provider succeeded, any other successful response is used,
// chosen by provider name so the result is deterministic.
func BestResponse(responses map[string]Response, priority []string) (Response, bool) {
	for _, name := range priority {
		if r, ok := responses[name]; ok && r.OK() {
			return r, true
		}
	}

	names := make([]string, 0, len(responses))
	for name := range responses {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if r := responses[name]; r.OK() {
			return r, true
		}
	}
	return Response{}, false
}

// Collect runs InitialResponses and reduces the result to an Outcome.
func (o *Orchestrator) Collect(ctx context.Context, prompt string, opts CompletionOptions) (*Outcome, error) {
	outcome := newOutcome()
	responses, err := o.InitialResponses(ctx, prompt, opts)
	for name, r := range responses {
		if !r.OK() {
			outcome.record(name, failure(r))
		}
	}
	if err != nil {
		return outcome, err
	}

	best, _ := BestResponse(responses, o.Providers())
	outcome.Text = best.Text
	outcome.Provider = best.Provider
	outcome.Timestamp = best.Timestamp
	return outcome, nil
}

// Chain tries each enabled client in priority order and stops at the first
// one that returns text.
func (o *Orchestrator) Chain(ctx context.Context, prompt string, opts CompletionOptions) (*Outcome, error) {
	return o.ChainExcluding(ctx, prompt, opts, nil)
}

// ChainExcluding is Chain without the named providers.
func (o *Orchestrator) ChainExcluding(ctx context.Context, prompt string, opts CompletionOptions, exclude []string) (*Outcome, error) {
	outcome := newOutcome()
	if len(o.clients) == 0 {
		return outcome, ErrNoProvidersConfigured
	}

	tried := 0
	for _, c := range o.clients {
		if slices.Contains(exclude, c.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			outcome.record(c.Name(), transportError(c.Name(), err))
			continue
		}
		tried++

		text, err := c.Complete(ctx, prompt, opts)
		if err == nil && strings.TrimSpace(text) != "" {
			outcome.Text = text
			outcome.Provider = c.Name()
			outcome.Timestamp = time.Now().UTC()
			return outcome, nil
		}
		r := Response{Provider: c.Name(), Text: text, Err: err}
		logFailure(c.Name(), r.Err)
		outcome.record(c.Name(), failure(r))
	}

	if tried == 0 && len(outcome.Errors) == 0 {
		return outcome, ErrNoProvidersConfigured
	}
	return outcome, ErrAllProvidersFailed
}

func failure(r Response) error {
	if r.Err != nil {
		return r.Err
	}
	return malformed(r.Provider, "empty completion", nil)
}

func logFailure(name string, err error) {
	if err == nil {
		return
	}
	zap.L().Warn("provider call failed",
		zap.String("provider", name),
		zap.String("kind", string(KindOf(err))),
		zap.Error(err),
	)
}
