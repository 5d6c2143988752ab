// Package linkcheck verifies that catalog URLs still resolve.
package linkcheck

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"parentguide-backend/catalog"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Options configures a Checker. Rate is the number of requests per second across all hosts.
type Options struct {
	Concurrency int
	Rate        rate.Limit
	Timeout     time.Duration
	UserAgent   string
}

// Result is the outcome for one resource URL.
type Result struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Status int    `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// OK reports whether the URL answered with a non-error status.
func (r Result) OK() bool {
	return r.Error == "" && r.Status > 0 && r.Status < 400
}

// Checker issues throttled HEAD requests.
type Checker struct {
	client  *http.Client
	limiter *rate.Limiter
	opts    Options
}

// New creates a Checker, filling zero options with defaults.
func New(opts Options) *Checker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.Rate <= 0 {
		opts.Rate = 5
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "parentguide-linkcheck/1.0"
	}
	return &Checker{
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(opts.Rate, opts.Concurrency),
		opts:    opts,
	}
}

// Check probes every linkable resource and returns results sorted by URL.
// It only fails when ctx is cancelled.
func (c *Checker) Check(ctx context.Context, resources []catalog.Resource) ([]Result, error) {
	var (
		mu      sync.Mutex
		results []Result
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)

	for _, r := range resources {
		if !r.Linkable() {
			continue
		}
		g.Go(func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return eris.Wrap(err, "linkcheck: wait for rate limiter")
			}
			res := c.probe(ctx, r)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b Result) int { return strings.Compare(a.URL, b.URL) })
	return results, nil
}

func (c *Checker) probe(ctx context.Context, r catalog.Resource) Result {
	res := Result{Name: r.Name, URL: r.URL}

	status, err := c.do(ctx, http.MethodHead, r.URL)
	// Some sites reject HEAD outright.
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		status, err = c.do(ctx, http.MethodGet, r.URL)
	}
	if err != nil {
		res.Error = err.Error()
		zap.L().Debug("link check failed", zap.String("url", r.URL), zap.Error(err))
		return res
	}
	res.Status = status
	return res
}

func (c *Checker) do(ctx context.Context, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, eris.Wrap(err, "linkcheck: build request")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, eris.Wrap(err, "linkcheck: request")
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
