package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// providerRequestsTotal counts completion calls by provider and outcome.
	// Labels: provider (openai, anthropic, gemini), outcome (ok, auth, network, timeout, upstream, malformed)
	providerRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "guide",
		Subsystem: "provider",
		Name:      "requests_total",
		Help:      "Total AI provider completion calls by provider and outcome",
	}, []string{"provider", "outcome"})

	// providerLatencySeconds measures completion latency per provider.
	providerLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "guide",
		Subsystem: "provider",
		Name:      "latency_seconds",
		Help:      "AI provider completion latency",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"provider"})

	// fallbackTotal counts requests answered with static degraded-mode guidance.
	fallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "guide",
		Subsystem: "ask",
		Name:      "fallback_total",
		Help:      "Requests answered with static fallback guidance after every provider failed",
	})

	// emergencyTotal counts questions that matched emergency keywords.
	emergencyTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "guide",
		Subsystem: "ask",
		Name:      "emergency_total",
		Help:      "Questions that matched the emergency keyword list",
	})

	// enrichedResourcesTotal counts resources appended to answers by level.
	// Labels: level (local, county, state, federal, advocacy, legal)
	enrichedResourcesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "guide",
		Subsystem: "enrich",
		Name:      "resources_total",
		Help:      "Catalog resources appended to answers by jurisdiction level",
	}, []string{"level"})

	// cacheLookupsTotal counts response cache lookups.
	// Labels: result (hit, miss, error)
	cacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "guide",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Response cache lookups by result",
	}, []string{"result"})
)

// RecordProviderCall records one completion attempt.
func RecordProviderCall(provider, outcome string, elapsed time.Duration) {
	providerRequestsTotal.WithLabelValues(provider, outcome).Inc()
	providerLatencySeconds.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// RecordFallback records a request answered in degraded mode.
func RecordFallback() {
	fallbackTotal.Inc()
}

// RecordEmergency records a question that matched emergency keywords.
func RecordEmergency() {
	emergencyTotal.Inc()
}

// RecordEnrichment records the number of resources appended per level.
func RecordEnrichment(counts map[string]int) {
	for level, n := range counts {
		enrichedResourcesTotal.WithLabelValues(level).Add(float64(n))
	}
}

// RecordCacheLookup records a response cache lookup.
func RecordCacheLookup(result string) {
	cacheLookupsTotal.WithLabelValues(result).Inc()
}
