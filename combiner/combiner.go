// Package combiner merges AI-proposed resource lists into one ranked list.
package combiner

import (
	"net/url"
	"sort"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// MaxResults caps the combined list.
const MaxResults = 6

// Candidate is a resource proposed by a provider.
type Candidate struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	Relevance   string `json:"relevance,omitempty"`
}

var trustedDomains = map[string]bool{
	"understood.org":      true,
	"wrightslaw.com":      true,
	"parentcenterhub.org": true,
	"copaa.org":           true,
	"ncld.org":            true,
	"chadd.org":           true,
	"thearc.org":          true,
	"autismspeaks.org":    true,
	"nami.org":            true,
	"cadreworks.org":      true,
	"ndrn.org":            true,
	"idea.ed.gov":         true,
	"childmind.org":       true,
	"readingrockets.org":  true,
}

var qualityKeywords = []string{"idea", "iep", "504", "special education", "advocacy", "parent guide"}

type scored struct {
	Candidate
	score int
}

// Combiner ranks candidates. The preferred provider's list earns a small
// tie-break bonus.
type Combiner struct {
	preferA bool
}

// New returns a Combiner. When preferA is true list A is the preferred
// provider's list, otherwise list B is.
func New(preferA bool) *Combiner {
	return &Combiner{preferA: preferA}
}

// Combine merges a and b. Candidates from a are considered first; a candidate
// is rejected when its title, URL or registrable domain was already
// accepted. The result is sorted by score, highest first, and holds at most
// MaxResults entries.
func (c *Combiner) Combine(a, b []Candidate) []Candidate {
	var (
		titles  = map[string]bool{}
		urls    = map[string]bool{}
		domains = map[string]bool{}
		picked  []scored
	)

	accept := func(list []Candidate, preferred bool) {
		for _, cand := range list {
			title := strings.ToLower(strings.TrimSpace(cand.Title))
			link := normalizeURL(cand.URL)
			if title == "" || link == "" {
				continue
			}
			domain := Domain(cand.URL)
			if titles[title] || urls[link] || (domain != "" && domains[domain]) {
				continue
			}
			titles[title] = true
			urls[link] = true
			if domain != "" {
				domains[domain] = true
			}
			picked = append(picked, scored{Candidate: cand, score: Score(cand, preferred)})
		}
	}
	accept(a, c.preferA)
	accept(b, !c.preferA)

	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].score > picked[j].score
	})
	if len(picked) > MaxResults {
		picked = picked[:MaxResults]
	}

	out := make([]Candidate, len(picked))
	for i, p := range picked {
		out[i] = p.Candidate
	}
	return out
}

// Combine merges two lists with list A preferred.
func Combine(a, b []Candidate) []Candidate {
	return New(true).Combine(a, b)
}

// Score rates a candidate: +20 for a .gov or .edu host, +15 for a known
// education site, +5 per quality keyword in the title or description, and +2
// when it came from the preferred provider.
func Score(c Candidate, preferred bool) int {
	score := 0
	host := hostname(c.URL)
	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") {
		score += 20
	}
	if trustedDomains[Domain(c.URL)] || trustedDomains[host] {
		score += 15
	}

	text := strings.ToLower(c.Title + " " + c.Description)
	for _, kw := range qualityKeywords {
		if strings.Contains(text, kw) {
			score += 5
		}
	}
	if preferred {
		score += 2
	}
	return score
}

// Domain returns the registrable domain of rawURL ("ed.gov" for
// "https://sites.ed.gov/idea"), or the bare host when it has no public
// suffix.
func Domain(rawURL string) string {
	host := hostname(rawURL)
	if host == "" {
		return ""
	}
	d, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return d
}

func hostname(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func normalizeURL(u string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(u)), "/")
}
