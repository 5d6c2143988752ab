// Package linker attaches catalog resources to AI answers and turns phone
// numbers into click-to-call links.
package linker

import (
	"slices"
	"strings"

	"go.uber.org/zap"

	"parentguide-backend/catalog"
	"parentguide-backend/metrics"
)

var (
	earlyInterventionTerms = []string{"early intervention", "birth to 3", "birth to three", "preschool", "intervención temprana", "preescolar"}
	autismTerms            = []string{"autism", "autismo"}
	fundingTerms           = []string{"grant", "funding", "financial assistance", "afford", "cost", "subvención", "ayuda financiera"}
)

// Result is the outcome of one enrichment pass.
type Result struct {
	HTML     string
	ByLevel  map[catalog.Level][]catalog.Resource
	UsedURLs map[string]bool
	Region   string
	County   string
}

// Total returns the number of resources matched across all levels.
func (r *Result) Total() int {
	n := 0
	for _, list := range r.ByLevel {
		n += len(list)
	}
	return n
}

// Linker matches content against a catalog.
type Linker struct {
	catalog *catalog.Catalog
}

// New creates a Linker over c.
func New(c *catalog.Catalog) *Linker {
	return &Linker{catalog: c}
}

// Catalog returns the catalog the linker matches against.
func (l *Linker) Catalog() *catalog.Catalog {
	return l.catalog
}

// Enhance appends a resource section to content using English labels. The
// input is returned unchanged when nothing matched or anything goes wrong.
func (l *Linker) Enhance(content, location, context string) string {
	return l.Enrich(content, location, context, DefaultLabels()).HTML
}

// Enrich is Enhance with localized labels and the matched resources exposed.
func (l *Linker) Enrich(content, location, context string, labels Labels) (res *Result) {
	res = &Result{HTML: content, ByLevel: map[catalog.Level][]catalog.Resource{}, UsedURLs: map[string]bool{}}
	defer func() {
		if r := recover(); r != nil {
			zap.L().Warn("resource enrichment failed", zap.Any("panic", r))
			res = &Result{HTML: content, ByLevel: map[catalog.Level][]catalog.Resource{}, UsedURLs: map[string]bool{}}
		}
	}()

	matched := l.Match(content, location, context)
	if matched.Total() == 0 {
		return matched
	}

	section, err := renderSection(matched.ByLevel, labels)
	if err != nil {
		zap.L().Warn("render resource section", zap.Error(err))
		return res
	}

	matched.HTML = content + "\n\n" + section
	counts := make(map[string]int, len(matched.ByLevel))
	for level, list := range matched.ByLevel {
		counts[string(level)] = len(list)
	}
	metrics.RecordEnrichment(counts)
	return matched
}

// Match gathers resources for content without rendering anything. HTML on
// the result is the unmodified content.
func (l *Linker) Match(content, location, context string) *Result {
	res := &Result{HTML: content, ByLevel: map[catalog.Level][]catalog.Resource{}, UsedURLs: map[string]bool{}}
	if l == nil || l.catalog == nil {
		return res
	}
	c := l.catalog
	surface := scanSurface(content, context)
	gathered := make(map[catalog.Level][]catalog.Resource, len(catalog.Levels))

	var federalNames []string
	for _, r := range c.FederalResources() {
		if r.MatchesAny(surface) {
			gathered[catalog.LevelFederal] = append(gathered[catalog.LevelFederal], r)
			federalNames = append(federalNames, strings.ToLower(r.Name))
		}
	}

	if region := c.ResolveRegion(location); region != "" {
		res.Region = region
		state := c.StateCoreResources(region)

		if c.HasCounties(region) {
			if county := c.ResolveCounty(region, location); county != "" {
				res.County = county
				if cr, ok := c.CountyResources(region, county); ok {
					gathered[catalog.LevelLocal] = cr.Local
					gathered[catalog.LevelCounty] = cr.County
				}
			} else if ps, ok := c.ParentSupport(region); ok {
				state = append(state, ps)
			}
		}

		if containsAny(surface, earlyInterventionTerms) {
			if r, ok := c.EarlyIntervention(region); ok {
				state = append(state, r)
			}
		}
		if containsAny(surface, autismTerms) {
			if r, ok := c.AutismSupport(region); ok {
				state = append(state, r)
			}
		}
		if containsAny(surface, fundingTerms) {
			state = append(state, c.GrantResources(region)...)
		}
		gathered[catalog.LevelState] = uniqueEntries(state)
	}

	for _, r := range c.AdvocacyResources() {
		if r.MatchesAny(surface) {
			gathered[catalog.LevelAdvocacy] = append(gathered[catalog.LevelAdvocacy], r)
		}
	}

	if containsAny(surface, c.LegalTriggers()) {
		for _, r := range c.LegalResources() {
			if !slices.Contains(federalNames, strings.ToLower(r.Name)) {
				gathered[catalog.LevelLegal] = append(gathered[catalog.LevelLegal], r)
			}
		}
		if res.Region != "" {
			gathered[catalog.LevelLegal] = append(gathered[catalog.LevelLegal], c.LegalAid(res.Region)...)
		}
	}

	for _, level := range catalog.Levels {
		for _, r := range gathered[level] {
			if r.URL != "" {
				key := normalizeURL(r.URL)
				if res.UsedURLs[key] {
					continue
				}
				res.UsedURLs[key] = true
			}
			res.ByLevel[level] = append(res.ByLevel[level], r)
		}
	}
	return res
}

// uniqueEntries drops exact duplicate entries, keeping first occurrences.
func uniqueEntries(list []catalog.Resource) []catalog.Resource {
	seen := make(map[string]bool, len(list))
	out := list[:0]
	for _, r := range list {
		id := r.Identity()
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, r)
	}
	return out
}

func normalizeURL(u string) string {
	u = strings.ToLower(strings.TrimSpace(u))
	return strings.TrimRight(u, "/")
}
