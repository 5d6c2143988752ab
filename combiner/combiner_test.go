package combiner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listA() []Candidate {
	return []Candidate{
		{Title: "IDEA Website", URL: "https://sites.ed.gov/idea/", Description: "Special education law"},
		{Title: "Understood", URL: "https://www.understood.org/en/articles/iep", Description: "IEP basics"},
		{Title: "Local Blog", URL: "https://parentblog.example.com/post", Description: "Our story"},
		{Title: "Wrightslaw", URL: "https://www.wrightslaw.com", Description: "Advocacy and special education law"},
		{Title: "Random Forum", URL: "https://forum.example.net/thread/1", Description: "Discussion"},
	}
}

func listB() []Candidate {
	return []Candidate{
		{Title: "IDEA Site (B)", URL: "https://sites.ed.gov/idea/", Description: "duplicate url"},
		{Title: "Wrightslaw Home", URL: "https://www.wrightslaw.com", Description: "duplicate url"},
		{Title: "Parent Center Hub", URL: "https://www.parentcenterhub.org/find-your-center/", Description: "Parent guide to finding help"},
		{Title: "OCR 504 guidance", URL: "https://www.hhs.gov/civil-rights/504", Description: "Section 504 rights"},
		{Title: "University Disability Center", URL: "https://disability.uoregon.edu", Description: "Research on IEP outcomes"},
	}
}

func TestCombine_CapDedupAndOrder(t *testing.T) {
	got := Combine(listA(), listB())

	require.LessOrEqual(t, len(got), MaxResults)
	require.NotEmpty(t, got)

	urls := map[string]bool{}
	domains := map[string]bool{}
	for _, c := range got {
		u := normalizeURL(c.URL)
		d := Domain(c.URL)
		assert.False(t, urls[u], "duplicate url %s", u)
		assert.False(t, domains[d], "duplicate domain %s", d)
		urls[u] = true
		domains[d] = true
	}

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, Score(got[i-1], false)+2, Score(got[i], false),
			"entries must be in descending score order")
	}
}

func TestCombine_FirstSeenWins(t *testing.T) {
	got := Combine(listA(), listB())

	for _, c := range got {
		assert.NotEqual(t, "IDEA Site (B)", c.Title)
		assert.NotEqual(t, "Wrightslaw Home", c.Title)
	}
}

func TestCombine_DomainDedup(t *testing.T) {
	a := []Candidate{{Title: "ED one", URL: "https://www.ed.gov/a"}}
	b := []Candidate{{Title: "ED two", URL: "https://sites.ed.gov/b"}}

	got := Combine(a, b)
	require.Len(t, got, 1)
	assert.Equal(t, "ED one", got[0].Title)
}

func TestCombine_TitleDedup(t *testing.T) {
	a := []Candidate{{Title: "  Parent Guide ", URL: "https://one.example.org"}}
	b := []Candidate{{Title: "parent guide", URL: "https://two.example.com"}}

	assert.Len(t, Combine(a, b), 1)
}

func TestCombine_SkipsIncomplete(t *testing.T) {
	got := Combine([]Candidate{{Title: "", URL: "https://x.org"}, {Title: "No URL"}}, nil)
	assert.Empty(t, got)
}

func TestCombine_StableForEqualScores(t *testing.T) {
	a := []Candidate{
		{Title: "First", URL: "https://first.example.com"},
		{Title: "Second", URL: "https://second.example.com"},
	}
	got := Combine(a, nil)
	require.Len(t, got, 2)
	assert.Equal(t, "First", got[0].Title)
	assert.Equal(t, "Second", got[1].Title)
}

func TestCombine_PreferredProviderBreaksTies(t *testing.T) {
	a := []Candidate{{Title: "From A", URL: "https://a.example.com"}}
	b := []Candidate{{Title: "From B", URL: "https://b.example.com"}}

	got := New(false).Combine(a, b)
	require.Len(t, got, 2)
	assert.Equal(t, "From B", got[0].Title)

	got = New(true).Combine(a, b)
	assert.Equal(t, "From A", got[0].Title)
}

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		cand      Candidate
		preferred bool
		want      int
	}{
		{"gov host", Candidate{Title: "x", URL: "https://www.ada.gov"}, false, 20},
		{"edu host", Candidate{Title: "x", URL: "https://uoregon.edu/x"}, false, 20},
		{"trusted site", Candidate{Title: "x", URL: "https://www.understood.org/a"}, false, 15},
		{"keywords", Candidate{Title: "IEP and 504", Description: "Special Education advocacy"}, false, 20},
		{"preferred", Candidate{Title: "x", URL: "https://example.com"}, true, 2},
		{"plain", Candidate{Title: "x", URL: "https://example.com"}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.cand, tt.preferred))
		})
	}
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "ed.gov", Domain("https://sites.ed.gov/idea/"))
	assert.Equal(t, "understood.org", Domain("www.understood.org/en"))
	assert.Equal(t, "example.co.uk", Domain("https://a.b.example.co.uk/x"))
	assert.Empty(t, Domain(""))
}
