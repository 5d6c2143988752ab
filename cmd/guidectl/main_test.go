package main

import (
	"bytes"
	"testing"

	"parentguide-backend/combiner"
	"parentguide-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		asJSON = false
		resourcesQuery = ""
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestResourcesCommand(t *testing.T) {
	out, err := run(t, "resources", "Eugene, Oregon", "-q", "autism")
	require.NoError(t, err)
	assert.Contains(t, out, "Region: OR")
	assert.Contains(t, out, "[state]")
}

func TestResourcesCommand_RequiresInput(t *testing.T) {
	_, err := run(t, "resources")
	assert.Error(t, err)
}

func TestPrintEnvelope(t *testing.T) {
	tests := []struct {
		name string
		env  *models.Envelope
		want []string
	}{
		{
			name: "answer",
			env: &models.Envelope{
				Success: true,
				Cached:  true,
				Result: &models.Result{
					MegaResponse:       "<p>Write to the &amp; school</p>",
					AIUsed:             "anthropic",
					Language:           "en",
					SuggestedResources: []combiner.Candidate{{Title: "Wrightslaw", URL: "https://www.wrightslaw.com"}},
					RelatedReadings:    []models.RelatedReading{{ID: "iep", Prompt: "What goes in an IEP?"}},
				},
			},
			want: []string{"Answered by anthropic in en (cached)", "Write to the & school", "Wrightslaw <https://www.wrightslaw.com>", "What goes in an IEP?"},
		},
		{
			name: "fallback",
			env: &models.Envelope{
				Error:            "all providers failed",
				Errors:           map[string]string{"openai": "timeout"},
				FallbackGuidance: "<h3>Help</h3><p>Call 988</p>",
			},
			want: []string{"No AI answer (all providers failed)", "openai: timeout", "Help Call 988"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printEnvelope(&buf, tt.env)
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}
