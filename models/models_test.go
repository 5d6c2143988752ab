package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string", `{"user_location":"Bend, Oregon"}`, "Bend, Oregon"},
		{"object", `{"user_location":{"city":"Salem","state":"OR","country":"US"}}`, "Salem, OR, US"},
		{"partial object", `{"user_location":{"state":"Idaho"}}`, "Idaho"},
		{"null", `{"user_location":null}`, ""},
		{"missing", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req AskRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.want, req.UserLocation.String())
		})
	}
}

func TestLocationUnmarshalRejectsNumbers(t *testing.T) {
	var req AskRequest
	assert.Error(t, json.Unmarshal([]byte(`{"user_location":42}`), &req))
}

func TestLocationMarshal(t *testing.T) {
	b, err := json.Marshal(Location{City: "Eugene", State: "Oregon"})
	require.NoError(t, err)
	assert.JSONEq(t, `"Eugene, Oregon"`, string(b))
}

func TestParseUrgency(t *testing.T) {
	assert.Equal(t, UrgencyNormal, ParseUrgency(""))
	assert.Equal(t, UrgencyNormal, ParseUrgency("whenever"))
	assert.Equal(t, UrgencyUrgent, ParseUrgency(" Urgent "))
	assert.Equal(t, UrgencyEmergency, ParseUrgency("EMERGENCY"))
}

func TestProviderErrorsScan(t *testing.T) {
	var p ProviderErrors
	require.NoError(t, p.Scan([]byte(`{"openai":"auth error"}`)))
	assert.Equal(t, ProviderErrors{"openai": "auth error"}, p)

	require.NoError(t, p.Scan(nil))
	assert.Empty(t, p)

	require.NoError(t, p.Scan(`{"gemini":"timeout"}`))
	assert.Equal(t, "timeout", p["gemini"])

	v, err := ProviderErrors(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)
}
