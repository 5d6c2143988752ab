package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Urgency represents how pressing a question is
type Urgency string

const (
	UrgencyNormal    Urgency = "normal"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyEmergency Urgency = "emergency"
)

// ParseUrgency maps free-form input to an Urgency, defaulting to normal.
func ParseUrgency(s string) Urgency {
	switch Urgency(strings.ToLower(strings.TrimSpace(s))) {
	case UrgencyUrgent:
		return UrgencyUrgent
	case UrgencyEmergency:
		return UrgencyEmergency
	default:
		return UrgencyNormal
	}
}

// Location is where the parent lives. Callers send either a free-form string
// ("Bend, Oregon") or an object with city, state and country.
type Location struct {
	Raw     string `json:"-"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// UnmarshalJSON accepts a string or a {city, state, country} object.
func (l *Location) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = Location{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Location{Raw: strings.TrimSpace(s)}
		return nil
	}

	type plain Location
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*l = Location(p)
	return nil
}

// MarshalJSON writes the location as a single string.
func (l Location) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// String joins the known parts with commas.
func (l Location) String() string {
	if l.Raw != "" {
		return l.Raw
	}
	var parts []string
	for _, p := range []string{l.City, l.State, l.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// AskRequest is a parent's question
type AskRequest struct {
	Question     string   `json:"question" binding:"required"`
	Language     string   `json:"language" binding:"omitempty,langtag"`
	UserLocation Location `json:"user_location"`
	Urgency      Urgency  `json:"urgency" binding:"omitempty,oneof=normal urgent emergency"`
	Context      string   `json:"context"`
}
