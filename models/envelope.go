package models

import (
	"time"

	"parentguide-backend/catalog"
	"parentguide-backend/combiner"
)

// RelatedReading is a suggested follow-up question
type RelatedReading struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
}

// Result is the successful part of an answer
type Result struct {
	MegaResponse       string                               `json:"mega_response"`
	RelatedReadings    []RelatedReading                     `json:"related_readings"`
	ResourcesByLevel   map[catalog.Level][]catalog.Resource `json:"resources_by_level,omitempty"`
	SuggestedResources []combiner.Candidate                 `json:"suggested_resources,omitempty"`
	AIUsed             string                               `json:"ai_used"`
	Language           string                               `json:"language"`
	UrgencyLevel       Urgency                              `json:"urgency_level"`
}

// Envelope is the response to an ask request. Provider failure is reported
// inside the envelope, never as an HTTP error.
type Envelope struct {
	Success            bool               `json:"success"`
	RequestID          string             `json:"request_id"`
	Result             *Result            `json:"result,omitempty"`
	Error              string             `json:"error,omitempty"`
	FallbackGuidance   string             `json:"fallback_guidance,omitempty"`
	EmergencyResources []catalog.Resource `json:"emergency_resources,omitempty"`
	Errors             map[string]string  `json:"errors,omitempty"`
	DebugInfo          map[string]any     `json:"debug_info,omitempty"`
	Cached             bool               `json:"cached,omitempty"`
	Timestamp          time.Time          `json:"timestamp"`
}
