package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ProviderErrors maps provider name to its failure message
type ProviderErrors map[string]string

// Value implements driver.Valuer for JSONB
func (p ProviderErrors) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB
func (p *ProviderErrors) Scan(value interface{}) error {
	if value == nil {
		*p = make(ProviderErrors)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	if len(bytes) == 0 {
		*p = make(ProviderErrors)
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// QuestionLog records how a question was answered. The question text itself
// is not stored.
type QuestionLog struct {
	ID             uuid.UUID      `json:"id"`
	RequestID      string         `json:"request_id"`
	Language       string         `json:"language"`
	Region         *string        `json:"region"`
	Urgency        Urgency        `json:"urgency"`
	Emergency      bool           `json:"emergency"`
	Success        bool           `json:"success"`
	ProviderUsed   *string        `json:"provider_used"`
	ProviderErrors ProviderErrors `json:"provider_errors"`
	ResourceCount  int            `json:"resource_count"`
	DurationMS     int64          `json:"duration_ms"`
	CreatedAt      time.Time      `json:"created_at"`
}
