// Package events defines the audit event payloads exchanged with the
// platform backend over Kafka.
package events

import (
	"encoding/json"
	"time"
)

// ActivityRecorded is the message emitted whenever a backend module (or
// this service's own API) records an audit activity. Content is the
// action-specific payload and stays opaque to the feed.
type ActivityRecorded struct {
	ActivityID     string          `json:"activity_id"`
	TenantID       string          `json:"tenant_id"`
	ScopeType      string          `json:"scope_type"`
	ScopeID        string          `json:"scope_id"`
	Action         string          `json:"action"`
	AuthorID       string          `json:"author_id"`
	AuthorFullName string          `json:"author_full_name"`
	Content        json.RawMessage `json:"content,omitempty"`
	InsertedAt     time.Time       `json:"inserted_at"`
}
