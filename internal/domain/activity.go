package domain

import (
	"encoding/json"
	"time"
)

// ScopeType identifies which kind of feed an activity belongs to.
type ScopeType string

const (
	ScopeCompany ScopeType = "company"
	ScopeSpace   ScopeType = "space"
	ScopeProject ScopeType = "project"
	ScopeGoal    ScopeType = "goal"
)

// Person is the author reference carried on every activity. Only the ID
// participates in feed aggregation; the name is display data.
type Person struct {
	ID       string
	FullName string
}

// Activity is the canonical audit record stored in PostgreSQL. Content is
// an opaque payload owned by the emitting backend module and is never
// inspected by this service.
type Activity struct {
	ID         string
	TenantID   string
	ScopeType  ScopeType
	ScopeID    string
	Action     string
	Author     Person
	Content    json.RawMessage
	InsertedAt time.Time
	CreatedAt  time.Time
}
