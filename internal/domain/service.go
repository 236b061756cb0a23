// Package domain defines the business logic for the feed service.
package domain

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrIdempotentReplay indicates an existing activity was found for the provided idempotency key.
	ErrIdempotentReplay = errors.New("activity already exists for idempotency key")
	// ErrActivityNotFound is returned when an activity cannot be located.
	ErrActivityNotFound = errors.New("activity not found")
)

// Cursor models the keyset pagination token over (inserted_at, activity_id).
type Cursor struct {
	InsertedAt time.Time
	ID         string
}

// ActivityRepository captures persistence operations.
type ActivityRepository interface {
	FindByIdempotency(ctx context.Context, tenantID, idempotencyKey string) (*Activity, error)
	Create(ctx context.Context, activity Activity, idempotencyKey string) error
	Get(ctx context.Context, tenantID, activityID string) (*Activity, error)
	ListByScope(ctx context.Context, tenantID string, scopeType ScopeType, scopeID string, cursor *Cursor, limit int) ([]Activity, *Cursor, error)
}

// Service orchestrates activity recording and feed reads.
type Service struct {
	repo ActivityRepository
}

// NewService constructs a Service.
func NewService(repo ActivityRepository) *Service {
	return &Service{repo: repo}
}

// RecordActivityInput captures an activity submitted through the API.
type RecordActivityInput struct {
	TenantID       string
	ScopeType      ScopeType
	ScopeID        string
	Action         string
	Author         Person
	Content        json.RawMessage
	InsertedAt     time.Time
	IdempotencyKey string
}

// Validate ensures the input can become a well-formed activity. A zero
// InsertedAt is rejected here so the grouping engine never sees one.
func (in RecordActivityInput) Validate() error {
	if strings.TrimSpace(in.ScopeID) == "" {
		return errors.New("scope_id is required")
	}
	switch in.ScopeType {
	case ScopeCompany, ScopeSpace, ScopeProject, ScopeGoal:
	default:
		return errors.New("scope_type must be one of company, space, project, goal")
	}
	if strings.TrimSpace(in.Action) == "" {
		return errors.New("action is required")
	}
	if strings.TrimSpace(in.Author.ID) == "" {
		return errors.New("author id is required")
	}
	if in.InsertedAt.IsZero() {
		return errors.New("inserted_at is required")
	}
	return nil
}

// RecordActivity handles idempotent create semantics. The boolean result
// reports whether an existing activity was replayed.
func (s *Service) RecordActivity(ctx context.Context, input RecordActivityInput) (*Activity, bool, error) {
	if err := input.Validate(); err != nil {
		return nil, false, err
	}

	existing, err := s.repo.FindByIdempotency(ctx, input.TenantID, input.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, true, nil
	}

	activity := Activity{
		ID:         uuid.NewString(),
		TenantID:   input.TenantID,
		ScopeType:  input.ScopeType,
		ScopeID:    input.ScopeID,
		Action:     input.Action,
		Author:     input.Author,
		Content:    input.Content,
		InsertedAt: input.InsertedAt.UTC(),
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, activity, input.IdempotencyKey); err != nil {
		return nil, false, err
	}

	return &activity, false, nil
}

// GetActivity fetches by ID.
func (s *Service) GetActivity(ctx context.Context, tenantID, activityID string) (*Activity, error) {
	activity, err := s.repo.Get(ctx, tenantID, activityID)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, ErrActivityNotFound
	}
	return activity, nil
}

// ListFeedActivities fetches one newest-first page for a feed scope.
func (s *Service) ListFeedActivities(ctx context.Context, tenantID string, scopeType ScopeType, scopeID string, cursor *Cursor, limit int) ([]Activity, *Cursor, error) {
	return s.repo.ListByScope(ctx, tenantID, scopeType, scopeID, cursor, limit)
}
