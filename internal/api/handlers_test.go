package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"example.com/feed/internal/auth"
	"example.com/feed/internal/domain"
)

func readerClaims() *auth.Claims {
	return &auth.Claims{
		Subject:  "tester",
		TenantID: "tenant-1",
		Scopes: map[string]struct{}{
			auth.ScopeFeedRead: {},
		},
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestFeedGroupsAndAggregates(t *testing.T) {
	day1 := time.Date(2024, time.October, 2, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, time.October, 3, 11, 0, 0, 0, time.UTC)

	repo := &mockRepo{
		activities: []domain.Activity{
			{
				ID: "act-1", TenantID: "tenant-1", ScopeType: domain.ScopeProject, ScopeID: "proj-1",
				Action: "goal_editing", Author: domain.Person{ID: "u1", FullName: "Ada"},
				InsertedAt: day1,
			},
			{
				ID: "act-2", TenantID: "tenant-1", ScopeType: domain.ScopeProject, ScopeID: "proj-1",
				Action: "goal_editing", Author: domain.Person{ID: "u1", FullName: "Ada"},
				InsertedAt: day1.Add(10 * time.Minute),
			},
			{
				ID: "act-3", TenantID: "tenant-1", ScopeType: domain.ScopeProject, ScopeID: "proj-1",
				Action: "goal_created", Author: domain.Person{ID: "u2", FullName: "Grace"},
				InsertedAt: day2,
			},
		},
	}
	handler := NewHandler(domain.NewService(repo), 40, 200)

	req := httptest.NewRequest(http.MethodGet, "/v1/feed?scope_type=project&scope_id=proj-1", nil)
	req = req.WithContext(auth.WithClaims(req.Context(), readerClaims()))

	rr := httptest.NewRecorder()
	handler.feed(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp FeedResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(resp.Groups) != 2 {
		t.Fatalf("expected 2 day groups got %d", len(resp.Groups))
	}
	if resp.Groups[0].Date != "2024-10-02" {
		t.Fatalf("unexpected first group date %s", resp.Groups[0].Date)
	}

	first := resp.Groups[0].Entries
	if len(first) != 1 {
		t.Fatalf("expected 1 entry in first group got %d", len(first))
	}
	if first[0].Type != "aggregated" {
		t.Fatalf("expected aggregated entry got %s", first[0].Type)
	}
	if first[0].Aggregated.Count != 2 {
		t.Fatalf("expected 2 aggregated members got %d", first[0].Aggregated.Count)
	}
	if first[0].Aggregated.ID != "act-1_aggregated" {
		t.Fatalf("unexpected aggregated id %s", first[0].Aggregated.ID)
	}

	second := resp.Groups[1].Entries
	if len(second) != 1 || second[0].Type != "activity" {
		t.Fatalf("expected one plain entry in second group, got %+v", second)
	}
	if second[0].Activity.ActivityID != "act-3" {
		t.Fatalf("unexpected activity id %s", second[0].Activity.ActivityID)
	}
}

func TestFeedRequiresScopeParams(t *testing.T) {
	handler := NewHandler(domain.NewService(&mockRepo{}), 40, 200)

	req := httptest.NewRequest(http.MethodGet, "/v1/feed?scope_type=project", nil)
	req = req.WithContext(auth.WithClaims(req.Context(), readerClaims()))

	rr := httptest.NewRecorder()
	handler.feed(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestFeedRejectsUnknownScopeType(t *testing.T) {
	handler := NewHandler(domain.NewService(&mockRepo{}), 40, 200)

	req := httptest.NewRequest(http.MethodGet, "/v1/feed?scope_type=universe&scope_id=x", nil)
	req = req.WithContext(auth.WithClaims(req.Context(), readerClaims()))

	rr := httptest.NewRecorder()
	handler.feed(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestFeedRequiresReadScope(t *testing.T) {
	handler := NewHandler(domain.NewService(&mockRepo{}), 40, 200)

	claims := readerClaims()
	claims.Scopes = map[string]struct{}{auth.ScopeActivitiesWrite: {}}

	req := httptest.NewRequest(http.MethodGet, "/v1/feed?scope_type=goal&scope_id=g1", nil)
	req = req.WithContext(auth.WithClaims(req.Context(), claims))

	rr := httptest.NewRecorder()
	handler.feed(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rr.Code)
	}
}

func TestListActivitiesForbiddenNamesBothScopes(t *testing.T) {
	handler := NewHandler(domain.NewService(&mockRepo{}), 40, 200)

	claims := readerClaims()
	claims.Scopes = map[string]struct{}{}

	req := httptest.NewRequest(http.MethodGet, "/v1/activities?scope_type=goal&scope_id=g1", nil)
	req = req.WithContext(auth.WithClaims(req.Context(), claims))

	rr := httptest.NewRecorder()
	handler.listActivities(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["detail"] != "scope feed:read or activities:write required" {
		t.Fatalf("detail should name both accepted scopes, got %q", resp["detail"])
	}
}

func TestRecordActivityValidation(t *testing.T) {
	handler := NewHandler(domain.NewService(&mockRepo{}), 40, 200)

	claims := readerClaims()
	claims.Scopes = map[string]struct{}{auth.ScopeActivitiesWrite: {}}

	body := `{"scope_type":"project","scope_id":"proj-1","action":""}`
	req := httptest.NewRequest(http.MethodPost, "/v1/activities", strings.NewReader(body))
	req = req.WithContext(auth.WithClaims(req.Context(), claims))

	rr := httptest.NewRecorder()
	handler.recordActivity(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestRecordActivityAccepted(t *testing.T) {
	repo := &mockRepo{}
	handler := NewHandler(domain.NewService(repo), 40, 200)

	claims := readerClaims()
	claims.Scopes = map[string]struct{}{auth.ScopeActivitiesWrite: {}}

	body := `{"scope_type":"goal","scope_id":"goal-7","action":"goal_created","author_id":"u9","author_full_name":"Lin","inserted_at":"2024-10-02T09:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/activities", strings.NewReader(body))
	req = req.WithContext(auth.WithClaims(req.Context(), claims))

	rr := httptest.NewRecorder()
	handler.recordActivity(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d: %s", rr.Code, rr.Body.String())
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected 1 created activity got %d", len(repo.created))
	}
	if repo.created[0].TenantID != "tenant-1" {
		t.Fatalf("tenant must come from claims, got %s", repo.created[0].TenantID)
	}
}

type mockRepo struct {
	activities []domain.Activity
	created    []domain.Activity
}

func (m *mockRepo) FindByIdempotency(ctx context.Context, tenantID, idempotencyKey string) (*domain.Activity, error) {
	return nil, nil
}

func (m *mockRepo) Create(ctx context.Context, activity domain.Activity, idempotencyKey string) error {
	m.created = append(m.created, activity)
	return nil
}

func (m *mockRepo) Get(ctx context.Context, tenantID, activityID string) (*domain.Activity, error) {
	for _, activity := range m.activities {
		if activity.TenantID == tenantID && activity.ID == activityID {
			found := activity
			return &found, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) ListByScope(ctx context.Context, tenantID string, scopeType domain.ScopeType, scopeID string, cursor *domain.Cursor, limit int) ([]domain.Activity, *domain.Cursor, error) {
	out := make([]domain.Activity, 0, len(m.activities))
	for _, activity := range m.activities {
		if activity.TenantID == tenantID && activity.ScopeType == scopeType && activity.ScopeID == scopeID {
			out = append(out, activity)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil, nil
}
