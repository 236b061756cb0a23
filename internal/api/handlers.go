// Package api exposes HTTP handlers for the feed service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/feed/internal/auth"
	"example.com/feed/internal/domain"
	"example.com/feed/internal/feed"
	"example.com/feed/internal/observability"
	"example.com/feed/internal/persistence"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service         *domain.Service
	defaultPageSize int
	maxPageSize     int
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, defaultPageSize, maxPageSize int) *Handler {
	if defaultPageSize <= 0 {
		defaultPageSize = 40
	}
	if maxPageSize <= 0 {
		maxPageSize = 200
	}
	return &Handler{service: service, defaultPageSize: defaultPageSize, maxPageSize: maxPageSize}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/feed", h.feed)
	mux.HandleFunc("/v1/activities", h.activities)
	mux.HandleFunc("/v1/activities/", h.activityByID)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.recordActivity(w, r)
	case http.MethodGet:
		h.listActivities(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) activityByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/activities/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing activity id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getActivity(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) feed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeFeedRead) {
		writeError(w, http.StatusForbidden, "forbidden", "scope feed:read required")
		return
	}

	scopeType, scopeID, ok := scopeParams(w, r)
	if !ok {
		return
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}
	limit := h.pageSize(r)

	activities, next, err := h.service.ListFeedActivities(r.Context(), claims.TenantID, scopeType, scopeID, cursor, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	start := time.Now()
	groups, err := feed.GroupByDate(activities)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	observability.RecordFeedBuild(time.Since(start), len(groups))

	resp := FeedResponse{
		Groups:     make([]FeedGroupView, 0, len(groups)),
		NextCursor: persistence.EncodeCursor(next),
	}
	for _, group := range groups {
		resp.Groups = append(resp.Groups, toFeedGroupView(group))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) recordActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeActivitiesWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope activities:write required")
		return
	}

	var req RecordActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	activity, replay, err := h.service.RecordActivity(r.Context(), domain.RecordActivityInput{
		TenantID:       claims.TenantID,
		ScopeType:      domain.ScopeType(req.ScopeType),
		ScopeID:        req.ScopeID,
		Action:         req.Action,
		Author:         domain.Person{ID: req.AuthorID, FullName: req.AuthorFullName},
		Content:        req.Content,
		InsertedAt:     req.InsertedAt,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	resp := RecordActivityResponse{
		ActivityID: activity.ID,
		Replay:     replay,
	}

	status := http.StatusAccepted
	if replay {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeFeedRead) && !claims.HasScope(auth.ScopeActivitiesWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope feed:read or activities:write required")
		return
	}

	activity, err := h.service.GetActivity(r.Context(), claims.TenantID, id)
	if err != nil {
		if errors.Is(err, domain.ErrActivityNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "activity not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toActivityView(*activity))
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeFeedRead) && !claims.HasScope(auth.ScopeActivitiesWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope feed:read or activities:write required")
		return
	}

	scopeType, scopeID, ok := scopeParams(w, r)
	if !ok {
		return
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}
	limit := h.pageSize(r)

	activities, next, err := h.service.ListFeedActivities(r.Context(), claims.TenantID, scopeType, scopeID, cursor, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]ActivityView, 0, len(activities))
	for _, activity := range activities {
		items = append(items, toActivityView(activity))
	}

	resp := ListActivitiesResponse{
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) pageSize(r *http.Request) int {
	limit := h.defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > h.maxPageSize {
		limit = h.maxPageSize
	}
	return limit
}

func scopeParams(w http.ResponseWriter, r *http.Request) (domain.ScopeType, string, bool) {
	scopeType := domain.ScopeType(r.URL.Query().Get("scope_type"))
	switch scopeType {
	case domain.ScopeCompany, domain.ScopeSpace, domain.ScopeProject, domain.ScopeGoal:
	default:
		writeError(w, http.StatusBadRequest, "validation_failed", "scope_type must be one of company, space, project, goal")
		return "", "", false
	}

	scopeID := r.URL.Query().Get("scope_id")
	if strings.TrimSpace(scopeID) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing scope_id parameter")
		return "", "", false
	}
	return scopeType, scopeID, true
}

// RecordActivityRequest is the payload for POST /v1/activities.
type RecordActivityRequest struct {
	ScopeType      string          `json:"scope_type"`
	ScopeID        string          `json:"scope_id"`
	Action         string          `json:"action"`
	AuthorID       string          `json:"author_id"`
	AuthorFullName string          `json:"author_full_name"`
	Content        json.RawMessage `json:"content,omitempty"`
	InsertedAt     time.Time       `json:"inserted_at"`
}

// Validate ensures request correctness.
func (r RecordActivityRequest) Validate() error {
	switch domain.ScopeType(r.ScopeType) {
	case domain.ScopeCompany, domain.ScopeSpace, domain.ScopeProject, domain.ScopeGoal:
	default:
		return errors.New("scope_type must be one of company, space, project, goal")
	}
	if strings.TrimSpace(r.ScopeID) == "" {
		return errors.New("scope_id is required")
	}
	if strings.TrimSpace(r.Action) == "" {
		return errors.New("action is required")
	}
	if strings.TrimSpace(r.AuthorID) == "" {
		return errors.New("author_id is required")
	}
	if r.InsertedAt.IsZero() {
		return errors.New("inserted_at is required")
	}
	return nil
}

// RecordActivityResponse describes the response body for record.
type RecordActivityResponse struct {
	ActivityID string `json:"activity_id"`
	Replay     bool   `json:"idempotent_replay"`
}

// PersonView exposes the author reference.
type PersonView struct {
	ID       string `json:"id"`
	FullName string `json:"full_name,omitempty"`
}

// ActivityView exposes full details about an activity.
type ActivityView struct {
	ActivityID string          `json:"activity_id"`
	ScopeType  string          `json:"scope_type"`
	ScopeID    string          `json:"scope_id"`
	Action     string          `json:"action"`
	Author     PersonView      `json:"author"`
	Content    json.RawMessage `json:"content,omitempty"`
	InsertedAt time.Time       `json:"inserted_at"`
}

// AggregatedView summarises a collapsed run of activities.
type AggregatedView struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	Author     PersonView     `json:"author"`
	InsertedAt time.Time      `json:"inserted_at"`
	Count      int            `json:"count"`
	Activities []ActivityView `json:"activities"`
}

// FeedEntryView is the rendered union: type is "activity" or
// "aggregated" and picks which of the two payload fields is present.
type FeedEntryView struct {
	Type       string          `json:"type"`
	Activity   *ActivityView   `json:"activity,omitempty"`
	Aggregated *AggregatedView `json:"aggregated,omitempty"`
}

// FeedGroupView is one calendar-day bucket of the feed.
type FeedGroupView struct {
	Date    string          `json:"date"`
	Entries []FeedEntryView `json:"entries"`
}

// FeedResponse packages the grouped feed page.
type FeedResponse struct {
	Groups     []FeedGroupView `json:"groups"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// ListActivitiesResponse packages flat list results.
type ListActivitiesResponse struct {
	Items      []ActivityView `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toActivityView(activity domain.Activity) ActivityView {
	return ActivityView{
		ActivityID: activity.ID,
		ScopeType:  string(activity.ScopeType),
		ScopeID:    activity.ScopeID,
		Action:     activity.Action,
		Author:     PersonView{ID: activity.Author.ID, FullName: activity.Author.FullName},
		Content:    activity.Content,
		InsertedAt: activity.InsertedAt,
	}
}

func toFeedGroupView(group feed.ActivityGroup) FeedGroupView {
	view := FeedGroupView{
		Date:    group.Date.Format("2006-01-02"),
		Entries: make([]FeedEntryView, 0, len(group.Entries)),
	}
	for _, entry := range group.Entries {
		view.Entries = append(view.Entries, toFeedEntryView(entry))
	}
	return view
}

func toFeedEntryView(entry feed.Entry) FeedEntryView {
	if entry.Kind == feed.EntryAggregated {
		agg := entry.Aggregated
		members := make([]ActivityView, 0, len(agg.Activities))
		for _, member := range agg.Activities {
			members = append(members, toActivityView(member))
		}
		return FeedEntryView{
			Type: string(feed.EntryAggregated),
			Aggregated: &AggregatedView{
				ID:         agg.ID,
				Action:     agg.Action,
				Author:     PersonView{ID: agg.Author.ID, FullName: agg.Author.FullName},
				InsertedAt: agg.InsertedAt,
				Count:      len(agg.Activities),
				Activities: members,
			},
		}
	}

	view := toActivityView(*entry.Activity)
	return FeedEntryView{Type: string(feed.EntryActivity), Activity: &view}
}
