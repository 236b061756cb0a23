package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/feed/internal/domain"
	"example.com/feed/internal/events"
	"example.com/feed/internal/observability"
)

// Repository provides Postgres-backed persistence for activities and outbox events.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const activityColumns = `activity_id, tenant_id, scope_type, scope_id, action, author_id, author_full_name, content, inserted_at, created_at`

func scanActivity(row pgx.Row) (domain.Activity, error) {
	var a domain.Activity
	err := row.Scan(&a.ID, &a.TenantID, &a.ScopeType, &a.ScopeID, &a.Action, &a.Author.ID, &a.Author.FullName, &a.Content, &a.InsertedAt, &a.CreatedAt)
	return a, err
}

// FindByIdempotency checks if an activity already exists for the supplied idempotency key.
func (r *Repository) FindByIdempotency(ctx context.Context, tenantID, idempotencyKey string) (*domain.Activity, error) {
	if idempotencyKey == "" {
		return nil, nil
	}

	query := `SELECT ` + activityColumns + ` FROM activities WHERE tenant_id=$1 AND idempotency_key=$2`

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return nil, err
	}

	activity, err := scanActivity(tx.QueryRow(ctx, query, tenantID, idempotencyKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tx.Commit(ctx)
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &activity, nil
}

// Create persists the activity and records the outbox event inside a single transaction.
func (r *Repository) Create(ctx context.Context, activity domain.Activity, idempotencyKey string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", activity.TenantID); err != nil {
		return err
	}

	insertActivity := `INSERT INTO activities (activity_id, tenant_id, scope_type, scope_id, action, author_id, author_full_name, content, inserted_at, created_at, idempotency_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	_, err = tx.Exec(ctx, insertActivity,
		activity.ID,
		activity.TenantID,
		activity.ScopeType,
		activity.ScopeID,
		activity.Action,
		activity.Author.ID,
		activity.Author.FullName,
		nullIfEmptyJSON(activity.Content),
		activity.InsertedAt,
		activity.CreatedAt,
		nullIfEmpty(idempotencyKey),
	)
	if err != nil {
		return err
	}

	if err = r.insertOutbox(ctx, tx, activity, "activity.recorded", events.ActivityRecorded{
		ActivityID:     activity.ID,
		TenantID:       activity.TenantID,
		ScopeType:      string(activity.ScopeType),
		ScopeID:        activity.ScopeID,
		Action:         activity.Action,
		AuthorID:       activity.Author.ID,
		AuthorFullName: activity.Author.FullName,
		Content:        activity.Content,
		InsertedAt:     activity.InsertedAt,
	}); err != nil {
		return err
	}

	err = tx.Commit(ctx)
	if err != nil {
		return err
	}
	observability.RecordActivityPersisted(activity.InsertedAt)
	return nil
}

func (r *Repository) insertOutbox(ctx context.Context, tx pgx.Tx, activity domain.Activity, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta := eventCatalog[eventType]
	if meta.Topic == "" {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	partitionKey := meta.PartitionKeyFn(activity)
	dedupeKey := fmt.Sprintf("%s:%s", activity.ID, eventType)

	const stmt = `INSERT INTO outbox (tenant_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err = tx.Exec(ctx, stmt,
		activity.TenantID,
		"activity",
		activity.ID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		partitionKey,
		body,
		dedupeKey,
	)
	return err
}

// Get retrieves an activity by ID.
func (r *Repository) Get(ctx context.Context, tenantID, activityID string) (*domain.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE tenant_id=$1 AND activity_id=$2`

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return nil, err
	}

	activity, err := scanActivity(tx.QueryRow(ctx, query, tenantID, activityID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if err := tx.Commit(ctx); err != nil {
				return nil, err
			}
			return nil, nil
		}
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &activity, nil
}

// ListByScope returns one newest-first page of activities for a feed scope.
func (r *Repository) ListByScope(ctx context.Context, tenantID string, scopeType domain.ScopeType, scopeID string, cursor *domain.Cursor, limit int) ([]domain.Activity, *domain.Cursor, error) {
	args := []interface{}{tenantID, scopeType, scopeID, limit}
	query := `SELECT ` + activityColumns + ` FROM activities WHERE tenant_id=$1 AND scope_type=$2 AND scope_id=$3`

	if cursor != nil {
		query += ` AND (inserted_at, activity_id) < ($5, $6)`
		args = append(args, cursor.InsertedAt, cursor.ID)
	}

	query += ` ORDER BY inserted_at DESC, activity_id DESC LIMIT $4`

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return nil, nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	results := make([]domain.Activity, 0, limit)
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, activity)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	var nextCursor *domain.Cursor
	if len(results) == limit {
		last := results[len(results)-1]
		nextCursor = &domain.Cursor{InsertedAt: last.InsertedAt, ID: last.ID}
	}

	return results, nextCursor, nil
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

func nullIfEmptyJSON(value json.RawMessage) interface{} {
	if len(value) == 0 {
		return nil
	}
	return value
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic          string
	SchemaSubject  string
	PartitionKeyFn func(domain.Activity) string
}

var eventCatalog = map[string]EventMetadata{
	"activity.recorded": {
		Topic:         "activity_audit",
		SchemaSubject: "activity_audit-value",
		PartitionKeyFn: func(a domain.Activity) string {
			return fmt.Sprintf("%s:%s:%s", a.TenantID, a.ScopeType, a.ScopeID)
		},
	},
}
