package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/feed/internal/events"
	"example.com/feed/internal/observability"
)

// PersistenceHandler writes consumed audit events into the activities
// table the feed is served from. Events this service published itself
// land here too; the insert is idempotent on activity_id so the echo is
// a no-op.
type PersistenceHandler struct {
	pool *pgxpool.Pool
}

// NewPersistenceHandler constructs a handler backed by the provided pool.
func NewPersistenceHandler(pool *pgxpool.Pool) *PersistenceHandler {
	return &PersistenceHandler{pool: pool}
}

// Handle stores the activity carried by an activity.recorded event.
// Unknown event types are skipped without error so new backend events
// don't wedge the consumer.
func (h *PersistenceHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != "activity.recorded" {
		return nil
	}

	var event events.ActivityRecorded
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return fmt.Errorf("unmarshal activity.recorded: %w", err)
	}
	if event.ActivityID == "" || event.TenantID == "" {
		return errors.New("activity.recorded missing activity_id or tenant_id")
	}
	if event.InsertedAt.IsZero() {
		return fmt.Errorf("activity.recorded %s has no inserted_at", event.ActivityID)
	}

	conn, err := h.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", event.TenantID); err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO activities (activity_id, tenant_id, scope_type, scope_id, action, author_id, author_full_name, content, inserted_at, created_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
         ON CONFLICT (activity_id) DO NOTHING`,
		event.ActivityID,
		event.TenantID,
		event.ScopeType,
		event.ScopeID,
		event.Action,
		event.AuthorID,
		event.AuthorFullName,
		nullIfEmptyJSON(event.Content),
		event.InsertedAt.UTC(),
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordActivityPersisted(event.InsertedAt)
	return nil
}

func nullIfEmptyJSON(value json.RawMessage) interface{} {
	if len(value) == 0 {
		return nil
	}
	return value
}
