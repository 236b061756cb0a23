//go:build integration

package postgres

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/feed/internal/domain"
)

func TestRepositoryRespectsTenantIsolation(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(t, ctx)

	repo := NewRepository(pool)

	activity := sampleActivity(uuid.NewString())

	err := repo.Create(ctx, activity, "key-1")
	require.NoError(t, err)

	stored, err := repo.Get(ctx, activity.TenantID, activity.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, activity.ID, stored.ID)
	require.Equal(t, activity.Author.FullName, stored.Author.FullName)

	otherTenant := uuid.NewString()
	storedOther, err := repo.Get(ctx, otherTenant, activity.ID)
	require.NoError(t, err)
	require.Nil(t, storedOther, "RLS should prevent cross-tenant access")
}

func TestRepositoryCreateWritesOutboxRow(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(t, ctx)

	repo := NewRepository(pool)
	activity := sampleActivity(uuid.NewString())

	require.NoError(t, repo.Create(ctx, activity, ""))

	var eventType, topic, partitionKey string
	var payload []byte
	err := pool.QueryRow(ctx,
		`SELECT event_type, topic, partition_key, payload FROM outbox WHERE aggregate_id = $1`, activity.ID,
	).Scan(&eventType, &topic, &partitionKey, &payload)
	require.NoError(t, err)

	require.Equal(t, "activity.recorded", eventType)
	require.Equal(t, "activity_audit", topic)
	require.Equal(t, activity.TenantID+":"+string(activity.ScopeType)+":"+activity.ScopeID, partitionKey)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	require.Equal(t, activity.ID, decoded["activity_id"])
}

func TestRepositoryFindByIdempotency(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(t, ctx)

	repo := NewRepository(pool)
	activity := sampleActivity(uuid.NewString())

	require.NoError(t, repo.Create(ctx, activity, "replay-key"))

	found, err := repo.FindByIdempotency(ctx, activity.TenantID, "replay-key")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, activity.ID, found.ID)

	missing, err := repo.FindByIdempotency(ctx, activity.TenantID, "unused-key")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestRepositoryListByScopePaginates(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(t, ctx)

	repo := NewRepository(pool)
	tenantID := uuid.NewString()
	scopeID := uuid.NewString()

	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		activity := sampleActivity(tenantID)
		activity.ScopeID = scopeID
		activity.InsertedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, activity, ""))
	}

	page1, cursor, err := repo.ListByScope(ctx, tenantID, domain.ScopeProject, scopeID, nil, 3)
	require.NoError(t, err)
	require.Len(t, page1, 3)
	require.NotNil(t, cursor)
	require.True(t, page1[0].InsertedAt.After(page1[2].InsertedAt), "newest first")

	page2, cursor2, err := repo.ListByScope(ctx, tenantID, domain.ScopeProject, scopeID, cursor, 3)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	require.Nil(t, cursor2, "short page should end pagination")

	seen := map[string]bool{}
	for _, a := range append(page1, page2...) {
		require.False(t, seen[a.ID], "pages must not overlap")
		seen[a.ID] = true
	}
}

func sampleActivity(tenantID string) domain.Activity {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return domain.Activity{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		ScopeType: domain.ScopeProject,
		ScopeID:   uuid.NewString(),
		Action:    "goal_editing",
		Author: domain.Person{
			ID:       uuid.NewString(),
			FullName: "Integration Tester",
		},
		Content:    json.RawMessage(`{"field":"value"}`),
		InsertedAt: now,
		CreatedAt:  now,
	}
}

func setupPool(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("feed"),
		postgrescontainer.WithUsername("feed"),
		postgrescontainer.WithPassword("feed"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))

	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return pool
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	t.Helper()

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	migrationsDir := resolvePath(t, "../../../db/postgres/migrations")
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	sort.Strings(files)

	for _, file := range files {
		contents, readErr := os.ReadFile(file)
		require.NoErrorf(t, readErr, "read migration %s", file)

		_, execErr := pool.Exec(ctx, string(contents))
		require.NoErrorf(t, execErr, "execute migration %s", file)
	}
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
