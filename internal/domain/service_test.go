package domain

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validInput() RecordActivityInput {
	return RecordActivityInput{
		TenantID:   "tenant-1",
		ScopeType:  ScopeProject,
		ScopeID:    "project-1",
		Action:     "goal_editing",
		Author:     Person{ID: "user-1", FullName: "Alice Example"},
		Content:    json.RawMessage(`{"field":"value"}`),
		InsertedAt: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestRecordActivityCreates(t *testing.T) {
	repo := &fakeRepo{}
	service := NewService(repo)

	activity, replayed, err := service.RecordActivity(context.Background(), validInput())
	require.NoError(t, err)
	require.False(t, replayed)
	require.NotEmpty(t, activity.ID)
	require.Equal(t, "tenant-1", activity.TenantID)
	require.Equal(t, 1, repo.createCalls)
}

func TestRecordActivityReplaysOnIdempotencyKey(t *testing.T) {
	existing := &Activity{ID: "existing-1", TenantID: "tenant-1"}
	repo := &fakeRepo{existing: existing}
	service := NewService(repo)

	input := validInput()
	input.IdempotencyKey = "key-1"

	activity, replayed, err := service.RecordActivity(context.Background(), input)
	require.NoError(t, err)
	require.True(t, replayed)
	require.Equal(t, "existing-1", activity.ID)
	require.Zero(t, repo.createCalls, "replay must not create a second activity")
}

func TestRecordActivityValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RecordActivityInput)
	}{
		{"missing scope id", func(in *RecordActivityInput) { in.ScopeID = " " }},
		{"unknown scope type", func(in *RecordActivityInput) { in.ScopeType = "team" }},
		{"missing action", func(in *RecordActivityInput) { in.Action = "" }},
		{"missing author", func(in *RecordActivityInput) { in.Author.ID = "" }},
		{"zero inserted_at", func(in *RecordActivityInput) { in.InsertedAt = time.Time{} }},
	}

	repo := &fakeRepo{}
	service := NewService(repo)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)

			_, _, err := service.RecordActivity(context.Background(), input)
			require.Error(t, err)
			require.Zero(t, repo.createCalls)
		})
	}
}

func TestRecordActivityPropagatesLookupFailure(t *testing.T) {
	repo := &fakeRepo{findErr: errors.New("connection reset")}
	service := NewService(repo)

	input := validInput()
	input.IdempotencyKey = "key-1"

	_, _, err := service.RecordActivity(context.Background(), input)
	require.Error(t, err)
	require.Zero(t, repo.createCalls, "lookup failure must not fall through to create")
}

func TestGetActivityNotFound(t *testing.T) {
	service := NewService(&fakeRepo{})

	_, err := service.GetActivity(context.Background(), "tenant-1", "missing")
	require.ErrorIs(t, err, ErrActivityNotFound)
}

type fakeRepo struct {
	existing    *Activity
	findErr     error
	createCalls int
	createErr   error
	listed      []Activity
}

func (f *fakeRepo) FindByIdempotency(_ context.Context, _, key string) (*Activity, error) {
	if key == "" {
		return nil, nil
	}
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.existing, nil
}

func (f *fakeRepo) Create(_ context.Context, _ Activity, _ string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.createCalls++
	return nil
}

func (f *fakeRepo) Get(_ context.Context, _, id string) (*Activity, error) {
	if f.existing != nil && f.existing.ID == id {
		return f.existing, nil
	}
	return nil, nil
}

func (f *fakeRepo) ListByScope(_ context.Context, _ string, _ ScopeType, _ string, _ *Cursor, _ int) ([]Activity, *Cursor, error) {
	return f.listed, nil, nil
}
