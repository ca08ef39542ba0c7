package projection

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_UpsertKeepsPosition(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	projectID := uuid.New()
	require.NoError(t, s.UpsertProject(ctx, ProjectRow{ID: projectID, Title: "p"}))

	a, b := uuid.New(), uuid.New()
	require.NoError(t, s.UpsertStatus(ctx, StatusRow{ID: a, ProjectID: projectID, Text: "A"}))
	require.NoError(t, s.UpsertStatus(ctx, StatusRow{ID: b, ProjectID: projectID, Text: "B"}))
	require.NoError(t, s.UpsertStatus(ctx, StatusRow{ID: a, ProjectID: projectID, Text: "A2"}))

	view, err := s.ProjectView(ctx, projectID)
	require.NoError(t, err)
	require.Equal(t, []StatusRow{
		{ID: a, ProjectID: projectID, Text: "A2"},
		{ID: b, ProjectID: projectID, Text: "B"},
	}, view.Statuses)
	require.Empty(t, view.Tasks)

	require.NoError(t, s.DeleteStatus(ctx, a))
	require.NoError(t, s.DeleteStatus(ctx, a))

	view, err = s.ProjectView(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, view.Statuses, 1)
}

func TestMemoryStore_ScopesRowsByProject(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	p1, p2 := uuid.New(), uuid.New()
	require.NoError(t, s.UpsertProject(ctx, ProjectRow{ID: p1}))
	require.NoError(t, s.UpsertProject(ctx, ProjectRow{ID: p2}))

	t1, t2 := uuid.New(), uuid.New()
	require.NoError(t, s.UpsertTask(ctx, TaskRow{ID: t1, ProjectID: p1, Title: "one"}))
	require.NoError(t, s.UpsertTask(ctx, TaskRow{ID: t2, ProjectID: p2, Title: "two"}))
	require.NoError(t, s.UpsertAssignment(ctx, AssignmentRow{ID: uuid.New(), TaskID: t2, MemberID: uuid.New()}))

	view, err := s.ProjectView(ctx, p1)
	require.NoError(t, err)
	require.Len(t, view.Tasks, 1)
	require.Equal(t, "one", view.Tasks[0].Title)
	require.Empty(t, view.Tasks[0].Executors)
}

func TestMemoryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id := uuid.New()

	_, err := s.ProjectView(ctx, id)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.User(ctx, id)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.UserProjectTitle(ctx, id)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, s.UpdateTaskTitle(ctx, id, "x"), ErrNotFound)
	require.ErrorIs(t, s.UpdateTaskStatus(ctx, id, uuid.New()), ErrNotFound)

	rows, err := s.UserProjects(ctx, id)
	require.NoError(t, err)
	require.Empty(t, rows)
}
