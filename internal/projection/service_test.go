package projection

import (
	"context"
	"errors"
	"testing"

	storagemocks "github.com/aevon-lab/project-ledger/internal/mocks/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestService_ProjectCarriesProjectedVersion(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	id := uuid.New()
	require.NoError(t, store.UpsertProject(ctx, ProjectRow{ID: id, Title: "Roadmap"}))

	offsets := storagemocks.NewOffsetStore(t)
	offsets.EXPECT().Offset(mock.Anything, ProjectProjection, id).Return(int64(4), nil).Once()

	view, err := NewService(store, offsets).Project(ctx, id)
	require.NoError(t, err)
	require.Equal(t, int64(4), view.Version)
	require.Equal(t, "Roadmap", view.Data.Title)
}

// The projection applies version 5 and commits its offset while the query is in
// flight. Whatever the interleaving, the rows returned must include every
// version up to the one reported.
func TestService_VersionNeverAheadOfRows(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	id := uuid.New()
	require.NoError(t, store.UpsertProject(ctx, ProjectRow{ID: id, Title: "Roadmap"}))

	offsets := storagemocks.NewOffsetStore(t)
	offsets.EXPECT().Offset(mock.Anything, ProjectProjection, id).
		RunAndReturn(func(ctx context.Context, _ string, _ uuid.UUID) (int64, error) {
			require.NoError(t, store.UpsertProject(ctx, ProjectRow{ID: id, Title: "Roadmap v2"}))
			return 5, nil
		}).
		Once()

	view, err := NewService(store, offsets).Project(ctx, id)
	require.NoError(t, err)
	require.Equal(t, int64(5), view.Version)
	require.Equal(t, "Roadmap v2", view.Data.Title)
}

func TestService_NotFound(t *testing.T) {
	offsets := storagemocks.NewOffsetStore(t)
	offsets.EXPECT().Offset(mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil).Twice()
	svc := NewService(NewMemoryStore(), offsets)

	_, err := svc.Project(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.User(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_OffsetError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	id := uuid.New()
	require.NoError(t, store.UpsertUser(ctx, UserRow{ID: id, Username: "ada"}))

	offsets := storagemocks.NewOffsetStore(t)
	offsets.EXPECT().Offset(mock.Anything, UserProjection, id).Return(int64(0), errors.New("timeout")).Once()

	_, err := NewService(store, offsets).User(ctx, id)
	require.ErrorContains(t, err, "failed to read projection offset: timeout")
}
