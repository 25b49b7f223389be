package library

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/spacekeeper/internal/cachex"
	"github.com/dmitrijs2005/spacekeeper/internal/client/models"
	"github.com/dmitrijs2005/spacekeeper/internal/client/snapshots"
	"github.com/dmitrijs2005/spacekeeper/internal/client/storage"
	"github.com/dmitrijs2005/spacekeeper/internal/common"
	"github.com/dmitrijs2005/spacekeeper/internal/logging"
)

// countingStore wraps a MemStore and counts Get calls, so tests can tell a
// cache hit from a refetch.
type countingStore struct {
	*storage.MemStore
	gets atomic.Int64
}

func (c *countingStore) Get(ctx context.Context, key string) ([]byte, error) {
	c.gets.Add(1)
	return c.MemStore.Get(ctx, key)
}

func newTestService(t *testing.T) (*Service, *countingStore) {
	t.Helper()
	store := &countingStore{MemStore: storage.NewMemStore()}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	snaps := snapshots.NewManager(store, snapshots.DefaultRetention, logger)
	svc := NewService(store, cachex.New[models.Library](), snaps, logger, "u1", DefaultTTL)
	return svc, store
}

func TestList_EmptyForNewUser(t *testing.T) {
	svc, _ := newTestService(t)

	lib, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, lib)
}

func TestList_ServedFromCache(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	_, err := svc.CreateSpace(ctx, "Work")
	require.NoError(t, err)

	_, err = svc.List(ctx)
	require.NoError(t, err)
	after := store.gets.Load()

	// Second listing inside the TTL never touches the store.
	lib, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, lib, 1)
	require.Equal(t, after, store.gets.Load())
}

func TestCreateSpace(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	space, err := svc.CreateSpace(ctx, "Work")
	require.NoError(t, err)
	require.NotEmpty(t, space.ID)
	require.Equal(t, "Work", space.Title)
	require.Empty(t, space.Subjects)

	// The space object exists and the library lists it.
	_, err = store.Get(ctx, storage.SpaceKey(space.ID))
	require.NoError(t, err)

	lib, err := svc.List(ctx)
	require.NoError(t, err)
	item, ok := lib[space.ID]
	require.True(t, ok)
	require.Equal(t, "Work", item.Title)
	require.NotZero(t, item.AddedAt)
}

func TestCreateSpace_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.List(ctx) // prime the cache with an empty library
	require.NoError(t, err)

	space, err := svc.CreateSpace(ctx, "Work")
	require.NoError(t, err)

	lib, err := svc.List(ctx)
	require.NoError(t, err)
	require.Contains(t, lib, space.ID)
}

func TestDeleteSpace(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	space, err := svc.CreateSpace(ctx, "Work")
	require.NoError(t, err)

	// Leave some snapshots behind to be cleaned up.
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	snaps := snapshots.NewManager(store, snapshots.DefaultRetention, logger)
	_, err = snaps.Create(ctx, space.ID, []byte("{}"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSpace(ctx, space.ID))

	_, err = store.Get(ctx, storage.SpaceKey(space.ID))
	require.ErrorIs(t, err, common.ErrorNotFound)

	lib, err := svc.List(ctx)
	require.NoError(t, err)
	require.NotContains(t, lib, space.ID)

	// Snapshot cleanup happens in the background.
	require.Eventually(t, func() bool {
		refs, err := snaps.List(ctx, space.ID)
		return err == nil && len(refs) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSetPinned(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	space, err := svc.CreateSpace(ctx, "Work")
	require.NoError(t, err)

	require.NoError(t, svc.SetPinned(ctx, space.ID, true))
	lib, err := svc.List(ctx)
	require.NoError(t, err)
	require.True(t, lib[space.ID].IsPinned)

	require.NoError(t, svc.SetPinned(ctx, space.ID, false))
	lib, err = svc.List(ctx)
	require.NoError(t, err)
	require.False(t, lib[space.ID].IsPinned)
}

func TestSetTitle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	space, err := svc.CreateSpace(ctx, "Work")
	require.NoError(t, err)

	require.NoError(t, svc.SetTitle(ctx, space.ID, "Work 2026"))
	lib, err := svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, "Work 2026", lib[space.ID].Title)
}

func TestUpdateMissingSpace(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	require.ErrorIs(t, svc.SetPinned(ctx, "missing", true), common.ErrorNotFound)
	require.ErrorIs(t, svc.SetTitle(ctx, "missing", "x"), common.ErrorNotFound)
}
