package snapshots

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/spacekeeper/internal/client/storage"
	"github.com/dmitrijs2005/spacekeeper/internal/common"
	"github.com/dmitrijs2005/spacekeeper/internal/logging"
)

func newTestManager(t *testing.T) (*Manager, *storage.MemStore) {
	t.Helper()
	store := storage.NewMemStore()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	m := NewManager(store, DefaultRetention, logger)

	// Deterministic, strictly increasing clock.
	base := time.UnixMilli(1700000000000)
	m.now = func() time.Time {
		base = base.Add(time.Second)
		return base
	}
	return m, store
}

func TestCreateAndList(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	ref, err := m.Create(ctx, "abc", []byte(`{"id":"abc"}`))
	require.NoError(t, err)
	require.Contains(t, ref.Key, "snapshot_abc_")

	refs, err := m.List(ctx, "abc")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, ref.Key, refs[0].Key)
}

func TestList_NewestFirst(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	var last Ref
	for i := 0; i < 3; i++ {
		ref, err := m.Create(ctx, "abc", []byte("{}"))
		require.NoError(t, err)
		last = ref
	}

	refs, err := m.List(ctx, "abc")
	require.NoError(t, err)
	require.Len(t, refs, 3)
	require.Equal(t, last.Key, refs[0].Key)
	require.True(t, refs[0].CreatedAt.After(refs[1].CreatedAt))
	require.True(t, refs[1].CreatedAt.After(refs[2].CreatedAt))
}

func TestCreate_RetentionCap(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	var oldest Ref
	for i := 0; i < DefaultRetention; i++ {
		ref, err := m.Create(ctx, "abc", []byte("{}"))
		require.NoError(t, err)
		if i == 0 {
			oldest = ref
		}
	}

	// The 6th snapshot evicts exactly the oldest.
	newest, err := m.Create(ctx, "abc", []byte("{}"))
	require.NoError(t, err)

	refs, err := m.List(ctx, "abc")
	require.NoError(t, err)
	require.Len(t, refs, DefaultRetention)
	require.Equal(t, newest.Key, refs[0].Key)
	for _, ref := range refs {
		require.NotEqual(t, oldest.Key, ref.Key)
	}
}

func TestCreate_DoesNotTouchOtherSpaces(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	for i := 0; i < DefaultRetention+2; i++ {
		_, err := m.Create(ctx, "abc", []byte("{}"))
		require.NoError(t, err)
	}
	_, err := m.Create(ctx, "other", []byte("{}"))
	require.NoError(t, err)

	refs, err := m.List(ctx, "other")
	require.NoError(t, err)
	require.Len(t, refs, 1)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	ref, err := m.Create(ctx, "abc", []byte(`{"title":"Work"}`))
	require.NoError(t, err)

	b, err := m.Get(ctx, ref.Key)
	require.NoError(t, err)
	require.JSONEq(t, `{"title":"Work"}`, string(b))

	_, err = m.Get(ctx, "snapshot_abc_0.json")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDeleteAll(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	for i := 0; i < 3; i++ {
		_, err := m.Create(ctx, "abc", []byte("{}"))
		require.NoError(t, err)
	}
	_, err := m.Create(ctx, "keep", []byte("{}"))
	require.NoError(t, err)

	require.NoError(t, m.DeleteAll(ctx, "abc"))

	refs, err := m.List(ctx, "abc")
	require.NoError(t, err)
	require.Empty(t, refs)

	// Unrelated spaces are untouched.
	refs, err = m.List(ctx, "keep")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, 1, store.Len())
}
