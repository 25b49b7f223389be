package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/spacekeeper/internal/common"
)

func TestKeyConventions(t *testing.T) {
	require.Equal(t, "space_abc.json", SpaceKey("abc"))
	require.Equal(t, "snapshot_abc_1700000000000.json", SnapshotKey("abc", 1700000000000))
	require.Equal(t, "snapshot_abc_*.json", SnapshotPattern("abc"))
	require.Equal(t, "library_user1.json", LibraryKey("user1"))
}

func TestSpaceIDFromKey(t *testing.T) {
	id, ok := SpaceIDFromKey("space_abc.json")
	require.True(t, ok)
	require.Equal(t, "abc", id)

	_, ok = SpaceIDFromKey("snapshot_abc_1.json")
	require.False(t, ok)

	_, ok = SpaceIDFromKey("space_.json")
	require.False(t, ok)
}

func TestSnapshotTimestamp(t *testing.T) {
	ts, ok := SnapshotTimestamp("snapshot_abc_1700000000123.json")
	require.True(t, ok)
	require.Equal(t, int64(1700000000123), ts)

	_, ok = SnapshotTimestamp("snapshot_abc_xyz.json")
	require.False(t, ok)

	_, ok = SnapshotTimestamp("garbage")
	require.False(t, ok)
}

func TestPatternPrefix(t *testing.T) {
	require.Equal(t, "snapshot_abc_", patternPrefix("snapshot_abc_*.json"))
	require.Equal(t, "space_", patternPrefix("space_*.json"))
	require.Equal(t, "library_u.json", patternPrefix("library_u.json"))
}

func TestMemStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, store.Put(ctx, "space_a.json", []byte(`{"id":"a"}`)))
	b, err := store.Get(ctx, "space_a.json")
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"a"}`, string(b))

	// Put is create-or-update.
	require.NoError(t, store.Put(ctx, "space_a.json", []byte(`{"id":"a2"}`)))
	b, err = store.Get(ctx, "space_a.json")
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"a2"}`, string(b))

	require.NoError(t, store.Delete(ctx, "space_a.json"))
	_, err = store.Get(ctx, "space_a.json")
	require.ErrorIs(t, err, common.ErrorNotFound)

	// Deleting a missing key is not an error.
	require.NoError(t, store.Delete(ctx, "space_a.json"))
}

func TestMemStore_List(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	require.NoError(t, store.Put(ctx, "space_a.json", []byte("{}")))
	require.NoError(t, store.Put(ctx, "space_b.json", []byte("{}")))
	require.NoError(t, store.Put(ctx, "snapshot_a_1.json", []byte("{}")))
	require.NoError(t, store.Put(ctx, "snapshot_a_2.json", []byte("{}")))
	require.NoError(t, store.Put(ctx, "snapshot_b_9.json", []byte("{}")))

	keys, err := store.List(ctx, SpacePattern)
	require.NoError(t, err)
	require.Equal(t, []string{"space_a.json", "space_b.json"}, keys)

	keys, err = store.List(ctx, SnapshotPattern("a"))
	require.NoError(t, err)
	require.Equal(t, []string{"snapshot_a_1.json", "snapshot_a_2.json"}, keys)

	keys, err = store.List(ctx, "nomatch_*")
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestMemStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	require.NoError(t, store.Put(ctx, "k", []byte("abc")))

	b, err := store.Get(ctx, "k")
	require.NoError(t, err)
	b[0] = 'x'

	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), again)
}
