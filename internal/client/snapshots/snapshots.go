// Package snapshots maintains a bounded trail of full-space backups, used
// to recover from bad edits or failed encryption transitions.
package snapshots

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/spacekeeper/internal/client/storage"
	"github.com/dmitrijs2005/spacekeeper/internal/logging"
)

// DefaultRetention is the number of snapshots kept per space.
const DefaultRetention = 5

// Ref points at one stored snapshot.
type Ref struct {
	Key       string
	CreatedAt time.Time
}

// Manager creates, lists and deletes snapshots on a blob store.
type Manager struct {
	store     storage.BlobStore
	retention int
	logger    logging.Logger

	now func() time.Time
}

func NewManager(store storage.BlobStore, retention int, logger logging.Logger) *Manager {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Manager{
		store:     store,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Create writes a new timestamped snapshot of payload for spaceID. When the
// retention cap is already reached, the single oldest snapshot is deleted
// before the new one is written.
func (m *Manager) Create(ctx context.Context, spaceID string, payload []byte) (Ref, error) {
	refs, err := m.List(ctx, spaceID)
	if err != nil {
		return Ref{}, fmt.Errorf("listing snapshots: %w", err)
	}

	if len(refs) >= m.retention {
		oldest := refs[len(refs)-1]
		if err := m.store.Delete(ctx, oldest.Key); err != nil {
			return Ref{}, fmt.Errorf("deleting oldest snapshot: %w", err)
		}
	}

	ts := m.now().UnixMilli()
	key := storage.SnapshotKey(spaceID, ts)
	if err := m.store.Put(ctx, key, payload); err != nil {
		return Ref{}, fmt.Errorf("writing snapshot: %w", err)
	}
	return Ref{Key: key, CreatedAt: time.UnixMilli(ts)}, nil
}

// List returns the space's snapshots, newest first. Keys whose embedded
// timestamp does not parse are skipped.
func (m *Manager) List(ctx context.Context, spaceID string) ([]Ref, error) {
	keys, err := m.store.List(ctx, storage.SnapshotPattern(spaceID))
	if err != nil {
		return nil, err
	}

	refs := make([]Ref, 0, len(keys))
	for _, key := range keys {
		ts, ok := storage.SnapshotTimestamp(key)
		if !ok {
			continue
		}
		refs = append(refs, Ref{Key: key, CreatedAt: time.UnixMilli(ts)})
	}
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].CreatedAt.After(refs[j].CreatedAt)
	})
	return refs, nil
}

// Get fetches one snapshot payload by key. Returns common.ErrorNotFound
// when the underlying blob is missing.
func (m *Manager) Get(ctx context.Context, key string) ([]byte, error) {
	return m.store.Get(ctx, key)
}

// DeleteAll removes every snapshot for the space in parallel. Every delete
// is attempted even if some fail; the first error is returned.
func (m *Manager) DeleteAll(ctx context.Context, spaceID string) error {
	keys, err := m.store.List(ctx, storage.SnapshotPattern(spaceID))
	if err != nil {
		return err
	}

	var g errgroup.Group
	for _, key := range keys {
		g.Go(func() error {
			return m.store.Delete(ctx, key)
		})
	}
	return g.Wait()
}

// DeleteAllAsync runs DeleteAll in the background. Snapshot cleanup failure
// must never block or fail the caller's primary operation (space deletion,
// save), so failures are only logged.
func (m *Manager) DeleteAllAsync(spaceID string) {
	go func() {
		ctx := context.Background()
		if err := m.DeleteAll(ctx, spaceID); err != nil {
			m.logger.Warn(ctx, "snapshot cleanup failed", "space_id", spaceID, "error", err)
		}
	}()
}
