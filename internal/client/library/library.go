// Package library manages a user's listing of spaces: one persisted JSON
// object mapping space ids to their titles, backed by a short-lived
// process-local cache so opening the app does not refetch the listing on
// every navigation.
package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/spacekeeper/internal/cachex"
	"github.com/dmitrijs2005/spacekeeper/internal/client/models"
	"github.com/dmitrijs2005/spacekeeper/internal/client/snapshots"
	"github.com/dmitrijs2005/spacekeeper/internal/client/storage"
	"github.com/dmitrijs2005/spacekeeper/internal/common"
	"github.com/dmitrijs2005/spacekeeper/internal/logging"
)

// DefaultTTL is how long a cached library listing stays valid. Mutations
// through this service invalidate eagerly, so the TTL only bounds staleness
// caused by writers outside this process.
const DefaultTTL = 8 * time.Hour

// CacheKey is the cache key for a user's library listing.
func CacheKey(userID string) string {
	return "user-library-" + userID
}

// Service reads and mutates one user's library.
type Service struct {
	store     storage.BlobStore
	cache     *cachex.Cache[models.Library]
	snapshots *snapshots.Manager
	logger    logging.Logger
	userID    string
	ttl       time.Duration

	now func() time.Time
}

func NewService(store storage.BlobStore, cache *cachex.Cache[models.Library], snaps *snapshots.Manager, logger logging.Logger, userID string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		store:     store,
		cache:     cache,
		snapshots: snaps,
		logger:    logger,
		userID:    userID,
		ttl:       ttl,
		now:       time.Now,
	}
}

// List returns the user's library, served from cache when possible. A user
// with no persisted library yet gets an empty one.
func (s *Service) List(ctx context.Context) (models.Library, error) {
	if lib, ok := s.cache.Get(CacheKey(s.userID)); ok {
		return lib, nil
	}

	lib, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(CacheKey(s.userID), lib, s.ttl)
	return lib, nil
}

func (s *Service) fetch(ctx context.Context) (models.Library, error) {
	b, err := s.store.Get(ctx, storage.LibraryKey(s.userID))
	if errors.Is(err, common.ErrorNotFound) {
		return models.Library{}, nil
	}
	if err != nil {
		return nil, err
	}

	var lib models.Library
	if err := json.Unmarshal(b, &lib); err != nil {
		return nil, fmt.Errorf("decoding library: %w", err)
	}
	if lib == nil {
		lib = models.Library{}
	}
	return lib, nil
}

// CreateSpace persists a new empty space and registers it in the library.
func (s *Service) CreateSpace(ctx context.Context, title string) (models.Space, error) {
	space := models.Space{
		ID:         uuid.NewString(),
		Title:      title,
		Subjects:   []models.Subject{},
		Categories: []models.Category{},
	}

	b, err := json.Marshal(space)
	if err != nil {
		return models.Space{}, err
	}
	if err := s.store.Put(ctx, storage.SpaceKey(space.ID), b); err != nil {
		return models.Space{}, fmt.Errorf("creating space: %w", err)
	}

	err = s.update(ctx, func(lib models.Library) {
		lib[space.ID] = models.LibraryItem{Title: title, AddedAt: s.now().UnixMilli()}
	})
	if err != nil {
		return models.Space{}, err
	}
	s.logger.Info(ctx, "space created", "space_id", space.ID)
	return space, nil
}

// DeleteSpace removes the space object and its library entry, then cleans up
// the space's snapshots in the background: a leftover snapshot is harmless,
// a deletion that hangs on cleanup is not.
func (s *Service) DeleteSpace(ctx context.Context, spaceID string) error {
	if err := s.store.Delete(ctx, storage.SpaceKey(spaceID)); err != nil {
		return fmt.Errorf("deleting space: %w", err)
	}

	err := s.update(ctx, func(lib models.Library) {
		delete(lib, spaceID)
	})
	if err != nil {
		return err
	}

	s.snapshots.DeleteAllAsync(spaceID)
	s.logger.Info(ctx, "space deleted", "space_id", spaceID)
	return nil
}

// SetPinned sets the pinned flag of a library entry.
func (s *Service) SetPinned(ctx context.Context, spaceID string, pinned bool) error {
	return s.updateItem(ctx, spaceID, func(item *models.LibraryItem) {
		item.IsPinned = pinned
	})
}

// SetTitle updates the title duplicated into the library entry. Called when
// a space is renamed so the listing stays consistent with the space object.
func (s *Service) SetTitle(ctx context.Context, spaceID, title string) error {
	return s.updateItem(ctx, spaceID, func(item *models.LibraryItem) {
		item.Title = title
	})
}

func (s *Service) updateItem(ctx context.Context, spaceID string, mutate func(*models.LibraryItem)) error {
	var missing bool
	err := s.update(ctx, func(lib models.Library) {
		item, ok := lib[spaceID]
		if !ok {
			missing = true
			return
		}
		mutate(&item)
		lib[spaceID] = item
	})
	if err != nil {
		return err
	}
	if missing {
		return fmt.Errorf("space %s: %w", spaceID, common.ErrorNotFound)
	}
	return nil
}

// update applies mutate to the freshly fetched library, persists the result
// and invalidates the cache. The cache is bypassed on the read so a stale
// entry can never be written back.
func (s *Service) update(ctx context.Context, mutate func(models.Library)) error {
	lib, err := s.fetch(ctx)
	if err != nil {
		return err
	}
	mutate(lib)

	b, err := json.Marshal(lib)
	if err != nil {
		return err
	}
	if err := s.store.Put(ctx, storage.LibraryKey(s.userID), b); err != nil {
		return fmt.Errorf("saving library: %w", err)
	}

	s.cache.Invalidate(CacheKey(s.userID))
	return nil
}
