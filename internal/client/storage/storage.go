// Package storage defines the blob-store contract the sync core persists
// through, the key conventions used on it, and two backends: an
// S3-compatible store and an in-memory store.
package storage

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
)

// BlobStore is the minimal contract the sync engine and snapshot manager
// require from remote file storage.
//
// Contract:
//   - Get returns common.ErrorNotFound when key is absent.
//   - Put has create-or-update semantics and is idempotent.
//   - Delete is idempotent; deleting a missing key is not an error.
//   - List returns all keys matching a glob pattern ('*' wildcards).
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, b []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, pattern string) ([]string, error)
}

// Key conventions shared by every backend.

// SpacePattern matches every persisted space object.
const SpacePattern = "space_*.json"

func SpaceKey(spaceID string) string {
	return "space_" + spaceID + ".json"
}

func SnapshotKey(spaceID string, epochMillis int64) string {
	return fmt.Sprintf("snapshot_%s_%d.json", spaceID, epochMillis)
}

func SnapshotPattern(spaceID string) string {
	return "snapshot_" + spaceID + "_*.json"
}

func LibraryKey(userID string) string {
	return "library_" + userID + ".json"
}

// SpaceIDFromKey recovers the space id from a space object key.
func SpaceIDFromKey(key string) (string, bool) {
	id, ok := strings.CutPrefix(key, "space_")
	if !ok {
		return "", false
	}
	id, ok = strings.CutSuffix(id, ".json")
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// SnapshotTimestamp parses the epoch-millis timestamp embedded in a
// snapshot key name.
func SnapshotTimestamp(key string) (int64, bool) {
	s, ok := strings.CutSuffix(key, ".json")
	if !ok {
		return 0, false
	}
	i := strings.LastIndex(s, "_")
	if i < 0 {
		return 0, false
	}
	ts, err := strconv.ParseInt(s[i+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}

// matchKey reports whether key matches the glob pattern. Keys in this store
// are flat (no '/'), so path.Match semantics are exactly what we need.
func matchKey(pattern, key string) bool {
	ok, err := path.Match(pattern, key)
	return err == nil && ok
}

// patternPrefix returns the literal prefix of a glob pattern, used to narrow
// backend listings before matching.
func patternPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, `*?[\`); i >= 0 {
		return pattern[:i]
	}
	return pattern
}
