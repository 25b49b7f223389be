// Package syncer implements the client-side save state machine for a single
// space session: dirty-state tracking, debounced and manual save triggers,
// the encrypt–persist–snapshot pipeline, and retry after failed persists.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/spacekeeper/internal/client/models"
	"github.com/dmitrijs2005/spacekeeper/internal/client/passwords"
	"github.com/dmitrijs2005/spacekeeper/internal/client/snapshots"
	"github.com/dmitrijs2005/spacekeeper/internal/client/storage"
	"github.com/dmitrijs2005/spacekeeper/internal/common"
	"github.com/dmitrijs2005/spacekeeper/internal/cryptox"
	"github.com/dmitrijs2005/spacekeeper/internal/logging"
)

// State describes whether the tracked space matches its persisted form.
type State string

const (
	// StateIdle: persisted state matches the last-known-good remote state.
	StateIdle State = "idle"
	// StateSyncing: a save is in flight.
	StateSyncing State = "syncing"
	// StateError: the last save attempt failed; a retry is available.
	StateError State = "error"
)

// DefaultSaveDelay is the debounce applied to auto-saves after a mutation.
const DefaultSaveDelay = 100 * time.Millisecond

var (
	// ErrMissingEncryptionPassword reports a save or load of a locked space
	// with no password in the session cache. No network call is attempted.
	ErrMissingEncryptionPassword = errors.New("no encryption password found")

	// ErrPersistFailed reports a failed remote write of the space object.
	ErrPersistFailed = errors.New("persist failed")

	// ErrLoadFailed reports a failed read or decode of a persisted object.
	ErrLoadFailed = errors.New("load failed")

	// ErrSnapshotFailed reports a failed backup write. It is non-fatal: the
	// primary save has already succeeded and the sync state is unaffected.
	ErrSnapshotFailed = errors.New("snapshot failed")
)

// Options configure an Engine.
type Options struct {
	// AutoSave enables the debounced save trigger on every mutation.
	// When false, changes only reach the store via Save.
	AutoSave bool

	// SaveDelay is the auto-save debounce; DefaultSaveDelay when zero.
	SaveDelay time.Duration

	// OnStateChange, when set, is invoked on every sync state transition so
	// the UI can render a status indicator. Called outside engine locks.
	OnStateChange func(State)
}

// Engine owns the in-memory mirror of one space and decides when and how it
// is persisted. The engine is the sole writer of the persisted space object;
// the UI mutates the mirror through Apply.
type Engine struct {
	store     storage.BlobStore
	snapshots *snapshots.Manager
	passwords *passwords.Cache
	guard     *cryptox.Guard
	logger    logging.Logger

	autoSave  bool
	saveDelay time.Duration
	onState   func(State)

	mu            sync.Mutex
	space         models.Space
	state         State
	lastSavedFP   string
	lastAttempt   []byte
	lastAttemptFP string
	unsaved       bool
	timer         *time.Timer

	saveMu sync.Mutex // serializes persists; saves never overlap
	snapMu sync.Mutex // serializes snapshot creation
	bg     sync.WaitGroup
}

func New(store storage.BlobStore, snaps *snapshots.Manager, pwds *passwords.Cache, guard *cryptox.Guard, logger logging.Logger, opts Options) *Engine {
	if opts.SaveDelay <= 0 {
		opts.SaveDelay = DefaultSaveDelay
	}
	return &Engine{
		store:     store,
		snapshots: snaps,
		passwords: pwds,
		guard:     guard,
		logger:    logger,
		autoSave:  opts.AutoSave,
		saveDelay: opts.SaveDelay,
		onState:   opts.OnStateChange,
		state:     StateIdle,
	}
}

// fingerprint serializes the tracked fields. A save is warranted only when
// the current fingerprint differs from the last successfully saved one.
func fingerprint(s models.Space) string {
	b, _ := json.Marshal(struct {
		ID         string            `json:"id"`
		Title      string            `json:"title"`
		Subjects   []models.Subject  `json:"subjects"`
		Categories []models.Category `json:"categories"`
	}{s.ID, s.Title, s.Subjects, s.Categories})
	return string(b)
}

// Load fetches the space object and prepares the in-memory mirror. For a
// locked space the content is recovered through the decryption guard using
// the session-cached password; a cached password that fails is cleared so
// the caller re-prompts instead of looping on a bad value.
func (e *Engine) Load(ctx context.Context, spaceID string) error {
	b, err := e.store.Get(ctx, storage.SpaceKey(spaceID))
	if err != nil {
		return translateLoadErr(err)
	}

	var space models.Space
	if err := json.Unmarshal(b, &space); err != nil {
		return fmt.Errorf("%w: decoding space %s: %v", ErrLoadFailed, spaceID, err)
	}
	space.ID = spaceID

	if space.IsLocked {
		password, ok := e.passwords.Get(spaceID)
		if !ok {
			return ErrMissingEncryptionPassword
		}
		var content models.EncryptedContent
		if err := e.guard.Decrypt(spaceID, space.EncryptedData, password, &content); err != nil {
			if errors.Is(err, cryptox.ErrDecryptionFailed) {
				e.passwords.Clear(spaceID)
			}
			return err
		}
		space.Subjects = content.Subjects
		space.Categories = content.Categories
		space.EncryptedData = nil
	}
	if space.Subjects == nil {
		space.Subjects = []models.Subject{}
	}
	if space.Categories == nil {
		space.Categories = []models.Category{}
	}

	e.mu.Lock()
	e.space = space
	e.lastSavedFP = fingerprint(space)
	e.lastAttempt = nil
	e.lastAttemptFP = ""
	e.unsaved = false
	e.mu.Unlock()
	e.setState(StateIdle)
	return nil
}

// Apply mutates the tracked space under the engine's lock and runs the
// dirty-state logic: in auto-save mode a debounced save is (re)armed, in
// manual mode the unsaved-changes flag is recomputed.
func (e *Engine) Apply(mutate func(*models.Space)) {
	e.mu.Lock()
	mutate(&e.space)
	dirty := fingerprint(e.space) != e.lastSavedFP
	auto := e.autoSave
	if !auto {
		e.unsaved = dirty
	}
	e.mu.Unlock()

	if auto && dirty {
		e.armTimer()
	}
}

// armTimer (re)starts the debounce timer. A new mutation before it fires
// resets it; firing with no actual diff is a no-op inside Save.
func (e *Engine) armTimer() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.saveDelay, func() {
		ctx := context.Background()
		if err := e.Save(ctx); err != nil {
			e.logger.Error(ctx, "auto-save failed", "space_id", e.SpaceID(), "error", err)
		}
	})
}

// Save persists the tracked state if it differs from the last successfully
// saved state. Saves are serialized: a call arriving while another save is
// in flight waits for it and then persists the state current at that point,
// so two writers never race on the space's remote key.
func (e *Engine) Save(ctx context.Context) error {
	e.mu.Lock()
	dirty := fingerprint(e.space) != e.lastSavedFP
	e.mu.Unlock()
	if !dirty {
		return nil
	}

	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	return e.saveLatest(ctx)
}

func (e *Engine) saveLatest(ctx context.Context) error {
	e.mu.Lock()
	space := e.space.Clone()
	e.mu.Unlock()

	fp := fingerprint(space)
	e.mu.Lock()
	unchanged := fp == e.lastSavedFP
	e.mu.Unlock()
	if unchanged {
		return nil
	}

	e.setState(StateSyncing)

	payload, err := e.compose(space)
	if err != nil {
		// No payload reached the wire: a retained one from an earlier
		// attempt must not be retried in place of this failure.
		e.clearLastAttempt()
		e.setState(StateError)
		return err
	}
	return e.persist(ctx, space.ID, payload, fp)
}

// compose builds the persisted form of the space. For a locked space the
// subjects and categories are sealed into the envelope and the persisted
// arrays are left empty; the title is never encrypted.
func (e *Engine) compose(space models.Space) ([]byte, error) {
	var password string
	if space.IsLocked {
		pw, ok := e.passwords.Get(space.ID)
		if !ok {
			return nil, ErrMissingEncryptionPassword
		}
		password = pw
	}
	return composePayload(space, password)
}

func composePayload(space models.Space, password string) ([]byte, error) {
	if space.IsLocked {
		env, err := cryptox.Encrypt(models.EncryptedContent{
			Subjects:   space.Subjects,
			Categories: space.Categories,
		}, password)
		if err != nil {
			return nil, err
		}
		space.Subjects = []models.Subject{}
		space.Categories = []models.Category{}
		space.EncryptedData = env
	} else {
		space.EncryptedData = nil
	}
	return json.Marshal(space)
}

func (e *Engine) persist(ctx context.Context, spaceID string, payload []byte, fp string) error {
	e.mu.Lock()
	e.lastAttempt = payload
	e.lastAttemptFP = fp
	e.mu.Unlock()

	if err := e.store.Put(ctx, storage.SpaceKey(spaceID), payload); err != nil {
		err = translatePersistErr(err)
		e.setState(StateError)
		e.logger.Error(ctx, "space sync failed", "space_id", spaceID, "error", err)
		return err
	}

	e.mu.Lock()
	e.lastSavedFP = fp
	// The payload is committed; it is no longer a retry candidate.
	e.lastAttempt = nil
	e.lastAttemptFP = ""
	// The mirror may have been edited while the write was in flight.
	e.unsaved = fingerprint(e.space) != fp
	e.mu.Unlock()
	e.setState(StateIdle)

	e.createSnapshotAsync(spaceID, payload)
	return nil
}

// createSnapshotAsync backs up the just-persisted payload. It is
// fire-and-forget: the primary save has already committed and a failed
// backup must not flip the sync state. Creations for this engine are
// serialized so two backup writes never race.
func (e *Engine) createSnapshotAsync(spaceID string, payload []byte) {
	e.bg.Add(1)
	go func() {
		defer e.bg.Done()
		e.snapMu.Lock()
		defer e.snapMu.Unlock()

		ctx := context.Background()
		if _, err := e.snapshots.Create(ctx, spaceID, payload); err != nil {
			e.logger.Warn(ctx, "backup failed, primary save succeeded",
				"space_id", spaceID, "error", fmt.Errorf("%w: %v", ErrSnapshotFailed, err))
		}
	}()
}

// Retry re-submits the exact serialized payload of the last failed persist.
// Reusing the bytes rather than recomposing guarantees the user retries
// precisely the state they saw fail. If the failure happened before a
// payload was composed (e.g. a missing password), Retry falls back to a
// regular save of the current state.
func (e *Engine) Retry(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateError {
		e.mu.Unlock()
		return nil
	}
	payload := e.lastAttempt
	fp := e.lastAttemptFP
	spaceID := e.space.ID
	e.mu.Unlock()

	if payload == nil {
		return e.Save(ctx)
	}

	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	e.setState(StateSyncing)
	return e.persist(ctx, spaceID, payload, fp)
}

// EnableEncryption turns on client-side encryption for the space using
// password.
func (e *Engine) EnableEncryption(ctx context.Context, password string) error {
	return e.toggleEncryption(ctx, true, password)
}

// DisableEncryption rewrites the space in plaintext. The cached password is
// cleared only once the transition has fully succeeded.
func (e *Engine) DisableEncryption(ctx context.Context) error {
	return e.toggleEncryption(ctx, false, "")
}

// toggleEncryption is the privileged encryption-state transition. Existing
// snapshots hold content in the old encryption state and must not stay
// recoverable after the flip, so they are deleted before anything else;
// losing backups for a moment is the lesser evil compared to keeping
// mismatched ones. The locked flag flips only after the rewritten object
// and one fresh snapshot are durably written; on any failure the flag stays
// as it was and the error is surfaced.
func (e *Engine) toggleEncryption(ctx context.Context, lock bool, password string) error {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	e.mu.Lock()
	if e.space.IsLocked == lock {
		e.mu.Unlock()
		return nil
	}
	space := e.space.Clone()
	e.mu.Unlock()

	e.setState(StateSyncing)

	if err := e.snapshots.DeleteAll(ctx, space.ID); err != nil {
		e.setState(StateError)
		return translatePersistErr(fmt.Errorf("deleting stale snapshots: %w", err))
	}

	space.IsLocked = lock
	payload, err := composePayload(space, password)
	if err != nil {
		e.clearLastAttempt()
		e.setState(StateError)
		return err
	}
	fp := fingerprint(space)

	e.mu.Lock()
	e.lastAttempt = payload
	e.lastAttemptFP = fp
	e.mu.Unlock()

	if err := e.store.Put(ctx, storage.SpaceKey(space.ID), payload); err != nil {
		err = translatePersistErr(err)
		e.setState(StateError)
		return err
	}

	// One fresh snapshot in the new encryption state, awaited: the
	// transition is not complete until it exists.
	if _, err := e.snapshots.Create(ctx, space.ID, payload); err != nil {
		e.setState(StateError)
		return fmt.Errorf("%w: %v", ErrSnapshotFailed, err)
	}

	e.mu.Lock()
	e.space.IsLocked = lock
	e.lastSavedFP = fp
	e.lastAttempt = nil
	e.lastAttemptFP = ""
	e.unsaved = fingerprint(e.space) != fp
	e.mu.Unlock()

	if lock {
		e.passwords.Set(space.ID, password)
	} else {
		e.passwords.Clear(space.ID)
	}
	e.setState(StateIdle)
	return nil
}

// RecoverFromSnapshot replaces the tracked content with the contents of the
// given snapshot and persists it. Encrypted snapshots are opened with the
// session-cached password.
func (e *Engine) RecoverFromSnapshot(ctx context.Context, key string) error {
	b, err := e.snapshots.Get(ctx, key)
	if err != nil {
		return translateLoadErr(err)
	}

	var snap models.Space
	if err := json.Unmarshal(b, &snap); err != nil {
		return fmt.Errorf("%w: decoding snapshot: %v", ErrLoadFailed, err)
	}

	if snap.IsLocked {
		spaceID := e.SpaceID()
		password, ok := e.passwords.Get(spaceID)
		if !ok {
			return ErrMissingEncryptionPassword
		}
		var content models.EncryptedContent
		if err := e.guard.Decrypt(spaceID, snap.EncryptedData, password, &content); err != nil {
			if errors.Is(err, cryptox.ErrDecryptionFailed) {
				e.passwords.Clear(spaceID)
			}
			return err
		}
		snap.Subjects = content.Subjects
		snap.Categories = content.Categories
	}
	if snap.Subjects == nil {
		snap.Subjects = []models.Subject{}
	}
	if snap.Categories == nil {
		snap.Categories = []models.Category{}
	}

	e.mu.Lock()
	e.space.Title = snap.Title
	e.space.Subjects = snap.Subjects
	e.space.Categories = snap.Categories
	e.mu.Unlock()

	return e.Save(ctx)
}

// State reports the current sync state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// HasUnsavedChanges reports whether tracked state differs from the last
// successful save. In manual mode the UI gates its save button on this and
// warns before navigation away.
func (e *Engine) HasUnsavedChanges() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.unsaved
}

// Space returns a deep copy of the in-memory mirror.
func (e *Engine) Space() models.Space {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.space.Clone()
}

func (e *Engine) SpaceID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.space.ID
}

// Flush waits for background snapshot writes to finish. Callers are
// expected to check HasUnsavedChanges and State before teardown and warn
// the user; a save in flight during teardown is best-effort.
func (e *Engine) Flush() {
	e.bg.Wait()
}

// Close cancels any pending debounced save and flushes background work.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.timer != nil {
		e.timer.Stop()
	}
	e.mu.Unlock()
	e.bg.Wait()
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	if e.state == s {
		e.mu.Unlock()
		return
	}
	e.state = s
	cb := e.onState
	e.mu.Unlock()
	if cb != nil {
		cb(s)
	}
}

// translatePersistErr maps store failures into the engine's taxonomy. A
// permission failure stays distinct so the UI can route to a
// permissions-repair flow; everything else is a retryable persist failure.
func translatePersistErr(err error) error {
	if errors.Is(err, common.ErrorPermissionDenied) {
		return err
	}
	if errors.Is(err, ErrPersistFailed) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrPersistFailed, err)
}

// translateLoadErr is the read-side counterpart: not-found and permission
// failures keep their identity, everything else surfaces as a load failure.
func translateLoadErr(err error) error {
	if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorPermissionDenied) {
		return err
	}
	if errors.Is(err, ErrLoadFailed) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrLoadFailed, err)
}

func (e *Engine) clearLastAttempt() {
	e.mu.Lock()
	e.lastAttempt = nil
	e.lastAttemptFP = ""
	e.mu.Unlock()
}
