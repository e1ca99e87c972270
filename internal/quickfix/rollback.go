package quickfix

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lspbridge/lspbridge/internal/config"
	"github.com/lspbridge/lspbridge/internal/errs"
	"github.com/lspbridge/lspbridge/internal/types"
)

// RollbackStore persists RollbackStates to stateDir as one JSON file per
// session, with an in-memory cache mirroring rollback.rs::RollbackManager.
// Disk writes are serialized by mu (spec.md §5).
type RollbackStore struct {
	mu        sync.Mutex
	stateDir  string
	maxStates int
	cache     map[string]types.RollbackState
}

// NewRollbackStore builds a store from cfg; call Init before first use.
func NewRollbackStore(cfg config.QuickFixOptions) *RollbackStore {
	return &RollbackStore{
		stateDir:  cfg.StateDir,
		maxStates: cfg.MaxStates,
		cache:     make(map[string]types.RollbackState),
	}
}

// Init implements rollback.rs::init: create the state directory and load
// any previously persisted states into the cache.
func (r *RollbackStore) Init() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(r.stateDir, 0o755); err != nil {
		return errs.Wrap(errs.KindFileIO, "failed to create rollback state directory", err).WithPath(r.stateDir)
	}
	return r.loadStates()
}

func (r *RollbackStore) loadStates() error {
	entries, err := os.ReadDir(r.stateDir)
	if err != nil {
		return errs.Wrap(errs.KindFileIO, "failed to list rollback state directory", err).WithPath(r.stateDir)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(r.stateDir, entry.Name()))
		if err != nil {
			continue
		}
		var state types.RollbackState
		if err := json.Unmarshal(data, &state); err != nil {
			continue
		}
		r.cache[state.SessionID] = state
	}
	return nil
}

// CreateState implements rollback.rs::create_state: a fresh, not-yet-saved
// RollbackState with a new UUID session ID (SPEC_FULL.md's DOMAIN STACK
// commitment to github.com/google/uuid).
func CreateState(backups []types.FileBackup, description string) types.RollbackState {
	return types.RollbackState{
		SessionID:   uuid.NewString(),
		Timestamp:   time.Now(),
		Backups:     backups,
		Description: description,
	}
}

// SaveState persists state to the cache and to disk, then prunes beyond
// maxStates.
func (r *RollbackStore) SaveState(state types.RollbackState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveStateLocked(state)
}

func (r *RollbackStore) saveStateLocked(state types.RollbackState) error {
	r.cache[state.SessionID] = state

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errs.Wrap(errs.KindFileIO, "failed to marshal rollback state", err)
	}
	statePath := filepath.Join(r.stateDir, state.SessionID+".json")
	if err := os.WriteFile(statePath, data, 0o644); err != nil {
		return errs.Wrap(errs.KindFileIO, "failed to save rollback state", err).WithPath(statePath)
	}

	r.prune()
	return nil
}

// Rollback implements rollback.rs::rollback: restore every backup's
// original content, then flip rolled_back and re-save. Refuses a state
// already rolled back (spec.md §4.I: replayable at most once).
func (r *RollbackStore) Rollback(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.getStateLocked(sessionID)
	if err != nil {
		return err
	}
	if state == nil {
		return errs.New(errs.KindRollbackUnavailable, "rollback state not found").WithPath(sessionID)
	}
	if state.RolledBack {
		return errs.New(errs.KindRollbackUnavailable, "this state has already been rolled back").WithPath(sessionID)
	}

	for _, backup := range state.Backups {
		if err := os.WriteFile(backup.FilePath, []byte(backup.OriginalContent), 0o644); err != nil {
			return errs.Wrap(errs.KindFileIO, "failed to restore file", err).WithPath(backup.FilePath)
		}
	}

	updated := *state
	updated.RolledBack = true
	return r.saveStateLocked(updated)
}

// RollbackLatest rolls back the most recently saved, not-yet-rolled-back
// state.
func (r *RollbackStore) RollbackLatest() error {
	latest, ok := r.GetLatestState()
	if !ok {
		return errs.New(errs.KindRollbackUnavailable, "no rollback states available")
	}
	return r.Rollback(latest.SessionID)
}

// GetState returns a state by session ID, consulting the cache first and
// falling back to disk.
func (r *RollbackStore) GetState(sessionID string) (types.RollbackState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, err := r.getStateLocked(sessionID)
	if err != nil || state == nil {
		return types.RollbackState{}, false
	}
	return *state, true
}

func (r *RollbackStore) getStateLocked(sessionID string) (*types.RollbackState, error) {
	if state, ok := r.cache[sessionID]; ok {
		return &state, nil
	}

	statePath := filepath.Join(r.stateDir, sessionID+".json")
	data, err := os.ReadFile(statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.KindFileIO, "failed to read rollback state", err).WithPath(statePath)
	}
	var state types.RollbackState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errs.Wrap(errs.KindFileIO, "failed to parse rollback state", err).WithPath(statePath)
	}
	return &state, nil
}

// GetLatestState returns the newest not-yet-rolled-back state in the
// cache.
func (r *RollbackStore) GetLatestState() (types.RollbackState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest *types.RollbackState
	for _, state := range r.cache {
		state := state
		if state.RolledBack {
			continue
		}
		if latest == nil || state.Timestamp.After(latest.Timestamp) {
			latest = &state
		}
	}
	if latest == nil {
		return types.RollbackState{}, false
	}
	return *latest, true
}

// ListStates returns every cached state, newest first.
func (r *RollbackStore) ListStates() []types.RollbackState {
	r.mu.Lock()
	defer r.mu.Unlock()

	states := make([]types.RollbackState, 0, len(r.cache))
	for _, state := range r.cache {
		states = append(states, state)
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].Timestamp.After(states[j].Timestamp)
	})
	return states
}

// prune implements rollback.rs::cleanup_old_states: beyond maxStates,
// drop the oldest entries from both the cache and disk. A failed disk
// removal is ignored (best-effort, matching the original's `let _ =`).
// Must be called with mu held.
func (r *RollbackStore) prune() {
	if len(r.cache) <= r.maxStates {
		return
	}

	type idAndTime struct {
		id string
		ts time.Time
	}
	entries := make([]idAndTime, 0, len(r.cache))
	for id, state := range r.cache {
		entries = append(entries, idAndTime{id: id, ts: state.Timestamp})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ts.After(entries[j].ts) })

	for _, e := range entries[r.maxStates:] {
		delete(r.cache, e.id)
		_ = os.Remove(filepath.Join(r.stateDir, e.id+".json"))
	}
}
