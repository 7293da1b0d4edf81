// Package store persists timer snapshots, the study history log and the
// catalog document in a key-value backend.
//
// Every method is total: storage and encoding failures are logged and
// swallowed so that callers (the timer engine in particular) never observe
// them. The worst outcome of a failure is a lost write, which the next
// successful write repairs.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"studytracker/internal/model"
	"studytracker/internal/repository"
)

const (
	SnapshotKey = "pomodoroSession"
	HistoryKey  = "studySessions"
	CatalogKey  = "syllabus-data"

	// HistoryRetention is how long study sessions are kept in the log.
	HistoryRetention = 30 * 24 * time.Hour

	writeTimeout = 5 * time.Second
)

// KV is the key-value backend. Get returns repository.ErrNotFound for a
// missing key.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type SessionStore struct {
	kv     KV
	logger *log.Logger

	// historyMu serialises read-modify-write of the history log.
	historyMu sync.Mutex
	// catalogMu orders catalog writes so an older document never lands
	// after a newer one.
	catalogMu sync.Mutex
}

func NewSessionStore(kv KV, logger *log.Logger) *SessionStore {
	if logger == nil {
		logger = log.Default()
	}
	return &SessionStore{kv: kv, logger: logger.WithPrefix("store")}
}

func (s *SessionStore) SaveSnapshot(state model.TimerState) {
	s.saveJSON(SnapshotKey, model.SnapshotOf(state))
}

// LoadSnapshot returns the persisted timer state, or defaults when the slot
// is empty or unreadable. Out-of-range values are repaired.
func (s *SessionStore) LoadSnapshot(defaults model.TimerState) model.TimerState {
	var snapshot model.Snapshot
	if !s.loadJSON(SnapshotKey, &snapshot) {
		return defaults
	}
	return sanitize(snapshot.State(), defaults)
}

func (s *SessionStore) ClearSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := s.kv.Delete(ctx, SnapshotKey); err != nil {
		s.logger.Error("clear snapshot failed", "err", err)
	}
}

// AppendHistory records a study session and drops entries older than
// now minus HistoryRetention.
func (s *SessionStore) AppendHistory(entry model.StudySession, now time.Time) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	entries := s.loadHistory()
	entries = append(entries, entry)
	s.saveJSON(HistoryKey, prune(entries, now))
}

// History returns the retained study sessions, oldest first.
func (s *SessionStore) History() []model.StudySession {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	return s.loadHistory()
}

// SyncCatalog takes the document from snapshot and writes it, holding the
// catalog write lock across both steps. Call it after every catalog change:
// the last write then always carries the latest document.
func (s *SessionStore) SyncCatalog(snapshot func() any) {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()
	s.saveJSON(CatalogKey, snapshot())
}

// LoadCatalog decodes the catalog document into dst and reports whether one
// was found.
func (s *SessionStore) LoadCatalog(dst any) bool {
	return s.loadJSON(CatalogKey, dst)
}

func (s *SessionStore) loadHistory() []model.StudySession {
	var entries []model.StudySession
	if !s.loadJSON(HistoryKey, &entries) {
		return nil
	}
	return entries
}

func (s *SessionStore) saveJSON(key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("encode failed", "key", key, "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := s.kv.Put(ctx, key, raw); err != nil {
		s.logger.Error("save failed", "key", key, "err", err)
	}
}

func (s *SessionStore) loadJSON(key string, dst any) bool {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("load failed", "key", key, "err", err)
		}
		return false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.Warn("discarding corrupt value", "key", key, "err", err)
		return false
	}
	return true
}

func prune(entries []model.StudySession, now time.Time) []model.StudySession {
	cutoff := now.Add(-HistoryRetention)
	kept := entries[:0]
	for _, entry := range entries {
		if entry.Timestamp.Before(cutoff) {
			continue
		}
		kept = append(kept, entry)
	}
	return kept
}

func sanitize(state, defaults model.TimerState) model.TimerState {
	if !model.ValidPhase(state.Phase) {
		state.Phase = model.PhaseWork
	}
	switch state.Running {
	case model.RunStopped, model.RunActive, model.RunPaused:
	default:
		state.Running = model.RunStopped
	}
	// Breaks cannot be paused; a paused break keeps running.
	if state.Running == model.RunPaused && state.Phase == model.PhaseBreak {
		state.Running = model.RunActive
	}
	if !model.ValidDuration(model.PhaseWork, state.WorkDurationMinutes) {
		state.WorkDurationMinutes = defaults.WorkDurationMinutes
	}
	if !model.ValidDuration(model.PhaseBreak, state.BreakDurationMinutes) {
		state.BreakDurationMinutes = defaults.BreakDurationMinutes
	}

	limit := state.PhaseSeconds()
	if state.RemainingSeconds < 0 || state.RemainingSeconds > limit {
		state.RemainingSeconds = limit
	}
	if state.AccumulatedSeconds < 0 || state.Phase == model.PhaseBreak {
		state.AccumulatedSeconds = 0
	}
	return state
}
