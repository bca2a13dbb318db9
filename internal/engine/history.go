// internal/engine/history.go
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// HistoryEntry records one completed action run: what was requested, the
// seed it resolved with, the effects actually applied in order, and a
// fingerprint of the resulting state. Entries are never mutated.
type HistoryEntry struct {
	Index     int       `json:"index"`
	Action    Action    `json:"action"`
	Seed      int64     `json:"seed"`
	Effects   []Effect  `json:"effects"`
	Checksum  string    `json:"checksum"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryLog is the append-only record of a match. Record is the only
// mutator. An optional publish hook fans entries out to external sinks
// (the redis history queue in the server).
type HistoryLog struct {
	mu      sync.Mutex
	entries []HistoryEntry
	publish func(HistoryEntry)
}

// NewHistoryLog returns an empty log.
func NewHistoryLog() *HistoryLog {
	return &HistoryLog{}
}

// NewHistoryLogFrom seeds a log with previously recorded entries, so a
// restored match keeps appending at the next index.
func NewHistoryLogFrom(entries []HistoryEntry) *HistoryLog {
	return &HistoryLog{entries: append([]HistoryEntry(nil), entries...)}
}

// OnRecord sets the publish hook invoked after every append.
func (l *HistoryLog) OnRecord(fn func(HistoryEntry)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.publish = fn
}

// Record assigns the next index and appends the entry.
func (l *HistoryLog) Record(e HistoryEntry) HistoryEntry {
	l.mu.Lock()
	e.Index = len(l.entries)
	l.entries = append(l.entries, e)
	publish := l.publish
	l.mu.Unlock()

	if publish != nil {
		publish(e)
	}
	return e
}

// Entries returns a copy of the log.
func (l *HistoryLog) Entries() []HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]HistoryEntry(nil), l.entries...)
}

// Len reports the number of recorded entries.
func (l *HistoryLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Replay reconstructs state by feeding each entry's (action, seed) pair back
// through the resolver and applier in headless mode, verifying the recorded
// fingerprint after every entry. This is the save/load and undo-to-checkpoint
// mechanism.
func Replay(initial GameState, entries []HistoryEntry) (GameState, error) {
	state := initial
	for _, e := range entries {
		next, err := RunAction(state, e.Action, e.Seed)
		if err != nil {
			return state, fmt.Errorf("replay entry %d: %w", e.Index, err)
		}
		if fp := Fingerprint(next); fp != e.Checksum {
			return next, fmt.Errorf("%w: entry %d fingerprint %s, recorded %s",
				ErrReplayDivergence, e.Index, fp, e.Checksum)
		}
		state = next
	}
	return state, nil
}

// MatchSave is the persisted layout for one match: the starting snapshot
// plus the full ordered history.
type MatchSave struct {
	MatchID      uuid.UUID      `json:"match_id"`
	InitialState GameState      `json:"initial_state"`
	History      []HistoryEntry `json:"history"`
}

// Restore replays the full history against the initial state to reconstruct
// the current state.
func (s MatchSave) Restore() (GameState, error) {
	return Replay(s.InitialState, s.History)
}
