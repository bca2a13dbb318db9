// internal/engine/queue.go
package engine

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrSessionClosed is returned by Enqueue after Close.
var ErrSessionClosed = errors.New("session closed")

// Session owns one match: the authoritative state, the coordinator that
// mutates it, and the history log. Its queue drains pending actions one at
// a time, FIFO, waiting for each run's terminal state before starting the
// next, so two actions' effect sequences never interleave even though each
// sequence contains suspension points.
type Session struct {
	ID uuid.UUID

	coord  *Coordinator
	log    *HistoryLog
	logger *logrus.Logger

	mu      sync.Mutex
	state   GameState
	nextSub int
	settled map[int]func(GameState)
	failed  map[int]func(Action, error)
	seeds   *rand.Rand

	pending   chan queuedAction
	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type queuedAction struct {
	action Action
	seed   int64
}

// NewSession starts a session over the initial state. The adapter may be
// nil for headless use. The drain loop runs until Close.
func NewSession(initial GameState, adapter *Adapter, logger *logrus.Logger) *Session {
	s := newSession(initial, adapter, logger)
	s.start()
	return s
}

// RestoreSession resumes a persisted match: the history is replayed against
// the saved initial state, the match keeps its ID, and the log continues
// where it left off, so a later Save stays consistent with the initial
// state it records.
func RestoreSession(save MatchSave, adapter *Adapter, logger *logrus.Logger) (*Session, error) {
	current, err := save.Restore()
	if err != nil {
		return nil, err
	}
	s := newSession(current, adapter, logger)
	s.ID = save.MatchID
	s.log = NewHistoryLogFrom(save.History)
	s.start()
	return s, nil
}

func newSession(initial GameState, adapter *Adapter, logger *logrus.Logger) *Session {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	id, _ := uuid.NewRandom()
	return &Session{
		ID:      id,
		coord:   NewCoordinator(adapter, logger),
		log:     NewHistoryLog(),
		logger:  logger,
		state:   initial.Clone(),
		settled: make(map[int]func(GameState)),
		failed:  make(map[int]func(Action, error)),
		seeds:   rand.New(rand.NewSource(time.Now().UnixNano())),
		pending: make(chan queuedAction, 64),
		closed:  make(chan struct{}),
	}
}

func (s *Session) start() {
	s.wg.Add(1)
	go s.drain()
}

// SetSeedSource makes the per-action seed sequence deterministic. Call
// before the first Enqueue for reproducible matches.
func (s *Session) SetSeedSource(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seeds = rand.New(rand.NewSource(seed))
}

// State returns a copy of the committed state.
func (s *Session) State() GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// History exposes the session's append-only log.
func (s *Session) History() *HistoryLog {
	return s.log
}

// Coordinator exposes the session's coordinator, for presentation wait
// tuning by the transport layer.
func (s *Session) Coordinator() *Coordinator {
	return s.coord
}

// OnSettled registers a callback notified with the committed state after
// each action's run completes. The returned func deregisters it; transports
// call it on disconnect so a dead connection stops receiving pushes.
func (s *Session) OnSettled(fn func(GameState)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.settled[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.settled, id)
	}
}

// OnFailed registers a callback notified when a queued action's run fails
// after passing enqueue validation (the state drifted under earlier queued
// actions). The returned func deregisters it.
func (s *Session) OnFailed(fn func(Action, error)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.failed[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.failed, id)
	}
}

// Skip fast-forwards all remaining presentation waits in the current run.
func (s *Session) Skip() {
	s.coord.Skip()
}

// Enqueue validates the action against the committed state and appends it
// to the wait line. Resolver-level rejections (unknown kind, bad
// parameters) are reported here and the action never runs.
func (s *Session) Enqueue(action Action) error {
	s.mu.Lock()
	state := s.state
	seed := s.seeds.Int63()
	s.mu.Unlock()

	if err := Validate(state, action); err != nil {
		return err
	}
	select {
	case <-s.closed:
		return ErrSessionClosed
	default:
	}
	select {
	case <-s.closed:
		return ErrSessionClosed
	case s.pending <- queuedAction{action: action, seed: seed}:
		return nil
	}
}

// Close stops the drain loop. In-flight processing finishes first.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
	s.wg.Wait()
}

func (s *Session) drain() {
	defer s.wg.Done()
	for {
		select {
		case <-s.closed:
			return
		case qa := <-s.pending:
			s.process(qa)
		}
	}
}

func (s *Session) process(qa queuedAction) {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	final, applied, err := s.coord.Run(context.Background(), state, qa.action, qa.seed)
	if err != nil {
		// The state may have drifted between enqueue validation and the run.
		s.logger.WithError(err).WithFields(logrus.Fields{
			"session_id":  s.ID,
			"action_kind": qa.action.Kind,
		}).Warn("action run failed")
		s.mu.Lock()
		failed := make([]func(Action, error), 0, len(s.failed))
		for _, cb := range s.failed {
			failed = append(failed, cb)
		}
		s.mu.Unlock()
		for _, cb := range failed {
			cb(qa.action, err)
		}
		return
	}

	entry := s.log.Record(HistoryEntry{
		Action:    qa.action,
		Seed:      qa.seed,
		Effects:   applied,
		Checksum:  Fingerprint(final),
		Timestamp: time.Now(),
	})
	s.logger.WithFields(logrus.Fields{
		"session_id":   s.ID,
		"action_kind":  qa.action.Kind,
		"action_index": entry.Index,
		"effects":      len(applied),
	}).Debug("action settled")

	s.mu.Lock()
	s.state = final
	callbacks := make([]func(GameState), 0, len(s.settled))
	for _, cb := range s.settled {
		callbacks = append(callbacks, cb)
	}
	s.mu.Unlock()
	for _, cb := range callbacks {
		cb(final.Clone())
	}
}

// Save snapshots the session as a persistable match save.
func (s *Session) Save(initial GameState) MatchSave {
	return MatchSave{
		MatchID:      s.ID,
		InitialState: initial,
		History:      s.log.Entries(),
	}
}
