// internal/engine/coordinator.go
package engine

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultWaitTimeout bounds a single presentation wait. A handler that has
// not signalled completion by then is treated as completed.
const DefaultWaitTimeout = 5 * time.Second

// Coordinator drives a single action's effect sequence to completion. It
// commits effects one at a time through the applier, suspends at
// presentation waits (and only there), and splices spawned effects in
// immediately after their progenitor so causal order survives.
//
// Exactly one run may be active at a time. The queue serializes actions so
// this never triggers under correct usage; a second concurrent Run is a
// caller bug and fails with ErrConcurrentRun.
type Coordinator struct {
	adapter     *Adapter
	logger      *logrus.Logger
	waitTimeout time.Duration

	running atomic.Bool

	mu         sync.Mutex
	skipCancel context.CancelFunc
}

// NewCoordinator builds a coordinator. Both arguments may be nil: a nil
// adapter means headless, a nil logger discards.
func NewCoordinator(adapter *Adapter, logger *logrus.Logger) *Coordinator {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Coordinator{
		adapter:     adapter,
		logger:      logger,
		waitTimeout: DefaultWaitTimeout,
	}
}

// SetWaitTimeout overrides the per-effect presentation wait bound.
func (c *Coordinator) SetWaitTimeout(d time.Duration) {
	c.waitTimeout = d
}

// Skip resolves all remaining presentation waits in the current run
// immediately. It changes only how long the run suspends, never the
// resulting state.
func (c *Coordinator) Skip() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.skipCancel != nil {
		c.skipCancel()
	}
}

// Run processes one action: resolve, then a single linear pass over the
// (dynamically growing) sequence. Returns the final state and the effects
// actually applied, in order. Resolver errors abort before any mutation.
func (c *Coordinator) Run(ctx context.Context, state GameState, action Action, seed int64) (GameState, []Effect, error) {
	if !c.running.CompareAndSwap(false, true) {
		return state, nil, ErrConcurrentRun
	}
	defer c.running.Store(false)

	effects, err := Resolve(state, action, seed)
	if err != nil {
		return state, nil, err
	}

	waitCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.skipCancel = cancel
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.skipCancel = nil
		c.mu.Unlock()
		cancel()
	}()

	applied := make([]Effect, 0, len(effects))
	for cursor := 0; cursor < len(effects); cursor++ {
		eff := effects[cursor]

		var next GameState
		var spawned []Effect
		var applyErr error
		if eff.Kind.Timing() == TimingPreCommit {
			// Present while the affected elements still exist in the old state.
			c.await(waitCtx, eff, state)
			next, spawned, applyErr = Apply(state, eff)
		} else {
			next, spawned, applyErr = Apply(state, eff)
			if applyErr == nil {
				c.await(waitCtx, eff, next)
			}
		}

		if errors.Is(applyErr, ErrStaleEffectTarget) {
			c.logger.WithFields(logrus.Fields{
				"effect_kind": eff.Kind,
				"card_id":     eff.CardID,
				"enemy_id":    eff.EnemyID,
			}).Info("effect target gone, skipping")
			continue
		}
		if applyErr != nil {
			return state, applied, applyErr
		}

		state = next
		applied = append(applied, eff)
		if len(spawned) > 0 {
			effects = splice(effects, cursor+1, spawned)
		}
	}
	return state, applied, nil
}

// await suspends until the handler for the effect kind signals completion,
// the wait times out, or the run is skipped. Presentation problems never
// block state progress: failure and timeout both degrade to "completed".
func (c *Coordinator) await(ctx context.Context, eff Effect, state GameState) {
	h := c.adapter.lookup(eff.Kind)
	if h == nil {
		return
	}
	waitCtx, cancel := context.WithTimeout(ctx, c.waitTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- h(waitCtx, eff, state)
	}()
	select {
	case err := <-done:
		if err != nil {
			c.logger.WithError(err).WithField("effect_kind", eff.Kind).
				Warn("presentation handler failed, treating as completed")
		}
	case <-waitCtx.Done():
		c.logger.WithFields(logrus.Fields{
			"effect_kind": eff.Kind,
			"reason":      waitCtx.Err(),
		}).Warn("presentation wait ended early, treating as completed")
	}
}

// splice inserts ins into seq at position at.
func splice(seq []Effect, at int, ins []Effect) []Effect {
	out := make([]Effect, 0, len(seq)+len(ins))
	out = append(out, seq[:at]...)
	out = append(out, ins...)
	return append(out, seq[at:]...)
}

// RunAction processes one action with no adapter, queue, or log: the minimal
// reproducible contract for unit tests and for replay.
func RunAction(state GameState, action Action, seed int64) (GameState, error) {
	final, _, err := NewCoordinator(nil, nil).Run(context.Background(), state, action, seed)
	return final, err
}
