// internal/engine/errors.go
package engine

import "errors"

var (
	// ErrUnknownActionKind is returned by the resolver for an action tag
	// outside the closed ActionKind set. Reported at enqueue; the action
	// never reaches the coordinator.
	ErrUnknownActionKind = errors.New("unknown action kind")

	// ErrInvalidActionParameters is returned by the resolver when required
	// targets or arguments are missing or out of range. Reported at enqueue.
	ErrInvalidActionParameters = errors.New("invalid action parameters")

	// ErrStaleEffectTarget is returned by the applier when an effect
	// references a target an earlier spawned effect already removed. The
	// coordinator logs it and skips the effect; the sequence continues.
	ErrStaleEffectTarget = errors.New("stale effect target")

	// ErrConcurrentRun signals a second Run while one is active. This is a
	// caller contract breach, not a user-facing error, and is fatal to the
	// attempted run.
	ErrConcurrentRun = errors.New("concurrent coordinator run")

	// ErrReplayDivergence means a replayed history entry produced a state
	// whose fingerprint differs from the recorded one.
	ErrReplayDivergence = errors.New("replay diverged from recorded state")
)
