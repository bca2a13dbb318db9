// internal/engine/adapter.go
package engine

import (
	"context"
	"sync"
)

// Handler plays the presentation for one effect and returns when the
// animation has completed. The state argument is the old state for
// pre-commit effects and the committed state for post-commit effects. The
// context is cancelled on skip, timeout, or run abort; a handler that
// ignores cancellation only delays itself, never the state machine.
type Handler func(ctx context.Context, eff Effect, state GameState) error

// Adapter is the registry of per-effect-kind presentation handlers supplied
// by the UI layer. A nil *Adapter, or any unregistered kind, behaves as an
// immediately-completed no-op, so the engine is fully functional headless.
type Adapter struct {
	mu       sync.RWMutex
	handlers map[EffectKind]Handler
}

// NewAdapter returns an empty registry.
func NewAdapter() *Adapter {
	return &Adapter{handlers: make(map[EffectKind]Handler)}
}

// Register installs the handler for one effect kind, replacing any previous
// registration.
func (a *Adapter) Register(kind EffectKind, h Handler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handlers[kind] = h
}

// RegisterAll installs the same handler for every effect kind. Useful for
// transports that forward all effects the same way.
func (a *Adapter) RegisterAll(h Handler) {
	for _, kind := range AllEffectKinds {
		a.Register(kind, h)
	}
}

func (a *Adapter) lookup(kind EffectKind) Handler {
	if a == nil {
		return nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.handlers[kind]
}

// AllEffectKinds enumerates the closed effect kind set, in a stable order.
var AllEffectKinds = []EffectKind{
	EffectDiscard,
	EffectExhaust,
	EffectDraw,
	EffectAddToHand,
	EffectDamage,
	EffectEnemyDeath,
	EffectGoldGain,
	EffectEnergySpend,
	EffectEnergyGain,
	EffectPlayerDamage,
	EffectHeal,
	EffectTurnAdvance,
}
