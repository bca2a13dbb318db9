// internal/engine/effect.go
package engine

import "github.com/google/uuid"

// EffectTiming controls when the presentation layer sees an effect relative
// to its state commit.
type EffectTiming int

const (
	// TimingPreCommit presents the effect while the affected elements still
	// exist in the old state (removals: discard, exhaust, a dying enemy).
	TimingPreCommit EffectTiming = iota
	// TimingPostCommit presents the effect only after the state already
	// reflects it (additions and resource changes).
	TimingPostCommit
)

// EffectKind is the closed set of atomic state changes the engine knows how
// to apply. Resolver, applier and presentation registration all switch on it.
type EffectKind string

const (
	EffectDiscard      EffectKind = "discard"     // move one card hand -> discard pile
	EffectExhaust      EffectKind = "exhaust"     // move one card hand -> exhaust pile
	EffectDraw         EffectKind = "draw"        // move top of draw pile -> hand
	EffectAddToHand    EffectKind = "add_to_hand" // create new card instances in hand
	EffectDamage       EffectKind = "damage"      // reduce one enemy's health
	EffectEnemyDeath   EffectKind = "enemy_death" // remove a dead enemy from the field
	EffectGoldGain     EffectKind = "gold_gain"   // increase player gold
	EffectEnergySpend  EffectKind = "energy_spend"
	EffectEnergyGain   EffectKind = "energy_gain"
	EffectPlayerDamage EffectKind = "player_damage"
	EffectHeal         EffectKind = "heal"
	EffectTurnAdvance  EffectKind = "turn_advance"
)

// Timing is a static property of the kind, never a per-instance choice.
func (k EffectKind) Timing() EffectTiming {
	switch k {
	case EffectDiscard, EffectExhaust, EffectEnemyDeath:
		return TimingPreCommit
	default:
		return TimingPostCommit
	}
}

// Effect is one atomic, independently-timed state change produced by
// resolving an action. Payload fields are populated per kind: card moves set
// CardID, creations set CardName/Amount, enemy effects set EnemyID, resource
// effects set Amount.
type Effect struct {
	Kind     EffectKind `json:"kind"`
	CardID   uuid.UUID  `json:"card_id,omitempty"`
	CardName string     `json:"card_name,omitempty"`
	EnemyID  uuid.UUID  `json:"enemy_id,omitempty"`
	Amount   int        `json:"amount,omitempty"`
}
