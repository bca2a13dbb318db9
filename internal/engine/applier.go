// internal/engine/applier.go
package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mkarlsen/spireline/internal/models"
)

// mintNamespace seeds the deterministic IDs for cards created mid-run.
var mintNamespace = uuid.MustParse("8c9e4f5a-1b6d-4e2f-9a3c-7d0b5e8f2a14")

// Apply commits one effect's state mutation and returns the new state plus
// any spawned follow-up effects, in the order they should be spliced in.
// Pure: the input state is never mutated.
//
// An effect whose target no longer exists (removed by an earlier spawned
// effect) returns the unchanged state, no spawns, and ErrStaleEffectTarget.
// The coordinator logs and skips it; the sequence must not abort.
func Apply(state GameState, eff Effect) (GameState, []Effect, error) {
	switch eff.Kind {
	case EffectDiscard:
		return moveFromHand(state, eff.CardID, pileDiscard)

	case EffectExhaust:
		return moveFromHand(state, eff.CardID, pileExhaust)

	case EffectDraw:
		if len(state.DrawPile) == 0 {
			return state, nil, ErrStaleEffectTarget
		}
		next := state.Clone()
		card := next.DrawPile[0]
		next.DrawPile = next.DrawPile[1:]
		next.Hand = append(next.Hand, card)
		return next, nil, nil

	case EffectAddToHand:
		next := state.Clone()
		for i := 0; i < eff.Amount; i++ {
			next.CardSerial++
			next.Hand = append(next.Hand, models.Card{
				ID:   mintCardID(eff.CardName, next.CardSerial),
				Name: eff.CardName,
				Cost: CardCost(eff.CardName),
			})
		}
		return next, nil, nil

	case EffectDamage:
		i := state.EnemyIndex(eff.EnemyID)
		if i < 0 {
			return state, nil, ErrStaleEffectTarget
		}
		next := state.Clone()
		enemy := &next.Enemies[i]
		alreadyDown := enemy.Health <= 0
		enemy.Health -= eff.Amount
		if enemy.Health < 0 {
			enemy.Health = 0
		}
		var spawned []Effect
		if enemy.Health == 0 && !alreadyDown {
			// The kill's reward follows the kill, not unrelated later effects.
			spawned = []Effect{
				{Kind: EffectEnemyDeath, EnemyID: enemy.ID},
				{Kind: EffectGoldGain, Amount: enemy.Bounty},
			}
		}
		return next, spawned, nil

	case EffectEnemyDeath:
		i := state.EnemyIndex(eff.EnemyID)
		if i < 0 {
			return state, nil, ErrStaleEffectTarget
		}
		next := state.Clone()
		next.Enemies = removeEnemy(next.Enemies, i)
		return next, nil, nil

	case EffectGoldGain:
		next := state.Clone()
		next.Player.Gold += eff.Amount
		return next, nil, nil

	case EffectEnergySpend:
		next := state.Clone()
		next.Player.Energy -= eff.Amount
		if next.Player.Energy < 0 {
			next.Player.Energy = 0
		}
		return next, nil, nil

	case EffectEnergyGain:
		next := state.Clone()
		next.Player.Energy += eff.Amount
		if next.Player.Energy > next.Player.MaxEnergy {
			next.Player.Energy = next.Player.MaxEnergy
		}
		return next, nil, nil

	case EffectPlayerDamage:
		next := state.Clone()
		next.Player.Health -= eff.Amount
		if next.Player.Health < 0 {
			next.Player.Health = 0
		}
		return next, nil, nil

	case EffectHeal:
		next := state.Clone()
		next.Player.Health += eff.Amount
		if next.Player.Health > next.Player.MaxHealth {
			next.Player.Health = next.Player.MaxHealth
		}
		return next, nil, nil

	case EffectTurnAdvance:
		next := state.Clone()
		next.Turn++
		return next, nil, nil

	default:
		return state, nil, fmt.Errorf("applier: unknown effect kind %q", eff.Kind)
	}
}

type pileTarget int

const (
	pileDiscard pileTarget = iota
	pileExhaust
)

func moveFromHand(state GameState, cardID uuid.UUID, dest pileTarget) (GameState, []Effect, error) {
	i := state.HandIndex(cardID)
	if i < 0 {
		return state, nil, ErrStaleEffectTarget
	}
	next := state.Clone()
	card := next.Hand[i]
	next.Hand = removeCard(next.Hand, i)
	switch dest {
	case pileDiscard:
		next.DiscardPile = append(next.DiscardPile, card)
	case pileExhaust:
		next.ExhaustPile = append(next.ExhaustPile, card)
	}
	return next, nil, nil
}

// mintCardID derives a stable ID from the creation serial, so a replay mints
// byte-identical card instances.
func mintCardID(name string, serial int) uuid.UUID {
	return uuid.NewSHA1(mintNamespace, []byte(fmt.Sprintf("%s#%d", name, serial)))
}
