// internal/engine/resolver.go
package engine

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/google/uuid"

	"github.com/mkarlsen/spireline/internal/models"
)

// Resolve expands an action into its initial ordered effect list. It is a
// pure function: identical (state, action, seed) triples always yield
// identical sequences, including the identities chosen by random selection.
// All randomness is drawn from the seeded source; nothing ambient.
func Resolve(state GameState, action Action, seed int64) ([]Effect, error) {
	rng := rand.New(rand.NewSource(seed))

	switch action.Kind {
	case ActionPlayCard:
		return resolvePlayCard(state, action, rng)
	case ActionEndTurn:
		return resolveEndTurn(state), nil
	case ActionDiscardRandom:
		return resolveDiscardRandom(state, action, rng)
	case ActionDrawCards:
		return resolveDrawCards(state, action)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActionKind, action.Kind)
	}
}

// Validate runs resolver-level checks without committing to a seed. Used by
// the queue to reject bad actions at enqueue time.
func Validate(state GameState, action Action) error {
	_, err := Resolve(state, action, 0)
	return err
}

func resolvePlayCard(state GameState, action Action, rng *rand.Rand) ([]Effect, error) {
	i := state.HandIndex(action.CardID)
	if i < 0 {
		return nil, fmt.Errorf("%w: card %s not in hand", ErrInvalidActionParameters, action.CardID)
	}
	card := state.Hand[i]
	spec, ok := cardCatalog[card.Name]
	if !ok {
		return nil, fmt.Errorf("%w: no resolver for card %q", ErrInvalidActionParameters, card.Name)
	}
	if state.Player.Energy < card.Cost {
		return nil, fmt.Errorf("%w: %q costs %d energy, have %d",
			ErrInvalidActionParameters, card.Name, card.Cost, state.Player.Energy)
	}

	var effects []Effect
	if card.Cost > 0 {
		effects = append(effects, Effect{Kind: EffectEnergySpend, Amount: card.Cost})
	}
	// The played card leaves the hand as part of the play itself.
	selfMove := EffectDiscard
	if spec.exhausts {
		selfMove = EffectExhaust
	}
	effects = append(effects, Effect{Kind: selfMove, CardID: card.ID})

	cardEffects, err := spec.resolve(state, card, action, rng)
	if err != nil {
		return nil, err
	}
	return append(effects, cardEffects...), nil
}

// resolveEndTurn discards the whole hand, refills energy, draws the next
// hand and advances the turn counter. Draw count is clamped to the draw
// pile at resolve time, so the sequence never produces stale draws.
func resolveEndTurn(state GameState) []Effect {
	effects := make([]Effect, 0, len(state.Hand)+drawPerTurn+2)
	for _, c := range state.Hand {
		effects = append(effects, Effect{Kind: EffectDiscard, CardID: c.ID})
	}
	if refill := state.Player.MaxEnergy - state.Player.Energy; refill > 0 {
		effects = append(effects, Effect{Kind: EffectEnergyGain, Amount: refill})
	}
	draws := drawPerTurn
	if draws > len(state.DrawPile) {
		draws = len(state.DrawPile)
	}
	for i := 0; i < draws; i++ {
		effects = append(effects, Effect{Kind: EffectDraw})
	}
	return append(effects, Effect{Kind: EffectTurnAdvance})
}

func resolveDiscardRandom(state GameState, action Action, rng *rand.Rand) ([]Effect, error) {
	if action.Amount <= 0 {
		return nil, fmt.Errorf("%w: discard amount must be positive", ErrInvalidActionParameters)
	}
	if action.Amount > len(state.Hand) {
		return nil, fmt.Errorf("%w: discard amount %d exceeds hand size %d",
			ErrInvalidActionParameters, action.Amount, len(state.Hand))
	}
	picked := pickHandIndices(state.Hand, action.Amount, rng, uuid.Nil)
	effects := make([]Effect, 0, len(picked))
	for _, i := range picked {
		effects = append(effects, Effect{Kind: EffectDiscard, CardID: state.Hand[i].ID})
	}
	return effects, nil
}

func resolveDrawCards(state GameState, action Action) ([]Effect, error) {
	if action.Amount <= 0 {
		return nil, fmt.Errorf("%w: draw amount must be positive", ErrInvalidActionParameters)
	}
	if action.Amount > len(state.DrawPile) {
		return nil, fmt.Errorf("%w: draw amount %d exceeds draw pile size %d",
			ErrInvalidActionParameters, action.Amount, len(state.DrawPile))
	}
	effects := make([]Effect, 0, action.Amount)
	for i := 0; i < action.Amount; i++ {
		effects = append(effects, Effect{Kind: EffectDraw})
	}
	return effects, nil
}

// pickHandIndices selects n distinct hand positions from the seeded source,
// skipping the excluded card (a card cannot select itself). The result is
// sorted ascending so discards present in hand order.
func pickHandIndices(hand []models.Card, n int, rng *rand.Rand, exclude uuid.UUID) []int {
	pool := make([]int, 0, len(hand))
	for i, c := range hand {
		if c.ID != exclude {
			pool = append(pool, i)
		}
	}
	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	if n > len(pool) {
		n = len(pool)
	}
	picked := pool[:n]
	sort.Ints(picked)
	return picked
}
