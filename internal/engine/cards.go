// internal/engine/cards.go
package engine

import (
	"fmt"
	"math/rand"

	"github.com/mkarlsen/spireline/internal/models"
)

// drawPerTurn is the hand refill size at end of turn.
const drawPerTurn = 5

// cardResolver expands one played card into its effect list. The rng is the
// action's seeded source; resolvers that make random choices (which cards to
// discard, which enemy to hit) must draw from it and nothing else.
type cardResolver func(state GameState, self models.Card, action Action, rng *rand.Rand) ([]Effect, error)

// cardSpec is one catalog entry. exhausts controls where the played card
// goes when it leaves the hand.
type cardSpec struct {
	cost     int
	exhausts bool
	resolve  cardResolver
}

// cardCatalog maps card names to their resolvers. This is the contract
// surface for card content; balance data lives with whoever builds decks.
var cardCatalog = map[string]cardSpec{
	"Strike":         {cost: 1, resolve: resolveStrike},
	"Shiv":           {cost: 0, exhausts: true, resolve: resolveShiv},
	"Red Horse":      {cost: 1, resolve: resolveRedHorse},
	"Bandage":        {cost: 1, exhausts: true, resolve: resolveBandage},
	"Reckless Lunge": {cost: 1, resolve: resolveRecklessLunge},
}

// CardCost reports the catalog cost for a card name. Cards minted mid-run by
// creation effects take their cost from here.
func CardCost(name string) int {
	return cardCatalog[name].cost
}

// KnownCard reports whether the catalog can resolve a card name.
func KnownCard(name string) bool {
	_, ok := cardCatalog[name]
	return ok
}

func requireTarget(state GameState, action Action, card string) error {
	if state.EnemyIndex(action.TargetID) < 0 {
		return fmt.Errorf("%w: %q requires a living enemy target", ErrInvalidActionParameters, card)
	}
	return nil
}

func resolveStrike(state GameState, _ models.Card, action Action, _ *rand.Rand) ([]Effect, error) {
	if err := requireTarget(state, action, "Strike"); err != nil {
		return nil, err
	}
	return []Effect{{Kind: EffectDamage, EnemyID: action.TargetID, Amount: 6}}, nil
}

func resolveShiv(state GameState, _ models.Card, action Action, _ *rand.Rand) ([]Effect, error) {
	if err := requireTarget(state, action, "Shiv"); err != nil {
		return nil, err
	}
	return []Effect{{Kind: EffectDamage, EnemyID: action.TargetID, Amount: 4}}, nil
}

// resolveRedHorse discards up to two random other cards, then adds three
// Shivs to the hand.
func resolveRedHorse(state GameState, self models.Card, _ Action, rng *rand.Rand) ([]Effect, error) {
	picked := pickHandIndices(state.Hand, 2, rng, self.ID)
	effects := make([]Effect, 0, len(picked)+1)
	for _, i := range picked {
		effects = append(effects, Effect{Kind: EffectDiscard, CardID: state.Hand[i].ID})
	}
	return append(effects, Effect{Kind: EffectAddToHand, CardName: "Shiv", Amount: 3}), nil
}

func resolveBandage(_ GameState, _ models.Card, _ Action, _ *rand.Rand) ([]Effect, error) {
	return []Effect{{Kind: EffectHeal, Amount: 4}}, nil
}

// resolveRecklessLunge hits hard and hurts back.
func resolveRecklessLunge(state GameState, _ models.Card, action Action, _ *rand.Rand) ([]Effect, error) {
	if err := requireTarget(state, action, "Reckless Lunge"); err != nil {
		return nil, err
	}
	return []Effect{
		{Kind: EffectDamage, EnemyID: action.TargetID, Amount: 8},
		{Kind: EffectPlayerDamage, Amount: 2},
	}, nil
}
