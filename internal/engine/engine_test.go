// internal/engine/engine_test.go
package engine

import (
	"github.com/google/uuid"

	"github.com/mkarlsen/spireline/internal/models"
)

// namedCard mints a card that is not in the catalog; fine for move-only
// effects, which never consult the catalog.
func namedCard(name string) models.Card {
	id, _ := uuid.NewRandom()
	return models.Card{ID: id, Name: name}
}

// fiveCardHand builds the A..E hand the scenario tests start from.
func fiveCardHand() []models.Card {
	return []models.Card{
		namedCard("A"), namedCard("B"), namedCard("C"), namedCard("D"), namedCard("E"),
	}
}

func baseState() GameState {
	return GameState{
		Hand: fiveCardHand(),
		Player: models.PlayerStats{
			Health: 70, MaxHealth: 80,
			Energy: 3, MaxEnergy: 3,
		},
	}
}

func handNames(s GameState) []string {
	out := make([]string, len(s.Hand))
	for i, c := range s.Hand {
		out[i] = c.Name
	}
	return out
}

func pileNames(cards []models.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Name
	}
	return out
}

func effectKinds(effects []Effect) []EffectKind {
	out := make([]EffectKind, len(effects))
	for i, e := range effects {
		out[i] = e.Kind
	}
	return out
}
