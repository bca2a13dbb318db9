// internal/engine/state.go
package engine

import (
	"github.com/google/uuid"

	"github.com/mkarlsen/spireline/internal/models"
)

// GameState is one point-in-time snapshot of a combat. It is a value type:
// the applier returns a new state rather than mutating a shared one, so
// fingerprint comparisons between runs are meaningful.
//
// CardSerial counts cards minted mid-run by creation effects. It feeds the
// deterministic IDs those cards get, so a replay mints identical instances.
type GameState struct {
	Hand        []models.Card      `json:"hand"`
	DrawPile    []models.Card      `json:"draw_pile"`
	DiscardPile []models.Card      `json:"discard_pile"`
	ExhaustPile []models.Card      `json:"exhaust_pile"`
	Enemies     []models.Enemy     `json:"enemies"`
	Player      models.PlayerStats `json:"player"`
	Turn        int                `json:"turn"`
	CardSerial  int                `json:"card_serial"`
}

// Clone deep-copies the state. Every apply step works on a clone so the
// caller's snapshot is never aliased.
func (s GameState) Clone() GameState {
	out := s
	out.Hand = append([]models.Card(nil), s.Hand...)
	out.DrawPile = append([]models.Card(nil), s.DrawPile...)
	out.DiscardPile = append([]models.Card(nil), s.DiscardPile...)
	out.ExhaustPile = append([]models.Card(nil), s.ExhaustPile...)
	out.Enemies = append([]models.Enemy(nil), s.Enemies...)
	return out
}

// TotalCards counts card instances across all four piles. Move-only effects
// conserve this total; only creation/destruction effects may change it.
func (s GameState) TotalCards() int {
	return len(s.Hand) + len(s.DrawPile) + len(s.DiscardPile) + len(s.ExhaustPile)
}

// HandIndex returns the position of the card with the given ID in hand, or -1.
func (s GameState) HandIndex(id uuid.UUID) int {
	for i, c := range s.Hand {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// EnemyIndex returns the position of the enemy with the given ID, or -1.
func (s GameState) EnemyIndex(id uuid.UUID) int {
	for i, e := range s.Enemies {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// removeCard returns pile with index i removed, preserving order.
func removeCard(pile []models.Card, i int) []models.Card {
	out := make([]models.Card, 0, len(pile)-1)
	out = append(out, pile[:i]...)
	return append(out, pile[i+1:]...)
}

func removeEnemy(enemies []models.Enemy, i int) []models.Enemy {
	out := make([]models.Enemy, 0, len(enemies)-1)
	out = append(out, enemies[:i]...)
	return append(out, enemies[i+1:]...)
}
