// internal/models/card.go
package models

import "github.com/google/uuid"

// Card is a single card instance in play. Two instances never share an ID,
// even when they carry the same name (three Shivs are three distinct cards).
type Card struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Cost int       `json:"cost"`
}

// NewCard mints a fresh card instance. Used when building decks at match
// setup; cards created mid-run by effects get deterministic IDs from the
// engine instead, so replays reproduce them exactly.
func NewCard(name string, cost int) Card {
	id, _ := uuid.NewRandom()
	return Card{ID: id, Name: name, Cost: cost}
}
