// internal/engine/action.go
package engine

import "github.com/google/uuid"

// ActionKind is the closed set of requests a player (or the system) can
// submit. The resolver rejects anything outside this set.
type ActionKind string

const (
	ActionPlayCard      ActionKind = "play_card"      // CardID, optional TargetID
	ActionEndTurn       ActionKind = "end_turn"       // no parameters
	ActionDiscardRandom ActionKind = "discard_random" // Amount
	ActionDrawCards     ActionKind = "draw_cards"     // Amount
)

// Action is a discrete request to change game state. Immutable once enqueued.
type Action struct {
	Kind     ActionKind `json:"kind"`
	CardID   uuid.UUID  `json:"card_id,omitempty"`
	TargetID uuid.UUID  `json:"target_id,omitempty"`
	Amount   int        `json:"amount,omitempty"`
}
