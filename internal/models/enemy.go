// internal/models/enemy.go
package models

import "github.com/google/uuid"

// Enemy is one combatant on the opposing side. Bounty is the gold awarded
// when the enemy dies.
type Enemy struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Health    int       `json:"health"`
	MaxHealth int       `json:"max_health"`
	Bounty    int       `json:"bounty"`
}

// NewEnemy mints an enemy with full health.
func NewEnemy(name string, health, bounty int) Enemy {
	id, _ := uuid.NewRandom()
	return Enemy{ID: id, Name: name, Health: health, MaxHealth: health, Bounty: bounty}
}
