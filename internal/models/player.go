// internal/models/player.go
package models

// PlayerStats holds the player-side resources for one combat.
type PlayerStats struct {
	Health    int `json:"health"`
	MaxHealth int `json:"max_health"`
	Energy    int `json:"energy"`
	MaxEnergy int `json:"max_energy"`
	Gold      int `json:"gold"`
}
