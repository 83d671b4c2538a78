package entities

import "github.com/KirkDiggler/rpg-toolkit/core"

// Unit is a combatant tracked on the battlefield. The engine cares
// about team and the capability flags; hit points exist so that attack
// resolution has something to consume. Position deliberately lives in
// the occupancy index, not here, so there is a single source of truth
// for who stands where.
type Unit struct {
	ID             string `json:"id"`
	Name           string `json:"name,omitempty"`
	Team           string `json:"team"`
	Movable        bool   `json:"movable"`
	AttackCapable  bool   `json:"attack_capable"`
	Attackable     bool   `json:"attackable"`
	Alive          bool   `json:"alive"`
	MaxHP          int    `json:"max_hp"`
	CurrentHP      int    `json:"current_hp"`
	AttacksPerTurn int    `json:"attacks_per_turn"`
	AttacksLeft    int    `json:"attacks_left"`
}

// GetID implements core.Entity
func (u *Unit) GetID() string {
	return u.ID
}

// GetType implements core.Entity
func (u *Unit) GetType() string {
	return "unit"
}

var _ core.Entity = (*Unit)(nil)

// UnitSpec describes a unit in battle setup configuration
type UnitSpec struct {
	ID             string     `json:"id,omitempty"`
	Name           string     `json:"name,omitempty"`
	Team           string     `json:"team"`
	Position       Coordinate `json:"position"`
	Movable        bool       `json:"movable"`
	AttackCapable  bool       `json:"attack_capable"`
	Attackable     bool       `json:"attackable"`
	MaxHP          int        `json:"max_hp"`
	AttacksPerTurn int        `json:"attacks_per_turn"`
}
