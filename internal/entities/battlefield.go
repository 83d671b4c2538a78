package entities

import (
	"time"

	"github.com/KirkDiggler/rpg-toolkit/core"
)

// HeightClass describes how tall an obstacle is, which governs whether
// it blocks sightlines and movement.
type HeightClass string

// Height classes
const (
	HeightNone HeightClass = "none"
	HeightLow  HeightClass = "low"
	HeightHigh HeightClass = "high"
)

// BlocksSight reports whether an obstacle of this height fully occludes
// a sightline crossing its tile.
func (h HeightClass) BlocksSight() bool {
	return h == HeightHigh
}

// BlocksMovement reports whether an obstacle of this height keeps units
// off its tile entirely.
func (h HeightClass) BlocksMovement() bool {
	return h == HeightHigh
}

// Valid reports whether the height class is one of the known values
func (h HeightClass) Valid() bool {
	switch h {
	case HeightNone, HeightLow, HeightHigh:
		return true
	}
	return false
}

// Obstacle is a terrain feature occupying exactly one tile
type Obstacle struct {
	ID           string      `json:"id"`
	Position     Coordinate  `json:"position"`
	Height       HeightClass `json:"height"`
	Cover        int         `json:"cover"`     // 0-100 percent damage mitigation
	MoveCost     int         `json:"move_cost"` // extra movement cost, non-blocking obstacles only
	Destructible bool        `json:"destructible"`
	Integrity    int         `json:"integrity,omitempty"` // remaining hit points when destructible
}

// GetID implements core.Entity
func (o *Obstacle) GetID() string {
	return o.ID
}

// GetType implements core.Entity
func (o *Obstacle) GetType() string {
	return "obstacle"
}

var _ core.Entity = (*Obstacle)(nil)

// ObstacleSpec describes an obstacle in battlefield setup configuration
type ObstacleSpec struct {
	Position     Coordinate  `json:"position"`
	Height       HeightClass `json:"height"`
	Cover        int         `json:"cover"`
	MoveCost     int         `json:"move_cost,omitempty"`
	Destructible bool        `json:"destructible,omitempty"`
	Integrity    int         `json:"integrity,omitempty"`
}

// BattlefieldConfig is the setup data for a battle: grid dimensions,
// movement metric, and the obstacle layout.
type BattlefieldConfig struct {
	GridSize         int            `json:"grid_size"`
	DiagonalMovement bool           `json:"diagonal_movement"`
	AttackRange      int            `json:"attack_range"` // tiles, defaults to adjacency (1)
	Obstacles        []ObstacleSpec `json:"obstacles"`
}

// UnitPlacement pairs a unit with its tile for serialized state
type UnitPlacement struct {
	Unit     *Unit      `json:"unit"`
	Position Coordinate `json:"position"`
}

// BattlefieldState is the serializable form of a running battlefield.
// The engine rebuilds its indexes and caches from this on load.
type BattlefieldState struct {
	Config    BattlefieldConfig `json:"config"`
	Obstacles []*Obstacle       `json:"obstacles"`
	Units     []UnitPlacement   `json:"units"`
}

// Battle is a named battle session wrapping battlefield state with
// bookkeeping the orchestrator and repository care about.
type Battle struct {
	ID        string            `json:"id"`
	Name      string            `json:"name,omitempty"`
	Turn      int               `json:"turn"`
	State     *BattlefieldState `json:"state"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
