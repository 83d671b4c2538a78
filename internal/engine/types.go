package engine

import (
	"github.com/KirkDiggler/tactics-api/internal/entities"
)

// Reason identifies which rule rejected a movement or attack request.
// Rule rejections are ordinary outcomes reported to the caller, not
// errors; the pipelines stop at the first failing check, so callers can
// rely on which reason wins when several would apply.
type Reason string

// Movement rejection reasons, in pipeline order
const (
	ReasonUnitCannotMove Reason = "UNIT_CANNOT_MOVE"
	ReasonOutOfBounds    Reason = "OUT_OF_BOUNDS"
	ReasonNotAdjacent    Reason = "NOT_ADJACENT"
	ReasonTileBlocked    Reason = "TILE_BLOCKED"
	ReasonTileOccupied   Reason = "TILE_OCCUPIED"
)

// Attack rejection reasons, in pipeline order
const (
	ReasonNoAttacksRemaining Reason = "NO_ATTACKS_REMAINING"
	ReasonInvalidTeam        Reason = "INVALID_TEAM"
	ReasonInvalidTarget      Reason = "INVALID_TARGET"
	ReasonOutOfRange         Reason = "OUT_OF_RANGE"
	ReasonNoLineOfSight      Reason = "NO_LINE_OF_SIGHT"
)

// SightResult is the outcome of a line-of-sight query between two
// tiles. Cover is the defender's damage mitigation percentage; when the
// sightline is fully blocked Cover is 100 and BlockerID names the
// obstacle responsible.
type SightResult struct {
	Visible   bool   `json:"visible"`
	Cover     int    `json:"cover"`
	BlockerID string `json:"blocker_id,omitempty"`
}

// MovementDecision is the outcome of the movement rule pipeline.
// Cost is only meaningful on success: the base step cost plus any
// movement cost modifier from a non-blocking obstacle on the target
// tile, reported for action-point systems but not enforced here.
type MovementDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason,omitempty"`
	Cost    int    `json:"cost,omitempty"`
}

// AttackDecision is the outcome of the attack rule pipeline. Cover is
// the defender's cover percentage, carried on success for the damage
// calculation downstream.
type AttackDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason,omitempty"`
	Cover   int    `json:"cover,omitempty"`
}

// DamageResult reports the effect of applying damage to a unit
type DamageResult struct {
	UnitID      string `json:"unit_id"`
	RemainingHP int    `json:"remaining_hp"`
	Died        bool   `json:"died"`
}

// ObstacleDamageResult reports the effect of damaging an obstacle
type ObstacleDamageResult struct {
	ObstacleID         string              `json:"obstacle_id"`
	RemainingIntegrity int                 `json:"remaining_integrity"`
	Destroyed          bool                `json:"destroyed"`
	Position           entities.Coordinate `json:"position"`
}
