package tactical

import (
	"github.com/KirkDiggler/tactics-api/internal/engine"
	"github.com/KirkDiggler/tactics-api/internal/entities"
	"github.com/KirkDiggler/tactics-api/internal/errors"
)

// baseStepCost is the movement cost of stepping onto a clear tile.
// Obstacle movement-cost modifiers add to it.
const baseStepCost = 1

// MovementRules decides whether a unit may step to a tile. The checks
// run in a fixed order and stop at the first failure, so the reported
// reason is stable when several would apply:
//
//	1. unit can move at all
//	2. target is on the grid
//	3. target is adjacent under the configured metric
//	4. target is not blocked by terrain
//	5. target is not occupied
//
// Validation is a pure query. Committing the step is the caller's job,
// via the occupancy index, so previews can probe moves freely.
type MovementRules struct {
	grid      *Grid
	roster    *Roster
	occupancy *Occupancy
	obstacles *Obstacles
}

// NewMovementRules wires the movement pipeline over the battlefield
// components
func NewMovementRules(grid *Grid, roster *Roster, occupancy *Occupancy, obstacles *Obstacles) *MovementRules {
	return &MovementRules{
		grid:      grid,
		roster:    roster,
		occupancy: occupancy,
		obstacles: obstacles,
	}
}

// Validate runs the movement pipeline for a unit stepping to target.
// Unknown units are caller error, not a rule outcome.
func (m *MovementRules) Validate(unitID string, target entities.Coordinate) (*engine.MovementDecision, error) {
	unit, ok := m.roster.Get(unitID)
	if !ok {
		return nil, errors.NotFoundf("unit %s not found", unitID)
	}

	if !unit.Movable || !unit.Alive {
		return &engine.MovementDecision{Reason: engine.ReasonUnitCannotMove}, nil
	}

	current, ok := m.occupancy.PositionOf(unitID)
	if !ok {
		return nil, errors.FailedPreconditionf("unit %s is not on the battlefield", unitID)
	}

	if !m.grid.Contains(target) {
		return &engine.MovementDecision{Reason: engine.ReasonOutOfBounds}, nil
	}

	adjacent, err := m.grid.Adjacent(current, target)
	if err != nil {
		return nil, err
	}
	if !adjacent {
		return &engine.MovementDecision{Reason: engine.ReasonNotAdjacent}, nil
	}

	cost := baseStepCost
	if obstacle, ok := m.obstacles.At(target); ok {
		if obstacle.Height.BlocksMovement() {
			return &engine.MovementDecision{Reason: engine.ReasonTileBlocked}, nil
		}
		cost += obstacle.MoveCost
	}

	if _, ok := m.occupancy.UnitAt(target); ok {
		return &engine.MovementDecision{Reason: engine.ReasonTileOccupied}, nil
	}

	return &engine.MovementDecision{Allowed: true, Cost: cost}, nil
}

// ValidMoves returns the tiles the unit could step to right now, in
// the grid's neighbor order. Useful for movement previews.
func (m *MovementRules) ValidMoves(unitID string) ([]entities.Coordinate, error) {
	current, ok := m.occupancy.PositionOf(unitID)
	if !ok {
		return nil, errors.NotFoundf("unit %s is not on the battlefield", unitID)
	}

	neighbors, err := m.grid.Neighbors(current, m.grid.DiagonalMovement())
	if err != nil {
		return nil, err
	}

	result := make([]entities.Coordinate, 0, len(neighbors))
	for _, n := range neighbors {
		decision, err := m.Validate(unitID, n)
		if err != nil {
			return nil, err
		}
		if decision.Allowed {
			result = append(result, n)
		}
	}
	return result, nil
}
