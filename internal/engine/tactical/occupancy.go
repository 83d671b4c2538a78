package tactical

import (
	"sync"

	"github.com/KirkDiggler/tactics-api/internal/entities"
	"github.com/KirkDiggler/tactics-api/internal/errors"
)

// Occupancy is the single source of truth for which unit stands on
// which tile. Mutations hold one lock for their whole critical section,
// so a concurrent read never observes a half-applied move.
//
// Units do not block each other's sightlines, so unit movement never
// touches the sight cache; only obstacle mutations do.
type Occupancy struct {
	mu        sync.RWMutex
	grid      *Grid
	obstacles *Obstacles
	byTile    map[entities.Coordinate]string
	byUnit    map[string]entities.Coordinate
}

// NewOccupancy creates an empty occupancy index over the given grid.
// The obstacle index is consulted for fully-blocking terrain.
func NewOccupancy(grid *Grid, obstacles *Obstacles) *Occupancy {
	return &Occupancy{
		grid:      grid,
		obstacles: obstacles,
		byTile:    make(map[entities.Coordinate]string),
		byUnit:    make(map[string]entities.Coordinate),
	}
}

// Place puts a unit on a tile. Fails when the tile already has an
// occupant or a fully-blocking obstacle.
func (o *Occupancy) Place(unitID string, pos entities.Coordinate) error {
	if unitID == "" {
		return errors.InvalidArgument("unit ID is required")
	}
	if err := o.grid.Check(pos); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.byUnit[unitID]; ok {
		return errors.AlreadyExistsf("unit %s is already placed", unitID)
	}
	return o.placeLocked(unitID, pos)
}

// Move relocates a unit atomically: both tiles update under one lock,
// so the unit is never registered at two tiles or none.
func (o *Occupancy) Move(unitID string, to entities.Coordinate) error {
	if err := o.grid.Check(to); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	from, ok := o.byUnit[unitID]
	if !ok {
		return errors.NotFoundf("unit %s is not on the battlefield", unitID)
	}
	if from == to {
		return nil
	}
	if err := o.placeLocked(unitID, to); err != nil {
		return err
	}
	delete(o.byTile, from)
	return nil
}

func (o *Occupancy) placeLocked(unitID string, pos entities.Coordinate) error {
	if occupant, ok := o.byTile[pos]; ok && occupant != unitID {
		return errors.FailedPreconditionf("tile %s is occupied by unit %s", pos, occupant)
	}
	if obstacle, ok := o.obstacles.At(pos); ok && obstacle.Height.BlocksMovement() {
		return errors.FailedPreconditionf("tile %s is blocked by obstacle %s", pos, obstacle.ID)
	}
	o.byTile[pos] = unitID
	o.byUnit[unitID] = pos
	return nil
}

// Remove takes a unit off the board. Removing an absent unit is a
// no-op so that late death cleanup can race harmlessly.
func (o *Occupancy) Remove(unitID string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	pos, ok := o.byUnit[unitID]
	if !ok {
		return
	}
	delete(o.byUnit, unitID)
	delete(o.byTile, pos)
}

// UnitAt returns the ID of the unit on the given tile, if any
func (o *Occupancy) UnitAt(pos entities.Coordinate) (string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	id, ok := o.byTile[pos]
	return id, ok
}

// PositionOf returns the tile a unit stands on, if it is placed
func (o *Occupancy) PositionOf(unitID string) (entities.Coordinate, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	pos, ok := o.byUnit[unitID]
	return pos, ok
}
