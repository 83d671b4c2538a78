package tactical

import (
	"sort"
	"sync"

	"github.com/KirkDiggler/tactics-api/internal/entities"
	"github.com/KirkDiggler/tactics-api/internal/errors"
)

// Obstacles indexes the battlefield's terrain features by tile and by
// ID. At most one obstacle occupies a tile. Mutations call the
// onChange hook with the affected tile so the sight engine can drop
// cached results crossing it.
type Obstacles struct {
	mu       sync.RWMutex
	byTile   map[entities.Coordinate]*entities.Obstacle
	byID     map[string]*entities.Obstacle
	onChange func(entities.Coordinate)
}

// NewObstacles creates an empty obstacle index
func NewObstacles() *Obstacles {
	return &Obstacles{
		byTile:   make(map[entities.Coordinate]*entities.Obstacle),
		byID:     make(map[string]*entities.Obstacle),
		onChange: func(entities.Coordinate) {},
	}
}

// SetChangeHook installs the mutation hook. Installed once during
// battlefield assembly, before any post-setup mutation.
func (o *Obstacles) SetChangeHook(fn func(entities.Coordinate)) {
	if fn == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onChange = fn
}

// Add registers an obstacle on its tile
func (o *Obstacles) Add(obstacle *entities.Obstacle) error {
	if obstacle == nil {
		return errors.InvalidArgument("obstacle is required")
	}
	if obstacle.ID == "" {
		return errors.InvalidArgument("obstacle ID is required")
	}
	if !obstacle.Height.Valid() {
		return errors.InvalidArgumentf("unknown height class %q", obstacle.Height)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if existing, ok := o.byTile[obstacle.Position]; ok {
		return errors.AlreadyExistsf("tile %s already holds obstacle %s", obstacle.Position, existing.ID)
	}
	if _, ok := o.byID[obstacle.ID]; ok {
		return errors.AlreadyExistsf("obstacle %s already registered", obstacle.ID)
	}

	o.byTile[obstacle.Position] = obstacle
	o.byID[obstacle.ID] = obstacle
	o.onChange(obstacle.Position)
	return nil
}

// At returns the obstacle on the given tile, if any
func (o *Obstacles) At(pos entities.Coordinate) (*entities.Obstacle, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	obstacle, ok := o.byTile[pos]
	return obstacle, ok
}

// Get returns the obstacle with the given ID
func (o *Obstacles) Get(id string) (*entities.Obstacle, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	obstacle, ok := o.byID[id]
	return obstacle, ok
}

// All returns every registered obstacle, sorted by ID for
// deterministic iteration
func (o *Obstacles) All() []*entities.Obstacle {
	o.mu.RLock()
	defer o.mu.RUnlock()
	result := make([]*entities.Obstacle, 0, len(o.byID))
	for _, obstacle := range o.byID {
		result = append(result, obstacle)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Damage reduces a destructible obstacle's integrity. When integrity
// reaches zero the obstacle is removed from its tile and the change
// hook fires, which is what un-blocks cached sightlines through it.
func (o *Obstacles) Damage(id string, amount int) (remaining int, destroyed bool, err error) {
	if amount < 0 {
		return 0, false, errors.InvalidArgumentf("damage amount must be non-negative, got %d", amount)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	obstacle, ok := o.byID[id]
	if !ok {
		return 0, false, errors.NotFoundf("obstacle %s not found", id)
	}
	if !obstacle.Destructible {
		return 0, false, errors.FailedPreconditionf("obstacle %s is not destructible", id)
	}

	obstacle.Integrity -= amount
	if obstacle.Integrity > 0 {
		return obstacle.Integrity, false, nil
	}

	obstacle.Integrity = 0
	delete(o.byTile, obstacle.Position)
	delete(o.byID, obstacle.ID)
	o.onChange(obstacle.Position)
	return 0, true, nil
}

// Remove deletes an obstacle outright, returning it if it was present
func (o *Obstacles) Remove(id string) (*entities.Obstacle, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	obstacle, ok := o.byID[id]
	if !ok {
		return nil, false
	}
	delete(o.byTile, obstacle.Position)
	delete(o.byID, obstacle.ID)
	o.onChange(obstacle.Position)
	return obstacle, true
}
