package tactical

import (
	"sort"
	"sync"

	"github.com/KirkDiggler/tactics-api/internal/entities"
	"github.com/KirkDiggler/tactics-api/internal/errors"
)

// Roster is the unit registry for a battlefield. It owns unit records;
// their tiles live in the occupancy index.
type Roster struct {
	mu   sync.RWMutex
	byID map[string]*entities.Unit
}

// NewRoster creates an empty roster
func NewRoster() *Roster {
	return &Roster{byID: make(map[string]*entities.Unit)}
}

// Add registers a unit
func (r *Roster) Add(unit *entities.Unit) error {
	if unit == nil {
		return errors.InvalidArgument("unit is required")
	}
	if unit.ID == "" {
		return errors.InvalidArgument("unit ID is required")
	}
	if unit.Team == "" {
		return errors.InvalidArgument("unit team is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[unit.ID]; ok {
		return errors.AlreadyExistsf("unit %s already registered", unit.ID)
	}
	r.byID[unit.ID] = unit
	return nil
}

// Get returns the unit with the given ID
func (r *Roster) Get(id string) (*entities.Unit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	unit, ok := r.byID[id]
	return unit, ok
}

// Remove deletes a unit from the roster; absent IDs are a no-op
func (r *Roster) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
}

// All returns every unit, sorted by ID for deterministic iteration
func (r *Roster) All() []*entities.Unit {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*entities.Unit, 0, len(r.byID))
	for _, unit := range r.byID {
		result = append(result, unit)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}
