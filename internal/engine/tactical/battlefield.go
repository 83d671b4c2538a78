package tactical

import (
	"fmt"
	"sync"

	"github.com/KirkDiggler/tactics-api/internal/engine"
	"github.com/KirkDiggler/tactics-api/internal/entities"
	"github.com/KirkDiggler/tactics-api/internal/errors"
	"github.com/KirkDiggler/tactics-api/internal/pkg/idgen"
)

// Battlefield assembles the grid, roster, occupancy, obstacle, sight,
// and rule components into one live battle. A single RWMutex
// serializes mutations against queries: obstacle removal and the sight
// cache eviction it triggers complete inside the write lock, so a
// query can never return a result cached across the mutation.
type Battlefield struct {
	mu sync.RWMutex

	cfg       entities.BattlefieldConfig
	grid      *Grid
	roster    *Roster
	obstacles *Obstacles
	occupancy *Occupancy
	sight     *SightEngine
	movement  *MovementRules
	combat    *CombatRules
}

var _ engine.Battlefield = (*Battlefield)(nil)

// Factory builds battlefields from setup config or persisted state
type Factory struct {
	idGen idgen.Generator
}

var _ engine.Factory = (*Factory)(nil)

// FactoryConfig holds the dependencies for the battlefield factory
type FactoryConfig struct {
	IDGenerator idgen.Generator
}

// Validate ensures all required dependencies are provided
func (c *FactoryConfig) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}

	return vb.Build()
}

// NewFactory creates a battlefield factory
func NewFactory(cfg *FactoryConfig) (*Factory, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return &Factory{idGen: cfg.IDGenerator}, nil
}

// New builds a battlefield from setup configuration. Obstacles get
// generated IDs; units are placed afterwards via PlaceUnit.
func (f *Factory) New(cfg *entities.BattlefieldConfig) (engine.Battlefield, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("battlefield config is required")
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	b, err := assemble(*cfg)
	if err != nil {
		return nil, err
	}

	for i := range cfg.Obstacles {
		spec := cfg.Obstacles[i]
		obstacle := &entities.Obstacle{
			ID:           f.idGen.Generate(),
			Position:     spec.Position,
			Height:       spec.Height,
			Cover:        spec.Cover,
			MoveCost:     spec.MoveCost,
			Destructible: spec.Destructible,
			Integrity:    spec.Integrity,
		}
		if err := b.grid.Check(obstacle.Position); err != nil {
			return nil, err
		}
		if err := b.obstacles.Add(obstacle); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// Rebuild reconstructs a battlefield from persisted state. Indexes and
// the sight cache are rebuilt from scratch; nothing stale survives a
// reload.
func (f *Factory) Rebuild(state *entities.BattlefieldState) (engine.Battlefield, error) {
	if state == nil {
		return nil, errors.InvalidArgument("battlefield state is required")
	}
	if err := validateConfig(&state.Config); err != nil {
		return nil, err
	}

	b, err := assemble(state.Config)
	if err != nil {
		return nil, err
	}

	for _, obstacle := range state.Obstacles {
		copied := *obstacle
		if err := b.grid.Check(copied.Position); err != nil {
			return nil, err
		}
		if err := b.obstacles.Add(&copied); err != nil {
			return nil, err
		}
	}

	for _, placement := range state.Units {
		if placement.Unit == nil {
			return nil, errors.InvalidArgument("unit placement missing unit")
		}
		copied := *placement.Unit
		if err := b.PlaceUnit(&copied, placement.Position); err != nil {
			return nil, err
		}
	}

	return b, nil
}

func validateConfig(cfg *entities.BattlefieldConfig) error {
	vb := errors.NewValidationBuilder()

	if cfg.GridSize < 2 {
		vb.InvalidField("GridSize", "must be at least 2")
	}
	if cfg.AttackRange < 0 {
		vb.InvalidField("AttackRange", "must not be negative")
	}
	for i, spec := range cfg.Obstacles {
		if !spec.Height.Valid() {
			vb.Fieldf(fmt.Sprintf("Obstacles[%d].Height", i), "unknown height class %q", spec.Height)
		}
		errors.ValidateRange(fmt.Sprintf("Obstacles[%d].Cover", i), spec.Cover, 0, 100, vb)
		if spec.Destructible && spec.Integrity <= 0 {
			vb.Field(fmt.Sprintf("Obstacles[%d].Integrity", i), "destructible obstacles need positive integrity")
		}
	}

	return vb.Build()
}

func assemble(cfg entities.BattlefieldConfig) (*Battlefield, error) {
	grid, err := NewGrid(cfg.GridSize, cfg.DiagonalMovement)
	if err != nil {
		return nil, err
	}

	obstacles := NewObstacles()
	sight := NewSightEngine(grid, obstacles)
	obstacles.SetChangeHook(sight.Invalidate)

	roster := NewRoster()
	occupancy := NewOccupancy(grid, obstacles)

	attackRange := cfg.AttackRange
	if attackRange == 0 {
		attackRange = 1
	}

	return &Battlefield{
		cfg:       cfg,
		grid:      grid,
		roster:    roster,
		obstacles: obstacles,
		occupancy: occupancy,
		sight:     sight,
		movement:  NewMovementRules(grid, roster, occupancy, obstacles),
		combat:    NewCombatRules(grid, roster, occupancy, sight, attackRange),
	}, nil
}

// Config returns the setup data the battlefield was built from
func (b *Battlefield) Config() entities.BattlefieldConfig {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cfg
}

// PlaceUnit registers a unit and puts it on a tile. On any failure the
// roster and occupancy are left untouched.
func (b *Battlefield) PlaceUnit(unit *entities.Unit, pos entities.Coordinate) error {
	if unit == nil {
		return errors.InvalidArgument("unit is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.roster.Add(unit); err != nil {
		return err
	}
	if err := b.occupancy.Place(unit.ID, pos); err != nil {
		b.roster.Remove(unit.ID)
		return err
	}
	return nil
}

// MoveUnit commits a relocation. Occupancy invariants are re-checked
// atomically here regardless of any earlier validation, so a stale
// preview can never corrupt the board.
func (b *Battlefield) MoveUnit(unitID string, to entities.Coordinate) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.occupancy.Move(unitID, to)
}

// RemoveUnit takes a unit off the board and out of the roster.
// Idempotent.
func (b *Battlefield) RemoveUnit(unitID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.occupancy.Remove(unitID)
	b.roster.Remove(unitID)
}

// Unit returns the unit with the given ID
func (b *Battlefield) Unit(unitID string) (*entities.Unit, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.roster.Get(unitID)
}

// Units returns every unit on the roster
func (b *Battlefield) Units() []*entities.Unit {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.roster.All()
}

// UnitAt returns the unit standing on the given tile, if any
func (b *Battlefield) UnitAt(pos entities.Coordinate) (*entities.Unit, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	id, ok := b.occupancy.UnitAt(pos)
	if !ok {
		return nil, false
	}
	unit, ok := b.roster.Get(id)
	if !ok {
		// Occupancy and roster disagree; a broken invariant, not a
		// legal game state.
		panic("tactical: occupancy references unit missing from roster: " + id)
	}
	return unit, true
}

// PositionOf returns the tile a unit stands on
func (b *Battlefield) PositionOf(unitID string) (entities.Coordinate, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.occupancy.PositionOf(unitID)
}

// Obstacles returns every obstacle still standing
func (b *Battlefield) Obstacles() []*entities.Obstacle {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.obstacles.All()
}

// ObstacleAt returns the obstacle on the given tile, if any
func (b *Battlefield) ObstacleAt(pos entities.Coordinate) (*entities.Obstacle, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.obstacles.At(pos)
}

// DamageObstacle applies damage to a destructible obstacle. When it
// collapses, the tile clears and cached sightlines through it are
// evicted before the write lock is released.
func (b *Battlefield) DamageObstacle(obstacleID string, amount int) (*engine.ObstacleDamageResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	obstacle, ok := b.obstacles.Get(obstacleID)
	if !ok {
		return nil, errors.NotFoundf("obstacle %s not found", obstacleID)
	}
	pos := obstacle.Position

	remaining, destroyed, err := b.obstacles.Damage(obstacleID, amount)
	if err != nil {
		return nil, err
	}

	return &engine.ObstacleDamageResult{
		ObstacleID:         obstacleID,
		RemainingIntegrity: remaining,
		Destroyed:          destroyed,
		Position:           pos,
	}, nil
}

// QueryLineOfSight computes visibility and cover between two tiles
func (b *Battlefield) QueryLineOfSight(a, c entities.Coordinate) (*engine.SightResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sight.Query(a, c)
}

// CoverAt returns the cover a defender enjoys against an attacker
func (b *Battlefield) CoverAt(defender, attacker entities.Coordinate) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sight.CoverAt(defender, attacker)
}

// ValidateMovement runs the movement rule pipeline without side
// effects
func (b *Battlefield) ValidateMovement(unitID string, target entities.Coordinate) (*engine.MovementDecision, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.movement.Validate(unitID, target)
}

// ValidateAttack runs the attack rule pipeline without side effects
func (b *Battlefield) ValidateAttack(attackerID, targetID string) (*engine.AttackDecision, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.combat.Validate(attackerID, targetID)
}

// ValidMoves lists the tiles a unit could step to right now
func (b *Battlefield) ValidMoves(unitID string) ([]entities.Coordinate, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.movement.ValidMoves(unitID)
}

// SpendAttack consumes one attack from a unit's per-turn allowance
func (b *Battlefield) SpendAttack(unitID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	unit, ok := b.roster.Get(unitID)
	if !ok {
		return errors.NotFoundf("unit %s not found", unitID)
	}
	if unit.AttacksLeft <= 0 {
		return errors.FailedPreconditionf("unit %s has no attacks remaining", unitID)
	}
	unit.AttacksLeft--
	return nil
}

// ApplyDamage reduces a unit's hit points. A unit dropping to zero
// dies and leaves its tile; the record stays on the roster for
// reporting.
func (b *Battlefield) ApplyDamage(unitID string, amount int) (*engine.DamageResult, error) {
	if amount < 0 {
		return nil, errors.InvalidArgumentf("damage amount must be non-negative, got %d", amount)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	unit, ok := b.roster.Get(unitID)
	if !ok {
		return nil, errors.NotFoundf("unit %s not found", unitID)
	}
	if !unit.Alive {
		return nil, errors.FailedPreconditionf("unit %s is already dead", unitID)
	}

	unit.CurrentHP -= amount
	if unit.CurrentHP > 0 {
		return &engine.DamageResult{UnitID: unitID, RemainingHP: unit.CurrentHP}, nil
	}

	unit.CurrentHP = 0
	unit.Alive = false
	b.occupancy.Remove(unitID)
	return &engine.DamageResult{UnitID: unitID, RemainingHP: 0, Died: true}, nil
}

// ResetTurn restores every living unit's attack allowance
func (b *Battlefield) ResetTurn() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, unit := range b.roster.All() {
		if unit.Alive {
			unit.AttacksLeft = unit.AttacksPerTurn
		}
	}
}

// ToData snapshots the battlefield for persistence. Units and
// obstacles are copied so later mutations cannot leak into a snapshot
// already handed to the repository.
func (b *Battlefield) ToData() *entities.BattlefieldState {
	b.mu.RLock()
	defer b.mu.RUnlock()

	state := &entities.BattlefieldState{Config: b.cfg}

	for _, obstacle := range b.obstacles.All() {
		copied := *obstacle
		state.Obstacles = append(state.Obstacles, &copied)
	}

	for _, unit := range b.roster.All() {
		copied := *unit
		placement := entities.UnitPlacement{Unit: &copied}
		if pos, ok := b.occupancy.PositionOf(unit.ID); ok {
			placement.Position = pos
		}
		state.Units = append(state.Units, placement)
	}

	return state
}
