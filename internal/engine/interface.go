// Package engine defines the tactical rules interface the rest of the
// service programs against. The concrete implementation lives in the
// tactical subpackage.
package engine

//go:generate mockgen -destination=mock/mock_engine.go -package=enginemock github.com/KirkDiggler/tactics-api/internal/engine Battlefield,Factory

import (
	"github.com/KirkDiggler/tactics-api/internal/entities"
)

// Battlefield is a single live battle grid: occupancy, obstacles,
// sightlines, and the movement/attack rule pipelines over them.
//
// Validate* calls are pure queries and never mutate state, so callers
// may run them speculatively for UI previews. Committing a move or an
// attack outcome is a separate call.
type Battlefield interface {
	// Config returns the setup data the battlefield was built from
	Config() entities.BattlefieldConfig

	// Unit placement and occupancy
	PlaceUnit(unit *entities.Unit, pos entities.Coordinate) error
	MoveUnit(unitID string, to entities.Coordinate) error
	RemoveUnit(unitID string)
	Unit(unitID string) (*entities.Unit, bool)
	Units() []*entities.Unit
	UnitAt(pos entities.Coordinate) (*entities.Unit, bool)
	PositionOf(unitID string) (entities.Coordinate, bool)

	// Obstacles
	Obstacles() []*entities.Obstacle
	ObstacleAt(pos entities.Coordinate) (*entities.Obstacle, bool)
	DamageObstacle(obstacleID string, amount int) (*ObstacleDamageResult, error)

	// Sight and cover
	QueryLineOfSight(a, b entities.Coordinate) (*SightResult, error)
	CoverAt(defender, attacker entities.Coordinate) (int, error)

	// Rule pipelines
	ValidateMovement(unitID string, target entities.Coordinate) (*MovementDecision, error)
	ValidateAttack(attackerID, targetID string) (*AttackDecision, error)
	ValidMoves(unitID string) ([]entities.Coordinate, error)

	// Combat bookkeeping consumed by the orchestrator's attack flow
	SpendAttack(unitID string) error
	ApplyDamage(unitID string, amount int) (*DamageResult, error)
	ResetTurn()

	// ToData snapshots the battlefield for persistence
	ToData() *entities.BattlefieldState
}

// Factory builds battlefields from setup config or persisted state
type Factory interface {
	New(cfg *entities.BattlefieldConfig) (Battlefield, error)
	Rebuild(state *entities.BattlefieldState) (Battlefield, error)
}
