package battle

import (
	"github.com/KirkDiggler/tactics-api/internal/engine"
	"github.com/KirkDiggler/tactics-api/internal/entities"
)

// CreateBattleInput defines the request for creating a battle
type CreateBattleInput struct {
	Name   string
	Config *entities.BattlefieldConfig
	Units  []entities.UnitSpec
}

// CreateBattleOutput defines the response for creating a battle
type CreateBattleOutput struct {
	Battle *entities.Battle
}

// GetBattleInput defines the request for fetching a battle
type GetBattleInput struct {
	BattleID string
}

// GetBattleOutput defines the response for fetching a battle
type GetBattleOutput struct {
	Battle *entities.Battle
}

// ListBattlesInput defines the request for listing battles
type ListBattlesInput struct{}

// ListBattlesOutput defines the response for listing battles
type ListBattlesOutput struct {
	BattleIDs []string
}

// EndBattleInput defines the request for ending a battle
type EndBattleInput struct {
	BattleID string
}

// EndBattleOutput defines the response for ending a battle
type EndBattleOutput struct{}

// MoveUnitInput defines the request for moving a unit
type MoveUnitInput struct {
	BattleID string
	UnitID   string
	To       entities.Coordinate
}

// MoveUnitOutput carries the rule decision and, when the move was
// committed, the unit's new position.
type MoveUnitOutput struct {
	Decision *engine.MovementDecision
	Position entities.Coordinate
}

// AttackInput defines the request for resolving an attack
type AttackInput struct {
	BattleID   string
	AttackerID string
	TargetID   string
}

// AttackOutput carries the rule decision and, when the attack went
// through, the resolved damage.
type AttackOutput struct {
	Decision *engine.AttackDecision
	Damage   *DamageReport
}

// DamageReport describes a resolved attack: the raw roll, the portion
// absorbed by cover, and what the target was left with.
type DamageReport struct {
	Rolled     int
	Mitigated  int
	Applied    int
	TargetHP   int
	TargetDied bool
}

// DamageObstacleInput defines the request for damaging an obstacle
type DamageObstacleInput struct {
	BattleID   string
	ObstacleID string
	Amount     int
}

// DamageObstacleOutput defines the response for damaging an obstacle
type DamageObstacleOutput struct {
	Result *engine.ObstacleDamageResult
}

// DestroyObstacleInput defines the request for destroying an obstacle
// outright
type DestroyObstacleInput struct {
	BattleID   string
	ObstacleID string
}

// DestroyObstacleOutput defines the response for destroying an obstacle
type DestroyObstacleOutput struct {
	Result *engine.ObstacleDamageResult
}

// QueryLineOfSightInput defines the request for a sightline query
type QueryLineOfSightInput struct {
	BattleID string
	From     entities.Coordinate
	To       entities.Coordinate
}

// QueryLineOfSightOutput defines the response for a sightline query
type QueryLineOfSightOutput struct {
	Result *engine.SightResult
}

// ListValidMovesInput defines the request for a movement preview
type ListValidMovesInput struct {
	BattleID string
	UnitID   string
}

// ListValidMovesOutput defines the response for a movement preview
type ListValidMovesOutput struct {
	Moves []entities.Coordinate
}

// EndTurnInput defines the request for ending the current turn
type EndTurnInput struct {
	BattleID string
}

// EndTurnOutput defines the response for ending the current turn
type EndTurnOutput struct {
	Turn int
}
