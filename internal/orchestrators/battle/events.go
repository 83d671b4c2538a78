package battle

import (
	"github.com/KirkDiggler/rpg-toolkit/events"

	"github.com/KirkDiggler/tactics-api/internal/engine"
	"github.com/KirkDiggler/tactics-api/internal/entities"
)

// Bus topics published by the battle orchestrator. Gateway subscribers
// turn these into client patches.
const (
	TopicUnitMoved         = "tactics.unit.moved"
	TopicAttackResolved    = "tactics.attack.resolved"
	TopicUnitDied          = "tactics.unit.died"
	TopicObstacleDamaged   = "tactics.obstacle.damaged"
	TopicObstacleDestroyed = "tactics.obstacle.destroyed"
	TopicTurnEnded         = "tactics.turn.ended"
)

// ContextBattleID keys the battle ID in event contexts. Exported so
// bus subscribers outside this package can read it back.
const ContextBattleID = "battle_id"

// Event context keys
const (
	ctxFrom      = "from"
	ctxTo        = "to"
	ctxDamage    = "damage"
	ctxCover     = "cover"
	ctxRemaining = "remaining"
	ctxPosition  = "position"
	ctxTurn      = "turn"
)

func newUnitMovedEvent(battleID string, unit *entities.Unit, from, to entities.Coordinate) events.Event {
	e := events.NewGameEvent(TopicUnitMoved, unit, nil)
	e.Context().Set(ContextBattleID, battleID)
	e.Context().Set(ctxFrom, from.String())
	e.Context().Set(ctxTo, to.String())
	return e
}

func newAttackResolvedEvent(
	battleID string, attacker, target *entities.Unit, report *DamageReport, cover int,
) events.Event {
	e := events.NewGameEvent(TopicAttackResolved, attacker, target)
	e.Context().Set(ContextBattleID, battleID)
	e.Context().Set(ctxDamage, report.Applied)
	e.Context().Set(ctxCover, cover)
	return e
}

func newUnitDiedEvent(battleID string, unit *entities.Unit) events.Event {
	e := events.NewGameEvent(TopicUnitDied, unit, nil)
	e.Context().Set(ContextBattleID, battleID)
	return e
}

func newObstacleDamagedEvent(battleID string, obstacle *entities.Obstacle, result *engine.ObstacleDamageResult) events.Event {
	topic := TopicObstacleDamaged
	if result.Destroyed {
		topic = TopicObstacleDestroyed
	}
	e := events.NewGameEvent(topic, obstacle, nil)
	e.Context().Set(ContextBattleID, battleID)
	e.Context().Set(ctxRemaining, result.RemainingIntegrity)
	e.Context().Set(ctxPosition, result.Position.String())
	return e
}

func newTurnEndedEvent(battleID string, turn int) events.Event {
	e := events.NewGameEvent(TopicTurnEnded, nil, nil)
	e.Context().Set(ContextBattleID, battleID)
	e.Context().Set(ctxTurn, turn)
	return e
}
