package protocol

import (
	"github.com/KirkDiggler/tactics-api/internal/engine"
	"github.com/KirkDiggler/tactics-api/internal/entities"
)

// PatchEnvelope wraps a server message. Sequence is monotonically
// increasing per gateway so clients can detect gaps; RequestID is set
// only on direct responses to an intent.
type PatchEnvelope struct {
	Sequence  uint64 `json:"seq"`
	RequestID string `json:"requestId,omitempty"`
	Type      string `json:"type"`
	Payload   any    `json:"payload,omitempty"`
}

// Patch types for direct responses
const (
	PatchHello          = "hello"
	PatchBattleCreated  = "battleCreated"
	PatchBattleState    = "battleState"
	PatchBattleList     = "battleList"
	PatchBattleEnded    = "battleEnded"
	PatchMoveResult     = "moveResult"
	PatchAttackResult   = "attackResult"
	PatchObstacleResult = "obstacleResult"
	PatchSightResult    = "sightResult"
	PatchValidMoves     = "validMoves"
	PatchTurnEnded      = "turnEnded"
	PatchError          = "error"
	PatchBattleEvent    = "battleEvent"
)

type Hello struct {
	ServerTime string `json:"serverTime"`
}

type BattleCreated struct {
	Battle *entities.Battle `json:"battle"`
}

type BattleState struct {
	Battle *entities.Battle `json:"battle"`
}

type BattleList struct {
	BattleIDs []string `json:"battleIds"`
}

type BattleEnded struct {
	BattleID string `json:"battleId"`
}

type MoveResult struct {
	BattleID string                   `json:"battleId"`
	UnitID   string                   `json:"unitId"`
	Decision *engine.MovementDecision `json:"decision"`
	Position entities.Coordinate      `json:"position"`
}

type AttackResult struct {
	BattleID   string                 `json:"battleId"`
	AttackerID string                 `json:"attackerId"`
	TargetID   string                 `json:"targetId"`
	Decision   *engine.AttackDecision `json:"decision"`
	Rolled     int                    `json:"rolled,omitempty"`
	Mitigated  int                    `json:"mitigated,omitempty"`
	Applied    int                    `json:"applied,omitempty"`
	TargetHP   int                    `json:"targetHp,omitempty"`
	TargetDied bool                   `json:"targetDied,omitempty"`
}

type ObstacleResult struct {
	BattleID string                       `json:"battleId"`
	Result   *engine.ObstacleDamageResult `json:"result"`
}

type SightResult struct {
	BattleID string              `json:"battleId"`
	From     entities.Coordinate `json:"from"`
	To       entities.Coordinate `json:"to"`
	Result   *engine.SightResult `json:"result"`
}

type ValidMoves struct {
	BattleID string                `json:"battleId"`
	UnitID   string                `json:"unitId"`
	Moves    []entities.Coordinate `json:"moves"`
}

type TurnEnded struct {
	BattleID string `json:"battleId"`
	Turn     int    `json:"turn"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BattleEvent is a broadcast notification derived from an engine bus
// event. Topic carries the bus topic; BattleID is set when the event
// named one.
type BattleEvent struct {
	Topic    string `json:"topic"`
	BattleID string `json:"battleId,omitempty"`
}
