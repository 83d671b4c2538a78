// Package protocol defines the websocket wire format: intents sent by
// clients and patches sent by the server.
package protocol

import (
	"encoding/json"

	"github.com/KirkDiggler/tactics-api/internal/entities"
)

// IntentEnvelope wraps a client request. RequestID is echoed back on
// the matching response patch so clients can correlate them.
type IntentEnvelope struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// Intent types
const (
	IntentCreateBattle     = "createBattle"
	IntentGetBattle        = "getBattle"
	IntentListBattles      = "listBattles"
	IntentEndBattle        = "endBattle"
	IntentRequestMove      = "requestMove"
	IntentRequestAttack    = "requestAttack"
	IntentDamageObstacle   = "damageObstacle"
	IntentDestroyObstacle  = "destroyObstacle"
	IntentQueryLineOfSight = "queryLineOfSight"
	IntentListValidMoves   = "listValidMoves"
	IntentEndTurn          = "endTurn"
)

type CreateBattle struct {
	Name   string                     `json:"name,omitempty"`
	Config entities.BattlefieldConfig `json:"config"`
	Units  []entities.UnitSpec        `json:"units,omitempty"`
}

type GetBattle struct {
	BattleID string `json:"battleId"`
}

type ListBattles struct{}

type EndBattle struct {
	BattleID string `json:"battleId"`
}

type RequestMove struct {
	BattleID string              `json:"battleId"`
	UnitID   string              `json:"unitId"`
	To       entities.Coordinate `json:"to"`
}

type RequestAttack struct {
	BattleID   string `json:"battleId"`
	AttackerID string `json:"attackerId"`
	TargetID   string `json:"targetId"`
}

type DamageObstacle struct {
	BattleID   string `json:"battleId"`
	ObstacleID string `json:"obstacleId"`
	Amount     int    `json:"amount"`
}

type DestroyObstacle struct {
	BattleID   string `json:"battleId"`
	ObstacleID string `json:"obstacleId"`
}

type QueryLineOfSight struct {
	BattleID string              `json:"battleId"`
	From     entities.Coordinate `json:"from"`
	To       entities.Coordinate `json:"to"`
}

type ListValidMoves struct {
	BattleID string `json:"battleId"`
	UnitID   string `json:"unitId"`
}

type EndTurn struct {
	BattleID string `json:"battleId"`
}
