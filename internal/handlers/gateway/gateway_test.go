package gateway_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-toolkit/events"

	"github.com/KirkDiggler/tactics-api/internal/engine"
	"github.com/KirkDiggler/tactics-api/internal/engine/tactical"
	"github.com/KirkDiggler/tactics-api/internal/entities"
	"github.com/KirkDiggler/tactics-api/internal/errors"
	"github.com/KirkDiggler/tactics-api/internal/handlers/gateway"
	battle "github.com/KirkDiggler/tactics-api/internal/orchestrators/battle"
	"github.com/KirkDiggler/tactics-api/internal/pkg/clock"
	"github.com/KirkDiggler/tactics-api/internal/pkg/idgen"
	"github.com/KirkDiggler/tactics-api/internal/protocol"
	battlerepo "github.com/KirkDiggler/tactics-api/internal/repositories/battle"
	"github.com/KirkDiggler/tactics-api/internal/testutils"
	"github.com/KirkDiggler/tactics-api/internal/ws"
)

// fixedRoller always rolls the same value, keeping damage deterministic
type fixedRoller struct {
	value int
}

func (r *fixedRoller) Roll(_ int) (int, error) {
	return r.value, nil
}

func (r *fixedRoller) RollN(n, _ int) ([]int, error) {
	out := make([]int, n)
	for i := range out {
		out[i] = r.value
	}
	return out, nil
}

// rawPatch mirrors protocol.PatchEnvelope with the payload left raw so
// tests can decode it per patch type.
type rawPatch struct {
	Sequence  uint64          `json:"seq"`
	RequestID string          `json:"requestId"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

type GatewayTestSuite struct {
	suite.Suite

	ctx     context.Context
	gw      *gateway.Gateway
	server  *httptest.Server
	conn    *websocket.Conn
	cleanup func()
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewayTestSuite))
}

func (s *GatewayTestSuite) SetupTest() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	s.ctx = ctx

	redisClient, redisCleanup := testutils.CreateTestRedisClient(s.T())

	repo, err := battlerepo.NewRedisRepository(&battlerepo.Config{
		Client: redisClient,
		Clock:  clock.New(),
	})
	s.Require().NoError(err)

	factory, err := tactical.NewFactory(&tactical.FactoryConfig{
		IDGenerator: idgen.NewSequential("obs"),
	})
	s.Require().NoError(err)

	bus := events.NewBus()

	svc, err := battle.NewOrchestrator(&battle.Config{
		BattleRepo:    repo,
		EngineFactory: factory,
		EventBus:      bus,
		DiceRoller:    &fixedRoller{value: 4},
		IDGenerator:   idgen.NewSequential("battle"),
	})
	s.Require().NoError(err)

	gw, err := gateway.New(&gateway.Config{
		Service:  svc,
		EventBus: bus,
		Hub:      ws.NewHub(),
	})
	s.Require().NoError(err)
	s.gw = gw

	s.server = httptest.NewServer(gw)

	wsURL := "ws" + strings.TrimPrefix(s.server.URL, "http")
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	s.Require().NoError(err)
	s.conn = conn

	s.cleanup = func() {
		_ = conn.Close(websocket.StatusNormalClosure, "")
		s.server.Close()
		gw.Close()
		redisCleanup()
		cancel()
	}

	// every connection greets with a hello patch
	hello := s.readPatch()
	s.Require().Equal(protocol.PatchHello, hello.Type)
}

func (s *GatewayTestSuite) TearDownTest() {
	s.cleanup()
}

func (s *GatewayTestSuite) readPatch() *rawPatch {
	_, data, err := s.conn.Read(s.ctx)
	s.Require().NoError(err)

	var patch rawPatch
	s.Require().NoError(json.Unmarshal(data, &patch))
	return &patch
}

// readUntil reads patches until one of the wanted type arrives,
// returning it along with everything read before it.
func (s *GatewayTestSuite) readUntil(patchType string) (*rawPatch, []*rawPatch) {
	var seen []*rawPatch
	for i := 0; i < 10; i++ {
		patch := s.readPatch()
		if patch.Type == patchType {
			return patch, seen
		}
		seen = append(seen, patch)
	}
	s.Require().FailNowf("patch not received", "wanted type %s", patchType)
	return nil, nil
}

func (s *GatewayTestSuite) sendIntent(intentType, requestID string, payload any) {
	data, err := json.Marshal(payload)
	s.Require().NoError(err)

	env := protocol.IntentEnvelope{
		Type:      intentType,
		RequestID: requestID,
		Payload:   data,
	}
	msg, err := json.Marshal(env)
	s.Require().NoError(err)

	s.Require().NoError(s.conn.Write(s.ctx, websocket.MessageText, msg))
}

// createBattle sets up a 3x3 open board with two opposing units in the
// same row and returns the battle ID.
func (s *GatewayTestSuite) createBattle() string {
	s.sendIntent(protocol.IntentCreateBattle, "req-create", protocol.CreateBattle{
		Name: "skirmish",
		Config: entities.BattlefieldConfig{
			GridSize:    3,
			AttackRange: 2,
		},
		Units: []entities.UnitSpec{
			{
				ID: "unit_a", Team: "red", Position: entities.Coord(0, 1),
				Movable: true, AttackCapable: true, Attackable: true,
				MaxHP: 10, AttacksPerTurn: 1,
			},
			{
				ID: "unit_b", Team: "blue", Position: entities.Coord(2, 1),
				Movable: true, AttackCapable: true, Attackable: true,
				MaxHP: 10, AttacksPerTurn: 1,
			},
		},
	})

	patch, _ := s.readUntil(protocol.PatchBattleCreated)
	s.Require().Equal("req-create", patch.RequestID)

	var created protocol.BattleCreated
	s.Require().NoError(json.Unmarshal(patch.Payload, &created))
	s.Require().NotEmpty(created.Battle.ID)
	return created.Battle.ID
}

func (s *GatewayTestSuite) TestCreateAndGetBattle() {
	battleID := s.createBattle()

	s.sendIntent(protocol.IntentGetBattle, "req-get", protocol.GetBattle{BattleID: battleID})

	patch, _ := s.readUntil(protocol.PatchBattleState)
	s.Equal("req-get", patch.RequestID)

	var state protocol.BattleState
	s.Require().NoError(json.Unmarshal(patch.Payload, &state))
	s.Equal(battleID, state.Battle.ID)
	s.Equal("skirmish", state.Battle.Name)
	s.Len(state.Battle.State.Units, 2)
}

func (s *GatewayTestSuite) TestMoveBroadcastsBattleEvent() {
	battleID := s.createBattle()

	s.sendIntent(protocol.IntentRequestMove, "req-move", protocol.RequestMove{
		BattleID: battleID,
		UnitID:   "unit_a",
		To:       entities.Coord(0, 2),
	})

	patch, before := s.readUntil(protocol.PatchMoveResult)
	s.Equal("req-move", patch.RequestID)

	var result protocol.MoveResult
	s.Require().NoError(json.Unmarshal(patch.Payload, &result))
	s.True(result.Decision.Allowed)
	s.Equal(entities.Coord(0, 2), result.Position)

	// the committed move also went out as a broadcast event
	var event *protocol.BattleEvent
	for _, p := range before {
		if p.Type != protocol.PatchBattleEvent {
			continue
		}
		var payload protocol.BattleEvent
		s.Require().NoError(json.Unmarshal(p.Payload, &payload))
		event = &payload
	}
	if event == nil {
		p, _ := s.readUntil(protocol.PatchBattleEvent)
		var payload protocol.BattleEvent
		s.Require().NoError(json.Unmarshal(p.Payload, &payload))
		event = &payload
	}
	s.Equal(battle.TopicUnitMoved, event.Topic)
	s.Equal(battleID, event.BattleID)
}

func (s *GatewayTestSuite) TestRejectedMoveReturnsDecision() {
	battleID := s.createBattle()

	s.sendIntent(protocol.IntentRequestMove, "req-move", protocol.RequestMove{
		BattleID: battleID,
		UnitID:   "unit_a",
		To:       entities.Coord(2, 1),
	})

	patch, _ := s.readUntil(protocol.PatchMoveResult)

	var result protocol.MoveResult
	s.Require().NoError(json.Unmarshal(patch.Payload, &result))
	s.False(result.Decision.Allowed)
	s.Equal(engine.ReasonNotAdjacent, result.Decision.Reason)
}

func (s *GatewayTestSuite) TestAttackResolvesDamage() {
	battleID := s.createBattle()

	s.sendIntent(protocol.IntentRequestAttack, "req-attack", protocol.RequestAttack{
		BattleID:   battleID,
		AttackerID: "unit_a",
		TargetID:   "unit_b",
	})

	patch, _ := s.readUntil(protocol.PatchAttackResult)
	s.Equal("req-attack", patch.RequestID)

	var result protocol.AttackResult
	s.Require().NoError(json.Unmarshal(patch.Payload, &result))
	s.True(result.Decision.Allowed)
	s.Equal(4, result.Rolled)
	s.Equal(4, result.Applied)
	s.Equal(6, result.TargetHP)
	s.False(result.TargetDied)
}

func (s *GatewayTestSuite) TestQueryLineOfSight() {
	battleID := s.createBattle()

	s.sendIntent(protocol.IntentQueryLineOfSight, "req-los", protocol.QueryLineOfSight{
		BattleID: battleID,
		From:     entities.Coord(0, 1),
		To:       entities.Coord(2, 1),
	})

	patch, _ := s.readUntil(protocol.PatchSightResult)

	var result protocol.SightResult
	s.Require().NoError(json.Unmarshal(patch.Payload, &result))
	s.True(result.Result.Visible)
	s.Equal(0, result.Result.Cover)
}

func (s *GatewayTestSuite) TestEndTurnAdvancesTurn() {
	battleID := s.createBattle()

	s.sendIntent(protocol.IntentEndTurn, "req-turn", protocol.EndTurn{BattleID: battleID})

	patch, _ := s.readUntil(protocol.PatchTurnEnded)

	var result protocol.TurnEnded
	s.Require().NoError(json.Unmarshal(patch.Payload, &result))
	s.Equal(battleID, result.BattleID)
	s.Equal(2, result.Turn)
}

func (s *GatewayTestSuite) TestUnknownBattleReturnsErrorPatch() {
	s.sendIntent(protocol.IntentGetBattle, "req-missing", protocol.GetBattle{BattleID: "nope"})

	patch, _ := s.readUntil(protocol.PatchError)
	s.Equal("req-missing", patch.RequestID)

	var errPatch protocol.Error
	s.Require().NoError(json.Unmarshal(patch.Payload, &errPatch))
	s.Equal(errors.CodeNotFound.String(), errPatch.Code)
}

func (s *GatewayTestSuite) TestUnknownIntentReturnsErrorPatch() {
	s.sendIntent("teleport", "req-bad", struct{}{})

	patch, _ := s.readUntil(protocol.PatchError)
	s.Equal("req-bad", patch.RequestID)

	var errPatch protocol.Error
	s.Require().NoError(json.Unmarshal(patch.Payload, &errPatch))
	s.Equal(errors.CodeInvalidArgument.String(), errPatch.Code)
}

func (s *GatewayTestSuite) TestSequenceIncreases() {
	s.sendIntent(protocol.IntentListBattles, "req-1", protocol.ListBattles{})
	first, _ := s.readUntil(protocol.PatchBattleList)

	s.sendIntent(protocol.IntentListBattles, "req-2", protocol.ListBattles{})
	second, _ := s.readUntil(protocol.PatchBattleList)

	s.Greater(second.Sequence, first.Sequence)
}
