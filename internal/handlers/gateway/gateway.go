// Package gateway exposes the battle service over a websocket intent
// and patch protocol. Clients send IntentEnvelopes; the gateway answers
// each with a correlated patch and broadcasts engine events to every
// connected client.
package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/KirkDiggler/rpg-toolkit/events"
	"github.com/coder/websocket"

	"github.com/KirkDiggler/tactics-api/internal/errors"
	"github.com/KirkDiggler/tactics-api/internal/orchestrators/battle"
	"github.com/KirkDiggler/tactics-api/internal/pkg/clock"
	"github.com/KirkDiggler/tactics-api/internal/protocol"
	"github.com/KirkDiggler/tactics-api/internal/ws"
)

const writeTimeout = 3 * time.Second

// busSubscriberPriority orders gateway handlers after any game-logic
// subscribers on the same topics.
const busSubscriberPriority = 100

// Config holds the dependencies for the gateway
type Config struct {
	Service  battle.Service
	EventBus events.EventBus
	Hub      *ws.Hub
	Clock    clock.Clock
}

// Validate ensures the config has the required dependencies
func (c *Config) Validate() error {
	if c == nil {
		return errors.InvalidArgument("config is required")
	}

	vb := errors.NewValidationBuilder()

	if c.Service == nil {
		vb.RequiredField("Service")
	}
	if c.EventBus == nil {
		vb.RequiredField("EventBus")
	}
	if c.Hub == nil {
		vb.RequiredField("Hub")
	}

	return vb.Build()
}

// Gateway is the websocket handler. It implements http.Handler and
// keeps a monotonic patch sequence shared across all connections.
type Gateway struct {
	service  battle.Service
	bus      events.EventBus
	hub      *ws.Hub
	clock    clock.Clock
	sequence uint64
	subs     []string
}

// New creates a gateway and subscribes it to the battle event topics
func New(cfg *Config) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}

	g := &Gateway{
		service: cfg.Service,
		bus:     cfg.EventBus,
		hub:     cfg.Hub,
		clock:   clk,
	}
	g.subscribe()

	return g, nil
}

func (g *Gateway) subscribe() {
	topics := []string{
		battle.TopicUnitMoved,
		battle.TopicAttackResolved,
		battle.TopicUnitDied,
		battle.TopicObstacleDamaged,
		battle.TopicObstacleDestroyed,
		battle.TopicTurnEnded,
	}
	for _, topic := range topics {
		id := g.bus.SubscribeFunc(topic, busSubscriberPriority, func(_ context.Context, e events.Event) error {
			g.broadcastEvent(e)
			return nil
		})
		g.subs = append(g.subs, id)
	}
}

// Close drops the gateway's event bus subscriptions
func (g *Gateway) Close() {
	for _, id := range g.subs {
		if err := g.bus.Unsubscribe(id); err != nil {
			slog.Warn("failed to unsubscribe gateway handler", "subscription_id", id, "error", err)
		}
	}
	g.subs = nil
}

func (g *Gateway) broadcastEvent(e events.Event) {
	payload := protocol.BattleEvent{Topic: e.Type()}
	if v, ok := e.Context().Get(battle.ContextBattleID); ok {
		if id, isString := v.(string); isString {
			payload.BattleID = id
		}
	}

	env := protocol.PatchEnvelope{
		Sequence: atomic.AddUint64(&g.sequence, 1),
		Type:     protocol.PatchBattleEvent,
		Payload:  payload,
	}
	data, err := json.Marshal(env)
	if err != nil {
		slog.Error("failed to marshal battle event patch", "topic", e.Type(), "error", err)
		return
	}
	g.hub.Broadcast(data)
}

// ServeHTTP upgrades the request to a websocket and runs the intent
// loop until the client disconnects.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		slog.Warn("websocket accept failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	g.hub.Add(conn)
	defer func() {
		g.hub.Remove(conn)
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := r.Context()
	g.send(ctx, conn, "", protocol.PatchHello, protocol.Hello{
		ServerTime: g.clock.Now().UTC().Format(time.RFC3339),
	})

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		var env protocol.IntentEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			g.sendError(ctx, conn, "", errors.InvalidArgument("malformed intent envelope"))
			continue
		}

		g.dispatch(ctx, conn, &env)
	}
}

func (g *Gateway) dispatch(ctx context.Context, conn *websocket.Conn, env *protocol.IntentEnvelope) {
	switch env.Type {
	case protocol.IntentCreateBattle:
		var req protocol.CreateBattle
		if !g.decode(ctx, conn, env, &req) {
			return
		}
		out, err := g.service.CreateBattle(ctx, &battle.CreateBattleInput{
			Name:   req.Name,
			Config: &req.Config,
			Units:  req.Units,
		})
		if err != nil {
			g.sendError(ctx, conn, env.RequestID, err)
			return
		}
		g.send(ctx, conn, env.RequestID, protocol.PatchBattleCreated, protocol.BattleCreated{Battle: out.Battle})

	case protocol.IntentGetBattle:
		var req protocol.GetBattle
		if !g.decode(ctx, conn, env, &req) {
			return
		}
		out, err := g.service.GetBattle(ctx, &battle.GetBattleInput{BattleID: req.BattleID})
		if err != nil {
			g.sendError(ctx, conn, env.RequestID, err)
			return
		}
		g.send(ctx, conn, env.RequestID, protocol.PatchBattleState, protocol.BattleState{Battle: out.Battle})

	case protocol.IntentListBattles:
		out, err := g.service.ListBattles(ctx, &battle.ListBattlesInput{})
		if err != nil {
			g.sendError(ctx, conn, env.RequestID, err)
			return
		}
		g.send(ctx, conn, env.RequestID, protocol.PatchBattleList, protocol.BattleList{BattleIDs: out.BattleIDs})

	case protocol.IntentEndBattle:
		var req protocol.EndBattle
		if !g.decode(ctx, conn, env, &req) {
			return
		}
		if _, err := g.service.EndBattle(ctx, &battle.EndBattleInput{BattleID: req.BattleID}); err != nil {
			g.sendError(ctx, conn, env.RequestID, err)
			return
		}
		g.send(ctx, conn, env.RequestID, protocol.PatchBattleEnded, protocol.BattleEnded{BattleID: req.BattleID})

	case protocol.IntentRequestMove:
		var req protocol.RequestMove
		if !g.decode(ctx, conn, env, &req) {
			return
		}
		out, err := g.service.MoveUnit(ctx, &battle.MoveUnitInput{
			BattleID: req.BattleID,
			UnitID:   req.UnitID,
			To:       req.To,
		})
		if err != nil {
			g.sendError(ctx, conn, env.RequestID, err)
			return
		}
		g.send(ctx, conn, env.RequestID, protocol.PatchMoveResult, protocol.MoveResult{
			BattleID: req.BattleID,
			UnitID:   req.UnitID,
			Decision: out.Decision,
			Position: out.Position,
		})

	case protocol.IntentRequestAttack:
		var req protocol.RequestAttack
		if !g.decode(ctx, conn, env, &req) {
			return
		}
		out, err := g.service.Attack(ctx, &battle.AttackInput{
			BattleID:   req.BattleID,
			AttackerID: req.AttackerID,
			TargetID:   req.TargetID,
		})
		if err != nil {
			g.sendError(ctx, conn, env.RequestID, err)
			return
		}
		result := protocol.AttackResult{
			BattleID:   req.BattleID,
			AttackerID: req.AttackerID,
			TargetID:   req.TargetID,
			Decision:   out.Decision,
		}
		if out.Damage != nil {
			result.Rolled = out.Damage.Rolled
			result.Mitigated = out.Damage.Mitigated
			result.Applied = out.Damage.Applied
			result.TargetHP = out.Damage.TargetHP
			result.TargetDied = out.Damage.TargetDied
		}
		g.send(ctx, conn, env.RequestID, protocol.PatchAttackResult, result)

	case protocol.IntentDamageObstacle:
		var req protocol.DamageObstacle
		if !g.decode(ctx, conn, env, &req) {
			return
		}
		out, err := g.service.DamageObstacle(ctx, &battle.DamageObstacleInput{
			BattleID:   req.BattleID,
			ObstacleID: req.ObstacleID,
			Amount:     req.Amount,
		})
		if err != nil {
			g.sendError(ctx, conn, env.RequestID, err)
			return
		}
		g.send(ctx, conn, env.RequestID, protocol.PatchObstacleResult, protocol.ObstacleResult{
			BattleID: req.BattleID,
			Result:   out.Result,
		})

	case protocol.IntentDestroyObstacle:
		var req protocol.DestroyObstacle
		if !g.decode(ctx, conn, env, &req) {
			return
		}
		out, err := g.service.DestroyObstacle(ctx, &battle.DestroyObstacleInput{
			BattleID:   req.BattleID,
			ObstacleID: req.ObstacleID,
		})
		if err != nil {
			g.sendError(ctx, conn, env.RequestID, err)
			return
		}
		g.send(ctx, conn, env.RequestID, protocol.PatchObstacleResult, protocol.ObstacleResult{
			BattleID: req.BattleID,
			Result:   out.Result,
		})

	case protocol.IntentQueryLineOfSight:
		var req protocol.QueryLineOfSight
		if !g.decode(ctx, conn, env, &req) {
			return
		}
		out, err := g.service.QueryLineOfSight(ctx, &battle.QueryLineOfSightInput{
			BattleID: req.BattleID,
			From:     req.From,
			To:       req.To,
		})
		if err != nil {
			g.sendError(ctx, conn, env.RequestID, err)
			return
		}
		g.send(ctx, conn, env.RequestID, protocol.PatchSightResult, protocol.SightResult{
			BattleID: req.BattleID,
			From:     req.From,
			To:       req.To,
			Result:   out.Result,
		})

	case protocol.IntentListValidMoves:
		var req protocol.ListValidMoves
		if !g.decode(ctx, conn, env, &req) {
			return
		}
		out, err := g.service.ListValidMoves(ctx, &battle.ListValidMovesInput{
			BattleID: req.BattleID,
			UnitID:   req.UnitID,
		})
		if err != nil {
			g.sendError(ctx, conn, env.RequestID, err)
			return
		}
		g.send(ctx, conn, env.RequestID, protocol.PatchValidMoves, protocol.ValidMoves{
			BattleID: req.BattleID,
			UnitID:   req.UnitID,
			Moves:    out.Moves,
		})

	case protocol.IntentEndTurn:
		var req protocol.EndTurn
		if !g.decode(ctx, conn, env, &req) {
			return
		}
		out, err := g.service.EndTurn(ctx, &battle.EndTurnInput{BattleID: req.BattleID})
		if err != nil {
			g.sendError(ctx, conn, env.RequestID, err)
			return
		}
		g.send(ctx, conn, env.RequestID, protocol.PatchTurnEnded, protocol.TurnEnded{
			BattleID: req.BattleID,
			Turn:     out.Turn,
		})

	default:
		g.sendError(ctx, conn, env.RequestID, errors.InvalidArgumentf("unknown intent type: %s", env.Type))
	}
}

// decode unmarshals the intent payload, answering with an error patch
// on malformed input. Returns false when dispatch should stop.
func (g *Gateway) decode(ctx context.Context, conn *websocket.Conn, env *protocol.IntentEnvelope, out any) bool {
	if err := json.Unmarshal(env.Payload, out); err != nil {
		g.sendError(ctx, conn, env.RequestID, errors.InvalidArgumentf("malformed %s payload", env.Type))
		return false
	}
	return true
}

func (g *Gateway) sendError(ctx context.Context, conn *websocket.Conn, requestID string, err error) {
	g.send(ctx, conn, requestID, protocol.PatchError, protocol.Error{
		Code:    errors.GetCode(err).String(),
		Message: errors.GetMessage(err),
	})
}

func (g *Gateway) send(ctx context.Context, conn *websocket.Conn, requestID, patchType string, payload any) {
	env := protocol.PatchEnvelope{
		Sequence:  atomic.AddUint64(&g.sequence, 1),
		RequestID: requestID,
		Type:      patchType,
		Payload:   payload,
	}
	data, err := json.Marshal(env)
	if err != nil {
		slog.Error("failed to marshal patch", "type", patchType, "error", err)
		return
	}

	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := conn.Write(wctx, websocket.MessageText, data); err != nil {
		slog.Warn("failed to write patch", "type", patchType, "error", err)
	}
}
