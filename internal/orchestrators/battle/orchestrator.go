// Package battle implements the battle orchestrator: session lifecycle,
// rule validation, attack resolution, and persistence of battlefield
// state.
package battle

//go:generate mockgen -destination=mock/mock_service.go -package=battlemock github.com/KirkDiggler/tactics-api/internal/orchestrators/battle Service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/KirkDiggler/rpg-toolkit/dice"
	"github.com/KirkDiggler/rpg-toolkit/events"

	"github.com/KirkDiggler/tactics-api/internal/engine"
	"github.com/KirkDiggler/tactics-api/internal/entities"
	"github.com/KirkDiggler/tactics-api/internal/errors"
	"github.com/KirkDiggler/tactics-api/internal/pkg/idgen"
	battlerepo "github.com/KirkDiggler/tactics-api/internal/repositories/battle"
)

// Damage die rolled for a landed attack
const attackDamageDie = 6

// Service defines the interface for battle operations
type Service interface {
	// CreateBattle builds a battlefield from setup config and stores it
	CreateBattle(ctx context.Context, input *CreateBattleInput) (*CreateBattleOutput, error)

	// GetBattle returns a battle with its current state
	GetBattle(ctx context.Context, input *GetBattleInput) (*GetBattleOutput, error)

	// ListBattles returns the IDs of all stored battles
	ListBattles(ctx context.Context, input *ListBattlesInput) (*ListBattlesOutput, error)

	// EndBattle deletes a battle
	EndBattle(ctx context.Context, input *EndBattleInput) (*EndBattleOutput, error)

	// MoveUnit validates and commits a unit step
	MoveUnit(ctx context.Context, input *MoveUnitInput) (*MoveUnitOutput, error)

	// Attack validates an attack and resolves its damage
	Attack(ctx context.Context, input *AttackInput) (*AttackOutput, error)

	// DamageObstacle applies damage to a destructible obstacle
	DamageObstacle(ctx context.Context, input *DamageObstacleInput) (*DamageObstacleOutput, error)

	// DestroyObstacle removes a destructible obstacle outright
	DestroyObstacle(ctx context.Context, input *DestroyObstacleInput) (*DestroyObstacleOutput, error)

	// QueryLineOfSight answers a sightline query between two tiles
	QueryLineOfSight(ctx context.Context, input *QueryLineOfSightInput) (*QueryLineOfSightOutput, error)

	// ListValidMoves previews the tiles a unit may step to
	ListValidMoves(ctx context.Context, input *ListValidMovesInput) (*ListValidMovesOutput, error)

	// EndTurn advances the turn counter and restores attack allowances
	EndTurn(ctx context.Context, input *EndTurnInput) (*EndTurnOutput, error)
}

// Config holds the dependencies for the battle orchestrator
type Config struct {
	BattleRepo    battlerepo.Repository
	EngineFactory engine.Factory
	EventBus      events.EventBus
	DiceRoller    dice.Roller
	IDGenerator   idgen.Generator
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.BattleRepo == nil {
		vb.RequiredField("BattleRepo")
	}
	if c.EngineFactory == nil {
		vb.RequiredField("EngineFactory")
	}
	if c.EventBus == nil {
		vb.RequiredField("EventBus")
	}
	if c.DiceRoller == nil {
		vb.RequiredField("DiceRoller")
	}
	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}

	return vb.Build()
}

// session pairs a battle record with its live battlefield
type session struct {
	battle *entities.Battle
	field  engine.Battlefield
}

type orchestrator struct {
	repo     battlerepo.Repository
	factory  engine.Factory
	eventBus events.EventBus
	roller   dice.Roller
	idGen    idgen.Generator

	// Live battlefields, rebuilt from the repository on demand
	mu       sync.Mutex
	sessions map[string]*session
}

// NewOrchestrator creates a new battle orchestrator with the provided dependencies
func NewOrchestrator(cfg *Config) (Service, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &orchestrator{
		repo:     cfg.BattleRepo,
		factory:  cfg.EngineFactory,
		eventBus: cfg.EventBus,
		roller:   cfg.DiceRoller,
		idGen:    cfg.IDGenerator,
		sessions: make(map[string]*session),
	}, nil
}

// CreateBattle builds a battlefield from setup config and stores it
func (o *orchestrator) CreateBattle(ctx context.Context, input *CreateBattleInput) (*CreateBattleOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.Config == nil {
		return nil, errors.InvalidArgument("battlefield config is required")
	}

	vb := errors.NewValidationBuilder()
	for i := range input.Units {
		errors.ValidateRequired(fmt.Sprintf("Units[%d].Team", i), input.Units[i].Team, vb)
	}
	if err := vb.Build(); err != nil {
		return nil, err
	}

	field, err := o.factory.New(input.Config)
	if err != nil {
		return nil, err
	}

	for i := range input.Units {
		spec := input.Units[i]
		unit := unitFromSpec(spec, o.idGen)
		if err := field.PlaceUnit(unit, spec.Position); err != nil {
			return nil, errors.Wrapf(err, "failed to place unit %s", unit.ID)
		}
	}

	battleID := o.idGen.Generate()
	record := &entities.Battle{
		ID:    battleID,
		Name:  input.Name,
		Turn:  1,
		State: field.ToData(),
	}

	created, err := o.repo.Create(ctx, battlerepo.CreateInput{Battle: record})
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.sessions[battleID] = &session{battle: created.Battle, field: field}
	o.mu.Unlock()

	slog.Info("Battle created",
		"battle_id", battleID,
		"grid_size", input.Config.GridSize,
		"unit_count", len(input.Units),
	)

	return &CreateBattleOutput{Battle: created.Battle}, nil
}

// GetBattle returns a battle with its current state
func (o *orchestrator) GetBattle(ctx context.Context, input *GetBattleInput) (*GetBattleOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	sess, err := o.loadSession(ctx, input.BattleID)
	if err != nil {
		return nil, err
	}

	battle := *sess.battle
	battle.State = sess.field.ToData()
	return &GetBattleOutput{Battle: &battle}, nil
}

// ListBattles returns the IDs of all stored battles
func (o *orchestrator) ListBattles(ctx context.Context, input *ListBattlesInput) (*ListBattlesOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	out, err := o.repo.List(ctx, battlerepo.ListInput{})
	if err != nil {
		return nil, err
	}
	return &ListBattlesOutput{BattleIDs: out.BattleIDs}, nil
}

// EndBattle deletes a battle
func (o *orchestrator) EndBattle(ctx context.Context, input *EndBattleInput) (*EndBattleOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	if _, err := o.repo.Delete(ctx, battlerepo.DeleteInput{BattleID: input.BattleID}); err != nil {
		return nil, err
	}

	o.mu.Lock()
	delete(o.sessions, input.BattleID)
	o.mu.Unlock()

	slog.Info("Battle ended", "battle_id", input.BattleID)
	return &EndBattleOutput{}, nil
}

// MoveUnit validates and commits a unit step. A rule rejection is a
// decision in the output, not an error.
func (o *orchestrator) MoveUnit(ctx context.Context, input *MoveUnitInput) (*MoveUnitOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	sess, err := o.loadSession(ctx, input.BattleID)
	if err != nil {
		return nil, err
	}

	decision, err := sess.field.ValidateMovement(input.UnitID, input.To)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return &MoveUnitOutput{Decision: decision}, nil
	}

	from, _ := sess.field.PositionOf(input.UnitID)
	if err := sess.field.MoveUnit(input.UnitID, input.To); err != nil {
		return nil, err
	}

	if err := o.persist(ctx, sess); err != nil {
		return nil, err
	}

	unit, _ := sess.field.Unit(input.UnitID)
	o.publish(ctx, newUnitMovedEvent(input.BattleID, unit, from, input.To))

	slog.Info("Unit moved",
		"battle_id", input.BattleID,
		"unit_id", input.UnitID,
		"from", from,
		"to", input.To,
	)

	return &MoveUnitOutput{Decision: decision, Position: input.To}, nil
}

// Attack validates an attack and resolves its damage. Cover mitigates
// the rolled damage proportionally; a rejected attack costs nothing.
func (o *orchestrator) Attack(ctx context.Context, input *AttackInput) (*AttackOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	sess, err := o.loadSession(ctx, input.BattleID)
	if err != nil {
		return nil, err
	}

	decision, err := sess.field.ValidateAttack(input.AttackerID, input.TargetID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return &AttackOutput{Decision: decision}, nil
	}

	if err := sess.field.SpendAttack(input.AttackerID); err != nil {
		return nil, err
	}

	rolled, err := o.roller.Roll(attackDamageDie)
	if err != nil {
		return nil, errors.Wrap(err, "damage roll failed")
	}

	mitigated := rolled * decision.Cover / 100
	applied := rolled - mitigated

	result, err := sess.field.ApplyDamage(input.TargetID, applied)
	if err != nil {
		return nil, err
	}

	report := &DamageReport{
		Rolled:     rolled,
		Mitigated:  mitigated,
		Applied:    applied,
		TargetHP:   result.RemainingHP,
		TargetDied: result.Died,
	}

	if err := o.persist(ctx, sess); err != nil {
		return nil, err
	}

	attacker, _ := sess.field.Unit(input.AttackerID)
	target, _ := sess.field.Unit(input.TargetID)
	o.publish(ctx, newAttackResolvedEvent(input.BattleID, attacker, target, report, decision.Cover))
	if result.Died {
		o.publish(ctx, newUnitDiedEvent(input.BattleID, target))
	}

	slog.Info("Attack resolved",
		"battle_id", input.BattleID,
		"attacker_id", input.AttackerID,
		"target_id", input.TargetID,
		"rolled", rolled,
		"cover", decision.Cover,
		"applied", applied,
		"target_died", result.Died,
	)

	return &AttackOutput{Decision: decision, Damage: report}, nil
}

// DamageObstacle applies damage to a destructible obstacle
func (o *orchestrator) DamageObstacle(ctx context.Context, input *DamageObstacleInput) (*DamageObstacleOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	sess, err := o.loadSession(ctx, input.BattleID)
	if err != nil {
		return nil, err
	}

	result, err := o.damageObstacle(ctx, sess, input.BattleID, input.ObstacleID, input.Amount)
	if err != nil {
		return nil, err
	}
	return &DamageObstacleOutput{Result: result}, nil
}

// DestroyObstacle removes a destructible obstacle outright by dealing
// its remaining integrity as damage
func (o *orchestrator) DestroyObstacle(ctx context.Context, input *DestroyObstacleInput) (*DestroyObstacleOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	sess, err := o.loadSession(ctx, input.BattleID)
	if err != nil {
		return nil, err
	}

	obstacle, ok := findObstacle(sess.field, input.ObstacleID)
	if !ok {
		return nil, errors.NotFoundf("obstacle %s not found", input.ObstacleID)
	}

	result, err := o.damageObstacle(ctx, sess, input.BattleID, input.ObstacleID, obstacle.Integrity)
	if err != nil {
		return nil, err
	}
	return &DestroyObstacleOutput{Result: result}, nil
}

func (o *orchestrator) damageObstacle(
	ctx context.Context, sess *session, battleID, obstacleID string, amount int,
) (*engine.ObstacleDamageResult, error) {
	obstacle, ok := findObstacle(sess.field, obstacleID)
	if !ok {
		return nil, errors.NotFoundf("obstacle %s not found", obstacleID)
	}

	result, err := sess.field.DamageObstacle(obstacleID, amount)
	if err != nil {
		return nil, err
	}

	if err := o.persist(ctx, sess); err != nil {
		return nil, err
	}

	o.publish(ctx, newObstacleDamagedEvent(battleID, obstacle, result))

	slog.Info("Obstacle damaged",
		"battle_id", battleID,
		"obstacle_id", obstacleID,
		"amount", amount,
		"remaining", result.RemainingIntegrity,
		"destroyed", result.Destroyed,
	)

	return result, nil
}

// QueryLineOfSight answers a sightline query between two tiles
func (o *orchestrator) QueryLineOfSight(ctx context.Context, input *QueryLineOfSightInput) (*QueryLineOfSightOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	sess, err := o.loadSession(ctx, input.BattleID)
	if err != nil {
		return nil, err
	}

	result, err := sess.field.QueryLineOfSight(input.From, input.To)
	if err != nil {
		return nil, err
	}
	return &QueryLineOfSightOutput{Result: result}, nil
}

// ListValidMoves previews the tiles a unit may step to
func (o *orchestrator) ListValidMoves(ctx context.Context, input *ListValidMovesInput) (*ListValidMovesOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	sess, err := o.loadSession(ctx, input.BattleID)
	if err != nil {
		return nil, err
	}

	moves, err := sess.field.ValidMoves(input.UnitID)
	if err != nil {
		return nil, err
	}
	return &ListValidMovesOutput{Moves: moves}, nil
}

// EndTurn advances the turn counter and restores attack allowances
func (o *orchestrator) EndTurn(ctx context.Context, input *EndTurnInput) (*EndTurnOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	sess, err := o.loadSession(ctx, input.BattleID)
	if err != nil {
		return nil, err
	}

	sess.field.ResetTurn()
	sess.battle.Turn++

	if err := o.persist(ctx, sess); err != nil {
		return nil, err
	}

	o.publish(ctx, newTurnEndedEvent(input.BattleID, sess.battle.Turn))

	slog.Info("Turn ended", "battle_id", input.BattleID, "turn", sess.battle.Turn)
	return &EndTurnOutput{Turn: sess.battle.Turn}, nil
}

// loadSession returns the live battlefield for a battle, rebuilding it
// from the repository on first access.
func (o *orchestrator) loadSession(ctx context.Context, battleID string) (*session, error) {
	if battleID == "" {
		return nil, errors.InvalidArgument("battle ID is required")
	}

	o.mu.Lock()
	sess, ok := o.sessions[battleID]
	o.mu.Unlock()
	if ok {
		return sess, nil
	}

	out, err := o.repo.Get(ctx, battlerepo.GetInput{BattleID: battleID})
	if err != nil {
		return nil, err
	}
	if out.Battle.State == nil {
		return nil, errors.Internalf("battle %s has no stored state", battleID)
	}

	field, err := o.factory.Rebuild(out.Battle.State)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to rebuild battlefield for battle %s", battleID)
	}

	sess = &session{battle: out.Battle, field: field}

	o.mu.Lock()
	// Another request may have rebuilt it concurrently; keep the first.
	if existing, ok := o.sessions[battleID]; ok {
		sess = existing
	} else {
		o.sessions[battleID] = sess
	}
	o.mu.Unlock()

	return sess, nil
}

// persist snapshots the battlefield into the battle record and updates
// the repository
func (o *orchestrator) persist(ctx context.Context, sess *session) error {
	sess.battle.State = sess.field.ToData()
	out, err := o.repo.Update(ctx, battlerepo.UpdateInput{Battle: sess.battle})
	if err != nil {
		return errors.Wrap(err, "failed to persist battle")
	}
	sess.battle = out.Battle
	return nil
}

// publish sends a bus event; delivery failure is logged, never fatal
func (o *orchestrator) publish(ctx context.Context, event events.Event) {
	if err := o.eventBus.Publish(ctx, event); err != nil {
		slog.Warn("Failed to publish event", "type", event.Type(), "error", err)
	}
}

func findObstacle(field engine.Battlefield, obstacleID string) (*entities.Obstacle, bool) {
	for _, obstacle := range field.Obstacles() {
		if obstacle.ID == obstacleID {
			return obstacle, true
		}
	}
	return nil, false
}

func unitFromSpec(spec entities.UnitSpec, idGen idgen.Generator) *entities.Unit {
	id := spec.ID
	if id == "" {
		id = idGen.Generate()
	}
	return &entities.Unit{
		ID:             id,
		Name:           spec.Name,
		Team:           spec.Team,
		Movable:        spec.Movable,
		AttackCapable:  spec.AttackCapable,
		Attackable:     spec.Attackable,
		Alive:          true,
		MaxHP:          spec.MaxHP,
		CurrentHP:      spec.MaxHP,
		AttacksPerTurn: spec.AttacksPerTurn,
		AttacksLeft:    spec.AttacksPerTurn,
	}
}
