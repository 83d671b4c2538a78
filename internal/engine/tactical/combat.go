package tactical

import (
	"github.com/KirkDiggler/tactics-api/internal/engine"
	"github.com/KirkDiggler/tactics-api/internal/errors"
)

// CombatRules decides whether an attacker may attack a target. The
// checks run in a fixed order and stop at the first failure:
//
//	1. attacker can attack and has attacks left this turn
//	2. target is a different unit on a different team
//	3. target can be attacked and is alive
//	4. target is within attack range
//	5. attacker has line of sight to the target
//
// Success carries the defender's cover percentage for the damage
// calculation downstream; the pipeline itself never touches health or
// attack counters.
type CombatRules struct {
	grid        *Grid
	roster      *Roster
	occupancy   *Occupancy
	sight       *SightEngine
	attackRange int
}

// NewCombatRules wires the attack pipeline over the battlefield
// components. attackRange is in tiles under the grid's movement
// metric; 1 means adjacency.
func NewCombatRules(grid *Grid, roster *Roster, occupancy *Occupancy, sight *SightEngine, attackRange int) *CombatRules {
	if attackRange < 1 {
		attackRange = 1
	}
	return &CombatRules{
		grid:        grid,
		roster:      roster,
		occupancy:   occupancy,
		sight:       sight,
		attackRange: attackRange,
	}
}

// Validate runs the attack pipeline. Unknown unit IDs are caller
// error, not a rule outcome.
func (c *CombatRules) Validate(attackerID, targetID string) (*engine.AttackDecision, error) {
	attacker, ok := c.roster.Get(attackerID)
	if !ok {
		return nil, errors.NotFoundf("attacker %s not found", attackerID)
	}
	target, ok := c.roster.Get(targetID)
	if !ok {
		return nil, errors.NotFoundf("target %s not found", targetID)
	}

	if !attacker.AttackCapable || !attacker.Alive || attacker.AttacksLeft <= 0 {
		return &engine.AttackDecision{Reason: engine.ReasonNoAttacksRemaining}, nil
	}

	// Covers both self-attack and friendly fire
	if attacker.ID == target.ID || attacker.Team == target.Team {
		return &engine.AttackDecision{Reason: engine.ReasonInvalidTeam}, nil
	}

	if !target.Attackable || !target.Alive {
		return &engine.AttackDecision{Reason: engine.ReasonInvalidTarget}, nil
	}

	attackerPos, ok := c.occupancy.PositionOf(attackerID)
	if !ok {
		return nil, errors.FailedPreconditionf("attacker %s is not on the battlefield", attackerID)
	}
	targetPos, ok := c.occupancy.PositionOf(targetID)
	if !ok {
		return nil, errors.FailedPreconditionf("target %s is not on the battlefield", targetID)
	}

	distance, err := c.grid.Distance(attackerPos, targetPos)
	if err != nil {
		return nil, err
	}
	if distance > c.attackRange {
		return &engine.AttackDecision{Reason: engine.ReasonOutOfRange}, nil
	}

	sightResult, err := c.sight.Query(attackerPos, targetPos)
	if err != nil {
		return nil, err
	}
	if !sightResult.Visible {
		return &engine.AttackDecision{Reason: engine.ReasonNoLineOfSight}, nil
	}

	return &engine.AttackDecision{Allowed: true, Cover: sightResult.Cover}, nil
}
