package tactical

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/tactics-api/internal/engine"
	"github.com/KirkDiggler/tactics-api/internal/entities"
	"github.com/KirkDiggler/tactics-api/internal/errors"
)

type CombatTestSuite struct {
	suite.Suite
	grid      *Grid
	roster    *Roster
	obstacles *Obstacles
	occupancy *Occupancy
	sight     *SightEngine
	rules     *CombatRules
}

func TestCombatSuite(t *testing.T) {
	suite.Run(t, new(CombatTestSuite))
}

func (s *CombatTestSuite) SetupTest() {
	s.setup(3)
}

func (s *CombatTestSuite) setup(attackRange int) {
	grid, err := NewGrid(5, false)
	s.Require().NoError(err)
	s.grid = grid
	s.roster = NewRoster()
	s.obstacles = NewObstacles()
	s.occupancy = NewOccupancy(grid, s.obstacles)
	s.sight = NewSightEngine(grid, s.obstacles)
	s.obstacles.SetChangeHook(s.sight.Invalidate)
	s.rules = NewCombatRules(grid, s.roster, s.occupancy, s.sight, attackRange)
}

func (s *CombatTestSuite) addUnit(id, team string, pos entities.Coordinate) *entities.Unit {
	unit := &entities.Unit{
		ID:             id,
		Team:           team,
		AttackCapable:  true,
		Attackable:     true,
		Alive:          true,
		AttacksPerTurn: 1,
		AttacksLeft:    1,
	}
	s.Require().NoError(s.roster.Add(unit))
	s.Require().NoError(s.occupancy.Place(id, pos))
	return unit
}

func (s *CombatTestSuite) TestValidAttack() {
	s.addUnit("unit_a", "red", entities.Coord(0, 2))
	s.addUnit("unit_b", "blue", entities.Coord(2, 2))

	decision, err := s.rules.Validate("unit_a", "unit_b")
	s.Require().NoError(err)
	s.True(decision.Allowed)
	s.Equal(0, decision.Cover)
	s.Empty(decision.Reason)
}

func (s *CombatTestSuite) TestAttackCarriesDefenderCover() {
	s.addUnit("unit_a", "red", entities.Coord(0, 2))
	s.addUnit("unit_b", "blue", entities.Coord(2, 2))
	s.Require().NoError(s.obstacles.Add(&entities.Obstacle{
		ID:       "obs_crate",
		Position: entities.Coord(1, 2),
		Height:   entities.HeightLow,
		Cover:    50,
	}))

	decision, err := s.rules.Validate("unit_a", "unit_b")
	s.Require().NoError(err)
	s.True(decision.Allowed)
	s.Equal(50, decision.Cover)
}

func (s *CombatTestSuite) TestBlockedSightline() {
	s.addUnit("unit_a", "red", entities.Coord(0, 2))
	s.addUnit("unit_b", "blue", entities.Coord(2, 2))
	s.Require().NoError(s.obstacles.Add(&entities.Obstacle{
		ID:       "obs_wall",
		Position: entities.Coord(1, 2),
		Height:   entities.HeightHigh,
	}))

	decision, err := s.rules.Validate("unit_a", "unit_b")
	s.Require().NoError(err)
	s.Equal(engine.ReasonNoLineOfSight, decision.Reason)
}

func (s *CombatTestSuite) TestOutOfRange() {
	s.setup(1)
	s.addUnit("unit_a", "red", entities.Coord(0, 2))
	s.addUnit("unit_b", "blue", entities.Coord(2, 2))

	decision, err := s.rules.Validate("unit_a", "unit_b")
	s.Require().NoError(err)
	s.Equal(engine.ReasonOutOfRange, decision.Reason)
}

func (s *CombatTestSuite) TestRangeCheckedBeforeSight() {
	s.setup(1)
	s.addUnit("unit_a", "red", entities.Coord(0, 2))
	s.addUnit("unit_b", "blue", entities.Coord(2, 2))
	s.Require().NoError(s.obstacles.Add(&entities.Obstacle{
		ID:       "obs_wall",
		Position: entities.Coord(1, 2),
		Height:   entities.HeightHigh,
	}))

	decision, err := s.rules.Validate("unit_a", "unit_b")
	s.Require().NoError(err)
	s.Equal(engine.ReasonOutOfRange, decision.Reason)
}

func (s *CombatTestSuite) TestFriendlyFire() {
	s.addUnit("unit_a", "red", entities.Coord(0, 2))
	s.addUnit("unit_b", "red", entities.Coord(2, 2))

	decision, err := s.rules.Validate("unit_a", "unit_b")
	s.Require().NoError(err)
	s.Equal(engine.ReasonInvalidTeam, decision.Reason)
}

func (s *CombatTestSuite) TestSelfAttack() {
	s.addUnit("unit_a", "red", entities.Coord(0, 2))

	decision, err := s.rules.Validate("unit_a", "unit_a")
	s.Require().NoError(err)
	s.Equal(engine.ReasonInvalidTeam, decision.Reason)
}

func (s *CombatTestSuite) TestUnattackableTarget() {
	s.addUnit("unit_a", "red", entities.Coord(0, 2))
	target := s.addUnit("unit_b", "blue", entities.Coord(2, 2))
	target.Attackable = false

	decision, err := s.rules.Validate("unit_a", "unit_b")
	s.Require().NoError(err)
	s.Equal(engine.ReasonInvalidTarget, decision.Reason)
}

func (s *CombatTestSuite) TestDeadTarget() {
	s.addUnit("unit_a", "red", entities.Coord(0, 2))
	target := s.addUnit("unit_b", "blue", entities.Coord(2, 2))
	target.Alive = false

	decision, err := s.rules.Validate("unit_a", "unit_b")
	s.Require().NoError(err)
	s.Equal(engine.ReasonInvalidTarget, decision.Reason)
}

func (s *CombatTestSuite) TestNoAttacksRemaining() {
	attacker := s.addUnit("unit_a", "red", entities.Coord(0, 2))
	s.addUnit("unit_b", "blue", entities.Coord(2, 2))
	attacker.AttacksLeft = 0

	decision, err := s.rules.Validate("unit_a", "unit_b")
	s.Require().NoError(err)
	s.Equal(engine.ReasonNoAttacksRemaining, decision.Reason)
}

func (s *CombatTestSuite) TestDeadAttacker() {
	attacker := s.addUnit("unit_a", "red", entities.Coord(0, 2))
	s.addUnit("unit_b", "blue", entities.Coord(2, 2))
	attacker.Alive = false

	decision, err := s.rules.Validate("unit_a", "unit_b")
	s.Require().NoError(err)
	s.Equal(engine.ReasonNoAttacksRemaining, decision.Reason)
}

func (s *CombatTestSuite) TestUnknownUnitsAreErrors() {
	s.addUnit("unit_a", "red", entities.Coord(0, 2))

	_, err := s.rules.Validate("unit_ghost", "unit_a")
	s.Error(err)
	s.True(errors.IsNotFound(err))

	_, err = s.rules.Validate("unit_a", "unit_ghost")
	s.Error(err)
	s.True(errors.IsNotFound(err))
}
