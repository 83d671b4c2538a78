package tactical

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/tactics-api/internal/entities"
	"github.com/KirkDiggler/tactics-api/internal/errors"
)

type OccupancyTestSuite struct {
	suite.Suite
	grid      *Grid
	obstacles *Obstacles
	occupancy *Occupancy
}

func TestOccupancySuite(t *testing.T) {
	suite.Run(t, new(OccupancyTestSuite))
}

func (s *OccupancyTestSuite) SetupTest() {
	grid, err := NewGrid(4, false)
	s.Require().NoError(err)
	s.grid = grid
	s.obstacles = NewObstacles()
	s.occupancy = NewOccupancy(grid, s.obstacles)
}

func (s *OccupancyTestSuite) TestPlaceAndLookup() {
	s.Require().NoError(s.occupancy.Place("unit_1", entities.Coord(1, 2)))

	pos, ok := s.occupancy.PositionOf("unit_1")
	s.True(ok)
	s.Equal(entities.Coord(1, 2), pos)

	id, ok := s.occupancy.UnitAt(entities.Coord(1, 2))
	s.True(ok)
	s.Equal("unit_1", id)
}

func (s *OccupancyTestSuite) TestPlaceRejectsDoublePlacement() {
	s.Require().NoError(s.occupancy.Place("unit_1", entities.Coord(1, 2)))

	err := s.occupancy.Place("unit_1", entities.Coord(2, 2))
	s.Error(err)
	s.True(errors.IsAlreadyExists(err))
}

func (s *OccupancyTestSuite) TestPlaceRejectsOccupiedTile() {
	s.Require().NoError(s.occupancy.Place("unit_1", entities.Coord(1, 2)))

	err := s.occupancy.Place("unit_2", entities.Coord(1, 2))
	s.Error(err)
	s.True(errors.IsFailedPrecondition(err))
}

func (s *OccupancyTestSuite) TestPlaceRejectsBlockedTile() {
	s.Require().NoError(s.obstacles.Add(&entities.Obstacle{
		ID:       "obs_1",
		Position: entities.Coord(1, 1),
		Height:   entities.HeightHigh,
	}))

	err := s.occupancy.Place("unit_1", entities.Coord(1, 1))
	s.Error(err)
	s.True(errors.IsFailedPrecondition(err))
}

func (s *OccupancyTestSuite) TestPlaceAllowsLowObstacleTile() {
	s.Require().NoError(s.obstacles.Add(&entities.Obstacle{
		ID:       "obs_1",
		Position: entities.Coord(1, 1),
		Height:   entities.HeightLow,
		Cover:    30,
	}))

	s.NoError(s.occupancy.Place("unit_1", entities.Coord(1, 1)))
}

func (s *OccupancyTestSuite) TestPlaceRejectsOutOfBounds() {
	err := s.occupancy.Place("unit_1", entities.Coord(4, 0))
	s.Error(err)
	s.True(errors.IsOutOfRange(err))
}

func (s *OccupancyTestSuite) TestMoveUpdatesBothTiles() {
	s.Require().NoError(s.occupancy.Place("unit_1", entities.Coord(1, 1)))
	s.Require().NoError(s.occupancy.Move("unit_1", entities.Coord(1, 2)))

	pos, ok := s.occupancy.PositionOf("unit_1")
	s.True(ok)
	s.Equal(entities.Coord(1, 2), pos)

	_, ok = s.occupancy.UnitAt(entities.Coord(1, 1))
	s.False(ok)
}

func (s *OccupancyTestSuite) TestMoveUnknownUnit() {
	err := s.occupancy.Move("unit_ghost", entities.Coord(1, 1))
	s.Error(err)
	s.True(errors.IsNotFound(err))
}

func (s *OccupancyTestSuite) TestMoveToOccupiedTileLeavesUnitInPlace() {
	s.Require().NoError(s.occupancy.Place("unit_1", entities.Coord(1, 1)))
	s.Require().NoError(s.occupancy.Place("unit_2", entities.Coord(1, 2)))

	err := s.occupancy.Move("unit_1", entities.Coord(1, 2))
	s.Error(err)
	s.True(errors.IsFailedPrecondition(err))

	pos, ok := s.occupancy.PositionOf("unit_1")
	s.True(ok)
	s.Equal(entities.Coord(1, 1), pos)
}

func (s *OccupancyTestSuite) TestMoveToSameTileIsNoOp() {
	s.Require().NoError(s.occupancy.Place("unit_1", entities.Coord(1, 1)))
	s.NoError(s.occupancy.Move("unit_1", entities.Coord(1, 1)))

	id, ok := s.occupancy.UnitAt(entities.Coord(1, 1))
	s.True(ok)
	s.Equal("unit_1", id)
}

func (s *OccupancyTestSuite) TestRemoveIsIdempotent() {
	s.Require().NoError(s.occupancy.Place("unit_1", entities.Coord(1, 1)))

	s.occupancy.Remove("unit_1")
	_, ok := s.occupancy.PositionOf("unit_1")
	s.False(ok)
	_, ok = s.occupancy.UnitAt(entities.Coord(1, 1))
	s.False(ok)

	s.occupancy.Remove("unit_1")
}
