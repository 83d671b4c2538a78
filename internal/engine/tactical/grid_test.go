package tactical

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/tactics-api/internal/entities"
	"github.com/KirkDiggler/tactics-api/internal/errors"
)

type GridTestSuite struct {
	suite.Suite
}

func TestGridSuite(t *testing.T) {
	suite.Run(t, new(GridTestSuite))
}

func (s *GridTestSuite) TestNewGridRejectsTinyGrids() {
	_, err := NewGrid(1, false)
	s.Error(err)
	s.True(errors.IsInvalidArgument(err))

	_, err = NewGrid(0, false)
	s.Error(err)
}

func (s *GridTestSuite) TestContains() {
	g, err := NewGrid(4, false)
	s.Require().NoError(err)

	s.True(g.Contains(entities.Coord(0, 0)))
	s.True(g.Contains(entities.Coord(3, 3)))
	s.False(g.Contains(entities.Coord(4, 0)))
	s.False(g.Contains(entities.Coord(0, 4)))
	s.False(g.Contains(entities.Coord(-1, 2)))
}

func (s *GridTestSuite) TestCheckReturnsOutOfRange() {
	g, err := NewGrid(4, false)
	s.Require().NoError(err)

	err = g.Check(entities.Coord(5, 5))
	s.Error(err)
	s.True(errors.IsOutOfRange(err))
}

func (s *GridTestSuite) TestNeighborsOrthogonalOrder() {
	g, err := NewGrid(4, false)
	s.Require().NoError(err)

	neighbors, err := g.Neighbors(entities.Coord(1, 1), false)
	s.Require().NoError(err)
	s.Equal([]entities.Coordinate{
		entities.Coord(1, 2),
		entities.Coord(2, 1),
		entities.Coord(1, 0),
		entities.Coord(0, 1),
	}, neighbors)
}

func (s *GridTestSuite) TestNeighborsWithDiagonals() {
	g, err := NewGrid(4, true)
	s.Require().NoError(err)

	neighbors, err := g.Neighbors(entities.Coord(1, 1), true)
	s.Require().NoError(err)
	s.Equal([]entities.Coordinate{
		entities.Coord(1, 2),
		entities.Coord(2, 1),
		entities.Coord(1, 0),
		entities.Coord(0, 1),
		entities.Coord(2, 2),
		entities.Coord(2, 0),
		entities.Coord(0, 0),
		entities.Coord(0, 2),
	}, neighbors)
}

func (s *GridTestSuite) TestNeighborsClippedAtCorner() {
	g, err := NewGrid(4, false)
	s.Require().NoError(err)

	neighbors, err := g.Neighbors(entities.Coord(0, 0), false)
	s.Require().NoError(err)
	s.Equal([]entities.Coordinate{
		entities.Coord(0, 1),
		entities.Coord(1, 0),
	}, neighbors)
}

func (s *GridTestSuite) TestNeighborsRejectsOutOfBounds() {
	g, err := NewGrid(4, false)
	s.Require().NoError(err)

	_, err = g.Neighbors(entities.Coord(9, 9), false)
	s.Error(err)
	s.True(errors.IsOutOfRange(err))
}

func (s *GridTestSuite) TestDistanceUsesConfiguredMetric() {
	orthogonal, err := NewGrid(8, false)
	s.Require().NoError(err)
	diagonal, err := NewGrid(8, true)
	s.Require().NoError(err)

	a := entities.Coord(1, 1)
	b := entities.Coord(4, 3)

	d, err := orthogonal.Distance(a, b)
	s.Require().NoError(err)
	s.Equal(5, d)

	d, err = diagonal.Distance(a, b)
	s.Require().NoError(err)
	s.Equal(3, d)
}

func (s *GridTestSuite) TestAdjacentDiagonalDependsOnMetric() {
	orthogonal, err := NewGrid(4, false)
	s.Require().NoError(err)
	diagonal, err := NewGrid(4, true)
	s.Require().NoError(err)

	a := entities.Coord(1, 1)
	b := entities.Coord(2, 2)

	adj, err := orthogonal.Adjacent(a, b)
	s.Require().NoError(err)
	s.False(adj)

	adj, err = diagonal.Adjacent(a, b)
	s.Require().NoError(err)
	s.True(adj)
}

func (s *GridTestSuite) TestTraceLineStraight() {
	g, err := NewGrid(5, false)
	s.Require().NoError(err)

	path, err := g.TraceLine(entities.Coord(0, 2), entities.Coord(3, 2))
	s.Require().NoError(err)
	s.Equal([]entities.Coordinate{
		entities.Coord(0, 2),
		entities.Coord(1, 2),
		entities.Coord(2, 2),
		entities.Coord(3, 2),
	}, path)
}

func (s *GridTestSuite) TestTraceLineDiagonal() {
	g, err := NewGrid(5, false)
	s.Require().NoError(err)

	path, err := g.TraceLine(entities.Coord(0, 0), entities.Coord(2, 2))
	s.Require().NoError(err)
	s.Equal([]entities.Coordinate{
		entities.Coord(0, 0),
		entities.Coord(1, 1),
		entities.Coord(2, 2),
	}, path)
}

func (s *GridTestSuite) TestTraceLineTieStepsDiagonally() {
	g, err := NewGrid(5, false)
	s.Require().NoError(err)

	path, err := g.TraceLine(entities.Coord(0, 0), entities.Coord(2, 1))
	s.Require().NoError(err)
	s.Equal([]entities.Coordinate{
		entities.Coord(0, 0),
		entities.Coord(1, 1),
		entities.Coord(2, 1),
	}, path)
}

func (s *GridTestSuite) TestTraceLineSingleTile() {
	g, err := NewGrid(5, false)
	s.Require().NoError(err)

	path, err := g.TraceLine(entities.Coord(2, 2), entities.Coord(2, 2))
	s.Require().NoError(err)
	s.Equal([]entities.Coordinate{entities.Coord(2, 2)}, path)
}

func (s *GridTestSuite) TestTraceLineReversalSymmetry() {
	g, err := NewGrid(8, false)
	s.Require().NoError(err)

	pairs := []struct{ a, b entities.Coordinate }{
		{entities.Coord(0, 0), entities.Coord(3, 2)},
		{entities.Coord(7, 1), entities.Coord(0, 6)},
		{entities.Coord(2, 5), entities.Coord(5, 0)},
		{entities.Coord(4, 4), entities.Coord(4, 0)},
	}

	for _, p := range pairs {
		forward, err := g.TraceLine(p.a, p.b)
		s.Require().NoError(err)
		backward, err := g.TraceLine(p.b, p.a)
		s.Require().NoError(err)

		s.Require().Len(backward, len(forward))
		for i := range forward {
			s.Equal(forward[i], backward[len(backward)-1-i],
				"trace %s-%s must be the exact reverse of %s-%s", p.a, p.b, p.b, p.a)
		}
	}
}

func (s *GridTestSuite) TestTraceLineRejectsOutOfBounds() {
	g, err := NewGrid(4, false)
	s.Require().NoError(err)

	_, err = g.TraceLine(entities.Coord(0, 0), entities.Coord(4, 4))
	s.Error(err)
	s.True(errors.IsOutOfRange(err))
}
