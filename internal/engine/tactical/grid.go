// Package tactical implements the battlefield rules engine: grid
// geometry, occupancy, obstacles, line of sight, and the movement and
// attack validation pipelines.
package tactical

import (
	"github.com/KirkDiggler/tactics-api/internal/entities"
	"github.com/KirkDiggler/tactics-api/internal/errors"
)

// Grid is the authoritative coordinate space for a battlefield. It
// knows nothing about game state; it answers purely geometric queries.
type Grid struct {
	size     int
	diagonal bool
}

// neighborOffsets is the fixed neighbor ordering: N, E, S, W, then
// NE, SE, SW, NW. Consumers rely on this order for deterministic
// tie-breaking, so it must not change.
var neighborOffsets = [8]entities.Coordinate{
	{X: 0, Z: 1},   // N
	{X: 1, Z: 0},   // E
	{X: 0, Z: -1},  // S
	{X: -1, Z: 0},  // W
	{X: 1, Z: 1},   // NE
	{X: 1, Z: -1},  // SE
	{X: -1, Z: -1}, // SW
	{X: -1, Z: 1},  // NW
}

// NewGrid creates a size x size grid. The diagonal flag selects the
// adjacency metric: Chebyshev when diagonal movement is allowed,
// Manhattan otherwise.
func NewGrid(size int, diagonalMovement bool) (*Grid, error) {
	if size < 2 {
		return nil, errors.InvalidArgumentf("grid size must be at least 2, got %d", size)
	}
	return &Grid{size: size, diagonal: diagonalMovement}, nil
}

// Size returns the grid edge length
func (g *Grid) Size() int {
	return g.size
}

// DiagonalMovement reports whether diagonal steps count as adjacent
func (g *Grid) DiagonalMovement() bool {
	return g.diagonal
}

// Contains reports whether the coordinate lies within the grid
func (g *Grid) Contains(c entities.Coordinate) bool {
	return c.X >= 0 && c.X < g.size && c.Z >= 0 && c.Z < g.size
}

// Check returns an invalid-coordinate error for out-of-bounds input.
// This is always caller error, never a game-rule outcome.
func (g *Grid) Check(c entities.Coordinate) error {
	if !g.Contains(c) {
		return errors.OutOfRangef("coordinate %s outside %dx%d grid", c, g.size, g.size)
	}
	return nil
}

// Neighbors returns the in-bounds neighbors of c in the documented
// N, E, S, W, NE, SE, SW, NW order. Orthogonal-only when
// includeDiagonals is false.
func (g *Grid) Neighbors(c entities.Coordinate, includeDiagonals bool) ([]entities.Coordinate, error) {
	if err := g.Check(c); err != nil {
		return nil, err
	}

	count := 4
	if includeDiagonals {
		count = 8
	}

	result := make([]entities.Coordinate, 0, count)
	for _, off := range neighborOffsets[:count] {
		n := entities.Coord(c.X+off.X, c.Z+off.Z)
		if g.Contains(n) {
			result = append(result, n)
		}
	}
	return result, nil
}

// ChebyshevDistance is the king-move distance between two tiles
func ChebyshevDistance(a, b entities.Coordinate) int {
	dx := absInt(a.X - b.X)
	dz := absInt(a.Z - b.Z)
	if dx > dz {
		return dx
	}
	return dz
}

// ManhattanDistance is the orthogonal step distance between two tiles
func ManhattanDistance(a, b entities.Coordinate) int {
	return absInt(a.X-b.X) + absInt(a.Z-b.Z)
}

// Distance measures a to b under the grid's configured movement metric
func (g *Grid) Distance(a, b entities.Coordinate) (int, error) {
	if err := g.Check(a); err != nil {
		return 0, err
	}
	if err := g.Check(b); err != nil {
		return 0, err
	}
	if g.diagonal {
		return ChebyshevDistance(a, b), nil
	}
	return ManhattanDistance(a, b), nil
}

// Adjacent reports whether two tiles are one step apart under the
// configured metric
func (g *Grid) Adjacent(a, b entities.Coordinate) (bool, error) {
	d, err := g.Distance(a, b)
	if err != nil {
		return false, err
	}
	return d == 1, nil
}

// TraceLine returns the discrete line of tiles from a to b inclusive of
// both endpoints. The walk is computed in a canonical direction (lower
// coordinate first) and reversed when needed, so tracing b to a always
// yields the exact reverse of tracing a to b. Sight caching depends on
// that symmetry.
func (g *Grid) TraceLine(a, b entities.Coordinate) ([]entities.Coordinate, error) {
	if err := g.Check(a); err != nil {
		return nil, err
	}
	if err := g.Check(b); err != nil {
		return nil, err
	}

	if b.Less(a) {
		path := bresenham(b, a)
		reverseCoords(path)
		return path, nil
	}
	return bresenham(a, b), nil
}

// bresenham walks the integer line from a to b, both endpoints
// included. When the ideal line passes exactly between two tiles the
// walk steps diagonally, so a 2:1 line like (0,0)-(2,1) crosses (1,1)
// rather than (1,0).
func bresenham(a, b entities.Coordinate) []entities.Coordinate {
	dx := absInt(b.X - a.X)
	dz := absInt(b.Z - a.Z)
	sx := signInt(b.X - a.X)
	sz := signInt(b.Z - a.Z)

	path := make([]entities.Coordinate, 0, maxInt(dx, dz)+1)
	x, z := a.X, a.Z
	e := dx - dz

	for {
		path = append(path, entities.Coord(x, z))
		if x == b.X && z == b.Z {
			return path
		}
		e2 := 2 * e
		if e2 >= -dz {
			e -= dz
			x += sx
		}
		if e2 <= dx {
			e += dx
			z += sz
		}
	}
}

func reverseCoords(s []entities.Coordinate) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func signInt(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
