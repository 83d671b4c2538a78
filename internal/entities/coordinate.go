// Package entities provides core data structures for the tactics API.
package entities

import "fmt"

// Coordinate addresses a single tile on the battlefield grid. X runs
// west to east, Z runs south to north. Coordinates are plain values;
// bounds are enforced by the grid that owns them.
type Coordinate struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// Coord is shorthand for building a coordinate literal
func Coord(x, z int) Coordinate {
	return Coordinate{X: x, Z: z}
}

// String returns the coordinate in (x,z) form
func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Z)
}

// Less imposes a total order on coordinates, X first then Z. The line
// tracer uses it to pick a canonical traversal direction for a pair.
func (c Coordinate) Less(other Coordinate) bool {
	if c.X != other.X {
		return c.X < other.X
	}
	return c.Z < other.Z
}
