package location

import (
	"fmt"
	"math"
)

// Point is an immutable position in a named world.
type Point struct {
	World string  `json:"world"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
}

// String formats the point as "world [x, y, z]" with whole-block precision.
func (p Point) String() string {
	return fmt.Sprintf("%s [%.0f, %.0f, %.0f]", p.World, p.X, p.Y, p.Z)
}

// Valid reports whether the point names a world and has finite coordinates.
func (p Point) Valid() bool {
	if p.World == "" {
		return false
	}
	for _, c := range [...]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
