package datafile

import (
	"fmt"
	"math"
	"strings"

	"marker-sync/core/location"
	"marker-sync/core/utils"
)

// parsePoint reads a location written either as a map {world, x, y, z} or as
// a "world;x;y;z[;yaw;pitch]" string.
func parsePoint(val any) (location.Point, error) {
	if s, ok := val.(string); ok {
		return parsePointString(s)
	}

	m, ok := utils.ToMap(val)
	if !ok {
		return location.Point{}, fmt.Errorf("unexpected location type %T", val)
	}
	world := strings.TrimSpace(utils.ToString(m["world"]))
	if world == "" {
		return location.Point{}, fmt.Errorf("location has no world")
	}
	x, y, z, err := parseCoords(m)
	if err != nil {
		return location.Point{}, err
	}
	return location.Point{World: world, X: x, Y: y, Z: z}, nil
}

func parsePointString(s string) (location.Point, error) {
	parts := strings.Split(s, ";")
	if len(parts) < 4 {
		return location.Point{}, fmt.Errorf("malformed location %q", s)
	}
	world := strings.TrimSpace(parts[0])
	if world == "" {
		return location.Point{}, fmt.Errorf("malformed location %q", s)
	}

	var coords [3]float64
	for i := range coords {
		f, ok := coordinate(parts[i+1])
		if !ok {
			return location.Point{}, fmt.Errorf("malformed location %q", s)
		}
		coords[i] = f
	}
	return location.Point{World: world, X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

// parseCoords reads x, y and z from a map. All three are required.
func parseCoords(m map[string]any) (x, y, z float64, err error) {
	var out [3]float64
	for i, key := range []string{"x", "y", "z"} {
		f, ok := coordinate(m[key])
		if !ok {
			return 0, 0, 0, fmt.Errorf("coordinate %s missing or not a finite number", key)
		}
		out[i] = f
	}
	return out[0], out[1], out[2], nil
}

// coordinate converts val to a finite float64.
func coordinate(val any) (float64, bool) {
	f, ok := utils.ToFloat64(val)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// lookup walks nested maps along keys.
func lookup(doc map[string]any, keys ...string) (any, bool) {
	var cur any = doc
	for _, key := range keys {
		m, ok := utils.ToMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}
