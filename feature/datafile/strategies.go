package datafile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"marker-sync/core/location"
	"marker-sync/core/utils"
)

// ErrMalformedEntry is returned alongside the valid warps when some entries
// of a shape could not be read.
var ErrMalformedEntry = errors.New("malformed warp entry")

// warpList reads warps: [{name, location}].
type warpList struct {
	source *Source
}

func (w *warpList) Name() string   { return "warp-list" }
func (w *warpList) Internal() bool { return false }

func (w *warpList) Warps(ctx context.Context) (map[string]location.Point, error) {
	val, err := w.source.warpSection(ctx, "warps")
	if err != nil || val == nil {
		return nil, err
	}
	entries, ok := utils.ToSlice(val)
	if !ok {
		return nil, fmt.Errorf("warps: expected a list, got %T", val)
	}

	out := make(map[string]location.Point, len(entries))
	var bad []string
	for i, entry := range entries {
		m, ok := utils.ToMap(entry)
		if !ok {
			bad = append(bad, fmt.Sprintf("#%d", i))
			continue
		}
		name := strings.TrimSpace(utils.ToString(m["name"]))
		pt, err := parsePoint(m["location"])
		if name == "" || err != nil {
			bad = append(bad, fmt.Sprintf("#%d", i))
			continue
		}
		out[name] = pt
	}
	return out, malformed(bad)
}

// warpAreas reads areas: {name: {world, center{x,y,z}}} or
// {name: {world, min{x,y,z}, max{x,y,z}}}, where the warp is the center.
type warpAreas struct {
	source *Source
}

func (w *warpAreas) Name() string   { return "warp-areas" }
func (w *warpAreas) Internal() bool { return false }

func (w *warpAreas) Warps(ctx context.Context) (map[string]location.Point, error) {
	val, err := w.source.warpSection(ctx, "areas")
	if err != nil || val == nil {
		return nil, err
	}
	areas, ok := utils.ToMap(val)
	if !ok {
		return nil, fmt.Errorf("areas: expected a map, got %T", val)
	}

	out := make(map[string]location.Point, len(areas))
	var bad []string
	for name, entry := range areas {
		pt, err := areaCenter(entry)
		if name == "" || err != nil {
			bad = append(bad, name)
			continue
		}
		out[name] = pt
	}
	return out, malformed(bad)
}

func areaCenter(entry any) (location.Point, error) {
	m, ok := utils.ToMap(entry)
	if !ok {
		return location.Point{}, fmt.Errorf("unexpected area type %T", entry)
	}
	world := strings.TrimSpace(utils.ToString(m["world"]))
	if world == "" {
		return location.Point{}, fmt.Errorf("area has no world")
	}

	if c, ok := utils.ToMap(m["center"]); ok {
		x, y, z, err := parseCoords(c)
		if err != nil {
			return location.Point{}, err
		}
		return location.Point{World: world, X: x, Y: y, Z: z}, nil
	}

	lo, okLo := utils.ToMap(m["min"])
	hi, okHi := utils.ToMap(m["max"])
	if !okLo || !okHi {
		return location.Point{}, fmt.Errorf("area has neither center nor bounds")
	}
	x1, y1, z1, err := parseCoords(lo)
	if err != nil {
		return location.Point{}, err
	}
	x2, y2, z2, err := parseCoords(hi)
	if err != nil {
		return location.Point{}, err
	}
	return location.Point{
		World: world,
		X:     (x1 + x2) / 2,
		Y:     (y1 + y2) / 2,
		Z:     (z1 + z2) / 2,
	}, nil
}

// warpInfo reads the plugin's internal warp-info: {name: {location}} dump.
type warpInfo struct {
	source *Source
}

func (w *warpInfo) Name() string   { return "warp-info" }
func (w *warpInfo) Internal() bool { return true }

func (w *warpInfo) Warps(ctx context.Context) (map[string]location.Point, error) {
	val, err := w.source.warpSection(ctx, "warp-info")
	if err != nil || val == nil {
		return nil, err
	}
	infos, ok := utils.ToMap(val)
	if !ok {
		return nil, fmt.Errorf("warp-info: expected a map, got %T", val)
	}

	out := make(map[string]location.Point, len(infos))
	var bad []string
	for name, entry := range infos {
		m, ok := utils.ToMap(entry)
		if !ok {
			bad = append(bad, name)
			continue
		}
		pt, err := parsePoint(m["location"])
		if name == "" || err != nil {
			bad = append(bad, name)
			continue
		}
		out[name] = pt
	}
	return out, malformed(bad)
}

// warpSection returns one top-level section of the warps document, or nil
// when the document or the section is absent.
func (s *Source) warpSection(ctx context.Context, key string) (any, error) {
	doc, err := s.document(ctx, s.cfg.WarpsFile)
	if errors.Is(err, location.ErrUnsupported) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	val, _ := lookup(doc, key)
	return val, nil
}

func malformed(names []string) error {
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)
	return fmt.Errorf("%w: %s", ErrMalformedEntry, strings.Join(names, ", "))
}
