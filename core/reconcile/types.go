package reconcile

import (
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// State is the lifecycle state of an Engine.
type State int32

const (
	Uninitialized State = iota
	Ready
	Reconciling
	ShuttingDown
	Stopped
)

var stateNames = [...]string{"uninitialized", "ready", "reconciling", "shutting_down", "stopped"}

// String returns the state name used in logs and API responses.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// MarshalText renders the state as its name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// GroupPolicy controls one singleton marker group.
type GroupPolicy struct {
	// Enabled places the marker when true.
	Enabled bool

	// Label is the marker label shown on the map.
	Label string

	// Description is the marker detail text.
	Description string
}

// WarpPolicy controls the warps marker group.
type WarpPolicy struct {
	// Enabled places warp markers when true.
	Enabled bool

	// MaxWarps caps the number of placed warps. Zero or negative is unlimited.
	MaxWarps int

	// Label is the label template; {name} is replaced with the warp name.
	Label string

	// Description is the detail template; {name} is replaced with the warp name.
	Description string
}

// LabelFor renders the label of a named warp.
func (w WarpPolicy) LabelFor(name string) string {
	return strings.ReplaceAll(w.Label, "{name}", name)
}

// DescriptionFor renders the description of a named warp.
func (w WarpPolicy) DescriptionFor(name string) string {
	return strings.ReplaceAll(w.Description, "{name}", name)
}

// Policy is the per-pass snapshot of everything configurable about a pass.
type Policy struct {
	// Spawn controls the spawn marker.
	Spawn GroupPolicy

	// FirstSpawn controls the first-spawn marker.
	FirstSpawn GroupPolicy

	// FirstSpawnFallback lets the first-spawn marker use the spawn location
	// when the source has no distinct first spawn.
	FirstSpawnFallback bool

	// Warps controls warp markers.
	Warps WarpPolicy

	// WorldBlacklist holds worlds whose locations are never placed.
	WorldBlacklist mapset.Set[string]

	// LogMarkerAdditions logs every placed marker at info level.
	LogMarkerAdditions bool

	// Debug logs pass completion at info level.
	Debug bool
}

// Blacklisted reports whether the world is in the blacklist.
func (p Policy) Blacklisted(world string) bool {
	return p.WorldBlacklist != nil && p.WorldBlacklist.Contains(world)
}

// DefaultPolicy returns the policy used when no configuration is present.
func DefaultPolicy() Policy {
	return Policy{
		Spawn: GroupPolicy{
			Enabled:     true,
			Label:       "Spawn",
			Description: "Server spawn location",
		},
		FirstSpawn: GroupPolicy{
			Enabled:     true,
			Label:       "First Spawn",
			Description: "First spawn location for new players",
		},
		FirstSpawnFallback: true,
		Warps: WarpPolicy{
			Enabled:     true,
			Label:       "Warp: {name}",
			Description: "Warp point: {name}",
		},
		WorldBlacklist:     mapset.NewSet[string](),
		LogMarkerAdditions: true,
	}
}

// GroupSummary counts what happened to one marker group during a pass.
type GroupSummary struct {
	// Disabled is true when the group was switched off for the pass.
	Disabled bool `json:"disabled"`

	// Added counts markers placed.
	Added int `json:"added"`

	// Blacklisted counts locations skipped because of their world.
	Blacklisted int `json:"blacklisted"`

	// Unresolved counts locations the source could not provide.
	Unresolved int `json:"unresolved"`

	// Capped counts warps dropped by the warp limit.
	Capped int `json:"capped"`

	// Failed counts markers the renderer rejected.
	Failed int `json:"failed"`

	// Panicked is true when resolving the group panicked.
	Panicked bool `json:"panicked"`
}

// Summary is the result of one reconciliation pass.
type Summary struct {
	// Skipped is true when the engine was not ready and nothing ran.
	Skipped bool `json:"skipped"`

	// State is the engine state the pass observed when it was skipped.
	State State `json:"state"`

	// Cleared counts markers removed before rebuilding.
	Cleared int `json:"cleared"`

	// Groups holds per-group counts keyed by group name.
	Groups map[string]*GroupSummary `json:"groups,omitempty"`

	// Duration is the wall time of the pass.
	Duration time.Duration `json:"duration_ns"`

	// Errors holds resolution and apply failures. They are never returned
	// from a pass.
	Errors []error `json:"-"`
}

// Added returns the number of markers placed across all groups.
func (s Summary) Added() int {
	total := 0
	for _, g := range s.Groups {
		total += g.Added
	}
	return total
}

// Group returns the counts of one group, or an empty summary.
func (s Summary) Group(name string) GroupSummary {
	if g, ok := s.Groups[name]; ok && g != nil {
		return *g
	}
	return GroupSummary{}
}
