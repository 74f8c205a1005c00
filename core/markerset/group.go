package markerset

import (
	"marker-sync/core/location"

	mapset "github.com/deckarep/golang-set/v2"
)

// Group is a logical marker group.
type Group int

const (
	Spawn Group = iota
	FirstSpawn
	Warps
)

// LegacySetID is the single container used before groups were split.
const LegacySetID = "cmi-locations"

var groupInfo = map[Group]struct {
	name  string
	setID string
	label string
}{
	Spawn:      {"spawn", "marker-sync-spawn", "Spawn"},
	FirstSpawn: {"first-spawn", "marker-sync-first-spawn", "First Spawn"},
	Warps:      {"warps", "marker-sync-warps", "Warps"},
}

// Groups returns every group in reconciliation order.
func Groups() []Group {
	return []Group{Spawn, FirstSpawn, Warps}
}

// String returns the group name used in logs and metrics.
func (g Group) String() string {
	if info, ok := groupInfo[g]; ok {
		return info.name
	}
	return "unknown"
}

// SetID returns the renderer container id of the group.
func (g Group) SetID() string {
	return groupInfo[g].setID
}

// Label returns the container label shown in the renderer UI.
func (g Group) Label() string {
	return groupInfo[g].label
}

// KnownIdentifiers returns every container id this system has ever created:
// the current per-group ids and the legacy shared id.
func KnownIdentifiers() mapset.Set[string] {
	ids := mapset.NewSet[string](LegacySetID)
	for _, g := range Groups() {
		ids.Add(g.SetID())
	}
	return ids
}

// Record is a marker the engine believes is rendered.
type Record struct {
	ID          string         `json:"id"`
	Group       Group          `json:"-"`
	GroupName   string         `json:"group"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
	Point       location.Point `json:"point"`
}

// NewRecord builds a record for the group.
func NewRecord(group Group, id, label, description string, pt location.Point) Record {
	return Record{
		ID:          id,
		Group:       group,
		GroupName:   group.String(),
		Label:       label,
		Description: description,
		Point:       pt,
	}
}

// WarpID returns the marker id of a named warp.
func WarpID(name string) string {
	return "warp-" + name
}
