package config

import (
	"time"

	"marker-sync/core/reconcile"

	mapset "github.com/deckarep/golang-set/v2"
)

// Policy converts the configuration into a reconciliation policy.
func (c Config) Policy() reconcile.Policy {
	return reconcile.Policy{
		Spawn: reconcile.GroupPolicy{
			Enabled:     c.SpawnMarker.Enabled,
			Label:       c.SpawnMarker.Label,
			Description: c.SpawnMarker.Description,
		},
		FirstSpawn: reconcile.GroupPolicy{
			Enabled:     c.FirstSpawnMarker.Enabled,
			Label:       c.FirstSpawnMarker.Label,
			Description: c.FirstSpawnMarker.Description,
		},
		FirstSpawnFallback: c.FirstSpawnMarker.FallbackToSpawn,
		Warps: reconcile.WarpPolicy{
			Enabled:     c.WarpsMarker.Enabled,
			MaxWarps:    c.WarpsMarker.MaxWarps,
			Label:       c.WarpsMarker.Label,
			Description: c.WarpsMarker.Description,
		},
		WorldBlacklist:     mapset.NewSet(c.WorldBlacklist...),
		LogMarkerAdditions: c.Settings.LogMarkerAdditions,
		Debug:              c.Settings.Debug,
	}
}

// UpdateInterval returns the pass interval. Zero disables periodic passes.
func (c Config) UpdateInterval() time.Duration {
	if c.Settings.UpdateInterval <= 0 {
		return 0
	}
	return time.Duration(c.Settings.UpdateInterval) * time.Second
}

// Policy returns the policy of the current configuration. The engine calls it
// at the start of every pass.
func (s *Store) Policy() reconcile.Policy {
	return s.Snapshot().Policy()
}
