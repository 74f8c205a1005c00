// Package config provides configuration management for the marker daemon.
//
// It utilizes Viper for loading configuration from a config file
// (config.yaml by default), a .env file next to it and environment variables.
// Defaults come from the `default` struct tags.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Settings: update interval, debug and marker logging
//   - SpawnMarker, FirstSpawnMarker, WarpsMarker: per-group switches, labels and limits
//   - WorldBlacklist: worlds that never get markers
//   - Source: where the location documents live
//   - Renderer: marker store driver and seeded maps
//   - Server, Database, Storage, Log: infrastructure
//
// Environment names replace dots and dashes with underscores, so
// SETTINGS_UPDATE_INTERVAL overrides settings.update-interval.
//
// # Store
//
// Store keeps the configuration current. Every reconciliation pass takes a
// fresh Policy from it, Reload re-reads all sources, Toggle flips a marker
// switch and writes it back to the file, and Watch follows file edits.
//
// # Usage
//
//	store, err := config.Load("config.yaml")
//	if err != nil {
//	    return err
//	}
//	cfg := store.Snapshot()
//	fmt.Println(cfg.Server.Port)
package config
