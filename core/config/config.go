package config

import (
	"reflect"
	"strings"

	"marker-sync/core/database"
	"marker-sync/core/logger"
	"marker-sync/core/server"
	"marker-sync/core/storage"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Settings holds general daemon behavior.
	Settings Settings `mapstructure:"settings"`
	// SpawnMarker controls the spawn marker.
	SpawnMarker MarkerConfig `mapstructure:"spawn-marker"`
	// FirstSpawnMarker controls the first-spawn marker.
	FirstSpawnMarker FirstSpawnMarkerConfig `mapstructure:"first-spawn-marker"`
	// WarpsMarker controls warp markers.
	WarpsMarker WarpsMarkerConfig `mapstructure:"warps-marker"`
	// WorldBlacklist lists worlds that never get markers.
	WorldBlacklist []string `mapstructure:"world-blacklist"`
	// Source holds configuration for the location source.
	Source SourceConfig `mapstructure:"source"`
	// Renderer holds configuration for the marker store.
	Renderer RendererConfig `mapstructure:"renderer"`
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage (e.g., S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the renderer database.
	Database database.Config `mapstructure:"database"`
}

// Settings holds general daemon behavior.
type Settings struct {
	// UpdateInterval is the seconds between passes. Zero disables the loop.
	UpdateInterval int `mapstructure:"update-interval" default:"300"`
	// Debug lowers the log level to debug.
	Debug bool `mapstructure:"debug" default:"false"`
	// LogMarkerAdditions logs every placed marker.
	LogMarkerAdditions bool `mapstructure:"log-marker-additions" default:"true"`
	// DefaultWorld is the world whose spawn backs the spawn lookup.
	DefaultWorld string `mapstructure:"default-world" default:"world"`
}

// MarkerConfig controls the spawn marker.
type MarkerConfig struct {
	Enabled     bool   `mapstructure:"enabled" default:"true"`
	Label       string `mapstructure:"label" default:"Spawn"`
	Description string `mapstructure:"description" default:"Server spawn location"`
}

// FirstSpawnMarkerConfig controls the first-spawn marker.
type FirstSpawnMarkerConfig struct {
	Enabled     bool   `mapstructure:"enabled" default:"true"`
	Label       string `mapstructure:"label" default:"First Spawn"`
	Description string `mapstructure:"description" default:"First spawn location for new players"`
	// FallbackToSpawn uses the spawn location when the source has no
	// distinct first spawn.
	FallbackToSpawn bool `mapstructure:"fallback-to-spawn" default:"true"`
}

// WarpsMarkerConfig controls warp markers.
type WarpsMarkerConfig struct {
	Enabled bool `mapstructure:"enabled" default:"true"`
	// MaxWarps caps placed warps. Zero is unlimited.
	MaxWarps int `mapstructure:"max-warps" default:"0"`
	// Label is a template; {name} is the warp name.
	Label string `mapstructure:"label" default:"Warp: {name}"`
	// Description is a template; {name} is the warp name.
	Description string `mapstructure:"description" default:"Warp point: {name}"`
}

// SourceConfig locates the upstream plugin's data documents.
type SourceConfig struct {
	// Driver is dir (local directory) or bucket (object storage).
	Driver string `mapstructure:"driver" default:"dir"`
	// Path is the directory for the dir driver, or the key prefix for bucket.
	Path string `mapstructure:"path" default:"plugins/CMI/Saves"`
	// SpawnFile holds the configured and first spawn.
	SpawnFile string `mapstructure:"spawn-file" default:"spawn.yml"`
	// WorldsFile holds per-world platform spawns.
	WorldsFile string `mapstructure:"worlds-file" default:"worlds.yml"`
	// WarpsFile holds warps in one of the known shapes.
	WarpsFile string `mapstructure:"warps-file" default:"warps.yml"`
	// CacheTTLSeconds keeps fetched documents for this long.
	CacheTTLSeconds int `mapstructure:"cache-ttl-seconds" default:"5"`
}

// RendererConfig selects and seeds the marker store.
type RendererConfig struct {
	// Driver is sql (database-backed) or memory.
	Driver string `mapstructure:"driver" default:"sql"`
	// Maps seeds render maps the store does not know yet.
	Maps []MapConfig `mapstructure:"maps"`
}

// MapConfig describes one render map.
type MapConfig struct {
	ID    string `mapstructure:"id"`
	World string `mapstructure:"world"`
	Name  string `mapstructure:"name"`
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		switch field.Type.Kind() {
		case reflect.Struct:
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		case reflect.Slice:
			if field.Type.Elem().Kind() == reflect.Struct {
				continue
			}
			v.SetDefault(key, []string{})
			continue
		}

		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}

// envKeyReplacer maps nested keys to environment names
// (settings.update-interval -> SETTINGS_UPDATE_INTERVAL).
var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")
