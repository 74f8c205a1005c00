// Package datafile implements a location source over the data documents the
// upstream plugin writes to disk.
//
// Documents are read through a Fetcher (local directory or object storage),
// decoded by extension (YAML, JSON or TOML) and cached for a short TTL.
//
//	spawn.yml:   spawn: {world, x, y, z}    first-spawn: "world;x;y;z"
//	worlds.yml:  worlds: {world: {spawn: {x, y, z}}}
//	warps.yml:   warps: [{name, location}]                    (warp-list)
//	             areas: {name: {world, center | min + max}}   (warp-areas)
//	             warp-info: {name: {location}}                (warp-info, internal)
//
// A missing document or key is reported as location.ErrUnsupported so the
// provider falls back quietly.
package datafile
