// Package markers exposes the marker commands over HTTP.
//
// # Endpoints
//
//   - GET /markers : engine state, active markers, containers and last pass.
//   - POST /markers/reload : re-reads the configuration and runs one pass.
//   - POST /markers/toggle/:type : flips spawn, firstspawn or warp(s) on or
//     off, persists the change and runs one pass.
//   - GET /metrics : Prometheus metrics.
//
// Command answers reuse the plugin's texts, e.g. "Configuration reloaded
// successfully!" or "Warps markers disabled!".
package markers
