// Package renderer groups the map-renderer facades that implement
// markerset.Renderer.
//
//   - sqlstore: markers persisted in the renderer's SQL marker tables (gorm).
//   - memstore: an indexed in-memory store (go-memdb), used by the "memory"
//     driver and by tests.
//
// The driver is chosen with renderer.driver in the configuration.
package renderer
