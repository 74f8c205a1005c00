// Package sqlstore keeps markers in SQL tables through gorm.
//
// Tables:
//
//	render_maps (id, world, name)
//	marker_sets (map_id, set_id, label, toggleable, default_hidden)
//	markers     (map_id, set_id, marker_id, label, detail, x, y, z)
//
// The store is Available when every table carries the expected columns.
// Markers are upserted with ON CONFLICT on their composite key.
package sqlstore
