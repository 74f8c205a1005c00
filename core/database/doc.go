// Package database handles database connections and schema inspection.
//
// It wraps GORM to configure MySQL (production) or SQLite (tests and small
// single-host setups) connections from the application's configuration.
//
// # Connect
//
// Connect picks the dialector from Config.Driver, applies timeouts and pool
// limits, and pings before returning. SQLite is limited to one open
// connection so that ":memory:" behaves as a single database.
//
// # Schema Inspection
//
// GetTableColumns lists a table's columns on either dialect, and
// MissingColumns compares them with what a caller expects. The SQL marker
// store uses it to decide whether the renderer's schema is ready.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    return err
//	}
//
//	missing, err := database.MissingColumns(db, "markers", "map_id", "set_id")
package database
