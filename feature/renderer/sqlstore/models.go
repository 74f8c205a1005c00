package sqlstore

// RenderMap is a row of render_maps, one per render surface.
type RenderMap struct {
	ID    string `gorm:"column:id;primaryKey;size:64"`
	World string `gorm:"column:world;size:128"`
	Name  string `gorm:"column:name;size:128"`
}

// TableName overrides the table name.
func (RenderMap) TableName() string {
	return "render_maps"
}

// MarkerSet is a row of marker_sets.
type MarkerSet struct {
	MapID         string `gorm:"column:map_id;primaryKey;size:64"`
	SetID         string `gorm:"column:set_id;primaryKey;size:128"`
	Label         string `gorm:"column:label;size:255"`
	Toggleable    bool   `gorm:"column:toggleable"`
	DefaultHidden bool   `gorm:"column:default_hidden"`
}

// TableName overrides the table name.
func (MarkerSet) TableName() string {
	return "marker_sets"
}

// Marker is a row of markers, a point of interest inside a marker set.
type Marker struct {
	MapID    string  `gorm:"column:map_id;primaryKey;size:64"`
	SetID    string  `gorm:"column:set_id;primaryKey;size:128"`
	MarkerID string  `gorm:"column:marker_id;primaryKey;size:255"`
	Label    string  `gorm:"column:label;size:255"`
	Detail   string  `gorm:"column:detail;type:text"`
	X        float64 `gorm:"column:x"`
	Y        float64 `gorm:"column:y"`
	Z        float64 `gorm:"column:z"`
}

// TableName overrides the table name.
func (Marker) TableName() string {
	return "markers"
}

// requiredColumns lists the columns Available checks per table.
var requiredColumns = map[string][]string{
	"render_maps": {"id", "world", "name"},
	"marker_sets": {"map_id", "set_id", "label", "toggleable", "default_hidden"},
	"markers":     {"map_id", "set_id", "marker_id", "label", "detail", "x", "y", "z"},
}
