package markerset

import "context"

// RenderMap is a render surface of the external renderer.
type RenderMap struct {
	ID    string `json:"id"`
	World string `json:"world"`
	Name  string `json:"name"`
}

// MarkerSet describes a container to create.
type MarkerSet struct {
	ID            string
	Label         string
	Toggleable    bool
	DefaultHidden bool
}

// POI is a point-of-interest marker.
type POI struct {
	ID     string
	Label  string
	Detail string
	X      float64
	Y      float64
	Z      float64
}

// Renderer is the facade over the external map renderer's marker storage.
type Renderer interface {
	// Available reports whether the renderer is ready to accept writes.
	Available(ctx context.Context) bool
	// Maps lists the render surfaces.
	Maps(ctx context.Context) ([]RenderMap, error)
	// MarkerSets lists the container ids of a map.
	MarkerSets(ctx context.Context, mapID string) ([]string, error)
	// RemoveMarkerSet deletes a container and its markers. Unknown ids are not an error.
	RemoveMarkerSet(ctx context.Context, mapID, setID string) error
	// CreateMarkerSet creates an empty container, replacing one with the same id.
	CreateMarkerSet(ctx context.Context, mapID string, set MarkerSet) error
	// Markers lists the marker ids of a container.
	Markers(ctx context.Context, mapID, setID string) ([]string, error)
	// PutMarker inserts or overwrites a marker.
	PutMarker(ctx context.Context, mapID, setID string, marker POI) error
	// RemoveMarker deletes a marker. Unknown ids are not an error.
	RemoveMarker(ctx context.Context, mapID, setID, markerID string) error
}
