// Package memstore is an in-memory marker store backed by go-memdb.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"marker-sync/core/markerset"

	memdb "github.com/hashicorp/go-memdb"
)

const (
	tableMaps    = "maps"
	tableSets    = "sets"
	tableMarkers = "markers"

	indexID  = "id"
	indexMap = "map"
	indexSet = "set"
)

var (
	// ErrMapNotFound is returned when a render map does not exist.
	ErrMapNotFound = errors.New("map not found")
	// ErrSetNotFound is returned when a marker set does not exist.
	ErrSetNotFound = errors.New("marker set not found")
)

type mapRow struct {
	ID    string
	World string
	Name  string
}

type setRow struct {
	MapID         string
	SetID         string
	Label         string
	Toggleable    bool
	DefaultHidden bool
}

type markerRow struct {
	MapID    string
	SetID    string
	MarkerID string
	Label    string
	Detail   string
	X        float64
	Y        float64
	Z        float64
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableMaps: {
				Name: tableMaps,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
				},
			},
			tableSets: {
				Name: tableSets,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:   indexID,
						Unique: true,
						Indexer: &memdb.CompoundIndex{Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "MapID"},
							&memdb.StringFieldIndex{Field: "SetID"},
						}},
					},
					indexMap: {
						Name:    indexMap,
						Indexer: &memdb.StringFieldIndex{Field: "MapID"},
					},
				},
			},
			tableMarkers: {
				Name: tableMarkers,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:   indexID,
						Unique: true,
						Indexer: &memdb.CompoundIndex{Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "MapID"},
							&memdb.StringFieldIndex{Field: "SetID"},
							&memdb.StringFieldIndex{Field: "MarkerID"},
						}},
					},
					indexSet: {
						Name: indexSet,
						Indexer: &memdb.CompoundIndex{Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "MapID"},
							&memdb.StringFieldIndex{Field: "SetID"},
						}},
					},
				},
			},
		},
	}
}

// Store implements markerset.Renderer in memory.
type Store struct {
	db          *memdb.MemDB
	unavailable atomic.Bool
}

// New creates a store holding the given maps.
func New(maps ...markerset.RenderMap) (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("failed to create memdb: %w", err)
	}
	s := &Store{db: db}
	for _, m := range maps {
		if err := s.AddMap(m); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// AddMap registers a render map.
func (s *Store) AddMap(m markerset.RenderMap) error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(tableMaps, &mapRow{ID: m.ID, World: m.World, Name: m.Name}); err != nil {
		return fmt.Errorf("failed to insert map %s: %w", m.ID, err)
	}
	txn.Commit()
	return nil
}

// SetAvailable toggles the readiness reported by Available.
func (s *Store) SetAvailable(available bool) {
	s.unavailable.Store(!available)
}

// Available reports whether the store accepts writes.
func (s *Store) Available(ctx context.Context) bool {
	return !s.unavailable.Load()
}

// Maps lists the render maps ordered by id.
func (s *Store) Maps(ctx context.Context) ([]markerset.RenderMap, error) {
	txn := s.db.Txn(false)
	it, err := txn.Get(tableMaps, indexID)
	if err != nil {
		return nil, err
	}
	var out []markerset.RenderMap
	for obj := it.Next(); obj != nil; obj = it.Next() {
		row := obj.(*mapRow)
		out = append(out, markerset.RenderMap{ID: row.ID, World: row.World, Name: row.Name})
	}
	return out, nil
}

// MarkerSets lists the container ids of a map.
func (s *Store) MarkerSets(ctx context.Context, mapID string) ([]string, error) {
	txn := s.db.Txn(false)
	if err := requireMap(txn, mapID); err != nil {
		return nil, err
	}
	it, err := txn.Get(tableSets, indexMap, mapID)
	if err != nil {
		return nil, err
	}
	var out []string
	for obj := it.Next(); obj != nil; obj = it.Next() {
		out = append(out, obj.(*setRow).SetID)
	}
	return out, nil
}

// MarkerSet returns a container's description.
func (s *Store) MarkerSet(mapID, setID string) (markerset.MarkerSet, bool) {
	txn := s.db.Txn(false)
	obj, err := txn.First(tableSets, indexID, mapID, setID)
	if err != nil || obj == nil {
		return markerset.MarkerSet{}, false
	}
	row := obj.(*setRow)
	return markerset.MarkerSet{
		ID:            row.SetID,
		Label:         row.Label,
		Toggleable:    row.Toggleable,
		DefaultHidden: row.DefaultHidden,
	}, true
}

// RemoveMarkerSet deletes a container and its markers.
func (s *Store) RemoveMarkerSet(ctx context.Context, mapID, setID string) error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	if err := deleteSet(txn, mapID, setID); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// CreateMarkerSet creates an empty container, replacing any with the same id.
func (s *Store) CreateMarkerSet(ctx context.Context, mapID string, set markerset.MarkerSet) error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	if err := requireMap(txn, mapID); err != nil {
		return err
	}
	if err := deleteSet(txn, mapID, set.ID); err != nil {
		return err
	}
	row := &setRow{
		MapID:         mapID,
		SetID:         set.ID,
		Label:         set.Label,
		Toggleable:    set.Toggleable,
		DefaultHidden: set.DefaultHidden,
	}
	if err := txn.Insert(tableSets, row); err != nil {
		return fmt.Errorf("failed to insert marker set %s: %w", set.ID, err)
	}
	txn.Commit()
	return nil
}

// Markers lists the marker ids of a container.
func (s *Store) Markers(ctx context.Context, mapID, setID string) ([]string, error) {
	txn := s.db.Txn(false)
	if err := requireSet(txn, mapID, setID); err != nil {
		return nil, err
	}
	it, err := txn.Get(tableMarkers, indexSet, mapID, setID)
	if err != nil {
		return nil, err
	}
	var out []string
	for obj := it.Next(); obj != nil; obj = it.Next() {
		out = append(out, obj.(*markerRow).MarkerID)
	}
	return out, nil
}

// Marker returns a stored marker.
func (s *Store) Marker(mapID, setID, markerID string) (markerset.POI, bool) {
	txn := s.db.Txn(false)
	obj, err := txn.First(tableMarkers, indexID, mapID, setID, markerID)
	if err != nil || obj == nil {
		return markerset.POI{}, false
	}
	row := obj.(*markerRow)
	return markerset.POI{ID: row.MarkerID, Label: row.Label, Detail: row.Detail, X: row.X, Y: row.Y, Z: row.Z}, true
}

// PutMarker inserts or overwrites a marker.
func (s *Store) PutMarker(ctx context.Context, mapID, setID string, marker markerset.POI) error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	if err := requireSet(txn, mapID, setID); err != nil {
		return err
	}
	row := &markerRow{
		MapID:    mapID,
		SetID:    setID,
		MarkerID: marker.ID,
		Label:    marker.Label,
		Detail:   marker.Detail,
		X:        marker.X,
		Y:        marker.Y,
		Z:        marker.Z,
	}
	if err := txn.Insert(tableMarkers, row); err != nil {
		return fmt.Errorf("failed to insert marker %s: %w", marker.ID, err)
	}
	txn.Commit()
	return nil
}

// RemoveMarker deletes a marker.
func (s *Store) RemoveMarker(ctx context.Context, mapID, setID, markerID string) error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	obj, err := txn.First(tableMarkers, indexID, mapID, setID, markerID)
	if err != nil {
		return err
	}
	if obj == nil {
		return nil
	}
	if err := txn.Delete(tableMarkers, obj); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func requireMap(txn *memdb.Txn, mapID string) error {
	obj, err := txn.First(tableMaps, indexID, mapID)
	if err != nil {
		return err
	}
	if obj == nil {
		return fmt.Errorf("%w: %s", ErrMapNotFound, mapID)
	}
	return nil
}

func requireSet(txn *memdb.Txn, mapID, setID string) error {
	obj, err := txn.First(tableSets, indexID, mapID, setID)
	if err != nil {
		return err
	}
	if obj == nil {
		return fmt.Errorf("%w: %s/%s", ErrSetNotFound, mapID, setID)
	}
	return nil
}

func deleteSet(txn *memdb.Txn, mapID, setID string) error {
	if _, err := txn.DeleteAll(tableMarkers, indexSet, mapID, setID); err != nil {
		return err
	}
	obj, err := txn.First(tableSets, indexID, mapID, setID)
	if err != nil {
		return err
	}
	if obj == nil {
		return nil
	}
	return txn.Delete(tableSets, obj)
}
