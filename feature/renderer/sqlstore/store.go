package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"marker-sync/core/database"
	"marker-sync/core/markerset"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrMapNotFound is returned when a render map does not exist.
	ErrMapNotFound = errors.New("map not found")
	// ErrSetNotFound is returned when a marker set does not exist.
	ErrSetNotFound = errors.New("marker set not found")
)

// Store implements markerset.Renderer on the renderer's SQL marker tables.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ markerset.Renderer = (*Store)(nil)

// New creates a store over db.
func New(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger.Named("sqlstore")}
}

// Migrate creates or updates the marker tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&RenderMap{}, &MarkerSet{}, &Marker{}); err != nil {
		return fmt.Errorf("failed to migrate marker tables: %w", err)
	}
	return nil
}

// SeedMaps registers maps that are not known yet. Existing rows are kept.
func (s *Store) SeedMaps(ctx context.Context, maps []markerset.RenderMap) error {
	if len(maps) == 0 {
		return nil
	}
	rows := make([]RenderMap, 0, len(maps))
	for _, m := range maps {
		rows = append(rows, RenderMap{ID: m.ID, World: m.World, Name: m.Name})
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to seed render maps: %w", err)
	}
	return nil
}

// Available reports whether every marker table has the expected columns.
func (s *Store) Available(ctx context.Context) bool {
	tables := make([]string, 0, len(requiredColumns))
	for table := range requiredColumns {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	db := s.db.WithContext(ctx)
	for _, table := range tables {
		missing, err := database.MissingColumns(db, table, requiredColumns[table]...)
		if err != nil {
			s.logger.Debug("Marker table check failed", zap.String("table", table), zap.Error(err))
			return false
		}
		if len(missing) > 0 {
			s.logger.Debug("Marker table incomplete",
				zap.String("table", table),
				zap.Strings("missing", missing),
			)
			return false
		}
	}
	return true
}

// Maps lists the render maps ordered by id.
func (s *Store) Maps(ctx context.Context) ([]markerset.RenderMap, error) {
	var rows []RenderMap
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list render maps: %w", err)
	}
	out := make([]markerset.RenderMap, 0, len(rows))
	for _, r := range rows {
		out = append(out, markerset.RenderMap{ID: r.ID, World: r.World, Name: r.Name})
	}
	return out, nil
}

// MarkerSets lists the container ids of a map.
func (s *Store) MarkerSets(ctx context.Context, mapID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&MarkerSet{}).
		Where("map_id = ?", mapID).
		Order("set_id").
		Pluck("set_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list marker sets of %s: %w", mapID, err)
	}
	return ids, nil
}

// RemoveMarkerSet deletes a container and its markers.
func (s *Store) RemoveMarkerSet(ctx context.Context, mapID, setID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteSet(tx, mapID, setID)
	})
}

// CreateMarkerSet creates an empty container, replacing any with the same id.
func (s *Store) CreateMarkerSet(ctx context.Context, mapID string, set markerset.MarkerSet) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireMap(tx, mapID); err != nil {
			return err
		}
		if err := deleteSet(tx, mapID, set.ID); err != nil {
			return err
		}
		row := MarkerSet{
			MapID:         mapID,
			SetID:         set.ID,
			Label:         set.Label,
			Toggleable:    set.Toggleable,
			DefaultHidden: set.DefaultHidden,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create marker set %s: %w", set.ID, err)
		}
		return nil
	})
}

// Markers lists the marker ids of a container.
func (s *Store) Markers(ctx context.Context, mapID, setID string) ([]string, error) {
	db := s.db.WithContext(ctx)
	if err := requireSet(db, mapID, setID); err != nil {
		return nil, err
	}
	var ids []string
	err := db.Model(&Marker{}).
		Where("map_id = ? AND set_id = ?", mapID, setID).
		Order("marker_id").
		Pluck("marker_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list markers of %s/%s: %w", mapID, setID, err)
	}
	return ids, nil
}

// PutMarker inserts or overwrites a marker.
func (s *Store) PutMarker(ctx context.Context, mapID, setID string, marker markerset.POI) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireSet(tx, mapID, setID); err != nil {
			return err
		}
		row := Marker{
			MapID:    mapID,
			SetID:    setID,
			MarkerID: marker.ID,
			Label:    marker.Label,
			Detail:   marker.Detail,
			X:        marker.X,
			Y:        marker.Y,
			Z:        marker.Z,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "map_id"}, {Name: "set_id"}, {Name: "marker_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"label", "detail", "x", "y", "z"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("failed to put marker %s: %w", marker.ID, err)
		}
		return nil
	})
}

// RemoveMarker deletes a marker.
func (s *Store) RemoveMarker(ctx context.Context, mapID, setID, markerID string) error {
	err := s.db.WithContext(ctx).
		Where("map_id = ? AND set_id = ? AND marker_id = ?", mapID, setID, markerID).
		Delete(&Marker{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove marker %s: %w", markerID, err)
	}
	return nil
}

func requireMap(db *gorm.DB, mapID string) error {
	var count int64
	if err := db.Model(&RenderMap{}).Where("id = ?", mapID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up map %s: %w", mapID, err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", ErrMapNotFound, mapID)
	}
	return nil
}

func requireSet(db *gorm.DB, mapID, setID string) error {
	var count int64
	err := db.Model(&MarkerSet{}).
		Where("map_id = ? AND set_id = ?", mapID, setID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to look up marker set %s/%s: %w", mapID, setID, err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %s/%s", ErrSetNotFound, mapID, setID)
	}
	return nil
}

func deleteSet(tx *gorm.DB, mapID, setID string) error {
	if err := tx.Where("map_id = ? AND set_id = ?", mapID, setID).Delete(&Marker{}).Error; err != nil {
		return fmt.Errorf("failed to clear marker set %s: %w", setID, err)
	}
	if err := tx.Where("map_id = ? AND set_id = ?", mapID, setID).Delete(&MarkerSet{}).Error; err != nil {
		return fmt.Errorf("failed to remove marker set %s: %w", setID, err)
	}
	return nil
}
