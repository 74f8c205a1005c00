package markerset

import (
	"context"
	"errors"
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"
)

var (
	// ErrRendererUnavailable is returned when the map renderer is missing or not ready.
	ErrRendererUnavailable = errors.New("map renderer unavailable")

	// ErrGroupNotInitialized is returned by Put when the group has no container.
	ErrGroupNotInitialized = errors.New("marker group not initialized")
)

// Handle points at one container of one render map.
type Handle struct {
	MapID string `json:"map_id"`
	SetID string `json:"set_id"`
}

// Registry tracks the containers created for each group.
type Registry struct {
	mu       sync.RWMutex
	renderer Renderer
	handles  map[Group][]Handle
	logger   *zap.Logger
}

// NewRegistry creates a registry with no renderer attached.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		handles: make(map[Group][]Handle),
		logger:  logger.Named("markerset"),
	}
}

// Attach binds the registry to a renderer, dropping any handles of a previous one.
func (r *Registry) Attach(renderer Renderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderer = renderer
	r.handles = make(map[Group][]Handle)
}

// Detach forgets the renderer and every handle without touching the renderer.
func (r *Registry) Detach() {
	r.Attach(nil)
}

// Available reports whether a renderer is attached and ready.
func (r *Registry) Available(ctx context.Context) bool {
	r.mu.RLock()
	renderer := r.renderer
	r.mu.RUnlock()
	return renderer != nil && renderer.Available(ctx)
}

// EnsureGroups removes every container whose id is in identifiers from every
// map, then creates one empty container per group and caches the handles.
func (r *Registry) EnsureGroups(ctx context.Context, identifiers mapset.Set[string]) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.renderer == nil || !r.renderer.Available(ctx) {
		return ErrRendererUnavailable
	}

	maps, err := r.renderer.Maps(ctx)
	if err != nil {
		return fmt.Errorf("%w: list maps: %v", ErrRendererUnavailable, err)
	}
	if len(maps) == 0 {
		r.logger.Warn("Renderer has no maps, markers will not be displayed")
	}

	handles := make(map[Group][]Handle)
	for _, m := range maps {
		r.purge(ctx, m.ID, identifiers)

		for _, g := range Groups() {
			set := MarkerSet{
				ID:         g.SetID(),
				Label:      g.Label(),
				Toggleable: true,
			}
			if err := r.renderer.CreateMarkerSet(ctx, m.ID, set); err != nil {
				r.logger.Warn("Failed to create marker set",
					zap.String("map", m.ID),
					zap.String("set", set.ID),
					zap.Error(err),
				)
				continue
			}
			handles[g] = append(handles[g], Handle{MapID: m.ID, SetID: set.ID})
		}

		r.logger.Debug("Marker sets ready", zap.String("map", m.ID), zap.String("world", m.World))
	}

	r.handles = handles
	return nil
}

// purge removes known containers from one map. When the listing fails every
// known id is removed blindly, since removal of an unknown id is a no-op.
func (r *Registry) purge(ctx context.Context, mapID string, identifiers mapset.Set[string]) {
	targets := identifiers.ToSlice()
	existing, err := r.renderer.MarkerSets(ctx, mapID)
	if err != nil {
		r.logger.Warn("Failed to list marker sets", zap.String("map", mapID), zap.Error(err))
	} else {
		targets = targets[:0]
		for _, id := range existing {
			if identifiers.Contains(id) {
				targets = append(targets, id)
			}
		}
	}

	for _, id := range targets {
		if err := r.renderer.RemoveMarkerSet(ctx, mapID, id); err != nil {
			r.logger.Warn("Failed to remove stale marker set",
				zap.String("map", mapID),
				zap.String("set", id),
				zap.Error(err),
			)
		}
	}
}

// Put writes the record into the group's container on every map. When a
// write fails on some maps, the writes that succeeded are removed again so the
// record is either on every map or on none.
//
// placed reports whether the record is in the renderer after the call. It is
// only true with a non-nil error when a rollback failed too.
func (r *Registry) Put(ctx context.Context, group Group, rec Record) (placed bool, err error) {
	renderer, handles := r.snapshot(group)
	if renderer == nil || len(handles) == 0 {
		r.logger.Warn("Marker group not initialized, skipping marker",
			zap.String("group", group.String()),
			zap.String("marker", rec.ID),
		)
		return false, fmt.Errorf("%s: %w", group, ErrGroupNotInitialized)
	}

	poi := POI{
		ID:     rec.ID,
		Label:  rec.Label,
		Detail: rec.Description,
		X:      rec.Point.X,
		Y:      rec.Point.Y,
		Z:      rec.Point.Z,
	}

	var written []Handle
	var errs []error
	for _, h := range handles {
		if err := renderer.PutMarker(ctx, h.MapID, h.SetID, poi); err != nil {
			errs = append(errs, fmt.Errorf("map %s: %w", h.MapID, err))
			r.logger.Warn("Failed to add marker",
				zap.String("marker", rec.ID),
				zap.String("map", h.MapID),
				zap.String("set", h.SetID),
				zap.Error(err),
			)
			continue
		}
		written = append(written, h)
	}
	if len(errs) == 0 {
		return true, nil
	}

	for _, h := range written {
		if err := renderer.RemoveMarker(ctx, h.MapID, h.SetID, rec.ID); err != nil {
			placed = true
			errs = append(errs, fmt.Errorf("rollback map %s: %w", h.MapID, err))
			r.logger.Error("Failed to roll back marker",
				zap.String("marker", rec.ID),
				zap.String("map", h.MapID),
				zap.String("set", h.SetID),
				zap.Error(err),
			)
		}
	}
	return placed, errors.Join(errs...)
}

// Clear removes every marker from the group's containers and returns the
// number removed. The containers themselves stay.
func (r *Registry) Clear(ctx context.Context, group Group) int {
	renderer, handles := r.snapshot(group)
	if renderer == nil {
		return 0
	}

	removed := 0
	for _, h := range handles {
		ids, err := renderer.Markers(ctx, h.MapID, h.SetID)
		if err != nil {
			r.logger.Warn("Failed to list markers",
				zap.String("map", h.MapID),
				zap.String("set", h.SetID),
				zap.Error(err),
			)
			continue
		}
		for _, id := range ids {
			if err := renderer.RemoveMarker(ctx, h.MapID, h.SetID, id); err != nil {
				r.logger.Warn("Failed to remove marker",
					zap.String("marker", id),
					zap.String("map", h.MapID),
					zap.String("set", h.SetID),
					zap.Error(err),
				)
				continue
			}
			removed++
		}
	}
	return removed
}

// ClearAll clears every group.
func (r *Registry) ClearAll(ctx context.Context) int {
	removed := 0
	for _, g := range Groups() {
		removed += r.Clear(ctx, g)
	}
	return removed
}

// Handles returns a copy of the cached handles.
func (r *Registry) Handles() map[Group][]Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[Group][]Handle, len(r.handles))
	for g, hs := range r.handles {
		out[g] = append([]Handle(nil), hs...)
	}
	return out
}

func (r *Registry) snapshot(group Group) (Renderer, []Handle) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.renderer, append([]Handle(nil), r.handles[group]...)
}
