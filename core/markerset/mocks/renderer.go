package mocks

import (
	"context"

	"marker-sync/core/markerset"

	"github.com/stretchr/testify/mock"
)

// Renderer is a mock implementation of markerset.Renderer
type Renderer struct {
	mock.Mock
}

func (m *Renderer) Available(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *Renderer) Maps(ctx context.Context) ([]markerset.RenderMap, error) {
	args := m.Called(ctx)
	if maps, ok := args.Get(0).([]markerset.RenderMap); ok {
		return maps, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Renderer) MarkerSets(ctx context.Context, mapID string) ([]string, error) {
	args := m.Called(ctx, mapID)
	if ids, ok := args.Get(0).([]string); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Renderer) RemoveMarkerSet(ctx context.Context, mapID, setID string) error {
	args := m.Called(ctx, mapID, setID)
	return args.Error(0)
}

func (m *Renderer) CreateMarkerSet(ctx context.Context, mapID string, set markerset.MarkerSet) error {
	args := m.Called(ctx, mapID, set)
	return args.Error(0)
}

func (m *Renderer) Markers(ctx context.Context, mapID, setID string) ([]string, error) {
	args := m.Called(ctx, mapID, setID)
	if ids, ok := args.Get(0).([]string); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Renderer) PutMarker(ctx context.Context, mapID, setID string, marker markerset.POI) error {
	args := m.Called(ctx, mapID, setID, marker)
	return args.Error(0)
}

func (m *Renderer) RemoveMarker(ctx context.Context, mapID, setID, markerID string) error {
	args := m.Called(ctx, mapID, setID, markerID)
	return args.Error(0)
}
