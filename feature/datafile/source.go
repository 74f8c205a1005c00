package datafile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marker-sync/core/location"
	"marker-sync/core/utils"

	"go.uber.org/zap"
)

// Config names the documents of the upstream plugin.
type Config struct {
	// SpawnFile holds "spawn" and, optionally, "first-spawn".
	SpawnFile string
	// WorldsFile holds "worlds.<name>.spawn".
	WorldsFile string
	// WarpsFile holds warps in any of the known shapes.
	WarpsFile string
	// CacheTTL keeps decoded documents for this long. Zero disables caching.
	CacheTTL time.Duration
}

// Source is a location.Source backed by the upstream plugin's data files.
type Source struct {
	fetcher Fetcher
	cfg     Config
	cache   *documentCache
	logger  *zap.Logger
}

var _ location.Source = (*Source)(nil)

// NewSource creates a source reading documents through fetcher.
func NewSource(fetcher Fetcher, cfg Config, logger *zap.Logger) *Source {
	return &Source{
		fetcher: fetcher,
		cfg:     cfg,
		cache:   newDocumentCache(fetcher, cfg.CacheTTL),
		logger:  logger.Named("datafile"),
	}
}

// Name identifies the source in logs.
func (s *Source) Name() string {
	return "datafile:" + s.fetcher.Location()
}

// Available reports whether the spawn or the worlds document can be read.
func (s *Source) Available(ctx context.Context) bool {
	for _, name := range []string{s.cfg.SpawnFile, s.cfg.WorldsFile} {
		if name == "" {
			continue
		}
		if _, err := s.cache.Get(ctx, name); err == nil {
			return true
		} else if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("Failed to read document", zap.String("document", name), zap.Error(err))
		}
	}
	return false
}

// Invalidate drops cached documents so the next read hits the fetcher.
func (s *Source) Invalidate() {
	s.cache.Invalidate()
}

// ConfiguredSpawn returns the "spawn" entry of the spawn document.
func (s *Source) ConfiguredSpawn(ctx context.Context) (*location.Point, error) {
	return s.pointAt(ctx, s.cfg.SpawnFile, "spawn")
}

// FirstSpawn returns the "first-spawn" entry of the spawn document.
func (s *Source) FirstSpawn(ctx context.Context) (*location.Point, error) {
	return s.pointAt(ctx, s.cfg.SpawnFile, "first-spawn")
}

// WorldSpawn returns worlds.<world>.spawn from the worlds document.
func (s *Source) WorldSpawn(ctx context.Context, world string) (*location.Point, error) {
	doc, err := s.document(ctx, s.cfg.WorldsFile)
	if err != nil {
		return nil, err
	}
	val, ok := lookup(doc, "worlds", world, "spawn")
	if !ok {
		return nil, fmt.Errorf("world %q has no spawn", world)
	}

	var pt location.Point
	if str, isString := val.(string); isString {
		pt, err = parsePointString(str)
	} else {
		if m, isMap := utils.ToMap(val); isMap && m["world"] == nil {
			val = withWorld(m, world)
		}
		pt, err = parsePoint(val)
	}
	if err != nil {
		return nil, fmt.Errorf("world %q spawn: %w", world, err)
	}
	return &pt, nil
}

// WarpStrategies returns the warp readers in the order they are tried.
func (s *Source) WarpStrategies() []location.WarpStrategy {
	return []location.WarpStrategy{
		&warpList{source: s},
		&warpAreas{source: s},
		&warpInfo{source: s},
	}
}

// document returns a decoded document. A missing document, or a source
// configured without that document, is location.ErrUnsupported.
func (s *Source) document(ctx context.Context, name string) (map[string]any, error) {
	if name == "" {
		return nil, location.ErrUnsupported
	}
	doc, err := s.cache.Get(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", location.ErrUnsupported, err)
	}
	return doc, err
}

func (s *Source) pointAt(ctx context.Context, name, key string) (*location.Point, error) {
	doc, err := s.document(ctx, name)
	if err != nil {
		return nil, err
	}
	val, ok := lookup(doc, key)
	if !ok {
		return nil, location.ErrUnsupported
	}
	pt, err := parsePoint(val)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", name, key, err)
	}
	return &pt, nil
}

func withWorld(m map[string]any, world string) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out["world"] = world
	return out
}
