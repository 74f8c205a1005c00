package location

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

// DefaultWorld is the world whose platform spawn backs the spawn lookup.
const DefaultWorld = "world"

// Provider resolves locations from a Source on a best-effort basis.
type Provider struct {
	source             Source
	logger             *zap.Logger
	defaultWorld       string
	firstSpawnFallback atomic.Bool
}

// Option configures a Provider.
type Option func(*Provider)

// WithDefaultWorld sets the world used for the platform spawn fallback.
func WithDefaultWorld(world string) Option {
	return func(p *Provider) {
		if world != "" {
			p.defaultWorld = world
		}
	}
}

// WithFirstSpawnFallback controls whether FirstSpawn falls back to Spawn when
// the source has no distinct first-spawn concept.
func WithFirstSpawnFallback(enabled bool) Option {
	return func(p *Provider) {
		p.firstSpawnFallback.Store(enabled)
	}
}

// NewProvider creates a provider over the given source.
func NewProvider(source Source, logger *zap.Logger, opts ...Option) *Provider {
	p := &Provider{
		source:       source,
		logger:       logger.Named("location"),
		defaultWorld: DefaultWorld,
	}
	p.firstSpawnFallback.Store(true)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetFirstSpawnFallback changes the first-spawn policy at runtime.
func (p *Provider) SetFirstSpawnFallback(enabled bool) {
	p.firstSpawnFallback.Store(enabled)
}

// Spawn returns the configured spawn, or the default world spawn when the
// configured accessor is unsupported or fails.
func (p *Provider) Spawn(ctx context.Context) (Point, bool) {
	pt, err := p.read("configured spawn", func() (*Point, error) {
		return p.source.ConfiguredSpawn(ctx)
	})
	if err == nil && pt != nil {
		return *pt, true
	}
	if err != nil && !errors.Is(err, ErrUnsupported) {
		p.logger.Warn("Configured spawn unavailable, using world spawn",
			zap.String("source", p.source.Name()),
			zap.Error(err),
		)
	}

	pt, err = p.read("world spawn", func() (*Point, error) {
		return p.source.WorldSpawn(ctx, p.defaultWorld)
	})
	if err == nil && pt != nil {
		return *pt, true
	}

	p.logger.Warn("Could not resolve spawn",
		zap.String("source", p.source.Name()),
		zap.String("world", p.defaultWorld),
		zap.Error(err),
	)
	return Point{}, false
}

// FirstSpawn returns the spawn for new players. When the source has no such
// concept and the fallback policy is enabled, it returns Spawn.
func (p *Provider) FirstSpawn(ctx context.Context) (Point, bool) {
	pt, err := p.read("first spawn", func() (*Point, error) {
		return p.source.FirstSpawn(ctx)
	})
	if err == nil && pt != nil {
		return *pt, true
	}

	if err != nil && !errors.Is(err, ErrUnsupported) {
		p.logger.Warn("Could not resolve first spawn",
			zap.String("source", p.source.Name()),
			zap.Error(err),
		)
	}

	if !p.firstSpawnFallback.Load() {
		return Point{}, false
	}
	return p.Spawn(ctx)
}

// Warps returns every warp the first serving strategy could read.
// It never returns nil.
func (p *Provider) Warps(ctx context.Context) map[string]Point {
	strategies := orderStrategies(p.source.WarpStrategies())

	for _, s := range strategies {
		warps, err := p.readWarps(ctx, s)
		valid := make(map[string]Point, len(warps))
		for name, pt := range warps {
			if name == "" || !pt.Valid() {
				continue
			}
			valid[name] = pt
		}

		if len(valid) == 0 {
			if err != nil {
				p.logger.Warn("Warp strategy failed",
					zap.String("strategy", s.Name()),
					zap.Bool("internal", s.Internal()),
					zap.Error(err),
				)
			}
			continue
		}

		if err != nil {
			p.logger.Warn("Warp strategy returned a partial read",
				zap.String("strategy", s.Name()),
				zap.Int("count", len(valid)),
				zap.Error(err),
			)
		}
		if s.Internal() {
			p.logger.Warn("Warps served by internal strategy",
				zap.String("strategy", s.Name()),
				zap.Int("count", len(valid)),
			)
		} else {
			p.logger.Debug("Warps served",
				zap.String("strategy", s.Name()),
				zap.Int("count", len(valid)),
			)
		}
		return valid
	}

	return map[string]Point{}
}

func (p *Provider) read(what string, fn func() (*Point, error)) (pt *Point, err error) {
	defer func() {
		if r := recover(); r != nil {
			pt = nil
			err = fmt.Errorf("%s: panic: %v", what, r)
		}
	}()
	pt, err = fn()
	if pt != nil && !pt.Valid() {
		return nil, fmt.Errorf("%s: point has no world", what)
	}
	return pt, err
}

func (p *Provider) readWarps(ctx context.Context, s WarpStrategy) (warps map[string]Point, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy %s: panic: %v", s.Name(), r)
		}
	}()
	return s.Warps(ctx)
}

// orderStrategies keeps the source's order but moves internal strategies
// behind all public ones.
func orderStrategies(in []WarpStrategy) []WarpStrategy {
	out := make([]WarpStrategy, 0, len(in))
	for _, s := range in {
		if s != nil && !s.Internal() {
			out = append(out, s)
		}
	}
	for _, s := range in {
		if s != nil && s.Internal() {
			out = append(out, s)
		}
	}
	return out
}
