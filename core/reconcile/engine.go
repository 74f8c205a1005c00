package reconcile

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"marker-sync/core/location"
	"marker-sync/core/markerset"

	"go.uber.org/zap"
)

// Locations resolves the locations a pass places.
type Locations interface {
	Spawn(ctx context.Context) (location.Point, bool)
	FirstSpawn(ctx context.Context) (location.Point, bool)
	Warps(ctx context.Context) map[string]location.Point
}

// fallbackSetter is implemented by providers whose first-spawn alias is
// configurable at runtime.
type fallbackSetter interface {
	SetFirstSpawnFallback(enabled bool)
}

// Observer receives the summary of every pass, skipped ones included.
type Observer interface {
	ObservePass(summary Summary)
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver registers an observer for completed passes.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// Engine runs reconciliation passes. All state transitions and passes are
// serialized by one mutex.
type Engine struct {
	mu        sync.Mutex
	state     atomic.Int32
	locations Locations
	registry  *markerset.Registry
	policy    func() Policy
	active    map[string]markerset.Record
	observers []Observer
	logger    *zap.Logger
}

// NewEngine creates an engine in the Uninitialized state. policy is called
// once at the start of every pass.
func NewEngine(locations Locations, registry *markerset.Registry, policy func() Policy, logger *zap.Logger, opts ...Option) *Engine {
	if policy == nil {
		policy = DefaultPolicy
	}
	e := &Engine{
		locations: locations,
		registry:  registry,
		policy:    policy,
		active:    make(map[string]markerset.Record),
		logger:    logger.Named("reconcile"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current state without waiting for a pass in flight.
func (e *Engine) State() State {
	return State(e.state.Load())
}

func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
}

// Active returns a copy of the active set.
func (e *Engine) Active() map[string]markerset.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]markerset.Record, len(e.active))
	for id, rec := range e.active {
		out[id] = rec
	}
	return out
}

// Initialize creates the marker containers and runs the first pass.
// Calling it again from Ready re-creates the containers.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initializeLocked(ctx)
}

func (e *Engine) initializeLocked(ctx context.Context) error {
	switch st := e.State(); st {
	case Uninitialized, Ready:
	default:
		return fmt.Errorf("initialize from %s: %w", st, ErrInvalidState)
	}

	if err := e.registry.EnsureGroups(ctx, markerset.KnownIdentifiers()); err != nil {
		e.active = make(map[string]markerset.Record)
		e.setState(Uninitialized)
		return fmt.Errorf("initialize: %w", err)
	}

	e.active = make(map[string]markerset.Record)
	e.setState(Ready)
	e.logger.Info("Marker sets initialized")

	e.reconcileLocked(ctx)
	return nil
}

// OnRendererAvailable attaches a (re)started renderer and initializes on it.
func (e *Engine) OnRendererAvailable(ctx context.Context, renderer markerset.Renderer) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if st := e.State(); st == Stopped || st == ShuttingDown {
		return fmt.Errorf("renderer available in %s: %w", st, ErrInvalidState)
	}
	e.logger.Debug("Renderer available, initializing")
	e.registry.Attach(renderer)
	return e.initializeLocked(ctx)
}

// OnRendererUnavailable drops every handle and the active set without
// touching the renderer, and returns the engine to Uninitialized.
func (e *Engine) OnRendererUnavailable() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if st := e.State(); st == Stopped || st == ShuttingDown {
		return
	}
	e.registry.Detach()
	e.active = make(map[string]markerset.Record)
	e.setState(Uninitialized)
	e.logger.Info("Renderer unavailable, markers suspended")
}

// Reconcile runs one pass. Callers block while another pass is in flight.
// Outside Ready it does nothing and returns a skipped summary.
func (e *Engine) Reconcile(ctx context.Context) Summary {
	e.mu.Lock()
	defer e.mu.Unlock()

	if st := e.State(); st != Ready {
		e.logger.Debug("Reconcile skipped", zap.Stringer("state", st))
		summary := Summary{Skipped: true, State: st}
		e.notify(summary)
		return summary
	}
	return e.reconcileLocked(ctx)
}

// Shutdown waits for a pass in flight, clears the renderer containers and
// the active set, and stops the engine. Further calls do nothing.
func (e *Engine) Shutdown(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.State() == Stopped {
		return
	}
	e.setState(ShuttingDown)
	removed := e.registry.ClearAll(ctx)
	e.active = make(map[string]markerset.Record)
	e.setState(Stopped)
	e.logger.Info("Markers cleaned up", zap.Int("removed", removed))
}

func (e *Engine) reconcileLocked(ctx context.Context) Summary {
	e.setState(Reconciling)
	defer e.setState(Ready)

	start := time.Now()
	policy := e.policy()
	if fs, ok := e.locations.(fallbackSetter); ok {
		fs.SetFirstSpawnFallback(policy.FirstSpawnFallback)
	}

	summary := Summary{
		State:  Reconciling,
		Groups: make(map[string]*GroupSummary, 3),
	}
	summary.Cleared = e.registry.ClearAll(ctx)
	e.active = make(map[string]markerset.Record)

	e.guard(markerset.Spawn, &summary, func(gs *GroupSummary) {
		e.placeSingleton(ctx, policy, markerset.Spawn, policy.Spawn, e.locations.Spawn, gs, &summary)
	})
	e.guard(markerset.FirstSpawn, &summary, func(gs *GroupSummary) {
		e.placeSingleton(ctx, policy, markerset.FirstSpawn, policy.FirstSpawn, e.locations.FirstSpawn, gs, &summary)
	})
	e.guard(markerset.Warps, &summary, func(gs *GroupSummary) {
		e.placeWarps(ctx, policy, gs, &summary)
	})

	summary.Duration = time.Since(start)
	summary.State = Ready
	e.report(policy, summary)
	return summary
}

// guard runs one category and contains any panic it raises.
func (e *Engine) guard(group markerset.Group, summary *Summary, fn func(gs *GroupSummary)) {
	gs := &GroupSummary{}
	summary.Groups[group.String()] = gs

	defer func() {
		if r := recover(); r != nil {
			gs.Panicked = true
			err := fmt.Errorf("%s: panic: %v: %w", group, r, ErrResolution)
			summary.Errors = append(summary.Errors, err)
			e.logger.Error("Marker category failed", zap.String("group", group.String()), zap.Error(err))
		}
	}()
	fn(gs)
}

func (e *Engine) placeSingleton(
	ctx context.Context,
	policy Policy,
	group markerset.Group,
	gp GroupPolicy,
	resolve func(context.Context) (location.Point, bool),
	gs *GroupSummary,
	summary *Summary,
) {
	if !gp.Enabled {
		gs.Disabled = true
		return
	}

	pt, ok := resolve(ctx)
	if !ok {
		gs.Unresolved++
		summary.Errors = append(summary.Errors, fmt.Errorf("%s: %w", group, ErrResolution))
		e.logger.Warn("Location unresolved, skipping marker", zap.String("group", group.String()))
		return
	}

	if policy.Blacklisted(pt.World) {
		gs.Blacklisted++
		e.logger.Warn("Location is in a blacklisted world, skipping marker",
			zap.String("group", group.String()),
			zap.String("world", pt.World),
		)
		return
	}

	rec := markerset.NewRecord(group, group.String(), gp.Label, gp.Description, pt)
	if e.apply(ctx, group, rec, gs, summary) && policy.LogMarkerAdditions {
		e.logger.Info(gp.Label+" marker added", zap.String("at", pt.String()))
	}
}

func (e *Engine) placeWarps(ctx context.Context, policy Policy, gs *GroupSummary, summary *Summary) {
	if !policy.Warps.Enabled {
		gs.Disabled = true
		return
	}

	warps := e.locations.Warps(ctx)
	names := make([]string, 0, len(warps))
	for name := range warps {
		names = append(names, name)
	}
	sort.Strings(names)

	limit := policy.Warps.MaxWarps
	accepted := 0
	for _, name := range names {
		pt := warps[name]
		if policy.Blacklisted(pt.World) {
			gs.Blacklisted++
			continue
		}
		if limit > 0 && accepted >= limit {
			gs.Capped++
			continue
		}
		accepted++

		rec := markerset.NewRecord(markerset.Warps, markerset.WarpID(name),
			policy.Warps.LabelFor(name), policy.Warps.DescriptionFor(name), pt)
		e.apply(ctx, markerset.Warps, rec, gs, summary)
	}

	if policy.LogMarkerAdditions {
		e.logger.Info(fmt.Sprintf("%d warp markers added", gs.Added),
			zap.Int("blacklisted", gs.Blacklisted),
			zap.Int("capped", gs.Capped),
		)
	}
}

// apply writes the record and tracks it in the active set whenever it ended
// up in the renderer, so the two agree when the pass completes.
func (e *Engine) apply(ctx context.Context, group markerset.Group, rec markerset.Record, gs *GroupSummary, summary *Summary) bool {
	placed, err := e.registry.Put(ctx, group, rec)
	if placed {
		e.active[rec.ID] = rec
	}
	if err != nil {
		gs.Failed++
		summary.Errors = append(summary.Errors, fmt.Errorf("marker %s: %w: %w", rec.ID, ErrApply, err))
		return false
	}
	gs.Added++
	return true
}

func (e *Engine) report(policy Policy, summary Summary) {
	fields := []zap.Field{
		zap.Int("added", summary.Added()),
		zap.Int("cleared", summary.Cleared),
		zap.Int("errors", len(summary.Errors)),
		zap.Duration("duration", summary.Duration),
	}
	if policy.Debug {
		e.logger.Info("Markers updated successfully", fields...)
	} else {
		e.logger.Debug("Markers updated successfully", fields...)
	}

	e.notify(summary)
}

func (e *Engine) notify(summary Summary) {
	for _, o := range e.observers {
		o.ObservePass(summary)
	}
}
