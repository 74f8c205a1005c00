package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"marker-sync/core/location"
	"marker-sync/core/markerset"
	"marker-sync/feature/renderer/memstore"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeLocations is a scriptable Locations.
type fakeLocations struct {
	mu         sync.Mutex
	spawn      *location.Point
	firstSpawn *location.Point
	warps      map[string]location.Point
	warpsPanic bool
	fallback   bool
}

func (f *fakeLocations) Spawn(ctx context.Context) (location.Point, bool) {
	if f.spawn == nil {
		return location.Point{}, false
	}
	return *f.spawn, true
}

func (f *fakeLocations) FirstSpawn(ctx context.Context) (location.Point, bool) {
	if f.firstSpawn == nil {
		return location.Point{}, false
	}
	return *f.firstSpawn, true
}

func (f *fakeLocations) Warps(ctx context.Context) map[string]location.Point {
	if f.warpsPanic {
		panic("warp table changed shape")
	}
	return f.warps
}

func (f *fakeLocations) SetFirstSpawnFallback(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallback = enabled
}

// countingObserver records every pass summary.
type countingObserver struct {
	mu     sync.Mutex
	passes []Summary
}

func (o *countingObserver) ObservePass(s Summary) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.passes = append(o.passes, s)
}

func p(world string, x, y, z float64) *location.Point {
	return &location.Point{World: world, X: x, Y: y, Z: z}
}

func newStore(t *testing.T) *memstore.Store {
	t.Helper()
	store, err := memstore.New(
		markerset.RenderMap{ID: "world", World: "world"},
		markerset.RenderMap{ID: "world_nether", World: "nether"},
	)
	require.NoError(t, err)
	return store
}

func newEngine(t *testing.T, locs Locations, renderer markerset.Renderer, policy Policy, logger *zap.Logger, opts ...Option) *Engine {
	t.Helper()
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := markerset.NewRegistry(logger)
	if renderer != nil {
		registry.Attach(renderer)
	}
	return NewEngine(locs, registry, func() Policy { return policy }, logger, opts...)
}

func keysOf(m map[string]markerset.Record) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func markersIn(t *testing.T, store *memstore.Store, mapID string, group markerset.Group) []string {
	t.Helper()
	ids, err := store.Markers(context.Background(), mapID, group.SetID())
	require.NoError(t, err)
	return ids
}

func TestEngine_InitializeScenario(t *testing.T) {
	policy := DefaultPolicy()
	policy.FirstSpawn.Enabled = false
	policy.Warps.MaxWarps = 2

	locs := &fakeLocations{
		spawn: p("world", 0, 64, 0),
		warps: map[string]location.Point{
			"c": *p("world", 3, 3, 3),
			"a": *p("world", 1, 1, 1),
			"b": *p("world", 2, 2, 2),
		},
	}
	store := newStore(t)
	engine := newEngine(t, locs, store, policy, nil)

	require.NoError(t, engine.Initialize(context.Background()))

	assert.Equal(t, Ready, engine.State())
	assert.ElementsMatch(t, []string{"spawn", "warp-a", "warp-b"}, keysOf(engine.Active()))
	assert.ElementsMatch(t, []string{"warp-a", "warp-b"}, markersIn(t, store, "world", markerset.Warps))
	assert.ElementsMatch(t, []string{"spawn"}, markersIn(t, store, "world_nether", markerset.Spawn))
	assert.Empty(t, markersIn(t, store, "world", markerset.FirstSpawn))

	warp := engine.Active()["warp-a"]
	assert.Equal(t, "Warp: a", warp.Label)
	assert.Equal(t, "Warp point: a", warp.Description)
}

func TestEngine_InitializeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	engine := newEngine(t, &fakeLocations{spawn: p("world", 0, 64, 0)}, store, DefaultPolicy(), nil)

	require.NoError(t, engine.Initialize(ctx))
	require.NoError(t, engine.Initialize(ctx))

	sets, err := store.MarkerSets(ctx, "world")
	require.NoError(t, err)
	assert.Len(t, sets, 3)
	assert.Equal(t, 3, mapset.NewSet(sets...).Cardinality())
	assert.Len(t, markersIn(t, store, "world", markerset.Spawn), 1)
}

func TestEngine_InitializeRendererUnavailable(t *testing.T) {
	engine := newEngine(t, &fakeLocations{}, nil, DefaultPolicy(), nil)

	err := engine.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrRendererUnavailable)
	assert.Equal(t, Uninitialized, engine.State())

	s := engine.Reconcile(context.Background())
	assert.True(t, s.Skipped)
	assert.Equal(t, Uninitialized, s.State)
}

func TestEngine_Blacklist(t *testing.T) {
	t.Run("blacklisted spawn is skipped with a warning", func(t *testing.T) {
		policy := DefaultPolicy()
		policy.WorldBlacklist = mapset.NewSet("nether")

		core, logs := observer.New(zapcore.WarnLevel)
		locs := &fakeLocations{spawn: p("nether", 0, 64, 0), firstSpawn: p("world", 1, 64, 1)}
		engine := newEngine(t, locs, newStore(t), policy, zap.New(core))
		require.NoError(t, engine.Initialize(context.Background()))

		s := engine.Reconcile(context.Background())
		assert.False(t, s.Skipped)
		assert.Equal(t, Ready, engine.State())
		assert.NotContains(t, engine.Active(), "spawn")
		assert.Contains(t, engine.Active(), "first-spawn")
		assert.Equal(t, 1, s.Group("spawn").Blacklisted)
		assert.NotZero(t, logs.FilterMessage("Location is in a blacklisted world, skipping marker").Len())
	})

	t.Run("blacklist applies per warp and before the cap", func(t *testing.T) {
		policy := DefaultPolicy()
		policy.WorldBlacklist = mapset.NewSet("nether")
		policy.Warps.MaxWarps = 2

		locs := &fakeLocations{warps: map[string]location.Point{
			"a": *p("nether", 1, 1, 1),
			"b": *p("world", 2, 2, 2),
			"c": *p("world", 3, 3, 3),
			"d": *p("world", 4, 4, 4),
		}}
		engine := newEngine(t, locs, newStore(t), policy, nil)
		require.NoError(t, engine.Initialize(context.Background()))

		s := engine.Reconcile(context.Background())
		assert.ElementsMatch(t, []string{"warp-b", "warp-c"}, keysOf(engine.Active()))
		assert.Equal(t, 1, s.Group("warps").Blacklisted)
		assert.Equal(t, 1, s.Group("warps").Capped)
		for _, rec := range engine.Active() {
			assert.NotEqual(t, "nether", rec.Point.World)
		}
	})
}

func TestEngine_MaxWarps(t *testing.T) {
	warps := map[string]location.Point{}
	for _, name := range []string{"e", "d", "c", "b", "a"} {
		warps[name] = *p("world", 1, 1, 1)
	}

	tests := []struct {
		name     string
		max      int
		expected int
	}{
		{name: "capped", max: 3, expected: 3},
		{name: "zero is unlimited", max: 0, expected: 5},
		{name: "negative is unlimited", max: -1, expected: 5},
		{name: "cap above size", max: 10, expected: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := DefaultPolicy()
			policy.Warps.MaxWarps = tt.max
			store := newStore(t)
			engine := newEngine(t, &fakeLocations{warps: warps}, store, policy, nil)
			require.NoError(t, engine.Initialize(context.Background()))

			assert.Len(t, engine.Active(), tt.expected)
			assert.Len(t, markersIn(t, store, "world", markerset.Warps), tt.expected)
		})
	}
}

func TestEngine_WarpsAcceptedInNameOrder(t *testing.T) {
	policy := DefaultPolicy()
	policy.Warps.MaxWarps = 2
	locs := &fakeLocations{warps: map[string]location.Point{
		"zeta":  *p("world", 1, 1, 1),
		"alpha": *p("world", 1, 1, 1),
		"mid":   *p("world", 1, 1, 1),
	}}
	engine := newEngine(t, locs, newStore(t), policy, nil)

	for i := 0; i < 5; i++ {
		require.NoError(t, engine.Initialize(context.Background()))
		assert.ElementsMatch(t, []string{"warp-alpha", "warp-mid"}, keysOf(engine.Active()))
	}
}

func TestEngine_FaultIsolation(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	locs := &fakeLocations{
		spawn:      p("world", 0, 64, 0),
		firstSpawn: p("world", 5, 64, 5),
		warpsPanic: true,
	}
	engine := newEngine(t, locs, newStore(t), DefaultPolicy(), zap.New(core))
	require.NoError(t, engine.Initialize(context.Background()))

	s := engine.Reconcile(context.Background())
	assert.Equal(t, Ready, engine.State())
	assert.ElementsMatch(t, []string{"spawn", "first-spawn"}, keysOf(engine.Active()))
	require.Len(t, s.Errors, 1)
	assert.ErrorIs(t, s.Errors[0], ErrResolution)
	assert.True(t, s.Group("warps").Panicked)
	assert.Equal(t, 1, logs.FilterMessage("Marker category failed").Len())
}

func TestEngine_EverythingFailsStillCompletes(t *testing.T) {
	engine := newEngine(t, &fakeLocations{warpsPanic: true}, newStore(t), DefaultPolicy(), nil)
	require.NoError(t, engine.Initialize(context.Background()))

	s := engine.Reconcile(context.Background())
	assert.False(t, s.Skipped)
	assert.Empty(t, engine.Active())
	assert.Equal(t, Ready, engine.State())
	assert.Equal(t, 1, s.Group("spawn").Unresolved)
	assert.Equal(t, 1, s.Group("first-spawn").Unresolved)
}

func TestEngine_ReconcileReflectsRemovals(t *testing.T) {
	locs := &fakeLocations{warps: map[string]location.Point{
		"a": *p("world", 1, 1, 1),
		"b": *p("world", 2, 2, 2),
	}}
	store := newStore(t)
	engine := newEngine(t, locs, store, DefaultPolicy(), nil)
	require.NoError(t, engine.Initialize(context.Background()))
	assert.Len(t, markersIn(t, store, "world", markerset.Warps), 2)

	locs.warps = map[string]location.Point{"b": *p("world", 2, 2, 2)}
	s := engine.Reconcile(context.Background())

	assert.Equal(t, []string{"warp-b"}, markersIn(t, store, "world", markerset.Warps))
	assert.Equal(t, 4, s.Cleared)
}

func TestEngine_DisabledGroups(t *testing.T) {
	policy := DefaultPolicy()
	policy.Spawn.Enabled = false
	policy.Warps.Enabled = false
	locs := &fakeLocations{
		spawn:      p("world", 0, 64, 0),
		firstSpawn: p("world", 1, 64, 1),
		warps:      map[string]location.Point{"a": *p("world", 1, 1, 1)},
	}
	engine := newEngine(t, locs, newStore(t), policy, nil)
	require.NoError(t, engine.Initialize(context.Background()))

	s := engine.Reconcile(context.Background())
	assert.Equal(t, []string{"first-spawn"}, keysOf(engine.Active()))
	assert.True(t, s.Group("spawn").Disabled)
	assert.True(t, s.Group("warps").Disabled)
}

func TestEngine_PolicySnapshotPerPass(t *testing.T) {
	var mu sync.Mutex
	policy := DefaultPolicy()
	locs := &fakeLocations{spawn: p("world", 0, 64, 0)}

	registry := markerset.NewRegistry(zap.NewNop())
	registry.Attach(newStore(t))
	engine := NewEngine(locs, registry, func() Policy {
		mu.Lock()
		defer mu.Unlock()
		return policy
	}, zap.NewNop())
	require.NoError(t, engine.Initialize(context.Background()))
	assert.Contains(t, engine.Active(), "spawn")
	assert.True(t, locs.fallback)

	mu.Lock()
	policy.Spawn.Enabled = false
	policy.FirstSpawnFallback = false
	mu.Unlock()

	engine.Reconcile(context.Background())
	assert.NotContains(t, engine.Active(), "spawn")
	assert.False(t, locs.fallback)
}

func TestEngine_Observer(t *testing.T) {
	obs := &countingObserver{}
	engine := newEngine(t, &fakeLocations{spawn: p("world", 0, 64, 0)}, newStore(t), DefaultPolicy(), nil, WithObserver(obs))
	require.NoError(t, engine.Initialize(context.Background()))
	engine.Reconcile(context.Background())

	require.Len(t, obs.passes, 2)
	assert.Equal(t, 1, obs.passes[1].Added())
}

func TestEngine_ConcurrentReconcile(t *testing.T) {
	warps := map[string]location.Point{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		warps[name] = *p("world", 1, 1, 1)
	}
	store := newStore(t)
	engine := newEngine(t, &fakeLocations{spawn: p("world", 0, 64, 0), warps: warps}, store, DefaultPolicy(), nil)
	require.NoError(t, engine.Initialize(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := engine.Reconcile(context.Background())
			assert.False(t, s.Skipped)
		}()
	}
	wg.Wait()

	assert.Len(t, engine.Active(), 7)
	assert.Len(t, markersIn(t, store, "world", markerset.Warps), 6)
	assert.Len(t, markersIn(t, store, "world", markerset.Spawn), 1)
	for _, handles := range engine.registry.Handles() {
		assert.Len(t, handles, 2)
	}
}

// gatedRenderer blocks the first marker write until released.
type gatedRenderer struct {
	*memstore.Store
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedRenderer) PutMarker(ctx context.Context, mapID, setID string, marker markerset.POI) error {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return g.Store.PutMarker(ctx, mapID, setID, marker)
}

func TestEngine_ShutdownWaitsForPass(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	gated := &gatedRenderer{
		Store:   store,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	locs := &fakeLocations{
		spawn: p("world", 0, 64, 0),
		warps: map[string]location.Point{"a": *p("world", 1, 1, 1)},
	}
	engine := newEngine(t, locs, gated, DefaultPolicy(), nil)

	initDone := make(chan error, 1)
	go func() { initDone <- engine.Initialize(ctx) }()
	<-gated.entered
	assert.Equal(t, Reconciling, engine.State())

	shutdownDone := make(chan struct{})
	go func() {
		engine.Shutdown(ctx)
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		t.Fatal("shutdown returned while a pass was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(gated.release)
	require.NoError(t, <-initDone)
	<-shutdownDone

	assert.Equal(t, Stopped, engine.State())
	assert.Empty(t, engine.Active())
	for _, g := range markerset.Groups() {
		assert.Empty(t, markersIn(t, store, "world", g))
		assert.Empty(t, markersIn(t, store, "world_nether", g))
	}
	sets, err := store.MarkerSets(ctx, "world")
	require.NoError(t, err)
	assert.Len(t, sets, 3)
}

func TestEngine_ShutdownIdempotentAndTerminal(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t, &fakeLocations{spawn: p("world", 0, 64, 0)}, newStore(t), DefaultPolicy(), nil)
	require.NoError(t, engine.Initialize(ctx))

	engine.Shutdown(ctx)
	engine.Shutdown(ctx)
	assert.Equal(t, Stopped, engine.State())

	assert.True(t, engine.Reconcile(ctx).Skipped)
	assert.ErrorIs(t, engine.Initialize(ctx), ErrInvalidState)
	assert.ErrorIs(t, engine.OnRendererAvailable(ctx, newStore(t)), ErrInvalidState)

	engine.OnRendererUnavailable()
	assert.Equal(t, Stopped, engine.State())
}

func TestEngine_RendererLifecycle(t *testing.T) {
	ctx := context.Background()
	locs := &fakeLocations{spawn: p("world", 0, 64, 0)}
	first := newStore(t)
	engine := newEngine(t, locs, first, DefaultPolicy(), nil)
	require.NoError(t, engine.Initialize(ctx))

	engine.OnRendererUnavailable()
	assert.Equal(t, Uninitialized, engine.State())
	assert.Empty(t, engine.Active())
	// The old renderer is left untouched.
	assert.Len(t, markersIn(t, first, "world", markerset.Spawn), 1)
	assert.True(t, engine.Reconcile(ctx).Skipped)

	second := newStore(t)
	require.NoError(t, engine.OnRendererAvailable(ctx, second))
	assert.Equal(t, Ready, engine.State())
	assert.Contains(t, engine.Active(), "spawn")
	assert.Len(t, markersIn(t, second, "world", markerset.Spawn), 1)
}

func TestEngine_ApplyFailureCounted(t *testing.T) {
	store := newStore(t)
	engine := newEngine(t, &fakeLocations{spawn: p("world", 0, 64, 0)}, store, DefaultPolicy(), nil)
	require.NoError(t, engine.Initialize(context.Background()))

	require.NoError(t, store.RemoveMarkerSet(context.Background(), "world", markerset.Spawn.SetID()))
	s := engine.Reconcile(context.Background())

	assert.Equal(t, 1, s.Group("spawn").Failed)
	assert.NotContains(t, engine.Active(), "spawn")
	// The write that succeeded on the other map is rolled back.
	assert.Empty(t, markersIn(t, store, "world_nether", markerset.Spawn))
	applyErrors := 0
	for _, err := range s.Errors {
		if errors.Is(err, ErrApply) {
			applyErrors++
		}
	}
	assert.Equal(t, 1, applyErrors)
}

// mapFailingRenderer rejects marker writes on one map.
type mapFailingRenderer struct {
	*memstore.Store
	failMap    string
	failRemove bool
}

func (r *mapFailingRenderer) PutMarker(ctx context.Context, mapID, setID string, marker markerset.POI) error {
	if mapID == r.failMap {
		return errors.New("write rejected")
	}
	return r.Store.PutMarker(ctx, mapID, setID, marker)
}

func (r *mapFailingRenderer) RemoveMarker(ctx context.Context, mapID, setID, markerID string) error {
	if r.failRemove {
		return errors.New("remove rejected")
	}
	return r.Store.RemoveMarker(ctx, mapID, setID, markerID)
}

func TestEngine_PartialWriteKeepsActiveSetInAgreement(t *testing.T) {
	t.Run("RolledBack", func(t *testing.T) {
		store := newStore(t)
		renderer := &mapFailingRenderer{Store: store, failMap: "world_nether"}
		engine := newEngine(t, &fakeLocations{spawn: p("world", 0, 64, 0)}, renderer, DefaultPolicy(), nil)
		require.NoError(t, engine.Initialize(context.Background()))

		assert.NotContains(t, engine.Active(), "spawn")
		assert.Empty(t, markersIn(t, store, "world", markerset.Spawn))
		assert.Empty(t, markersIn(t, store, "world_nether", markerset.Spawn))
	})

	t.Run("RollbackFails", func(t *testing.T) {
		store := newStore(t)
		renderer := &mapFailingRenderer{Store: store, failMap: "world_nether"}
		engine := newEngine(t, &fakeLocations{spawn: p("world", 0, 64, 0)}, renderer, DefaultPolicy(), nil)
		require.NoError(t, engine.Initialize(context.Background()))

		// A renderer that cannot remove the partial write keeps it tracked.
		renderer.failRemove = true
		s := engine.Reconcile(context.Background())

		assert.Equal(t, 1, s.Group("spawn").Failed)
		assert.Equal(t, 0, s.Group("spawn").Added)
		assert.Contains(t, engine.Active(), "spawn")
		assert.Equal(t, []string{"spawn"}, markersIn(t, store, "world", markerset.Spawn))
	})
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "shutting_down", ShuttingDown.String())
	assert.Equal(t, "unknown", State(42).String())
}
