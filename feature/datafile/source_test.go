package datafile

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"marker-sync/core/location"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	spawnYAML = `spawn:
  world: world
  x: 100
  y: 64
  z: -200
first-spawn: "world;0;70;0;90;0"
`
	worldsYAML = `worlds:
  world:
    spawn:
      x: 1
      y: 2
      z: 3
  world_nether:
    spawn: "world_nether;4;5;6"
`
	warpListYAML = `warps:
  - name: market
    location: {world: world, x: 10, y: 64, z: 10}
  - name: arena
    location: "world;-50;70;25"
  - name: broken
    location: "world;nope"
  - name: void
    location: "world;NaN;64;+Inf"
  - name: glitch
    location: {world: world, x: .nan, y: 1, z: 2}
  - location: {world: world, x: 1, y: 1, z: 1}
`
	warpAreasYAML = `areas:
  plaza:
    world: world
    center: {x: 5, y: 64, z: 5}
  mine:
    world: world
    min: {x: 0, y: 10, z: 0}
    max: {x: 10, y: 30, z: 20}
`
	warpInfoYAML = `warp-info:
  hidden:
    location: "world;7;8;9"
`
)

func newTestSource(t *testing.T, files map[string]string) *Source {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return NewSource(NewDirFetcher(dir), Config{
		SpawnFile:  "spawn.yml",
		WorldsFile: "worlds.yml",
		WarpsFile:  "warps.yml",
	}, zap.NewNop())
}

func TestSource_Spawns(t *testing.T) {
	src := newTestSource(t, map[string]string{"spawn.yml": spawnYAML, "worlds.yml": worldsYAML})
	ctx := context.Background()

	assert.True(t, src.Available(ctx))
	assert.Contains(t, src.Name(), "datafile:")

	pt, err := src.ConfiguredSpawn(ctx)
	require.NoError(t, err)
	assert.Equal(t, location.Point{World: "world", X: 100, Y: 64, Z: -200}, *pt)

	pt, err = src.FirstSpawn(ctx)
	require.NoError(t, err)
	assert.Equal(t, location.Point{World: "world", X: 0, Y: 70, Z: 0}, *pt)

	pt, err = src.WorldSpawn(ctx, "world")
	require.NoError(t, err)
	assert.Equal(t, location.Point{World: "world", X: 1, Y: 2, Z: 3}, *pt)

	pt, err = src.WorldSpawn(ctx, "world_nether")
	require.NoError(t, err)
	assert.Equal(t, location.Point{World: "world_nether", X: 4, Y: 5, Z: 6}, *pt)

	_, err = src.WorldSpawn(ctx, "world_the_end")
	assert.Error(t, err)
}

func TestSource_MissingDocuments(t *testing.T) {
	src := newTestSource(t, nil)
	ctx := context.Background()

	assert.False(t, src.Available(ctx))

	_, err := src.ConfiguredSpawn(ctx)
	assert.ErrorIs(t, err, location.ErrUnsupported)
	_, err = src.FirstSpawn(ctx)
	assert.ErrorIs(t, err, location.ErrUnsupported)
	_, err = src.WorldSpawn(ctx, "world")
	assert.ErrorIs(t, err, location.ErrUnsupported)

	for _, s := range src.WarpStrategies() {
		warps, err := s.Warps(ctx)
		assert.NoError(t, err, s.Name())
		assert.Empty(t, warps, s.Name())
	}
}

func TestSource_FirstSpawnAbsent(t *testing.T) {
	src := newTestSource(t, map[string]string{"spawn.yml": "spawn: \"world;1;2;3\"\n"})
	_, err := src.FirstSpawn(context.Background())
	assert.ErrorIs(t, err, location.ErrUnsupported)
}

func TestSource_MalformedSpawn(t *testing.T) {
	src := newTestSource(t, map[string]string{"spawn.yml": "spawn: {world: world, x: 1}\n"})
	_, err := src.ConfiguredSpawn(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, location.ErrUnsupported)
}

func TestSource_WarpStrategies(t *testing.T) {
	src := newTestSource(t, map[string]string{"warps.yml": warpListYAML + warpAreasYAML + warpInfoYAML})
	strategies := src.WarpStrategies()
	require.Len(t, strategies, 3)

	names := make([]string, 0, 3)
	for _, s := range strategies {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"warp-list", "warp-areas", "warp-info"}, names)
	assert.False(t, strategies[0].Internal())
	assert.False(t, strategies[1].Internal())
	assert.True(t, strategies[2].Internal())

	ctx := context.Background()

	warps, err := strategies[0].Warps(ctx)
	assert.ErrorIs(t, err, ErrMalformedEntry)
	assert.ErrorContains(t, err, "#4")
	assert.ErrorContains(t, err, "#5")
	assert.Equal(t, map[string]location.Point{
		"market": {World: "world", X: 10, Y: 64, Z: 10},
		"arena":  {World: "world", X: -50, Y: 70, Z: 25},
	}, warps)

	warps, err = strategies[1].Warps(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]location.Point{
		"plaza": {World: "world", X: 5, Y: 64, Z: 5},
		"mine":  {World: "world", X: 5, Y: 20, Z: 10},
	}, warps)

	warps, err = strategies[2].Warps(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]location.Point{"hidden": {World: "world", X: 7, Y: 8, Z: 9}}, warps)
}

func TestSource_ProviderFallsThroughShapes(t *testing.T) {
	src := newTestSource(t, map[string]string{"warps.yml": warpInfoYAML})
	p := location.NewProvider(src, zap.NewNop())

	warps := p.Warps(context.Background())
	assert.Equal(t, map[string]location.Point{"hidden": {World: "world", X: 7, Y: 8, Z: 9}}, warps)
}

func TestSource_JSONAndTOML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spawn.json"),
		[]byte(`{"spawn": "world;1;2;3"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "warps.toml"), []byte(`
[[warps]]
name = "market"
location = "world;10;64;10"

[[warps]]
name = "arena"
[warps.location]
world = "world"
x = -50
y = 70
z = 25
`), 0o644))

	src := NewSource(NewDirFetcher(dir), Config{SpawnFile: "spawn.json", WarpsFile: "warps.toml"}, zap.NewNop())
	ctx := context.Background()

	pt, err := src.ConfiguredSpawn(ctx)
	require.NoError(t, err)
	assert.Equal(t, location.Point{World: "world", X: 1, Y: 2, Z: 3}, *pt)

	warps, err := src.WarpStrategies()[0].Warps(ctx)
	require.NoError(t, err)
	assert.Len(t, warps, 2)
	assert.Equal(t, -50.0, warps["arena"].X)
}

type countingFetcher struct {
	inner Fetcher
	calls atomic.Int32
	delay time.Duration
}

func (f *countingFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	f.calls.Add(1)
	time.Sleep(f.delay)
	return f.inner.Fetch(ctx, name)
}

func (f *countingFetcher) Location() string { return f.inner.Location() }

func TestSource_CacheAndInvalidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spawn.yml")
	require.NoError(t, os.WriteFile(path, []byte(spawnYAML), 0o644))

	fetcher := &countingFetcher{inner: NewDirFetcher(dir), delay: 20 * time.Millisecond}
	src := NewSource(fetcher, Config{SpawnFile: "spawn.yml", CacheTTL: time.Minute}, zap.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = src.ConfiguredSpawn(ctx)
		}()
	}
	wg.Wait()
	_, _ = src.FirstSpawn(ctx)
	assert.Equal(t, int32(1), fetcher.calls.Load())

	require.NoError(t, os.WriteFile(path, []byte("spawn: \"world;9;9;9\"\n"), 0o644))
	src.Invalidate()

	pt, err := src.ConfiguredSpawn(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9.0, pt.X)
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestSource_NoCacheWithZeroTTL(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spawn.yml"), []byte(spawnYAML), 0o644))

	fetcher := &countingFetcher{inner: NewDirFetcher(dir)}
	src := NewSource(fetcher, Config{SpawnFile: "spawn.yml"}, zap.NewNop())

	_, _ = src.ConfiguredSpawn(context.Background())
	_, _ = src.ConfiguredSpawn(context.Background())
	assert.Equal(t, int32(2), fetcher.calls.Load())
}
