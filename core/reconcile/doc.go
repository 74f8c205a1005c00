// Package reconcile mirrors resolved locations into renderer marker sets.
//
// The Engine owns the active set, the mapping of marker id to the record it
// believes is rendered. Every pass clears the renderer containers and rebuilds
// them from scratch, so the renderer converges to the source even after
// renames or removals upstream.
//
// # Lifecycle
//
//	Uninitialized -> Ready -> Reconciling -> Ready -> ShuttingDown -> Stopped
//
// Initialize creates the marker containers (purging every id this system has
// ever used) and runs the first pass. Reconcile outside Ready is a logged
// no-op. Shutdown waits for a pass in flight, empties the containers and
// stops the engine for good.
//
// The host may report renderer restarts with OnRendererAvailable and
// OnRendererUnavailable; the latter drops handles without touching the
// renderer and returns the engine to Uninitialized.
//
// # Pass
//
// A pass snapshots the Policy, clears the containers, then places spawn,
// first spawn and warps in that order. Each category is isolated: a panic or
// failure in one is counted and logged and the others still run. Warps are
// accepted in name order, filtered by the world blacklist and capped by
// MaxWarps.
//
// # Usage Example
//
//	registry := markerset.NewRegistry(logger)
//	registry.Attach(store)
//	engine := reconcile.NewEngine(provider, registry, cfg.Policy, logger,
//	    reconcile.WithObserver(collector))
//
//	if err := engine.Initialize(ctx); err != nil {
//	    return err
//	}
//	summary := engine.Reconcile(ctx)
package reconcile
