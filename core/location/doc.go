// Package location reads spawn, first-spawn and warp coordinates from an
// external location source.
//
// The upstream data layout is not a stable contract. It has been observed as a
// list of warp objects, as name-keyed areas exposing a center point, and as
// name-keyed info objects exposing a location. The Provider therefore never
// calls the source directly for warps: the source publishes an ordered list of
// WarpStrategy values, each probing one known shape, and the Provider uses the
// first that yields data.
//
// # Guarantees
//
//   - No accessor error or panic escapes the Provider. Failures are logged and
//     degrade to fewer entries or an unknown point.
//   - Public strategies are always attempted before strategies flagged Internal.
//   - A strategy that returns entries together with an error is a partial read;
//     its entries are kept.
//
// # Usage
//
//	p := location.NewProvider(src, logger, location.WithFirstSpawnFallback(true))
//	if spawn, ok := p.Spawn(ctx); ok {
//	    fmt.Println(spawn)
//	}
//	warps := p.Warps(ctx)
package location
