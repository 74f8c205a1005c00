package location

import (
	"context"
	"errors"
)

// ErrUnsupported is returned by a Source accessor when the upstream does not
// expose the requested concept. It is not a failure.
var ErrUnsupported = errors.New("not supported by location source")

// ErrSourceUnavailable is returned when the location source cannot be read at all.
var ErrSourceUnavailable = errors.New("location source unavailable")

// Source is the read-only facade over the external location source.
// Any accessor may return ErrUnsupported instead of a value.
type Source interface {
	// Name identifies the source in logs.
	Name() string

	// Available reports whether the source can currently be read.
	Available(ctx context.Context) bool

	// ConfiguredSpawn returns the spawn configured in the upstream plugin.
	ConfiguredSpawn(ctx context.Context) (*Point, error)

	// WorldSpawn returns the platform's default spawn of the given world.
	WorldSpawn(ctx context.Context, world string) (*Point, error)

	// FirstSpawn returns a distinct spawn for new players.
	FirstSpawn(ctx context.Context) (*Point, error)

	// WarpStrategies returns the warp readers to try, in order.
	WarpStrategies() []WarpStrategy
}

// WarpStrategy reads warps from one known upstream shape.
type WarpStrategy interface {
	// Name labels the strategy in logs (e.g. "warp-list").
	Name() string

	// Internal marks readers that rely on non-public upstream data.
	// They are only used after every public strategy came up empty.
	Internal() bool

	// Warps returns the warps found. A nil error with an empty map means the
	// shape is absent. Entries returned alongside an error are a partial read.
	Warps(ctx context.Context) (map[string]Point, error)
}
