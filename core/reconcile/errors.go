package reconcile

import (
	"errors"

	"marker-sync/core/location"
	"marker-sync/core/markerset"
)

var (
	// ErrSourceUnavailable means the location source cannot be read at all.
	ErrSourceUnavailable = location.ErrSourceUnavailable

	// ErrRendererUnavailable means the map renderer is missing or not ready.
	ErrRendererUnavailable = markerset.ErrRendererUnavailable

	// ErrResolution wraps a failure to resolve a location category.
	ErrResolution = errors.New("location resolution failed")

	// ErrApply wraps a marker the renderer did not accept.
	ErrApply = errors.New("marker apply failed")

	// ErrInvalidState is returned when an operation is not allowed in the
	// engine's current state.
	ErrInvalidState = errors.New("invalid engine state")
)
