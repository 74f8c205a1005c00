// Package utils provides common utility functions for the marker-sync application.
// It includes helpers for converting loosely typed values, as produced by the
// YAML, JSON and TOML decoders, into concrete Go types.
package utils
