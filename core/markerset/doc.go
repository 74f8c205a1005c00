// Package markerset owns the marker-set containers this system creates in the
// external map renderer.
//
// Each logical Group (spawn, first spawn, warps) maps to exactly one container
// per render map. Containers are identified by a stable id, never by label.
// EnsureGroups removes any container carrying a known id (including ids used
// by earlier releases) before creating fresh ones, so repeated initialization
// never leaves duplicate or orphaned containers behind.
//
// Writes are best effort: a failing write is logged with the marker id and the
// remaining writes of the batch continue.
package markerset
