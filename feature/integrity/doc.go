// Package integrity checks that a deployment can run marker updates.
//
// Checks:
//   - documents: the spawn, worlds and warps documents can be fetched
//   - renderer: the marker tables match the expected schema (sql driver)
//   - storage: the bucket exists and holds the documents (bucket driver)
//
// Checks that do not apply to the configured drivers are reported as skipped.
package integrity
