// Package middleware groups the HTTP middleware of the admin API.
//
// # Components
//
//   - auth: API key check on the X-API-Key header (or api_key query).
//   - rayid: tags every request with a ray id, in locals and the X-Ray-ID
//     response header.
//   - requestlog: logs each request through zap with its ray id.
//   - requestmetrics: reports method, route, status and latency to the
//     metrics collector.
//
// Register rayid first so every later log line carries the id.
package middleware
