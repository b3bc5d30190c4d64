// Package api serves the authority's read-only HTTP status surface.
//
// Endpoints:
//   - GET /api/v1/health: liveness plus the health of optional components
//   - GET /api/v1/lock/status: attempt counter, door phase and storage state
//   - GET /api/v1/metrics: runtime and link counters
//
// Nothing here can change lock state; credentials only travel over the
// serial link.
package api
