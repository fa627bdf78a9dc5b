// Package api implements the HTTP REST surface for the historical
// toolstring service.
//
// New(agg, store, version) returns an http.Handler that serves:
//
//	GET /                   — service index: name, version, endpoint catalog
//	GET /api/v1/health      — store connectivity and run count
//	GET /api/v1/runs        — run summaries with derived stats; limit, sort_by, order
//	GET /api/v1/runs/{id}   — single run with ordered tools; 404 if unknown
//	GET /api/v1/tools       — tool usage stats; category, limit, min_usage
//	GET /api/v1/analytics   — dataset summary and per-category breakdown
//
// All endpoints:
//   - Respond with Content-Type: application/json
//   - Return 405 for non-GET methods
//   - Wrap collection results as {"status":"success","count":N,"data":[...]}
//     and single results as {"status":"success","data":{...}}; failures are
//     {"status":"error","message":"..."} with the matching HTTP status
//     (400 invalid argument, 404 not found, 503 store unavailable)
//
// The handler performs no I/O beyond the record store reads done by the
// aggregator. No external HTTP framework is used.
package api
