// Package toolstring holds the domain model and aggregation core for
// historical toolstring runs.
//
// A Run is one recorded toolstring deployment (anonymized as to well
// identity) composed of ordered tool Placements. All statistics exposed by
// the API — per-run tool counts, total lengths, maximum ODs, and per-name
// usage stats — are derived here from raw placement rows on every call;
// nothing pre-computed is ever read from the record store.
//
// The Aggregator consumes the Store interface and is stateless per call:
// it holds no mutable state and recomputes every aggregate from scratch.
// Record store implementations live in internal/store.
package toolstring
