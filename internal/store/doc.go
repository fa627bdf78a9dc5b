// Package store provides the record-store implementations behind the
// toolstring.Store interface: a thread-safe in-memory store seeded from a
// dataset file (the default local mode), plus a factory that selects
// between it and the SQLite and Postgres backends in the subpackages.
package store
