// Package config loads the service configuration from a YAML file.
//
// Config fields:
//   - Server.HTTPPort      — port for the REST API and metrics (default 8080)
//   - Server.CORSOrigins   — allowed CORS origins; supports "*" wildcards
//   - Server.DefaultLimit  — default result cap for tool stats (default 50)
//   - Server.MaxLimit      — hard cap on any caller-supplied limit (default 1000)
//   - Store.Driver         — "memory", "sqlite" or "postgres" (default memory)
//   - Store.Dataset        — dataset file backing the memory driver
//   - Store.Watch          — hot-reload the dataset file on change
//   - Store.SQLitePath     — database file for the sqlite driver
//   - Store.PostgresDSNEnv — environment variable holding the Postgres DSN
//   - Log.Level            — debug | info | warn | error (default info)
//
// Load(path) applies defaults before unmarshalling, then validates.
package config
