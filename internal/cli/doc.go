// Package cli defines the welltegra-api subcommands: serve runs the HTTP
// service, load imports a dataset file into a SQLite or Postgres store.
package cli
