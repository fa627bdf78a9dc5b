/*
Package main is the entry point for the welltegra-api CLI.

welltegra-api serves read-only historical toolstring run data and tool
usage statistics over HTTP.

Usage:

	welltegra-api [command]

Available Commands:

	serve       Run the HTTP API server
	load        Import a dataset file into a sqlite or postgres store
	help        Help about any command

Examples:

	# Serve the bundled sample dataset from memory
	welltegra-api serve --config config.example.yaml

	# Import the dataset into a local SQLite file
	welltegra-api load --config config.example.yaml --driver sqlite
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/welltegra/welltegra-api/internal/cli"
	"github.com/welltegra/welltegra-api/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "welltegra-api",
		Short:   "Historical toolstring run API",
		Long:    "welltegra-api exposes read-only historical toolstring runs, per-run\ntool placements and derived tool usage statistics from a record store.",
		Version: version.String(),
	}

	rootCmd.AddCommand(cli.NewServeCmd())
	rootCmd.AddCommand(cli.NewLoadCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
