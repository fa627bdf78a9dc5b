package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/welltegra/welltegra-api/internal/api"
	"github.com/welltegra/welltegra-api/internal/config"
	"github.com/welltegra/welltegra-api/internal/dataset"
	"github.com/welltegra/welltegra-api/internal/metrics"
	"github.com/welltegra/welltegra-api/internal/store"
	"github.com/welltegra/welltegra-api/internal/toolstring"
	"github.com/welltegra/welltegra-api/internal/version"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the 'serve' command that runs the HTTP service.
func NewServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the historical toolstring HTTP API",
		Long: `Start the welltegra-api HTTP server.

The server exposes the read-only run and tool-statistics endpoints under
/api/v1, a health check, and Prometheus metrics on /metrics. The record
store backend (memory, sqlite or postgres) is selected in the config file.`,
		Example: `  # Serve the bundled sample dataset from memory
  welltegra-api serve --config config.example.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
	return cmd
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(logger)

	slog.Info("welltegra-api starting",
		"version", version.Version,
		"config", configPath,
		"http_port", cfg.Server.HTTPPort,
		"store_driver", cfg.Store.Driver,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, closeStore, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			slog.Error("closing store", "err", err)
		}
	}()

	// Hot reload of the dataset file applies only to the memory driver.
	if cfg.Store.Driver == "memory" && cfg.Store.Watch {
		mem, ok := st.(*store.Memory)
		if !ok {
			return fmt.Errorf("store.watch requires the memory driver store")
		}
		go func() {
			if err := dataset.Watch(ctx, cfg.Store.Dataset, mem.Replace); err != nil {
				slog.Error("dataset watcher stopped", "err", err)
			}
		}()
	}

	agg := toolstring.NewAggregator(st, toolstring.Limits{
		Default: cfg.Server.DefaultLimit,
		Max:     cfg.Server.MaxLimit,
	})
	m := metrics.New()
	cors := api.CORS(cfg.Server.CORSOrigins)

	mux := http.NewServeMux()
	mux.Handle("/", cors(m.Instrument(api.New(agg, st, version.Version))))
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: mux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("welltegra-api shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}
