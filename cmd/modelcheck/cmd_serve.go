package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"modelcheck/internal/logging"
	mcpserver "modelcheck/internal/mcp"
	"modelcheck/internal/rules"
	"modelcheck/internal/store"
)

var serveFlags struct {
	metricsAddr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout exposing evaluate_rules,
check_property, list_predicates and list_runs. Evaluations are stored as
runs when a store is configured.

The server exits when its parent process goes away. With --metrics (or
"metrics" in the config) Prometheus counters are served at /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.metricsAddr, "metrics", "", "Serve Prometheus metrics on this address, e.g. :9464 (default from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := logging.New("mcp")
	if cmd.Flags().Changed("metrics") {
		cfg.Metrics = serveFlags.metricsAddr
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	var runStore store.Store
	if st != nil {
		defer st.Close()
		runStore = st
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	srv := mcpserver.NewServer(runStore)
	srv.Rules = ruleOptions()
	srv.EmptyValues = cfg.EmptyValueSet()
	srv.FuzzyThreshold = cfg.FuzzyThreshold

	if cfg.Metrics != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		srv.Rules.Metrics = rules.NewMetrics(reg)
		stop := serveMetrics(cfg.Metrics, reg, logger)
		defer stop()
	}

	mcpserver.WatchParent(ctx, cancel)

	logger.Info("starting modelcheck MCP server over stdio", slog.String("db", cfg.DBPath))
	return srv.Run(ctx)
}

// serveMetrics exposes reg on addr until the returned stop func is called.
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	hs := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", slog.Any("error", err))
		}
	}()
	logger.Info("serving metrics", slog.String("addr", addr))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = hs.Shutdown(ctx)
	}
}
