package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jaredv/focus-scheduler/pkg/log"
	"github.com/jaredv/focus-scheduler/pkg/obs"
)

var serveMetricsCmd = &cobra.Command{
	Use:   "serve-metrics",
	Short: "Serve the Prometheus /metrics endpoint",
	Long: `serve-metrics runs only the metrics HTTP server, for deployments
that schedule runs out-of-process (e.g. a cron invoking "scheduler
run") but still want a long-lived scrape target for the counters and
gauges each run publishes.`,
	RunE: runServeMetrics,
}

func init() {
	serveMetricsCmd.Flags().String("addr", "127.0.0.1:9090", "Listen address for the metrics HTTP server")
}

func runServeMetrics(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	logger := log.WithComponent("cli")

	mux := http.NewServeMux()
	mux.Handle("/metrics", obs.Handler())

	logger.Info().Str("addr", addr).Msg("metrics endpoint listening")
	return http.ListenAndServe(addr, mux)
}
