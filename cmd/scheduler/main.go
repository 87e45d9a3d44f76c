package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jaredv/focus-scheduler/pkg/log"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Constraint-based production scheduler for assembly product lines",
	Long: `scheduler turns a sectioned CSV catalog of product lines, baseline
tasks, inspection requirements, and team capacities into a concrete
minute-resolution schedule.

It runs three scenario modes against the same catalog: baseline
(fixed capacity, minimize lateness), joint-optimize (grow bottleneck
team capacity alongside the schedule), and what-if (bias one product's
completion ahead of the rest without touching capacity).`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"scheduler version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("config", "", "Path to a run configuration YAML file")
	rootCmd.PersistentFlags().String("data-dir", "", "Directory for the BoltDB-backed dependency/scenario cache (empty disables caching)")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(serveMetricsCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}
