package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jaredv/focus-scheduler/pkg/log"
	"github.com/jaredv/focus-scheduler/pkg/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate <catalog-file>",
	Short: "Check a catalog's schedulability without running a solver",
	Long: `validate loads and expands a catalog, weaves its dependency graph,
and reports dependency cycles, zero-capacity resources, and instances
whose headcount demand exceeds their resource's total capacity -
problems that would block any scenario mode regardless of solver
choice.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	logger := log.WithComponent("cli")

	dataDir, _ := cmd.Flags().GetString("data-dir")
	store, err := openStore(dataDir)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	loaded, err := loadCatalogFile(args[0], store)
	if err != nil {
		return err
	}

	issues := validate.Schedulability(loaded.catalog, loaded.instances, loaded.edges)
	if len(issues) == 0 {
		logger.Info().
			Int("instances", len(loaded.instances)).
			Int("edges", len(loaded.edges)).
			Msg("catalog is schedulable")
		fmt.Println("OK: no schedulability issues found")
		return nil
	}

	for _, issue := range issues {
		fmt.Printf("ISSUE: %v\n", issue)
	}
	return fmt.Errorf("catalog has %d schedulability issue(s)", len(issues))
}
