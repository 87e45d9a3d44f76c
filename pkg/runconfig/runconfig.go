// Package runconfig collects the settings a scheduler invocation needs
// beyond the catalog file itself: per-mode solver time budgets, the
// heuristic fallback's search limits, and which engine(s) a run is
// allowed to use. It is populated from an optional YAML file overlaid
// with flags, following the same "defaults, then file, then flags win"
// layering the reference's CLI argument parsing uses.
package runconfig

import (
	"fmt"
	"os"
	"time"

	"github.com/jaredv/focus-scheduler/pkg/scenario"
	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
	"gopkg.in/yaml.v3"
)

// Config is the full set of tunables a run command needs. Field names
// match the YAML keys a config file uses (lowercase, underscored).
type Config struct {
	// SolverWorkers mirrors the reference's solver.parameters.num_workers;
	// the bounded search here is single-threaded, and RunOptions does
	// not pass this value to it (the perturbation budget is
	// MaxAttempts), so it is parsed and defaulted but not used.
	SolverWorkers int `yaml:"solver_workers"`

	// TimeLimits holds the per-mode wall-clock budget in seconds,
	// defaulting to the reference's scenario_1/scenario_3/what_if
	// defaults of 60/90/60.
	TimeLimits TimeLimits `yaml:"time_limits"`

	// SanityYear rejects any computed start past this year outright,
	// catching a runaway schedule before it tries to materialize
	// years of calendar days.
	SanityYear int `yaml:"sanity_year"`

	// MaxRetries bounds how many times the heuristic fallback retries
	// an instance before marking it failed.
	MaxRetries int `yaml:"max_retries"`

	// MaxDaysAheadSearch bounds how many calendar days the heuristic
	// fallback's slot search walks forward before giving up.
	MaxDaysAheadSearch int `yaml:"max_days_ahead_search"`

	// MaxAttempts bounds the CP-style search's perturbation rounds
	// within a single mode's time budget.
	MaxAttempts int `yaml:"max_attempts"`

	// Seed seeds the search's tie-break perturbation so a run is
	// reproducible given the same catalog and mode.
	Seed int64 `yaml:"seed"`

	// EnginePolicy selects which engine(s) a run may use: "cp_only",
	// "heuristic_only", or "cp_then_heuristic" (the default — CP first,
	// falling back to the heuristic scheduler on timeout/infeasibility).
	EnginePolicy string `yaml:"engine_policy"`

	// DataDir holds the BoltDB-backed dependency-graph and scenario
	// cache; empty disables caching.
	DataDir string `yaml:"data_dir"`
}

// TimeLimits holds each mode's wall-clock budget, in seconds.
type TimeLimits struct {
	Baseline int `yaml:"baseline"`
	Joint    int `yaml:"joint"`
	WhatIf   int `yaml:"what_if"`
}

// Default mirrors the reference's hardcoded scenario defaults:
// 60s/90s/60s time limits, num_workers=8, and the fallback scheduler's
// own retry/search-horizon/sanity-year constants.
func Default() Config {
	return Config{
		SolverWorkers:      8,
		TimeLimits:         TimeLimits{Baseline: 60, Joint: 90, WhatIf: 60},
		SanityYear:         2030,
		MaxRetries:         3,
		MaxDaysAheadSearch: 30,
		MaxAttempts:        200,
		Seed:               1,
		EnginePolicy:       "cp_then_heuristic",
	}
}

// Load reads a YAML config file over the defaults. A missing path
// returns the defaults unchanged, matching a CLI that treats "no
// config file" as "use the built-in tuning".
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Policy resolves the configured engine policy string into a
// scenario.EnginePolicy, defaulting to CPThenHeuristic for an unknown
// or empty value.
func (c Config) Policy() scenario.EnginePolicy {
	switch c.EnginePolicy {
	case "cp_only":
		return scenario.CPOnly
	case "heuristic_only":
		return scenario.HeuristicOnly
	default:
		return scenario.CPThenHeuristic
	}
}

// TimeLimit returns the configured wall-clock budget for one mode.
func (c Config) TimeLimit(mode string) time.Duration {
	switch mode {
	case "joint":
		return time.Duration(c.TimeLimits.Joint) * time.Second
	case "whatif", "what_if":
		return time.Duration(c.TimeLimits.WhatIf) * time.Second
	default:
		return time.Duration(c.TimeLimits.Baseline) * time.Second
	}
}

// RunOptions builds a scenario.RunOptions for one mode, seeded from
// this run configuration's time limits, attempt/retry bounds, and
// engine policy. StartDate, PrioritizedProduct and CatalogVersion are
// the caller's own per-run choices.
func (c Config) RunOptions(mode schedtypes.ScenarioMode, startDate time.Time, prioritizedProduct string, catalogVersion int) scenario.RunOptions {
	return scenario.RunOptions{
		Mode:               mode,
		Policy:             c.Policy(),
		PrioritizedProduct: prioritizedProduct,
		StartDate:          startDate,
		Seed:               c.Seed,
		CatalogVersion:     catalogVersion,
		TimeLimit:          c.TimeLimit(string(mode)),
		MaxAttempts:        c.MaxAttempts,
		SanityYear:         c.SanityYear,
		MaxRetries:         c.MaxRetries,
		MaxDaysAheadSearch: c.MaxDaysAheadSearch,
	}
}
