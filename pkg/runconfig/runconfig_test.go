package runconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jaredv/focus-scheduler/pkg/scenario"
	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesReferenceConstants(t *testing.T) {
	cfg := Default()
	require.Equal(t, 8, cfg.SolverWorkers)
	require.Equal(t, 60, cfg.TimeLimits.Baseline)
	require.Equal(t, 90, cfg.TimeLimits.Joint)
	require.Equal(t, 60, cfg.TimeLimits.WhatIf)
	require.Equal(t, 2030, cfg.SanityYear)
	require.Equal(t, "cp_then_heuristic", cfg.EnginePolicy)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverlaysFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	body := "engine_policy: cp_only\nmax_attempts: 50\ntime_limits:\n  joint: 120\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "cp_only", cfg.EnginePolicy)
	require.Equal(t, 50, cfg.MaxAttempts)
	require.Equal(t, 120, cfg.TimeLimits.Joint)
	// Untouched fields keep their defaults.
	require.Equal(t, 60, cfg.TimeLimits.Baseline)
	require.Equal(t, 2030, cfg.SanityYear)
}

func TestPolicyResolvesKnownAndUnknownStrings(t *testing.T) {
	require.Equal(t, scenario.CPOnly, Config{EnginePolicy: "cp_only"}.Policy())
	require.Equal(t, scenario.HeuristicOnly, Config{EnginePolicy: "heuristic_only"}.Policy())
	require.Equal(t, scenario.CPThenHeuristic, Config{EnginePolicy: "cp_then_heuristic"}.Policy())
	require.Equal(t, scenario.CPThenHeuristic, Config{EnginePolicy: "nonsense"}.Policy())
}

func TestTimeLimitSelectsPerMode(t *testing.T) {
	cfg := Default()
	require.Equal(t, 60*time.Second, cfg.TimeLimit("baseline"))
	require.Equal(t, 90*time.Second, cfg.TimeLimit("joint"))
	require.Equal(t, 60*time.Second, cfg.TimeLimit("whatif"))
}

func TestRunOptionsCarriesConfigIntoScenarioOptions(t *testing.T) {
	cfg := Default()
	cfg.MaxAttempts = 42
	start := time.Date(2025, 8, 25, 6, 0, 0, 0, time.UTC)

	opts := cfg.RunOptions(schedtypes.ModeJoint, start, "P1", 3)
	require.Equal(t, schedtypes.ModeJoint, opts.Mode)
	require.Equal(t, scenario.CPThenHeuristic, opts.Policy)
	require.Equal(t, "P1", opts.PrioritizedProduct)
	require.Equal(t, start, opts.StartDate)
	require.Equal(t, 3, opts.CatalogVersion)
	require.Equal(t, 90*time.Second, opts.TimeLimit)
	require.Equal(t, 42, opts.MaxAttempts)
}
