// Package scenario is the run controller sitting above the two
// scheduling engines: it picks CP-style solving or the heuristic
// fallback per mode, snapshots and restores any capacities a run
// mutates, and turns a raw ScenarioResult into the priority list and
// criticality tags external readers consume. Grounded on
// original_source/src/scheduler/scenarios.py's scenario_1_csv_headcount,
// scenario_3_optimal_schedule and run_what_if_scenario, and on
// _examples/cuemby-warren/pkg/scheduler/scheduler.go's
// logger/metrics-around-a-cycle shape (swapped from containers-on-nodes
// to tasks-on-resources, and from a ticking loop to a single on-demand
// run per mode).
package scenario

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/jaredv/focus-scheduler/pkg/cache"
	"github.com/jaredv/focus-scheduler/pkg/catalog"
	"github.com/jaredv/focus-scheduler/pkg/cpsolver"
	"github.com/jaredv/focus-scheduler/pkg/heuristic"
	"github.com/jaredv/focus-scheduler/pkg/log"
	"github.com/jaredv/focus-scheduler/pkg/metrics"
	"github.com/jaredv/focus-scheduler/pkg/obs"
	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
)

// EnginePolicy selects which engine(s) a Run is allowed to use.
type EnginePolicy string

const (
	CPOnly          EnginePolicy = "cp_only"
	HeuristicOnly   EnginePolicy = "heuristic_only"
	CPThenHeuristic EnginePolicy = "cp_then_heuristic" // default: CP is canonical
)

// timeLimits mirrors the reference's per-scenario time_limit_seconds
// defaults (60s baseline, 90s joint, 60s what-if).
var timeLimits = map[schedtypes.ScenarioMode]time.Duration{
	schedtypes.ModeBaseline: 60 * time.Second,
	schedtypes.ModeJoint:    90 * time.Second,
	schedtypes.ModeWhatIf:   60 * time.Second,
}

// RunOptions configures one scenario run.
type RunOptions struct {
	Mode               schedtypes.ScenarioMode
	Policy             EnginePolicy
	PrioritizedProduct string // required, and only meaningful, for ModeWhatIf
	StartDate          time.Time
	Seed               int64
	CatalogVersion     int // used as the cache key's version; 0 disables caching

	// TimeLimit overrides the mode's default wall-clock budget when
	// nonzero (e.g. from a runconfig.Config loaded by the CLI).
	TimeLimit time.Duration
	// MaxAttempts overrides the CP-style search's perturbation round
	// budget when nonzero.
	MaxAttempts int
	// SanityYear/MaxRetries/MaxDaysAheadSearch override the heuristic
	// fallback's own tuning when nonzero; see heuristic.Config.
	SanityYear         int
	MaxRetries         int
	MaxDaysAheadSearch int
}

// Controller runs scenarios against one loaded catalog and instance
// set, optionally caching results per (mode, version).
type Controller struct {
	cat       *catalog.Catalog
	instances map[string]*schedtypes.TaskInstance
	edges     []schedtypes.PrecedenceEdge
	store     cache.Store // nil disables caching
	logger    zerolog.Logger
}

// New builds a Controller over one expansion's instances and woven
// dependency graph.
func New(cat *catalog.Catalog, instances map[string]*schedtypes.TaskInstance, edges []schedtypes.PrecedenceEdge, store cache.Store) *Controller {
	return &Controller{
		cat:       cat,
		instances: instances,
		edges:     edges,
		store:     store,
		logger:    log.WithComponent("scenario"),
	}
}

// Run executes one scenario and returns its annotated result. It
// restores any capacity values it mutates before returning, regardless
// of outcome, so a subsequent Run always starts from the catalog's
// original capacities.
func (c *Controller) Run(ctx context.Context, opts RunOptions) (*schedtypes.ScenarioResult, error) {
	if opts.StartDate.IsZero() {
		opts.StartDate = time.Date(2025, 8, 22, 6, 0, 0, 0, time.UTC)
	}
	if opts.Policy == "" {
		opts.Policy = CPThenHeuristic
	}

	if opts.CatalogVersion != 0 && c.store != nil {
		key := string(opts.Mode) + ":" + opts.PrioritizedProduct
		if cached, ok, err := c.store.GetScenario(key, opts.CatalogVersion); err == nil && ok {
			c.logger.Debug().Str("mode", string(opts.Mode)).Msg("scenario cache hit")
			return cached, nil
		}
	}

	snapshot := c.snapshotCapacity()
	defer c.restoreCapacity(snapshot)

	timer := obs.NewTimer()
	result, err := c.run(ctx, opts)
	engine := "cp"
	if err != nil {
		var timeout *schedtypes.SolverTimeout
		var infeasible *schedtypes.SolverInfeasible
		fallbackEligible := opts.Policy == CPThenHeuristic && (errors.As(err, &timeout) || errors.As(err, &infeasible))
		if !fallbackEligible {
			obs.ScenarioRunsTotal.WithLabelValues(string(opts.Mode), "error").Inc()
			return nil, err
		}
		engine = "heuristic"
		c.logger.Warn().Err(err).Str("mode", string(opts.Mode)).Msg("CP solver fell back to heuristic scheduler")
		result, err = c.runHeuristic(opts)
		if err != nil {
			obs.ScenarioRunsTotal.WithLabelValues(string(opts.Mode), "error").Inc()
			return nil, err
		}
	}
	timer.ObserveDuration(obs.SolverDuration.WithLabelValues(string(opts.Mode), engine))

	c.annotate(result, opts)
	c.recordMetrics(result, opts)

	if opts.CatalogVersion != 0 && c.store != nil {
		key := string(opts.Mode) + ":" + opts.PrioritizedProduct
		if err := c.store.PutScenario(key, opts.CatalogVersion, result); err != nil {
			c.logger.Warn().Err(err).Msg("failed to cache scenario result")
		}
	}

	return result, nil
}

// run dispatches to the engine(s) opts.Policy permits, in CP-first
// order.
func (c *Controller) run(ctx context.Context, opts RunOptions) (*schedtypes.ScenarioResult, error) {
	if opts.Policy == HeuristicOnly {
		return c.runHeuristic(opts)
	}

	cfg := cpsolver.Config{
		StartDate:   opts.StartDate,
		TimeLimit:   timeLimits[opts.Mode],
		MaxAttempts: 200,
		Seed:        opts.Seed,
		Mode:        opts.Mode,
	}
	if opts.TimeLimit != 0 {
		cfg.TimeLimit = opts.TimeLimit
	}
	if cfg.TimeLimit == 0 {
		cfg.TimeLimit = 60 * time.Second
	}
	if opts.MaxAttempts != 0 {
		cfg.MaxAttempts = opts.MaxAttempts
	}

	switch opts.Mode {
	case schedtypes.ModeJoint:
		return c.runJoint(ctx, cfg)
	case schedtypes.ModeWhatIf:
		return c.runWhatIf(ctx, cfg, opts.PrioritizedProduct)
	default:
		return cpsolver.Solve(c.cat, c.instances, c.edges, cfg)
	}
}

func (c *Controller) runHeuristic(opts RunOptions) (*schedtypes.ScenarioResult, error) {
	hcfg := heuristic.DefaultConfig()
	hcfg.StartDate = opts.StartDate
	hcfg.PrioritizedProduct = opts.PrioritizedProduct
	if opts.SanityYear != 0 {
		hcfg.SanityYear = opts.SanityYear
	}
	if opts.MaxRetries != 0 {
		hcfg.MaxRetries = opts.MaxRetries
	}
	if opts.MaxDaysAheadSearch != 0 {
		hcfg.MaxDaysAheadSearch = opts.MaxDaysAheadSearch
	}
	return heuristic.New(c.cat, c.instances, c.edges, hcfg).Run()
}
