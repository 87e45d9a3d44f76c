package scenario

import (
	"context"

	"github.com/jaredv/focus-scheduler/pkg/cpsolver"
	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
)

// runWhatIf adapts run_what_if_scenario: fixed capacities (never
// mutated — Run's defer already restores whatever a prior joint run
// left behind), a product-biased placement order instead of a
// re-weighted objective, and no side effect on the controller's own
// state, matching the reference's use of a deep-copied temp_scheduler
// so a what-if run never contaminates the next call.
func (c *Controller) runWhatIf(ctx context.Context, cfg cpsolver.Config, prioritizedProduct string) (*schedtypes.ScenarioResult, error) {
	cfg.PriorityProduct = prioritizedProduct
	return cpsolver.Solve(c.cat, c.instances, c.edges, cfg)
}
