package scenario

import (
	"context"
	"errors"
	"strings"

	"github.com/jaredv/focus-scheduler/pkg/catalog"
	"github.com/jaredv/focus-scheduler/pkg/cpsolver"
	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
)

// jointMaxRounds bounds how many capacity-growth rounds runJoint will
// attempt within its time budget.
const jointMaxRounds = 6

// jointCapacityStep is the headcount added to a saturated resource
// each round.
const jointCapacityStep = 1

// jointSaturationThreshold marks a resource as the throughput
// bottleneck once its committed demand covers this fraction of its
// capacity over the schedule's span.
const jointSaturationThreshold = 0.999

// runJoint adapts scenario_3_optimal_schedule's "jointly minimize
// lateness and workforce" objective. The reference lets CP-SAT treat
// every team's capacity as a bounded decision variable searched
// alongside the schedule itself. The serial placer here never
// produces an over-capacity schedule in the first place (placeInterval
// always waits for room), so a conflict sweep would never find
// anything to grow; instead, while lateness remains, this finds the
// resource(s) running at full utilization over the schedule's span —
// the actual throughput bottleneck — and grows exactly those by one
// seat before re-solving. It stops as soon as lateness reaches zero,
// as soon as a round finds no saturated resource (more workforce
// wouldn't help), or when the round budget is exhausted — the best
// result seen is kept either way, never discarded for running out of
// rounds before convergence.
func (c *Controller) runJoint(ctx context.Context, cfg cpsolver.Config) (*schedtypes.ScenarioResult, error) {
	var best *schedtypes.ScenarioResult
	var lastErr error

	for round := 0; round < jointMaxRounds; round++ {
		select {
		case <-ctx.Done():
			if best != nil {
				best.TotalWorkforce = totalWorkforce(c.cat)
				return best, nil
			}
			return nil, schedtypes.NewSolverTimeout(int(cfg.TimeLimit.Seconds()))
		default:
		}

		result, err := cpsolver.Solve(c.cat, c.instances, c.edges, cfg)
		if err != nil {
			lastErr = err
			if !c.growFromInfeasibility(err) {
				break
			}
			continue
		}

		best = result
		if totalLateness(result) <= 0 {
			break
		}

		saturated := saturatedResources(result, c.instances, combinedCapacity(c.cat))
		if len(saturated) == 0 {
			// Lateness persists but no resource is the bottleneck: more
			// workforce will not help, so further rounds would just
			// waste the time budget.
			break
		}
		for _, resource := range saturated {
			bumpCapacity(c.cat, resource, jointCapacityStep)
		}
	}

	if best == nil {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, schedtypes.NewSolverInfeasible("joint capacity search produced no feasible schedule")
	}
	best.TotalWorkforce = totalWorkforce(c.cat)
	return best, nil
}

// growFromInfeasibility inspects an InfeasibleCapacity or
// UnresolvableTeam error for a named resource to grow and, if found, bumps it and
// reports whether a retry is worth attempting.
func (c *Controller) growFromInfeasibility(err error) bool {
	var capErr *schedtypes.InfeasibleCapacity
	if errors.As(err, &capErr) {
		if inst := c.instances[capErr.InstanceID]; inst != nil {
			bumpCapacity(c.cat, inst.Resource.String(), jointCapacityStep)
			return true
		}
	}
	var teamErr *schedtypes.UnresolvableTeam
	if errors.As(err, &teamErr) {
		bumpCapacity(c.cat, teamErr.Team, jointCapacityStep)
		return true
	}
	return false
}

// saturatedResources reports every resource whose committed demand
// covers essentially all of its capacity over the schedule's own
// span, i.e. the resource(s) actually limiting how fast work finishes.
func saturatedResources(result *schedtypes.ScenarioResult, instances map[string]*schedtypes.TaskInstance, capacity map[string]int) []string {
	minStart, maxEnd := -1, 0
	consumed := map[string]int{}
	for id, e := range result.Entries {
		inst := instances[baseInstanceID(id)]
		if inst == nil {
			continue
		}
		if minStart == -1 || e.StartMinute < minStart {
			minStart = e.StartMinute
		}
		if e.EndMinute > maxEnd {
			maxEnd = e.EndMinute
		}
		consumed[e.Resource.String()] += (e.EndMinute - e.StartMinute) * inst.Headcount
	}
	span := maxEnd - minStart
	if span <= 0 {
		return nil
	}

	var names []string
	for name, cap := range capacity {
		if cap <= 0 {
			continue
		}
		utilization := float64(consumed[name]) / float64(cap*span)
		if utilization >= jointSaturationThreshold {
			names = append(names, name)
		}
	}
	return names
}

func baseInstanceID(id string) string {
	if i := strings.Index(id, "---part"); i >= 0 {
		return id[:i]
	}
	return id
}

func totalLateness(result *schedtypes.ScenarioResult) int {
	total := 0
	for _, days := range result.ProductLatenessDays {
		if days > 0 {
			total += days
		}
	}
	return total
}

func combinedCapacity(cat *catalog.Catalog) map[string]int {
	out := make(map[string]int, len(cat.MechanicCapacity)+len(cat.QualityCapacity)+len(cat.CustomerCapacity))
	for k, v := range cat.MechanicCapacity {
		out[k] = v
	}
	for k, v := range cat.QualityCapacity {
		out[k] = v
	}
	for k, v := range cat.CustomerCapacity {
		out[k] = v
	}
	return out
}
