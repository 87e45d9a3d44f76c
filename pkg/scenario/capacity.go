package scenario

import "github.com/jaredv/focus-scheduler/pkg/catalog"

// capacitySnapshot is a deep-enough copy of the three capacity maps a
// joint-optimize run is allowed to mutate. Mirrors
// scheduler._original_team_capacity/_original_quality_capacity/
// _original_customer_team_capacity, which the reference keeps around so
// every scenario can restore fixed capacities before running.
type capacitySnapshot struct {
	mechanic map[string]int
	quality  map[string]int
	customer map[string]int
}

func (c *Controller) snapshotCapacity() capacitySnapshot {
	return capacitySnapshot{
		mechanic: cloneCapacity(c.cat.MechanicCapacity),
		quality:  cloneCapacity(c.cat.QualityCapacity),
		customer: cloneCapacity(c.cat.CustomerCapacity),
	}
}

func (c *Controller) restoreCapacity(s capacitySnapshot) {
	c.cat.MechanicCapacity = cloneCapacity(s.mechanic)
	c.cat.QualityCapacity = cloneCapacity(s.quality)
	c.cat.CustomerCapacity = cloneCapacity(s.customer)
}

func cloneCapacity(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// bumpCapacity increments whichever capacity map already holds
// resource by step, preferring the map it's already defined in so a
// skill-qualified mechanic key isn't accidentally promoted into the
// quality or customer pool.
func bumpCapacity(cat *catalog.Catalog, resource string, step int) {
	switch {
	case has(cat.QualityCapacity, resource):
		cat.QualityCapacity[resource] += step
	case has(cat.CustomerCapacity, resource):
		cat.CustomerCapacity[resource] += step
	default:
		cat.MechanicCapacity[resource] += step
	}
}

func has(m map[string]int, key string) bool {
	_, ok := m[key]
	return ok
}

// totalWorkforce sums every resource's current capacity, mirroring
// total_workforce in scenario_3_optimal_schedule.
func totalWorkforce(cat *catalog.Catalog) int {
	total := 0
	for _, v := range cat.MechanicCapacity {
		total += v
	}
	for _, v := range cat.QualityCapacity {
		total += v
	}
	for _, v := range cat.CustomerCapacity {
		total += v
	}
	return total
}
