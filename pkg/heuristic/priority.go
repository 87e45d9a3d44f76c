package heuristic

import (
	"strings"
	"time"

	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
)

// basePartID strips a "---partN" split suffix, used once task
// splitting is layered on top of a single instance id.
func basePartID(instanceID string) string {
	if i := strings.Index(instanceID, "---part"); i >= 0 {
		return instanceID[:i]
	}
	return instanceID
}

// priority computes a composite scheduling priority: lower values are
// scheduled first (the ready-heap is a min-heap), mirroring
// calculate_task_priority's sign convention (late parts and QI/CC get
// very negative, i.e. urgent, scores).
func (s *Scheduler) priority(instanceID string, now time.Time) float64 {
	id := basePartID(instanceID)
	inst := s.instances[id]
	if inst == nil {
		return 0
	}

	if s.cfg.PrioritizedProduct != "" && inst.Product == s.cfg.PrioritizedProduct {
		return -1_000_000
	}

	switch inst.Kind {
	case schedtypes.KindLatePart:
		if inst.OnDock != nil {
			daysUntil := int(inst.OnDock.Sub(now).Hours() / 24)
			return -3000 + float64(daysUntil*10)
		}
		return -3000

	case schedtypes.KindQualityInspection, schedtypes.KindCustomerInspection:
		if inst.PrimaryID != "" {
			if _, scheduled := s.schedule[inst.PrimaryID]; scheduled {
				return s.priority(inst.PrimaryID, now) - 1
			}
		}
		return -2000

	case schedtypes.KindRework:
		minDependent := dependentDeliveryPriority(s, id, now)
		if minDependent != nil {
			return *minDependent - 100
		}
		return -500

	default: // production
		daysToDelivery := 999.0
		if d, ok := s.deliveryDates[inst.Product]; ok {
			daysToDelivery = d.Sub(now).Hours() / 24
		}
		pathLen := float64(s.criticalPathLength(id))
		duration := float64(inst.DurationMinutes)

		return (100-daysToDelivery)*20 + (10000-pathLen)*5 + (100-duration/10)*2
	}
}

// dependentDeliveryPriority finds the most urgent delivery date among
// this rework instance's direct dependents in the dynamic graph.
func dependentDeliveryPriority(s *Scheduler, reworkID string, now time.Time) *float64 {
	var best *float64
	for _, e := range s.edges {
		if e.Predecessor != reworkID {
			continue
		}
		dep := s.instances[e.Successor]
		if dep == nil {
			continue
		}
		delivery, ok := s.deliveryDates[dep.Product]
		if !ok {
			continue
		}
		daysToDelivery := delivery.Sub(now).Hours() / 24
		score := (100 - daysToDelivery) * 20
		if best == nil || score < *best {
			best = &score
		}
	}
	return best
}

// criticalPathLength returns the longest downstream duration-weighted
// chain starting at instanceID, memoized across one Run.
func (s *Scheduler) criticalPathLength(instanceID string) int {
	if v, ok := s.pathLenCache[instanceID]; ok {
		return v
	}
	inst := s.instances[instanceID]
	if inst == nil {
		return 0
	}
	max := 0
	for _, e := range s.successorsOf[instanceID] {
		if successor := s.instances[e]; successor != nil {
			if l := s.criticalPathLength(e); l > max {
				max = l
			}
		}
	}
	total := inst.DurationMinutes + max
	s.pathLenCache[instanceID] = total
	return total
}
