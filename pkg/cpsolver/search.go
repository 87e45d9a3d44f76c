package cpsolver

import (
	"context"
	"math/rand"
	"time"

	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
)

// usageInterval is one claim already placed against a resource.
type usageInterval struct {
	start, end, demand int
}

// assignment is one complete (or partial, on failure) placement of
// every part in the model.
type assignment struct {
	taskStart map[string]int // id -> first part's start
	taskEnd   map[string]int // id -> last part's end
	failed    map[string]string
	lateness  map[string]int // product -> lateness minutes
	totalLate int
}

// assignSchedule runs one serial schedule generation pass: tasks are
// visited in `order`, each placed at the earliest start its precedence
// predecessors, late-part lower bound, and every claimed resource's
// remaining capacity allow. This is the model's one concrete attempt at
// a feasible schedule; search.go's caller retries with perturbed orders
// to approximate the objective search a real CP-SAT branch-and-bound
// would perform.
func (m *Model) assignSchedule(order []string) *assignment {
	a := &assignment{
		taskStart: map[string]int{},
		taskEnd:   map[string]int{},
		failed:    map[string]string{},
		lateness:  map[string]int{},
	}
	usage := map[string][]usageInterval{}

	predOf := map[string][]schedtypes.PrecedenceEdge{}
	for _, e := range m.precedence {
		predOf[e.Successor] = append(predOf[e.Successor], e)
	}

	for _, id := range order {
		if err := m.placeTask(id, predOf[id], a, usage); err != nil {
			a.failed[id] = err.Error()
		}
	}

	m.computeLateness(a)
	return a
}

func (m *Model) placeTask(id string, preds []schedtypes.PrecedenceEdge, a *assignment, usage map[string][]usageInterval) error {
	inst := m.instances[id]
	parts := m.parts[id]

	earliest := 0
	var startEqualsStart *int
	for _, e := range preds {
		predStart, startKnown := a.taskStart[e.Predecessor]
		predEnd, endKnown := a.taskEnd[e.Predecessor]
		if !startKnown && !endKnown {
			continue // predecessor failed to place; proceed unconstrained by it
		}
		var constraintTime int
		switch e.Relation {
		case schedtypes.RelFS, schedtypes.RelFEQS:
			constraintTime = predEnd
		case schedtypes.RelSS, schedtypes.RelSEQS:
			constraintTime = predStart
		case schedtypes.RelFF:
			constraintTime = predEnd - inst.DurationMinutes
		case schedtypes.RelSF:
			constraintTime = predStart - inst.DurationMinutes
		default:
			constraintTime = predEnd
		}
		if constraintTime > earliest {
			earliest = constraintTime
		}
		if e.Relation == schedtypes.RelSEQS {
			t := predStart
			startEqualsStart = &t
		}
	}
	if startEqualsStart != nil {
		earliest = *startEqualsStart
	}

	if inst.Kind == schedtypes.KindLatePart && inst.OnDock != nil {
		if bound := m.lateBoundMinutes(*inst.OnDock, inst.DelayDays); bound > earliest {
			earliest = bound
		}
	}

	resources := m.partResources[id]
	demand := inst.Headcount

	cursor := earliest
	for i, p := range parts {
		start, ok := m.placeInterval(cursor, p.duration, resources, demand, usage)
		if !ok {
			return schedtypes.NewSolverInfeasible("no capacity window found for " + id)
		}
		p.start = start
		p.end = start + p.duration
		p.assigned = true
		for _, r := range resources {
			usage[r] = append(usage[r], usageInterval{start: p.start, end: p.end, demand: demand})
		}
		cursor = p.end
		if i == 0 {
			a.taskStart[id] = p.start
		}
	}
	a.taskEnd[id] = parts[len(parts)-1].end
	return nil
}

// placeInterval finds the earliest start >= earliest at which a
// duration-minute span fits entirely inside one working interval and
// every named resource has demand headroom throughout the span.
func (m *Model) placeInterval(earliest, duration int, resources []string, demand int, usage map[string][]usageInterval) (int, bool) {
	candidate := earliest
	for iterations := 0; iterations < 10000; iterations++ {
		wStart, ok := m.nextWorkingStart(candidate, duration)
		if !ok {
			return 0, false
		}
		candidate = wStart

		conflictEnd := -1
		for _, r := range resources {
			cap, hasCap := m.resourceCapacity[r]
			if !hasCap || cap <= 0 {
				continue
			}
			used := 0
			maxOverlapEnd := -1
			for _, iv := range usage[r] {
				if iv.start < candidate+duration && iv.end > candidate {
					used += iv.demand
					if iv.end > maxOverlapEnd {
						maxOverlapEnd = iv.end
					}
				}
			}
			if used+demand > cap && maxOverlapEnd > conflictEnd {
				conflictEnd = maxOverlapEnd
			}
		}
		if conflictEnd == -1 {
			return candidate, true
		}
		if conflictEnd <= candidate {
			return 0, false
		}
		candidate = conflictEnd
	}
	return 0, false
}

func (m *Model) lateBoundMinutes(onDock time.Time, delayDays int) int {
	d := onDock.AddDate(0, 0, delayDays)
	opening := time.Date(d.Year(), d.Month(), d.Day(), 6, 0, 0, 0, d.Location())
	minutes := int(opening.Sub(m.startDate).Minutes())
	if minutes < 0 {
		minutes = 0
	}
	return minutes
}

// computeLateness mirrors _set_objective: for each product, the
// makespan is the latest end among its terminal tasks (tasks that are
// never a precedence predecessor), and lateness is max(0, makespan -
// deadline).
func (m *Model) computeLateness(a *assignment) {
	isPredecessor := map[string]bool{}
	for _, e := range m.precedence {
		isPredecessor[e.Predecessor] = true
	}

	byProduct := map[string][]string{}
	for id, inst := range m.instances {
		byProduct[inst.Product] = append(byProduct[inst.Product], id)
	}

	a.totalLate = 0
	for product, p := range m.cat.Products {
		taskIDs := byProduct[product]
		if len(taskIDs) == 0 {
			continue
		}
		var terminal []string
		for _, id := range taskIDs {
			if !isPredecessor[id] {
				terminal = append(terminal, id)
			}
		}
		if len(terminal) == 0 {
			terminal = taskIDs
		}

		makespan := 0
		for _, id := range terminal {
			if end, ok := a.taskEnd[id]; ok && end > makespan {
				makespan = end
			}
		}

		deadline := int(p.DeliveryDate.Sub(m.startDate).Minutes())
		lateness := makespan - deadline
		if lateness < 0 {
			lateness = 0
		}
		a.lateness[product] = lateness
		a.totalLate += lateness
	}
}

// searchConfig bounds the local search over priority orderings.
type searchConfig struct {
	MaxAttempts int
	Seed        int64
}

// search runs the base topological order, then perturbs it with
// randomized adjacent swaps (a cheap neighborhood move for a list
// scheduling heuristic) to look for lower total lateness, stopping
// early at zero lateness or when ctx's deadline / MaxAttempts is hit.
// It always returns the best assignment found, even if none reached
// zero failures, so the caller can classify OPTIMAL/FEASIBLE/FAILED.
func (m *Model) search(ctx context.Context, cfg searchConfig) *assignment {
	best := m.assignSchedule(m.taskOrder)
	m.markPrecedenceViolations(best)
	if best.totalLate == 0 && len(best.failed) == 0 {
		return best
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	order := append([]string(nil), m.taskOrder...)

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return best
		default:
		}

		candidate := append([]string(nil), order...)
		perturb(candidate, rng)

		result := m.assignSchedule(candidate)
		m.markPrecedenceViolations(result)
		if better(result, best) {
			best = result
			order = candidate
		}
		if best.totalLate == 0 && len(best.failed) == 0 {
			break
		}
	}
	return best
}

// perturb swaps one to three randomly chosen adjacent pairs, without
// regard to precedence. Since assignSchedule re-derives earliest
// starts from whichever predecessor already has a recorded time, an
// order that processes a successor before its predecessor places that
// successor unconstrained by the edge; markPrecedenceViolations then
// marks it failed, so such an attempt is never reported as a clean
// schedule (resolvePrecedence's edges are still enforced whenever the
// predecessor IS already placed).
func perturb(order []string, rng *rand.Rand) {
	swaps := 1 + rng.Intn(3)
	for i := 0; i < swaps; i++ {
		if len(order) < 2 {
			return
		}
		a := rng.Intn(len(order) - 1)
		order[a], order[a+1] = order[a+1], order[a]
	}
}

// markPrecedenceViolations marks any task whose recorded start/end
// breaks a precedence edge as failed, since assignSchedule only
// enforces an edge when its predecessor happened to be placed first in
// the attempted order; a perturbed order that visits a successor first
// must not be accepted as if precedence held.
func (m *Model) markPrecedenceViolations(a *assignment) {
	for _, e := range m.precedence {
		predEnd, predEndOK := a.taskEnd[e.Predecessor]
		predStart, predStartOK := a.taskStart[e.Predecessor]
		succStart, succStartOK := a.taskStart[e.Successor]
		succEnd, succEndOK := a.taskEnd[e.Successor]
		if !predEndOK || !predStartOK || !succStartOK || !succEndOK {
			continue
		}
		ok := true
		switch e.Relation {
		case schedtypes.RelFS, schedtypes.RelFEQS:
			ok = predEnd <= succStart
		case schedtypes.RelSS:
			ok = predStart <= succStart
		case schedtypes.RelSEQS:
			ok = predStart == succStart
		case schedtypes.RelFF:
			ok = predEnd <= succEnd
		case schedtypes.RelSF:
			ok = predStart <= succEnd
		}
		if !ok {
			if _, already := a.failed[e.Successor]; !already {
				a.failed[e.Successor] = "precedence violated against " + e.Predecessor + " in this attempt's order"
			}
		}
	}
}

func better(candidate, current *assignment) bool {
	if len(candidate.failed) != len(current.failed) {
		return len(candidate.failed) < len(current.failed)
	}
	return candidate.totalLate < current.totalLate
}
