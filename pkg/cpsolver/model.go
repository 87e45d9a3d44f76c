// Package cpsolver implements the constraint-based scheduling model: one
// interval variable per task instance, precedence constraints over the
// dynamic dependency graph, day-level working-time containment, and
// cumulative per-resource capacity. No OR-tools binding exists in Go, so
// the model is solved by a bounded serial schedule generation search
// (pkg/cpsolver/search.go) instead of true CP-SAT branch-and-bound.
// Grounded on original_source/src/scheduler/cp_sat_solver.py's
// CpSatScheduler: _calculate_horizon, _get_non_working_intervals,
// _get_working_intervals, _create_task_variables,
// _add_precedence_constraints, _add_resource_constraints, _set_objective.
// This path never splits a task across multiple intervals: every
// instance gets exactly one.
package cpsolver

import (
	"sort"
	"time"

	"github.com/jaredv/focus-scheduler/pkg/catalog"
	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
)

// part is the interval variable for one task instance.
type part struct {
	duration int
	start    int // minutes since Model.startDate; assigned by the search
	end      int
	assigned bool
}

// interval is a half-open [start, end) span in minutes since startDate.
type interval struct {
	start, end int
}

// Model is the built constraint model for one scenario run: all
// variables and constraints, ready for the search to assign start times.
type Model struct {
	cat       *catalog.Catalog
	instances map[string]*schedtypes.TaskInstance
	edges     []schedtypes.PrecedenceEdge

	startDate time.Time
	horizon   int

	workingIntervals []interval

	parts map[string][]*part // taskID -> parts, in order

	resourceCapacity map[string]int
	partResources    map[string][]string // taskID -> resource names it claims

	// precedence holds one resolved constraint per dynamic edge, with
	// task ids substituted for the Second column's baseline resolution
	// already done by the Dependency Weaver.
	precedence []schedtypes.PrecedenceEdge

	// taskOrder is a deterministic processing order (a Kahn traversal
	// with ties broken by id, priorityProduct first) the search consumes.
	taskOrder []string

	// priorityProduct, when set, breaks ties among ready tasks in favor
	// of this product, so its chain tends to claim shared resources
	// ahead of everything else. Mirrors run_what_if_scenario's
	// 1000x-weighted completion-time objective, adapted to a
	// placement-order bias since this solver has no continuous
	// objective to re-weight.
	priorityProduct string
}

// SetPriorityProduct sets the what-if product bias used by orderTasks.
// Must be called before the order has been computed, i.e. before Solve
// runs its search.
func (m *Model) SetPriorityProduct(product string) {
	m.priorityProduct = product
}

// Build constructs the model over one expansion's instances and dynamic
// dependency graph. startDate anchors minute 0; the per-product
// deadlines the horizon calculation needs come from cat.Products.
func Build(cat *catalog.Catalog, instances map[string]*schedtypes.TaskInstance, edges []schedtypes.PrecedenceEdge, startDate time.Time) *Model {
	m := &Model{
		cat:              cat,
		instances:        instances,
		edges:            edges,
		startDate:        startDate,
		parts:            map[string][]*part{},
		resourceCapacity: map[string]int{},
		partResources:    map[string][]string{},
	}
	m.calculateHorizon()
	m.buildWorkingIntervals()
	m.createTaskVariables()
	m.resolvePrecedence()
	m.addResourceConstraints()
	m.orderTasks()
	return m
}

// calculateHorizon mirrors _calculate_horizon: the latest product
// delivery date, plus a 90-day buffer, converted to minutes.
func (m *Model) calculateHorizon() {
	latest := m.startDate
	for _, p := range m.cat.Products {
		if p.DeliveryDate.After(latest) {
			latest = p.DeliveryDate
		}
	}
	horizonDays := int(latest.Sub(m.startDate).Hours()/24) + 90
	if horizonDays < 90 {
		horizonDays = 90
	}
	m.horizon = horizonDays * 24 * 60
}

// buildWorkingIntervals mirrors _get_non_working_intervals and
// _get_working_intervals: a calendar day is non-working if it's a
// weekend, or a holiday common to every product line (a day off for
// everybody), and the working intervals are the gaps between those
// full-day blocks.
func (m *Model) buildWorkingIntervals() {
	common := m.commonHolidays()

	var nonWorking []interval
	horizonDays := m.horizon / (24 * 60)
	for dayOffset := 0; dayOffset <= horizonDays; dayOffset++ {
		date := m.startDate.AddDate(0, 0, dayOffset)
		wd := date.Weekday()
		isNonWorking := wd == time.Saturday || wd == time.Sunday
		if !isNonWorking && common[date.Format("2006-01-02")] {
			isNonWorking = true
		}
		if isNonWorking {
			start := dayOffset * 24 * 60
			nonWorking = append(nonWorking, interval{start: start, end: start + 24*60})
		}
	}

	sort.Slice(nonWorking, func(i, j int) bool { return nonWorking[i].start < nonWorking[j].start })

	lastEnd := 0
	for _, nw := range nonWorking {
		if nw.start > lastEnd {
			m.workingIntervals = append(m.workingIntervals, interval{start: lastEnd, end: nw.start})
		}
		if nw.end > lastEnd {
			lastEnd = nw.end
		}
	}
	if lastEnd < m.horizon {
		m.workingIntervals = append(m.workingIntervals, interval{start: lastEnd, end: m.horizon})
	}
}

// commonHolidays intersects every product's holiday set: a date not
// held by all products is a working day for at least one of them, so
// the shared timeline keeps it open.
func (m *Model) commonHolidays() map[string]bool {
	names := make([]string, 0, len(m.cat.Products))
	for name := range m.cat.Products {
		names = append(names, name)
	}
	if len(names) == 0 {
		return map[string]bool{}
	}
	sort.Strings(names)

	common := map[string]bool{}
	for d := range m.cat.Products[names[0]].Holidays {
		common[d] = true
	}
	for _, name := range names[1:] {
		holidays := m.cat.Products[name].Holidays
		for d := range common {
			if !holidays[d] {
				delete(common, d)
			}
		}
	}
	return common
}

// nextWorkingStart returns the smallest minute >= from that some
// working interval can hold a duration-minute span starting at.
func (m *Model) nextWorkingStart(from, duration int) (int, bool) {
	for _, w := range m.workingIntervals {
		if w.end-w.start < duration {
			continue
		}
		candidate := from
		if candidate < w.start {
			candidate = w.start
		}
		if candidate+duration <= w.end {
			return candidate, true
		}
	}
	return 0, false
}

// createTaskVariables mirrors _create_task_variables, adapted to never
// split: every instance gets exactly one interval variable sized to its
// full duration. The heuristic fallback does not split tasks either.
func (m *Model) createTaskVariables() {
	for id, inst := range m.instances {
		m.parts[id] = []*part{{duration: inst.DurationMinutes}}
	}
}

// resolvePrecedence keeps only the edges whose endpoints both have
// variables, mirroring the reference guard that drops dangling edges.
func (m *Model) resolvePrecedence() {
	for _, e := range m.edges {
		if _, ok := m.parts[e.Predecessor]; !ok {
			continue
		}
		if _, ok := m.parts[e.Successor]; !ok {
			continue
		}
		m.precedence = append(m.precedence, e)
	}
}

// addResourceConstraints mirrors _add_resource_constraints: every part
// of a task claims headcount demand against the single resource name
// the task's kind resolves to (quality/customer team, or mechanic
// team+skill), plus a QI sidecar also claims against its primary's
// mechanic resource so a mechanic can't be double-booked through an
// inspection of their own work.
func (m *Model) addResourceConstraints() {
	for name, cap := range m.cat.MechanicCapacity {
		m.resourceCapacity[name] = cap
	}
	for name, cap := range m.cat.QualityCapacity {
		m.resourceCapacity[name] = cap
	}
	for name, cap := range m.cat.CustomerCapacity {
		m.resourceCapacity[name] = cap
	}

	for id, inst := range m.instances {
		switch inst.Kind {
		case schedtypes.KindQualityInspection:
			m.claim(inst.Resource.TeamBase, id)
			if primary := m.instances[inst.PrimaryID]; primary != nil {
				m.claim(m.mechanicResourceName(primary), id)
			}
		case schedtypes.KindCustomerInspection:
			m.claim(inst.Resource.TeamBase, id)
		default:
			m.claim(m.mechanicResourceName(inst), id)
		}
	}
}

// mechanicResourceName resolves a production/late-part/rework
// instance's resource to a name present in MechanicCapacity, falling
// back to the bare team base when no skill-qualified entry exists.
func (m *Model) mechanicResourceName(inst *schedtypes.TaskInstance) string {
	key := inst.Resource.String()
	if _, ok := m.cat.MechanicCapacity[key]; ok {
		return key
	}
	return inst.Resource.TeamBase
}

func (m *Model) claim(resourceName, taskID string) {
	if resourceName == "" {
		return
	}
	m.partResources[taskID] = append(m.partResources[taskID], resourceName)
}

// orderTasks lays out a deterministic topological-ish processing order:
// a stable Kahn traversal over m.precedence, falling back to id order
// for components with no precedence ties, so two runs over the same
// model produce the same schedule.
func (m *Model) orderTasks() {
	indegree := map[string]int{}
	adjacency := map[string][]string{}
	for id := range m.parts {
		indegree[id] = 0
	}
	for _, e := range m.precedence {
		adjacency[e.Predecessor] = append(adjacency[e.Predecessor], e.Successor)
		indegree[e.Successor]++
	}

	lessReady := func(a, b string) bool {
		if m.priorityProduct != "" {
			aPriority := m.instances[a] != nil && m.instances[a].Product == m.priorityProduct
			bPriority := m.instances[b] != nil && m.instances[b].Product == m.priorityProduct
			if aPriority != bPriority {
				return aPriority
			}
		}
		return a < b
	}

	var ready []string
	for id := range m.parts {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return lessReady(ready[i], ready[j]) })

	var order []string
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return lessReady(ready[i], ready[j]) })
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		next := append([]string(nil), adjacency[id]...)
		sort.Strings(next)
		for _, succ := range next {
			indegree[succ]--
			if indegree[succ] == 0 {
				ready = append(ready, succ)
			}
		}
	}

	if len(order) < len(m.parts) {
		seen := map[string]bool{}
		for _, id := range order {
			seen[id] = true
		}
		var remaining []string
		for id := range m.parts {
			if !seen[id] {
				remaining = append(remaining, id)
			}
		}
		sort.Strings(remaining)
		order = append(order, remaining...) // a cycle slipped through; caller validates separately
	}

	m.taskOrder = order
}
