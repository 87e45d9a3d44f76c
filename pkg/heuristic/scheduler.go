// Package heuristic implements the priority-heap greedy fallback
// scheduler: when the CP-style solver does not return OPTIMAL or
// FEASIBLE within its time budget, this scheduler produces a
// best-effort schedule by repeatedly popping the most urgent ready
// instance off a priority queue and placing it in the earliest slot
// its resource has free capacity for. Grounded on
// original_source/src/scheduler/algorithms.py's schedule_tasks,
// calculate_task_priority, and get_next_working_time_with_capacity.
package heuristic

import (
	"container/heap"
	"fmt"
	"time"

	"github.com/jaredv/focus-scheduler/pkg/calendar"
	"github.com/jaredv/focus-scheduler/pkg/catalog"
	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
)

// Config tunes the scheduler's search behavior.
type Config struct {
	StartDate          time.Time // earliest possible start for any instance
	SanityYear         int       // a candidate start past this year is rejected outright
	MaxRetries         int       // retries before an instance is marked failed
	MaxDaysAheadSearch int       // how many calendar days findSlot walks forward

	// PrioritizedProduct, when set, pulls every instance belonging to
	// that product to the front of the ready queue ahead of the normal
	// urgency score, mirroring the what-if objective's 1000x weight on
	// the prioritized product's completion time.
	PrioritizedProduct string
}

// DefaultConfig mirrors the reference scheduler's constants.
func DefaultConfig() Config {
	return Config{
		StartDate:          time.Date(2025, 8, 22, 6, 0, 0, 0, time.UTC),
		SanityYear:         2030,
		MaxRetries:         3,
		MaxDaysAheadSearch: 30,
	}
}

// Scheduler holds one run's working state.
type Scheduler struct {
	cat       *catalog.Catalog
	instances map[string]*schedtypes.TaskInstance
	edges     []schedtypes.PrecedenceEdge

	predecessorsOf map[string][]schedtypes.PrecedenceEdge // keyed by Successor
	successorsOf   map[string][]string                    // keyed by Predecessor

	deliveryDates     map[string]time.Time
	holidaysByProduct map[string]map[string]bool
	calendars         map[string]*calendar.Calendar

	schedule   map[string]*schedtypes.ScheduleEntry
	startTimes map[string]time.Time
	endTimes   map[string]time.Time

	pathLenCache map[string]int
	cfg          Config
}

// New builds a Scheduler over one expansion's instances and dynamic
// dependency graph.
func New(cat *catalog.Catalog, instances map[string]*schedtypes.TaskInstance, edges []schedtypes.PrecedenceEdge, cfg Config) *Scheduler {
	s := &Scheduler{
		cat:               cat,
		instances:         instances,
		edges:             edges,
		predecessorsOf:    map[string][]schedtypes.PrecedenceEdge{},
		successorsOf:      map[string][]string{},
		deliveryDates:     map[string]time.Time{},
		holidaysByProduct: map[string]map[string]bool{},
		calendars:         map[string]*calendar.Calendar{},
		schedule:          map[string]*schedtypes.ScheduleEntry{},
		startTimes:        map[string]time.Time{},
		endTimes:          map[string]time.Time{},
		pathLenCache:      map[string]int{},
		cfg:               cfg,
	}
	for _, e := range edges {
		s.predecessorsOf[e.Successor] = append(s.predecessorsOf[e.Successor], e)
		s.successorsOf[e.Predecessor] = append(s.successorsOf[e.Predecessor], e.Successor)
	}
	for name, p := range cat.Products {
		s.deliveryDates[name] = p.DeliveryDate
		s.holidaysByProduct[name] = p.Holidays
	}
	return s
}

func (s *Scheduler) calendarFor(product string) *calendar.Calendar {
	if c, ok := s.calendars[product]; ok {
		return c
	}
	c := calendar.New(s.cfg.StartDate, s.holidaysByProduct[product], 0)
	s.calendars[product] = c
	return c
}

// Run executes the greedy scheduling loop to completion or exhaustion
// and returns the resulting ScenarioResult (Status FEASIBLE unless
// every instance scheduled cleanly, in which case OPTIMAL is not
// claimed — that status is reserved for the CP solver).
func (s *Scheduler) Run() (*schedtypes.ScenarioResult, error) {
	ready := &readyHeap{}
	heap.Init(ready)

	hasIncoming := map[string]bool{}
	for _, e := range s.edges {
		hasIncoming[e.Successor] = true
	}

	now := s.cfg.StartDate
	pushed := map[string]bool{}
	push := func(id string, bonus float64) {
		if pushed[id] {
			return
		}
		pushed[id] = true
		heap.Push(ready, &readyItem{id: id, priority: s.priority(id, now) + bonus})
	}

	for id := range s.instances {
		if !hasIncoming[id] {
			push(id, 0)
			continue
		}
		blocking := false
		for _, e := range s.predecessorsOf[id] {
			if isBlockingRelation(e.Relation) {
				blocking = true
				break
			}
		}
		if !blocking {
			push(id, 0)
		}
	}

	failed := map[string]string{}
	retries := map[string]int{}
	maxIterations := len(s.instances) * 10
	iterations := 0

	for ready.Len() > 0 && len(s.schedule) < len(s.instances) && iterations < maxIterations {
		iterations++
		item := heap.Pop(ready).(*readyItem)
		id := item.id
		delete(pushed, id)

		if retries[id] >= s.cfg.MaxRetries {
			if _, done := failed[id]; !done {
				failed[id] = "exceeded retry limit"
			}
			continue
		}
		if _, already := s.schedule[id]; already {
			continue
		}

		if err := s.attemptSchedule(id); err != nil {
			retries[id]++
			if retries[id] < s.cfg.MaxRetries {
				heap.Push(ready, &readyItem{id: id, priority: item.priority + 0.1})
				pushed[id] = true
			} else {
				failed[id] = err.Error()
			}
			continue
		}

		for _, succ := range s.successorsOf[id] {
			if _, done := s.schedule[succ]; done {
				continue
			}
			if _, isFailed := failed[succ]; isFailed {
				continue
			}
			allSatisfied := true
			for _, e := range s.predecessorsOf[succ] {
				if _, done := s.schedule[e.Predecessor]; !done {
					allSatisfied = false
					break
				}
			}
			if allSatisfied {
				push(succ, 0)
			}
		}

		if ready.Len() == 0 && len(s.schedule) < len(s.instances) {
			for id := range s.instances {
				if _, done := s.schedule[id]; done {
					continue
				}
				if _, isFailed := failed[id]; isFailed {
					continue
				}
				allSatisfied := true
				for _, e := range s.predecessorsOf[id] {
					if _, done := s.schedule[e.Predecessor]; !done {
						allSatisfied = false
						break
					}
				}
				if allSatisfied {
					push(id, 0)
				}
			}
		}
	}

	return s.buildResult(failed), nil
}

func isBlockingRelation(r schedtypes.RelationType) bool {
	switch r {
	case schedtypes.RelFS, schedtypes.RelFEQS, schedtypes.RelFF:
		return true
	default:
		return false
	}
}

// attemptSchedule computes the earliest constraint-satisfying start
// for id, finds a resource slot, and records the schedule entry. It
// returns an error if no slot exists or the slot lands past the
// sanity-year cutoff.
func (s *Scheduler) attemptSchedule(id string) error {
	inst := s.instances[id]
	if inst == nil {
		return fmt.Errorf("unknown instance %s", id)
	}

	earliest := s.cfg.StartDate
	if inst.Kind == schedtypes.KindLatePart && inst.OnDock != nil {
		cal := s.calendarFor(inst.Product)
		idx, err := cal.LatePartEarliestStart(*inst.OnDock, inst.DelayDays)
		if err == nil {
			earliest = cal.MinutesToDate(idx)
		}
	}

	var startEqualsStart *time.Time
	for _, e := range s.predecessorsOf[id] {
		predStart, predDone := s.startTimes[e.Predecessor]
		predEnd, _ := s.endTimes[e.Predecessor]
		if !predDone {
			continue
		}
		var constraintTime time.Time
		switch e.Relation {
		case schedtypes.RelFS, schedtypes.RelFEQS:
			constraintTime = predEnd
		case schedtypes.RelSS, schedtypes.RelSEQS:
			constraintTime = predStart
		case schedtypes.RelFF:
			constraintTime = predEnd.Add(-time.Duration(inst.DurationMinutes) * time.Minute)
		case schedtypes.RelSF:
			constraintTime = predStart.Add(-time.Duration(inst.DurationMinutes) * time.Minute)
		default:
			constraintTime = predEnd
		}
		if constraintTime.After(earliest) {
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

	resourceKey, capacity, shifts, product, err := s.resolveResource(inst, earliest)
	if err != nil {
		return err
	}

	start, shiftID, ok := s.findSlot(earliest, product, resourceKey, capacity, inst.Headcount, inst.DurationMinutes, shifts, s.cfg.MaxDaysAheadSearch)
	if !ok {
		return fmt.Errorf("no capacity slot found for %s", id)
	}
	if start.Year() > s.cfg.SanityYear {
		return fmt.Errorf("slot for %s falls in sanity-rejected year %d", id, start.Year())
	}

	end := start.Add(time.Duration(inst.DurationMinutes) * time.Minute)
	s.startTimes[id] = start
	s.endTimes[id] = end

	cal := s.calendarFor(product)
	startIdx, _ := cal.DateToMinutes(start)
	endIdx := startIdx + inst.DurationMinutes

	s.schedule[id] = &schedtypes.ScheduleEntry{
		InstanceID:  id,
		StartMinute: startIdx,
		EndMinute:   endIdx,
		Resource:    schedtypes.ResourceKey{TeamBase: inst.Resource.TeamBase, Skill: inst.Resource.Skill},
		Shift:       shiftID,
	}
	return nil
}

// resolveResource picks the concrete team/capacity/shift set an
// instance draws from. Customer inspections search every customer
// team with enough capacity and keep the one offering the earliest
// slot (the resolveResource call itself just returns the best
// candidate's static parameters; findSlot does the actual search).
func (s *Scheduler) resolveResource(inst *schedtypes.TaskInstance, earliest time.Time) (resourceKey string, capacity int, shifts []schedtypes.Shift, product string, err error) {
	product = inst.Product

	switch inst.Kind {
	case schedtypes.KindCustomerInspection:
		var bestTeam string
		var bestStart time.Time
		var bestShifts []schedtypes.Shift
		var bestCap int
		found := false
		for team, cap := range s.cat.CustomerCapacity {
			if cap < inst.Headcount {
				continue
			}
			shiftSet := shiftsFor(s.cat.CustomerShifts[team])
			start, _, ok := s.findSlot(earliest, product, team, cap, inst.Headcount, inst.DurationMinutes, shiftSet, s.cfg.MaxDaysAheadSearch)
			if !ok {
				continue
			}
			if !found || start.Before(bestStart) {
				found = true
				bestStart = start
				bestTeam = team
				bestShifts = shiftSet
				bestCap = cap
			}
		}
		if !found {
			return "", 0, nil, product, fmt.Errorf("no customer team with capacity for %s", inst.ID)
		}
		return bestTeam, bestCap, bestShifts, product, nil

	case schedtypes.KindQualityInspection:
		team := inst.Resource.TeamBase
		return team, s.cat.QualityCapacity[team], shiftsFor(s.cat.QualityShifts[team]), product, nil

	default: // production, late part, rework
		key := inst.Resource.String()
		cap, ok := s.cat.MechanicCapacity[key]
		if !ok {
			cap = s.cat.MechanicCapacity[inst.Resource.TeamBase]
			key = inst.Resource.TeamBase
		}
		shifts := shiftsFor(s.cat.MechanicShifts[inst.Resource.TeamBase])
		if len(shifts) == 0 {
			shifts = shiftsFor(s.cat.MechanicShifts[key])
		}
		return key, cap, shifts, product, nil
	}
}

func shiftsFor(set map[schedtypes.ShiftID]bool) []schedtypes.Shift {
	var out []schedtypes.Shift
	order := []schedtypes.ShiftID{schedtypes.Shift1, schedtypes.Shift2, schedtypes.Shift3}
	for _, id := range order {
		if set[id] {
			out = append(out, schedtypes.Shift{ID: id, StartMinute: shiftMinutes[id][0], EndMinute: shiftMinutes[id][1]})
		}
	}
	if len(out) == 0 {
		out = []schedtypes.Shift{{ID: schedtypes.Shift1, StartMinute: shiftMinutes[schedtypes.Shift1][0], EndMinute: shiftMinutes[schedtypes.Shift1][1]}}
	}
	return out
}

var shiftMinutes = map[schedtypes.ShiftID][2]int{
	schedtypes.Shift1: {6 * 60, 14*60 + 30},
	schedtypes.Shift2: {14*60 + 30, 23 * 60},
	schedtypes.Shift3: {23 * 60, 6*60 + 30},
}

func (s *Scheduler) buildResult(failed map[string]string) *schedtypes.ScenarioResult {
	result := &schedtypes.ScenarioResult{
		Status:              schedtypes.StatusFeasible,
		Entries:             s.schedule,
		ProductCompletion:   map[string]int{},
		ProductLatenessDays: map[string]int{},
		ResourceUtilization: map[string]float64{},
		Predecessors:        map[string][]string{},
		Successors:          s.successorsOf,
		Failed:              failed,
	}
	if len(failed) == 0 && len(s.schedule) == len(s.instances) {
		result.Status = schedtypes.StatusFeasible
	}
	for id, preds := range s.predecessorsOf {
		for _, e := range preds {
			result.Predecessors[id] = append(result.Predecessors[id], e.Predecessor)
		}
	}
	for product := range s.deliveryDates {
		last := 0
		for id, entry := range s.schedule {
			inst := s.instances[id]
			if inst == nil || inst.Product != product {
				continue
			}
			if entry.EndMinute > last {
				last = entry.EndMinute
			}
		}
		result.ProductCompletion[product] = last
	}
	return result
}

// readyItem is one entry of the priority-ordered ready queue.
type readyItem struct {
	id       string
	priority float64
	index    int
}

// readyHeap is a min-heap over readyItem.priority, mirroring Python's
// heapq usage over (priority, task_id) tuples.
type readyHeap []*readyItem

func (h readyHeap) Len() int            { return len(h) }
func (h readyHeap) Less(i, j int) bool  { return h[i].priority < h[j].priority }
func (h readyHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *readyHeap) Push(x interface{}) { *h = append(*h, x.(*readyItem)) }
func (h *readyHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
