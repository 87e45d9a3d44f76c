// Package validate checks a dynamic dependency graph and a produced
// schedule for the invariants the scheduler depends on: the graph must
// be a DAG on its blocking (FS/F=S) subgraph, and no resource may ever
// be double-booked past its capacity. Grounded on
// original_source/src/scheduler/validation.py's validate_dag,
// check_resource_conflicts and validate_schedulability.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jaredv/focus-scheduler/pkg/catalog"
	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
)

// DAG validates that the blocking subgraph (FS and F=S edges; FF/SS/SF
// do not force an ordering that can cycle in practice) contains no
// cycle. Returns a DagCycle naming one offending path, or nil.
func DAG(edges []schedtypes.PrecedenceEdge) error {
	graph := map[string][]string{}
	for _, e := range edges {
		if e.Relation == schedtypes.RelFS || e.Relation == schedtypes.RelFEQS {
			graph[e.Predecessor] = append(graph[e.Predecessor], e.Successor)
		}
	}

	nodes := make([]string, 0, len(graph))
	for n := range graph {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	visited := map[string]bool{}
	onStack := map[string]bool{}
	var path []string

	var visit func(node string) []string
	visit = func(node string) []string {
		visited[node] = true
		onStack[node] = true
		path = append(path, node)

		neighbors := append([]string(nil), graph[node]...)
		sort.Strings(neighbors)
		for _, next := range neighbors {
			if !visited[next] {
				if cycle := visit(next); cycle != nil {
					return cycle
				}
			} else if onStack[next] {
				idx := indexOf(path, next)
				return append(append([]string(nil), path[idx:]...), next)
			}
		}

		path = path[:len(path)-1]
		onStack[node] = false
		return nil
	}

	for _, n := range nodes {
		if !visited[n] {
			if cycle := visit(n); cycle != nil {
				return schedtypes.NewDagCycle(cycle)
			}
		}
	}
	return nil
}

func indexOf(path []string, node string) int {
	for i, p := range path {
		if p == node {
			return i
		}
	}
	return 0
}

// ResourceConflict reports one instant where a resource's committed
// headcount exceeded its capacity.
type ResourceConflict struct {
	Resource string
	Minute   int
	Usage    int
	Capacity int
	Instance string
}

// ResourceConflicts sweeps every resource's committed intervals for a
// point where usage exceeds capacity, mirroring
// check_resource_conflicts's (start,+demand)/(end,-demand) event sweep.
func ResourceConflicts(entries map[string]*schedtypes.ScheduleEntry, instances map[string]*schedtypes.TaskInstance, capacity map[string]int) []ResourceConflict {
	type event struct {
		minute   int
		delta    int
		isStart  bool
		instance string
	}
	byResource := map[string][]event{}

	for id, e := range entries {
		inst := instances[baseID(id)]
		if inst == nil {
			continue
		}
		key := e.Resource.String()
		byResource[key] = append(byResource[key],
			event{minute: e.StartMinute, delta: inst.Headcount, isStart: true, instance: id},
			event{minute: e.EndMinute, delta: -inst.Headcount, isStart: false, instance: id},
		)
	}

	var conflicts []ResourceConflict
	for resource, events := range byResource {
		sort.Slice(events, func(i, j int) bool {
			if events[i].minute != events[j].minute {
				return events[i].minute < events[j].minute
			}
			// process ends before starts at the same instant so a
			// task finishing exactly when another begins doesn't
			// register a spurious overlap
			return !events[i].isStart && events[j].isStart
		})

		usage := 0
		cap := capacity[resource]
		for _, ev := range events {
			usage += ev.delta
			if ev.isStart && usage > cap {
				conflicts = append(conflicts, ResourceConflict{
					Resource: resource,
					Minute:   ev.minute,
					Usage:    usage,
					Capacity: cap,
					Instance: ev.instance,
				})
			}
		}
	}

	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].Resource != conflicts[j].Resource {
			return conflicts[i].Resource < conflicts[j].Resource
		}
		return conflicts[i].Minute < conflicts[j].Minute
	})
	return conflicts
}

func baseID(id string) string {
	if i := strings.Index(id, "---part"); i >= 0 {
		return id[:i]
	}
	return id
}

// Schedulability reports blocking issues that would prevent any
// catalog from ever being fully schedulable, independent of any
// particular run: zero-capacity resources, headcount demand exceeding
// a resource's total capacity, and dependency cycles. Mirrors
// validate_schedulability's checks 1 and 2 (check 3, the 30-day
// theoretical-capacity sum, is a coarse sanity bound the reference
// itself labels approximate and is intentionally not reproduced here).
func Schedulability(cat *catalog.Catalog, instances map[string]*schedtypes.TaskInstance, edges []schedtypes.PrecedenceEdge) []error {
	var issues []error

	ids := make([]string, 0, len(instances))
	for id := range instances {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		inst := instances[id]
		var capacity int
		switch inst.Kind {
		case schedtypes.KindQualityInspection:
			capacity = cat.QualityCapacity[inst.Resource.TeamBase]
		case schedtypes.KindCustomerInspection:
			capacity = cat.CustomerCapacity[inst.Resource.TeamBase]
		default:
			capacity = cat.MechanicCapacity[inst.Resource.String()]
			if capacity == 0 {
				capacity = cat.MechanicCapacity[inst.Resource.TeamBase]
			}
		}
		if capacity == 0 {
			issues = append(issues, schedtypes.NewUnresolvableTeam(inst.CatalogID, inst.Resource.String()))
		} else if inst.Headcount > capacity {
			issues = append(issues, schedtypes.NewInfeasibleCapacity(id, inst.Headcount, capacity))
		}
	}

	if err := DAG(edges); err != nil {
		issues = append(issues, err)
	}

	return issues
}

// Comprehensive reports every instance missing a schedule entry,
// mirroring validate_schedule_comprehensive's completeness check.
func Comprehensive(instances map[string]*schedtypes.TaskInstance, entries map[string]*schedtypes.ScheduleEntry) error {
	scheduled := map[string]bool{}
	for entryID := range entries {
		scheduled[baseID(entryID)] = true
	}

	var missing []string
	for id := range instances {
		if !scheduled[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("incomplete schedule: %d instance(s) not scheduled: %s", len(missing), strings.Join(missing, ", "))
}
