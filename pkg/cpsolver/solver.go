package cpsolver

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jaredv/focus-scheduler/pkg/catalog"
	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
)

// Config tunes one solve attempt.
type Config struct {
	StartDate   time.Time
	TimeLimit   time.Duration // per-mode wall-clock budget (60s baseline, 90s joint, 60s what-if)
	MaxAttempts int           // bound on perturbation rounds within TimeLimit
	Seed        int64
	Mode        schedtypes.ScenarioMode

	// PriorityProduct, when set, biases the search's processing order
	// toward this product's tasks (see Model.priorityProduct).
	PriorityProduct string
}

// DefaultConfig returns the baseline mode's budget; callers override
// TimeLimit/Mode per scenario (joint mode gets a 90s budget).
func DefaultConfig() Config {
	return Config{
		StartDate:   time.Date(2025, 8, 22, 6, 0, 0, 0, time.UTC),
		TimeLimit:   60 * time.Second,
		MaxAttempts: 200,
		Seed:        1,
		Mode:        schedtypes.ModeBaseline,
	}
}

// Solve builds the constraint model over the given instances and
// dynamic dependency graph and runs the bounded search within
// cfg.TimeLimit, mirroring CpSatScheduler.solve's
// build-then-solve-then-extract shape.
func Solve(cat *catalog.Catalog, instances map[string]*schedtypes.TaskInstance, edges []schedtypes.PrecedenceEdge, cfg Config) (*schedtypes.ScenarioResult, error) {
	if len(cat.Products) == 0 {
		return nil, schedtypes.NewSolverInfeasible("no product lines in catalog")
	}

	model := Build(cat, instances, edges, cfg.StartDate)
	if cfg.PriorityProduct != "" {
		model.SetPriorityProduct(cfg.PriorityProduct)
		model.orderTasks()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.TimeLimit)
	defer cancel()

	result := model.search(ctx, searchConfig{MaxAttempts: cfg.MaxAttempts, Seed: cfg.Seed})

	if len(result.failed) > 0 && len(result.failed) == len(model.parts) {
		return nil, schedtypes.NewSolverInfeasible("no instance could be placed")
	}
	if len(result.failed) > 0 {
		select {
		case <-ctx.Done():
			return nil, schedtypes.NewSolverTimeout(int(cfg.TimeLimit.Seconds()))
		default:
		}
	}

	return model.extractSolution(result, cfg.Mode), nil
}

// extractSolution mirrors _extract_solution: one ScheduleEntry per
// instance, plus the aggregate ScenarioResult fields the Scenario
// Controller reports.
func (m *Model) extractSolution(a *assignment, mode schedtypes.ScenarioMode) *schedtypes.ScenarioResult {
	entries := map[string]*schedtypes.ScheduleEntry{}

	for id, parts := range m.parts {
		inst := m.instances[id]
		p := parts[0]
		if !p.assigned {
			continue
		}
		entries[id] = &schedtypes.ScheduleEntry{
			InstanceID:  id,
			StartMinute: p.start,
			EndMinute:   p.end,
			Resource:    inst.Resource,
		}
	}

	status := schedtypes.StatusFeasible
	if len(a.failed) == 0 {
		status = schedtypes.StatusOptimal
	}
	if len(entries) == 0 {
		status = schedtypes.StatusFailed
	}

	makespanMinutes := 0
	for _, e := range entries {
		if e.EndMinute > makespanMinutes {
			makespanMinutes = e.EndMinute
		}
	}

	latenessDays := map[string]int{}
	for product, minutes := range a.lateness {
		latenessDays[product] = minutes / (24 * 60)
	}

	onTime := 0
	for _, minutes := range a.lateness {
		if minutes == 0 {
			onTime++
		}
	}
	onTimeRate := 0.0
	if len(a.lateness) > 0 {
		onTimeRate = float64(onTime) / float64(len(a.lateness))
	}

	predecessors := map[string][]string{}
	successors := map[string][]string{}
	for _, e := range m.precedence {
		predecessors[e.Successor] = append(predecessors[e.Successor], e.Predecessor)
		successors[e.Predecessor] = append(successors[e.Predecessor], e.Successor)
	}

	completion := map[string]int{}
	for id, end := range a.taskEnd {
		if inst := m.instances[id]; inst != nil && end > completion[inst.Product] {
			completion[inst.Product] = end
		}
	}

	return &schedtypes.ScenarioResult{
		RunID:               uuid.New().String(),
		Mode:                mode,
		Status:              status,
		Entries:             entries,
		MakespanDays:        makespanMinutes / (24 * 60),
		ProductCompletion:   completion,
		ProductLatenessDays: latenessDays,
		ResourceUtilization: map[string]float64{},
		Predecessors:        predecessors,
		Successors:          successors,
		Failed:              a.failed,
	}
}

