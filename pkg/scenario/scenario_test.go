package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/jaredv/focus-scheduler/pkg/catalog"
	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
	"github.com/stretchr/testify/require"
)

// start anchors every fixture below at a Monday 06:00 opening, so a
// handful of working days never cross a weekend.
var start = time.Date(2025, 8, 25, 6, 0, 0, 0, time.UTC)

func newCatalog(deliveryOffsetDays int) *catalog.Catalog {
	cat := catalog.New()
	cat.Products["P1"] = &schedtypes.ProductLine{
		ID:           "P1",
		DeliveryDate: start.AddDate(0, 0, deliveryOffsetDays),
		Holidays:     map[string]bool{},
	}
	return cat
}

// S-A (minimal): T1 (60min) -> T2 (120min), single resource, capacity
// 1. The CP path never splits, so T2 is one interval ending at 180; the
// product must not be late against a 10-day delivery window.
func TestScenarioSAMinimal(t *testing.T) {
	cat := newCatalog(10)
	cat.MechanicCapacity["Mechanic Team 1 (Skill 1)"] = 1

	resource := schedtypes.ResourceKey{TeamBase: "Mechanic Team 1", Skill: "1"}
	instances := map[string]*schedtypes.TaskInstance{
		"T1": {ID: "T1", Kind: schedtypes.KindProduction, Product: "P1", DurationMinutes: 60, Headcount: 1, Resource: resource},
		"T2": {ID: "T2", Kind: schedtypes.KindProduction, Product: "P1", DurationMinutes: 120, Headcount: 1, Resource: resource},
	}
	edges := []schedtypes.PrecedenceEdge{{Predecessor: "T1", Successor: "T2", Relation: schedtypes.RelFS}}

	ctrl := New(cat, instances, edges, nil)
	result, err := ctrl.Run(context.Background(), RunOptions{Mode: schedtypes.ModeBaseline, Policy: CPOnly, StartDate: start})
	require.NoError(t, err)

	t1 := result.Entries["T1"]
	require.NotNil(t, t1)
	require.Equal(t, 0, t1.StartMinute)
	require.Equal(t, 60, t1.EndMinute)

	t2 := result.Entries["T2"]
	require.NotNil(t, t2)
	require.Equal(t, 180, t2.EndMinute)

	require.LessOrEqual(t, result.ProductLatenessDays["P1"], 0)
}

// S-B (QI + CC chain): T1 -> QI(30) -> CC(30) -> T2, all serialized by
// precedence through the inspection sidecars.
func TestScenarioSBInspectionChain(t *testing.T) {
	cat := newCatalog(10)
	mechanic := schedtypes.ResourceKey{TeamBase: "Mechanic Team 1", Skill: "1"}
	cat.MechanicCapacity[mechanic.String()] = 1
	cat.QualityCapacity["Quality Team 1"] = 1
	cat.CustomerCapacity["Customer Team 1"] = 1

	instances := map[string]*schedtypes.TaskInstance{
		"T1": {ID: "T1", Kind: schedtypes.KindProduction, Product: "P1", DurationMinutes: 60, Headcount: 1, Resource: mechanic},
		"QI": {ID: "QI", Kind: schedtypes.KindQualityInspection, Product: "P1", DurationMinutes: 30, Headcount: 1, PrimaryID: "T1", Resource: schedtypes.ResourceKey{TeamBase: "Quality Team 1"}},
		"CC": {ID: "CC", Kind: schedtypes.KindCustomerInspection, Product: "P1", DurationMinutes: 30, Headcount: 1, PrimaryID: "T1", Resource: schedtypes.ResourceKey{TeamBase: "Customer Team 1"}},
		"T2": {ID: "T2", Kind: schedtypes.KindProduction, Product: "P1", DurationMinutes: 60, Headcount: 1, Resource: mechanic},
	}
	edges := []schedtypes.PrecedenceEdge{
		{Predecessor: "T1", Successor: "QI", Relation: schedtypes.RelFS},
		{Predecessor: "QI", Successor: "CC", Relation: schedtypes.RelFS},
		{Predecessor: "CC", Successor: "T2", Relation: schedtypes.RelFS},
	}

	ctrl := New(cat, instances, edges, nil)
	result, err := ctrl.Run(context.Background(), RunOptions{Mode: schedtypes.ModeBaseline, Policy: CPOnly, StartDate: start})
	require.NoError(t, err)

	require.Equal(t, 0, result.Entries["T1"].StartMinute)
	require.Equal(t, 60, result.Entries["T1"].EndMinute)
	require.Equal(t, 60, result.Entries["QI"].StartMinute)
	require.Equal(t, 90, result.Entries["QI"].EndMinute)
	require.Equal(t, 90, result.Entries["CC"].StartMinute)
	require.Equal(t, 120, result.Entries["CC"].EndMinute)
	require.Equal(t, 120, result.Entries["T2"].StartMinute)
	require.Equal(t, 180, result.Entries["T2"].EndMinute)
}

// S-C (late part): the late part's own start is bound to the opening
// of the working day after on-dock date + delay_days, regardless of
// how early its resource would otherwise be free.
func TestScenarioSCLatePart(t *testing.T) {
	cat := newCatalog(30)
	resource := schedtypes.ResourceKey{TeamBase: "Mechanic Team 1", Skill: "1"}
	cat.MechanicCapacity[resource.String()] = 1

	onDock := start.AddDate(0, 0, 3) // Thursday, still inside the working week
	instances := map[string]*schedtypes.TaskInstance{
		"LP": {ID: "LP", Kind: schedtypes.KindLatePart, Product: "P1", DurationMinutes: 60, Headcount: 1, Resource: resource, OnDock: &onDock, DelayDays: 1},
		"T5": {ID: "T5", Kind: schedtypes.KindProduction, Product: "P1", DurationMinutes: 60, Headcount: 1, Resource: resource},
	}
	edges := []schedtypes.PrecedenceEdge{{Predecessor: "LP", Successor: "T5", Relation: schedtypes.RelFS}}

	ctrl := New(cat, instances, edges, nil)
	result, err := ctrl.Run(context.Background(), RunOptions{Mode: schedtypes.ModeBaseline, Policy: CPOnly, StartDate: start})
	require.NoError(t, err)

	opening := time.Date(onDock.Year(), onDock.Month(), onDock.Day()+1, 6, 0, 0, 0, onDock.Location())
	wantMinutes := int(opening.Sub(start).Minutes())

	require.GreaterOrEqual(t, result.Entries["LP"].StartMinute, wantMinutes)
}

// S-D (capacity contention): three independent 60-minute tasks on one
// capacity-1 resource must serialize into a 180-minute span.
func TestScenarioSDCapacityContention(t *testing.T) {
	cat := newCatalog(10)
	resource := schedtypes.ResourceKey{TeamBase: "Mechanic Team 1", Skill: "1"}
	cat.MechanicCapacity[resource.String()] = 1

	instances := map[string]*schedtypes.TaskInstance{
		"T1": {ID: "T1", Kind: schedtypes.KindProduction, Product: "P1", DurationMinutes: 60, Headcount: 1, Resource: resource},
		"T2": {ID: "T2", Kind: schedtypes.KindProduction, Product: "P1", DurationMinutes: 60, Headcount: 1, Resource: resource},
		"T3": {ID: "T3", Kind: schedtypes.KindProduction, Product: "P1", DurationMinutes: 60, Headcount: 1, Resource: resource},
	}

	ctrl := New(cat, instances, nil, nil)
	result, err := ctrl.Run(context.Background(), RunOptions{Mode: schedtypes.ModeBaseline, Policy: CPOnly, StartDate: start})
	require.NoError(t, err)

	minStart, maxEnd := -1, -1
	for _, id := range []string{"T1", "T2", "T3"} {
		e := result.Entries[id]
		require.NotNil(t, e)
		if minStart == -1 || e.StartMinute < minStart {
			minStart = e.StartMinute
		}
		if e.EndMinute > maxEnd {
			maxEnd = e.EndMinute
		}
	}
	require.GreaterOrEqual(t, maxEnd-minStart, 180)
}

// S-E (scenario-3 joint): two products whose chained workload exactly
// requires doubling a single capacity-1 resource to hit their shared
// deadline. The joint controller should grow that resource by exactly
// one seat and no more.
func TestScenarioSEJointOptimize(t *testing.T) {
	cat := catalog.New()
	cat.Products["A"] = &schedtypes.ProductLine{ID: "A", DeliveryDate: start.AddDate(0, 0, 1), Holidays: map[string]bool{}}
	cat.Products["B"] = &schedtypes.ProductLine{ID: "B", DeliveryDate: start.AddDate(0, 0, 1), Holidays: map[string]bool{}}
	resource := schedtypes.ResourceKey{TeamBase: "Mechanic Team 1"}
	cat.MechanicCapacity[resource.String()] = 1

	instances := map[string]*schedtypes.TaskInstance{}
	var edges []schedtypes.PrecedenceEdge
	for _, product := range []string{"A", "B"} {
		prev := ""
		for i := 1; i <= 3; i++ {
			id := product + "_" + string(rune('0'+i))
			instances[id] = &schedtypes.TaskInstance{ID: id, Kind: schedtypes.KindProduction, Product: product, DurationMinutes: 480, Headcount: 1, Resource: resource}
			if prev != "" {
				edges = append(edges, schedtypes.PrecedenceEdge{Predecessor: prev, Successor: id, Relation: schedtypes.RelFS})
			}
			prev = id
		}
	}

	ctrl := New(cat, instances, edges, nil)
	result, err := ctrl.Run(context.Background(), RunOptions{Mode: schedtypes.ModeJoint, Policy: CPOnly, StartDate: start})
	require.NoError(t, err)
	require.Equal(t, 2, result.TotalWorkforce)
}

// S-F (what-if): two products with identical work content contend for
// one resource. Prioritizing A must not push its completion later than
// the baseline run, and must not improve B's.
func TestScenarioSFWhatIf(t *testing.T) {
	cat := catalog.New()
	cat.Products["A"] = &schedtypes.ProductLine{ID: "A", DeliveryDate: start, Holidays: map[string]bool{}}
	cat.Products["B"] = &schedtypes.ProductLine{ID: "B", DeliveryDate: start, Holidays: map[string]bool{}}
	resource := schedtypes.ResourceKey{TeamBase: "Mechanic Team 1"}
	cat.MechanicCapacity[resource.String()] = 1

	instances := map[string]*schedtypes.TaskInstance{
		"Z_taskA": {ID: "Z_taskA", Kind: schedtypes.KindProduction, Product: "A", DurationMinutes: 600, Headcount: 1, Resource: resource},
		"M_taskB": {ID: "M_taskB", Kind: schedtypes.KindProduction, Product: "B", DurationMinutes: 600, Headcount: 1, Resource: resource},
	}

	ctrl := New(cat, instances, nil, nil)
	baseline, err := ctrl.Run(context.Background(), RunOptions{Mode: schedtypes.ModeBaseline, Policy: CPOnly, StartDate: start})
	require.NoError(t, err)
	// M_taskB sorts first, so the baseline run schedules B ahead of A.
	require.Less(t, baseline.ProductCompletion["B"], baseline.ProductCompletion["A"])

	whatIf, err := ctrl.Run(context.Background(), RunOptions{Mode: schedtypes.ModeWhatIf, Policy: CPOnly, PrioritizedProduct: "A", StartDate: start})
	require.NoError(t, err)

	require.LessOrEqual(t, whatIf.ProductCompletion["A"], baseline.ProductCompletion["A"])
	require.GreaterOrEqual(t, whatIf.ProductCompletion["B"], baseline.ProductCompletion["B"])
}
