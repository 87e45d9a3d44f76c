package cpsolver

import (
	"testing"
	"time"

	"github.com/jaredv/focus-scheduler/pkg/catalog"
	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2025, 8, 22, 6, 0, 0, 0, time.UTC)

func buildCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat := catalog.New()
	cat.MechanicCapacity["Mechanic Team 1"] = 4
	cat.Products["LineA"] = &schedtypes.ProductLine{
		ID:           "LineA",
		DeliveryDate: testStart.AddDate(0, 0, 30),
		Holidays:     map[string]bool{},
		StartTaskID:  1,
		EndTaskID:    2,
	}
	return cat
}

func buildInstances() map[string]*schedtypes.TaskInstance {
	return map[string]*schedtypes.TaskInstance{
		"LineA_1": {
			ID: "LineA_1", Kind: schedtypes.KindProduction, Product: "LineA",
			CatalogID: 1, DurationMinutes: 90, Headcount: 2,
			Resource: schedtypes.ResourceKey{TeamBase: "Mechanic Team 1"},
		},
		"LineA_2": {
			ID: "LineA_2", Kind: schedtypes.KindProduction, Product: "LineA",
			CatalogID: 2, DurationMinutes: 60, Headcount: 2,
			Resource: schedtypes.ResourceKey{TeamBase: "Mechanic Team 1"},
		},
	}
}

func TestSolveRespectsPrecedence(t *testing.T) {
	cat := buildCatalog(t)
	instances := buildInstances()
	edges := []schedtypes.PrecedenceEdge{
		{Predecessor: "LineA_1", Successor: "LineA_2", Relation: schedtypes.RelFS},
	}

	cfg := DefaultConfig()
	cfg.StartDate = testStart
	cfg.MaxAttempts = 5

	result, err := Solve(cat, instances, edges, cfg)
	require.NoError(t, err)
	require.NotNil(t, result)

	first := result.Entries["LineA_1"]
	second := result.Entries["LineA_2"]
	require.NotNil(t, first)
	require.NotNil(t, second)
	require.LessOrEqual(t, first.EndMinute, second.StartMinute)
}

func TestSolveNeverSplitsLongTasks(t *testing.T) {
	cat := buildCatalog(t)
	instances := buildInstances()
	instances["LineA_1"].DurationMinutes = 180

	cfg := DefaultConfig()
	cfg.StartDate = testStart
	cfg.MaxAttempts = 1

	result, err := Solve(cat, instances, nil, cfg)
	require.NoError(t, err)

	entry := result.Entries["LineA_1"]
	require.NotNil(t, entry)
	require.Equal(t, 180, entry.EndMinute-entry.StartMinute)
	require.Nil(t, result.Entries["LineA_1---part1"])
	require.Nil(t, result.Entries["LineA_1---part2"])
}

func TestSolveReportsLatenessAgainstDeliveryDate(t *testing.T) {
	cat := buildCatalog(t)
	cat.Products["LineA"].DeliveryDate = testStart // impossible deadline: due immediately
	instances := buildInstances()

	cfg := DefaultConfig()
	cfg.StartDate = testStart
	cfg.MaxAttempts = 1

	result, err := Solve(cat, instances, nil, cfg)
	require.NoError(t, err)
	require.GreaterOrEqual(t, result.ProductLatenessDays["LineA"], 0)
}

func TestSolveEnforcesCumulativeCapacity(t *testing.T) {
	cat := buildCatalog(t)
	cat.MechanicCapacity["Mechanic Team 1"] = 2
	instances := buildInstances()
	instances["LineA_1"].Headcount = 2
	instances["LineA_2"].Headcount = 2

	cfg := DefaultConfig()
	cfg.StartDate = testStart
	cfg.MaxAttempts = 5

	result, err := Solve(cat, instances, nil, cfg)
	require.NoError(t, err)

	a := result.Entries["LineA_1"]
	b := result.Entries["LineA_2"]
	require.NotNil(t, a)
	require.NotNil(t, b)
	overlap := a.StartMinute < b.EndMinute && b.StartMinute < a.EndMinute
	require.False(t, overlap, "both tasks need the full 2-person capacity and must not overlap")
}
