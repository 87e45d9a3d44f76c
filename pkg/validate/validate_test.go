package validate

import (
	"testing"

	"github.com/jaredv/focus-scheduler/pkg/catalog"
	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
	"github.com/stretchr/testify/require"
)

func TestDAGDetectsNoCycleOnAcyclicGraph(t *testing.T) {
	edges := []schedtypes.PrecedenceEdge{
		{Predecessor: "A", Successor: "B", Relation: schedtypes.RelFS},
		{Predecessor: "B", Successor: "C", Relation: schedtypes.RelFEQS},
	}
	require.NoError(t, DAG(edges))
}

func TestDAGDetectsCycle(t *testing.T) {
	edges := []schedtypes.PrecedenceEdge{
		{Predecessor: "A", Successor: "B", Relation: schedtypes.RelFS},
		{Predecessor: "B", Successor: "C", Relation: schedtypes.RelFS},
		{Predecessor: "C", Successor: "A", Relation: schedtypes.RelFS},
	}
	err := DAG(edges)
	require.Error(t, err)
	var cycleErr *schedtypes.DagCycle
	require.ErrorAs(t, err, &cycleErr)
}

func TestDAGIgnoresNonBlockingRelations(t *testing.T) {
	edges := []schedtypes.PrecedenceEdge{
		{Predecessor: "A", Successor: "B", Relation: schedtypes.RelSS},
		{Predecessor: "B", Successor: "A", Relation: schedtypes.RelSS},
	}
	require.NoError(t, DAG(edges))
}

func TestResourceConflictsFlagsOverbooking(t *testing.T) {
	entries := map[string]*schedtypes.ScheduleEntry{
		"T1": {InstanceID: "T1", StartMinute: 0, EndMinute: 100, Resource: schedtypes.ResourceKey{TeamBase: "Team1"}},
		"T2": {InstanceID: "T2", StartMinute: 50, EndMinute: 150, Resource: schedtypes.ResourceKey{TeamBase: "Team1"}},
	}
	instances := map[string]*schedtypes.TaskInstance{
		"T1": {ID: "T1", Headcount: 2},
		"T2": {ID: "T2", Headcount: 2},
	}
	capacity := map[string]int{"Team1": 2}

	conflicts := ResourceConflicts(entries, instances, capacity)
	require.Len(t, conflicts, 1)
	require.Equal(t, "Team1", conflicts[0].Resource)
}

func TestResourceConflictsAllowsBackToBackTasks(t *testing.T) {
	entries := map[string]*schedtypes.ScheduleEntry{
		"T1": {InstanceID: "T1", StartMinute: 0, EndMinute: 100, Resource: schedtypes.ResourceKey{TeamBase: "Team1"}},
		"T2": {InstanceID: "T2", StartMinute: 100, EndMinute: 200, Resource: schedtypes.ResourceKey{TeamBase: "Team1"}},
	}
	instances := map[string]*schedtypes.TaskInstance{
		"T1": {ID: "T1", Headcount: 2},
		"T2": {ID: "T2", Headcount: 2},
	}
	capacity := map[string]int{"Team1": 2}

	conflicts := ResourceConflicts(entries, instances, capacity)
	require.Empty(t, conflicts)
}

func TestSchedulabilityFlagsZeroCapacityResource(t *testing.T) {
	cat := catalog.New()
	instances := map[string]*schedtypes.TaskInstance{
		"T1": {ID: "T1", CatalogID: 1, Kind: schedtypes.KindProduction, Headcount: 1, Resource: schedtypes.ResourceKey{TeamBase: "Missing Team"}},
	}
	issues := Schedulability(cat, instances, nil)
	require.NotEmpty(t, issues)
}

func TestComprehensiveFlagsMissingInstance(t *testing.T) {
	instances := map[string]*schedtypes.TaskInstance{
		"T1": {ID: "T1"},
		"T2": {ID: "T2"},
	}
	entries := map[string]*schedtypes.ScheduleEntry{
		"T1": {InstanceID: "T1"},
	}
	err := Comprehensive(instances, entries)
	require.Error(t, err)
	require.Contains(t, err.Error(), "T2")
}
