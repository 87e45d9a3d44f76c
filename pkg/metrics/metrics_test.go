package metrics

import (
	"testing"
	"time"

	"github.com/jaredv/focus-scheduler/pkg/catalog"
	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2025, 8, 22, 6, 0, 0, 0, time.UTC)

func buildFixture() (*catalog.Catalog, map[string]*schedtypes.TaskInstance, *schedtypes.ScenarioResult) {
	cat := catalog.New()
	cat.MechanicCapacity["Mechanic Team 1"] = 4
	cat.Products["LineA"] = &schedtypes.ProductLine{
		ID:           "LineA",
		DeliveryDate: start.AddDate(0, 0, 10),
		Holidays:     map[string]bool{},
	}

	instances := map[string]*schedtypes.TaskInstance{
		"LineA_1": {ID: "LineA_1", Kind: schedtypes.KindProduction, Product: "LineA", Headcount: 2, DurationMinutes: 480, Resource: schedtypes.ResourceKey{TeamBase: "Mechanic Team 1"}},
		"LineA_2": {ID: "LineA_2", Kind: schedtypes.KindProduction, Product: "LineA", Headcount: 2, DurationMinutes: 480, Resource: schedtypes.ResourceKey{TeamBase: "Mechanic Team 1"}},
	}

	result := &schedtypes.ScenarioResult{
		Entries: map[string]*schedtypes.ScheduleEntry{
			"LineA_1": {InstanceID: "LineA_1", StartMinute: 0, EndMinute: 480, Resource: schedtypes.ResourceKey{TeamBase: "Mechanic Team 1"}},
			"LineA_2": {InstanceID: "LineA_2", StartMinute: 480, EndMinute: 960, Resource: schedtypes.ResourceKey{TeamBase: "Mechanic Team 1"}},
		},
		Successors: map[string][]string{"LineA_1": {"LineA_2"}},
	}

	return cat, instances, result
}

func TestMakespanReturnsSentinelWhenIncomplete(t *testing.T) {
	_, _, result := buildFixture()
	require.Equal(t, UnscheduledSentinelDays, Makespan(result, 5))
}

func TestMakespanCountsWorkingDays(t *testing.T) {
	_, _, result := buildFixture()
	require.Equal(t, 2, Makespan(result, 2))
}

func TestLatenessReportsOnTimeProduct(t *testing.T) {
	cat, instances, result := buildFixture()
	out := Lateness(result, cat, instances, start)
	require.True(t, out["LineA"].OnTime)
}

func TestLatenessSentinelsUnscheduledProduct(t *testing.T) {
	cat, instances, _ := buildFixture()
	cat.Products["LineB"] = &schedtypes.ProductLine{ID: "LineB", DeliveryDate: start.AddDate(0, 0, 5)}
	result := &schedtypes.ScenarioResult{Entries: map[string]*schedtypes.ScheduleEntry{}, Successors: map[string][]string{}}
	out := Lateness(result, cat, instances, start)
	require.Equal(t, UnscheduledSentinelDays, out["LineB"].LatenessDays)
	require.False(t, out["LineB"].OnTime)
}

func TestSlackUsesEarliestSuccessorStart(t *testing.T) {
	_, instances, result := buildFixture()
	slack := Slack("LineA_1", result, instances, nil, start)
	require.Equal(t, 0.0, slack)
}

func TestCriticalityBuckets(t *testing.T) {
	require.Equal(t, schedtypes.CriticalityCritical, Criticality(10))
	require.Equal(t, schedtypes.CriticalityBuffer, Criticality(72))
	require.Equal(t, schedtypes.CriticalityFlexible, Criticality(200))
}

func TestUtilizationClampsAtOne(t *testing.T) {
	_, instances, result := buildFixture()
	capacity := map[string]int{"Mechanic Team 1": 1}
	out := Utilization(result, instances, capacity, 960)
	require.LessOrEqual(t, out["Mechanic Team 1"], 1.0)
}
