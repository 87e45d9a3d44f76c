package cache

import (
	"testing"

	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
	"github.com/stretchr/testify/require"
)

func TestGraphRoundTrip(t *testing.T) {
	store, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	edges := []schedtypes.PrecedenceEdge{
		{Predecessor: "P1_1", Successor: "P1_2", Relation: schedtypes.RelFS},
	}

	require.NoError(t, store.PutGraph(1, edges))

	got, ok, err := store.GetGraph(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, edges, got)

	_, ok, err = store.GetGraph(2)
	require.NoError(t, err)
	require.False(t, ok, "stale version should miss")
}

func TestScenarioRoundTrip(t *testing.T) {
	store, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	result := &schedtypes.ScenarioResult{
		Mode:         schedtypes.ModeBaseline,
		Status:       schedtypes.StatusOptimal,
		Entries:      map[string]*schedtypes.ScheduleEntry{},
		MakespanDays: 12,
	}

	require.NoError(t, store.PutScenario("baseline", 3, result))

	got, ok, err := store.GetScenario("baseline", 3)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, result.MakespanDays, got.MakespanDays)

	_, ok, err = store.GetScenario("baseline", 4)
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = store.GetScenario("joint", 3)
	require.NoError(t, err)
	require.False(t, ok, "different key should miss")
}
