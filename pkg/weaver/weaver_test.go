package weaver

import (
	"testing"
	"time"

	"github.com/jaredv/focus-scheduler/pkg/catalog"
	"github.com/jaredv/focus-scheduler/pkg/expander"
	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
	"github.com/stretchr/testify/require"
)

func buildCatalog() *catalog.Catalog {
	cat := catalog.New()
	cat.Tasks[1] = &schedtypes.BaselineTaskDef{CatalogID: 1, DurationMinutes: 120, BaseTeam: "Mechanic Team 1", Headcount: 2}
	cat.Tasks[2] = &schedtypes.BaselineTaskDef{CatalogID: 2, DurationMinutes: 90, BaseTeam: "Mechanic Team 1", Headcount: 2}
	cat.Tasks[3] = &schedtypes.BaselineTaskDef{CatalogID: 3, DurationMinutes: 60, BaseTeam: "Mechanic Team 1", Headcount: 1}
	cat.TaskRelationships = []catalog.TaskRelationship{
		{First: 1, Second: 2, Relationship: schedtypes.RelFS},
	}
	cat.Products["LineA"] = &schedtypes.ProductLine{ID: "LineA", StartTaskID: 1, EndTaskID: 3, Holidays: map[string]bool{}, DeliveryDate: time.Now()}
	cat.QualityCapacity["Quality Team 1"] = 2
	cat.QualityInspectionReqs = []catalog.QualityInspectionReq{
		{PrimaryTaskID: 1, QualityTaskID: "501", HeadcountNeeded: 1, DurationMinutes: 30},
	}
	return cat
}

func TestWeaveThreadsQIBetweenPredecessorAndSuccessor(t *testing.T) {
	cat := buildCatalog()
	ex := expander.Expand(cat)
	edges := Weave(cat, ex)

	require.Contains(t, edges, schedtypes.PrecedenceEdge{Predecessor: "LineA_1", Successor: "LineA_QI_501", Relation: schedtypes.RelFS})
	require.Contains(t, edges, schedtypes.PrecedenceEdge{Predecessor: "LineA_QI_501", Successor: "LineA_2", Relation: schedtypes.RelFS})
}

func TestWeaveLinksTerminalInspectedTask(t *testing.T) {
	cat := buildCatalog()
	// task 3 has a QI but is never a predecessor of anything.
	cat.QualityInspectionReqs = append(cat.QualityInspectionReqs, catalog.QualityInspectionReq{
		PrimaryTaskID: 3, QualityTaskID: "502", HeadcountNeeded: 1, DurationMinutes: 20,
	})
	ex := expander.Expand(cat)
	edges := Weave(cat, ex)

	require.Contains(t, edges, schedtypes.PrecedenceEdge{Predecessor: "LineA_3", Successor: "LineA_QI_502", Relation: schedtypes.RelFS})
}
