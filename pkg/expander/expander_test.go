package expander

import (
	"testing"
	"time"

	"github.com/jaredv/focus-scheduler/pkg/catalog"
	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
	"github.com/stretchr/testify/require"
)

func buildCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat := catalog.New()
	cat.Tasks[1] = &schedtypes.BaselineTaskDef{CatalogID: 1, DurationMinutes: 120, BaseTeam: "Mechanic Team 1", Headcount: 2}
	cat.Tasks[2] = &schedtypes.BaselineTaskDef{CatalogID: 2, DurationMinutes: 90, BaseTeam: "Mechanic Team 1", Headcount: 2, Predecessors: []int{1}}
	cat.Products["LineA"] = &schedtypes.ProductLine{
		ID: "LineA", StartTaskID: 1, EndTaskID: 2,
		DeliveryDate: time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
		Holidays:     map[string]bool{},
	}
	cat.QualityCapacity["Quality Team 1"] = 3
	cat.QualityInspectionReqs = []catalog.QualityInspectionReq{
		{PrimaryTaskID: 1, QualityTaskID: "501", HeadcountNeeded: 1, DurationMinutes: 30},
	}
	cat.LatePartTaskDetails["LP_900"] = &catalog.LatePartTaskDetail{TaskID: "LP_900", DurationMinutes: 60, Team: "Mechanic Team 9", Skill: "Skill 1", Headcount: 1}
	cat.LatePartRelationships = []catalog.LatePartRelationship{
		{First: "LP_900", Second: "2", OnDockDate: time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), ProductLine: "LineA", Relationship: schedtypes.RelFS},
	}
	return cat
}

func TestExpandMaterializesProductionInstances(t *testing.T) {
	ex := Expand(buildCatalog(t))
	require.Contains(t, ex.Instances, "LineA_1")
	require.Contains(t, ex.Instances, "LineA_2")
	require.Equal(t, schedtypes.KindProduction, ex.Instances["LineA_1"].Kind)
}

func TestExpandMaterializesQualityInspection(t *testing.T) {
	ex := Expand(buildCatalog(t))
	qiID := "LineA_QI_501"
	require.Contains(t, ex.Instances, qiID)
	qi := ex.Instances[qiID]
	require.Equal(t, "LineA_1", qi.PrimaryID)
	require.Equal(t, "Quality Team 1", qi.Resource.TeamBase)
	require.Equal(t, qiID, ex.Links["LineA_1"].QualityID)
}

func TestExpandLatePartInheritsTeamFromTracedBaseline(t *testing.T) {
	ex := Expand(buildCatalog(t))
	lp, ok := ex.Instances["LP_900"]
	require.True(t, ok)
	require.Equal(t, "Mechanic Team 1", lp.Resource.TeamBase)
	require.Equal(t, "LineA", lp.Product)
	require.NotNil(t, lp.OnDock)
}

// TestExpandLatePartTracesThroughReworkToBaseline exercises a 2-hop
// chain: a late part's Second names a rework task, and that rework
// task's own Second is what finally names a baseline catalog task, so
// resolving the late part's team/skill/product requires following both
// relationship tables in sequence rather than a single lookup.
func TestExpandLatePartTracesThroughReworkToBaseline(t *testing.T) {
	cat := buildCatalog(t)
	cat.ReworkTaskDetails["RW_700"] = &catalog.ReworkTaskDetail{TaskID: "RW_700", DurationMinutes: 45, Team: "Mechanic Team 7", Skill: "Skill 1", Headcount: 1}
	cat.ReworkRelationships = []catalog.ReworkRelationship{
		{First: "RW_700", Second: "1", ProductLine: "LineA", Relationship: schedtypes.RelFS},
	}
	cat.LatePartTaskDetails["LP_901"] = &catalog.LatePartTaskDetail{TaskID: "LP_901", DurationMinutes: 60, Team: "Mechanic Team 9", Skill: "Skill 1", Headcount: 1}
	cat.LatePartRelationships = append(cat.LatePartRelationships, catalog.LatePartRelationship{
		First: "LP_901", Second: "RW_700", OnDockDate: time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), Relationship: schedtypes.RelFS,
	})

	ex := Expand(cat)

	lp, ok := ex.Instances["LP_901"]
	require.True(t, ok)
	require.Equal(t, "Mechanic Team 1", lp.Resource.TeamBase, "should inherit from LineA_1 via RW_700, not fall back to the CSV-declared team")
	require.Equal(t, "LineA", lp.Product)
}
