// Package catalog parses the sectioned CSV input document into typed,
// in-memory tables: shifts, team capacities and calendars, the baseline
// task catalog, product lines, inspection requirements, late-part and
// rework details, and holiday calendars.
package catalog

import (
	"time"

	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
)

// QualityInspectionReq is one row of QUALITY INSPECTION REQUIREMENTS.
type QualityInspectionReq struct {
	PrimaryTaskID   int
	QualityTaskID   string
	HeadcountNeeded int
	DurationMinutes int
}

// CustomerInspectionReq is one row of CUSTOMER INSPECTION REQUIREMENTS.
type CustomerInspectionReq struct {
	PrimaryTaskID   int
	CustomerTaskID  string
	HeadcountNeeded int
	DurationMinutes int
}

// LatePartRelationship is one row of LATE PARTS RELATIONSHIPS TABLE.
// Second is declared as a successor task id, but that successor is not
// always a baseline catalog task: it may itself be another late-part or
// rework id, requiring a further hop to reach a baseline instance (see
// expander.traceBaseline).
type LatePartRelationship struct {
	First        string // late-part task id, e.g. "LP_1001"
	Second       string // successor task id: baseline, late-part, or rework
	OnDockDate   time.Time
	ProductLine  string // optional
	Relationship schedtypes.RelationType
}

// LatePartTaskDetail is one row of LATE PARTS TASK DETAILS.
type LatePartTaskDetail struct {
	TaskID          string
	DurationMinutes int
	Team            string
	Skill           string
	Headcount       int
}

// ReworkRelationship is one row of REWORK RELATIONSHIPS TABLE. Second
// carries the same multi-hop caveat as LatePartRelationship.Second.
type ReworkRelationship struct {
	First        string
	Second       string
	ProductLine  string
	Relationship schedtypes.RelationType
}

// ReworkTaskDetail is one row of REWORK TASK DETAILS.
type ReworkTaskDetail struct {
	TaskID          string
	DurationMinutes int
	Team            string
	Skill           string
	Headcount       int
	NeedsQI         bool
	QIDurationMin   int
	QIHeadcount     int
}

// TaskRelationship is one row of TASK RELATIONSHIPS TABLE.
type TaskRelationship struct {
	First        int
	Second       int
	Relationship schedtypes.RelationType
}

// Catalog is the fully-loaded, typed set of tables a single input
// document produces.
type Catalog struct {
	Shifts map[schedtypes.ShiftID]schedtypes.Shift

	MechanicCapacity map[string]int                           // team label as given (base or skill-qualified) -> capacity; a base team with no row of its own gets the sum of its skill rows
	QualityCapacity  map[string]int                           // quality team -> capacity
	CustomerCapacity map[string]int                           // customer team -> capacity
	MechanicShifts   map[string]map[schedtypes.ShiftID]bool   // team label (base or skill-qualified) -> shift set
	QualityShifts    map[string]map[schedtypes.ShiftID]bool   // quality team -> shift set
	CustomerShifts   map[string]map[schedtypes.ShiftID]bool   // customer team -> shift set

	Tasks            map[int]*schedtypes.BaselineTaskDef // catalog id -> def
	TaskRelationships []TaskRelationship

	Products map[string]*schedtypes.ProductLine

	QualityInspectionReqs  []QualityInspectionReq
	CustomerInspectionReqs []CustomerInspectionReq

	LatePartRelationships []LatePartRelationship
	LatePartTaskDetails   map[string]*LatePartTaskDetail
	ReworkRelationships   []ReworkRelationship
	ReworkTaskDetails     map[string]*ReworkTaskDetail

	Holidays map[string]map[string]bool // product -> set of "2006-01-02" dates

	Warnings []error
}

// New returns an empty Catalog with all maps initialized.
func New() *Catalog {
	return &Catalog{
		Shifts:                 map[schedtypes.ShiftID]schedtypes.Shift{},
		MechanicCapacity:       map[string]int{},
		QualityCapacity:        map[string]int{},
		CustomerCapacity:       map[string]int{},
		MechanicShifts:         map[string]map[schedtypes.ShiftID]bool{},
		QualityShifts:          map[string]map[schedtypes.ShiftID]bool{},
		CustomerShifts:         map[string]map[schedtypes.ShiftID]bool{},
		Tasks:                  map[int]*schedtypes.BaselineTaskDef{},
		Products:               map[string]*schedtypes.ProductLine{},
		LatePartTaskDetails:    map[string]*LatePartTaskDetail{},
		ReworkTaskDetails:      map[string]*ReworkTaskDetail{},
		Holidays:               map[string]map[string]bool{},
	}
}

// warn appends a non-fatal row error; the load still succeeds.
func (c *Catalog) warn(err error) {
	c.Warnings = append(c.Warnings, err)
}

// ResourceKeyForBaseTeam splits a team label like "Mechanic Team 3
// (Skill 2)" into its base team and skill code. Teams without a skill
// suffix return an empty skill.
func ResourceKeyForBaseTeam(label string) schedtypes.ResourceKey {
	base, skill := splitSkill(label)
	return schedtypes.ResourceKey{TeamBase: base, Skill: skill}
}
