// Package schedtypes defines the core domain model shared by every
// scheduler package: catalog definitions, task instances, resource
// keys, the dynamic dependency graph, and the scenario result shape.
package schedtypes

import "time"

// TaskKind tags the variant a TaskInstance belongs to. Dispatch on kind
// is a single switch at every site that needs it (resource selection,
// objective construction, blocking-interval creation) rather than a
// type hierarchy.
type TaskKind string

const (
	KindProduction         TaskKind = "production"
	KindLatePart           TaskKind = "late_part"
	KindRework             TaskKind = "rework"
	KindQualityInspection  TaskKind = "quality_inspection"
	KindCustomerInspection TaskKind = "customer_inspection"
)

// RelationType is a precedence relationship between two instances.
// Default is RelFS when a catalog row leaves it blank.
type RelationType string

const (
	RelFS   RelationType = "FS"  // Finish(u) <= Start(v)
	RelFF   RelationType = "FF"  // Finish(u) <= Finish(v)
	RelSS   RelationType = "SS"  // Start(u) <= Start(v)
	RelSF   RelationType = "SF"  // Start(u) <= Finish(v)
	RelSEQS RelationType = "S=S" // Start(u) == Start(v)
	RelFEQS RelationType = "F=S" // Finish(u) == Start(v)
)

// ShiftID identifies one of the three supported shifts. Shift3 crosses
// midnight: its end clock is earlier than its start clock.
type ShiftID string

const (
	Shift1 ShiftID = "shift1"
	Shift2 ShiftID = "shift2"
	Shift3 ShiftID = "shift3"
)

// Shift is a working window expressed in minutes since local midnight.
type Shift struct {
	ID          ShiftID
	StartMinute int
	EndMinute   int
}

// CrossesMidnight reports whether the shift's end clock is earlier
// than its start clock (true only for shift3 in practice).
func (s Shift) CrossesMidnight() bool {
	return s.EndMinute <= s.StartMinute
}

// ResourceKey identifies the pool of headcount a task instance draws
// from. Mechanic resources are keyed by (teamBase, skill); quality and
// customer resources are keyed by teamBase only, so Skill is empty.
type ResourceKey struct {
	TeamBase string
	Skill    string
}

// String renders a stable identity for maps and log fields, in the
// catalog's "Team (Skill N)" label form. Skill may hold the bare code
// ("2") or the "Skill 2" form the catalog loader produces; both render
// as "Team (Skill 2)".
func (r ResourceKey) String() string {
	if r.Skill == "" {
		return r.TeamBase
	}
	if len(r.Skill) > len("Skill ") && r.Skill[:len("Skill ")] == "Skill " {
		return r.TeamBase + " (" + r.Skill + ")"
	}
	return r.TeamBase + " (Skill " + r.Skill + ")"
}

// ResourceCapacity is the capacity and shift set backing one ResourceKey.
type ResourceCapacity struct {
	Key      ResourceKey
	Capacity int
	Shifts   map[ShiftID]bool
}

// ProductLine is one concurrently-built product with its own delivery
// date, holiday calendar, and catalog task range.
type ProductLine struct {
	ID           string
	DeliveryDate time.Time
	Holidays     map[string]bool // "2026-07-04"-style keys, product-local
	StartTaskID  int
	EndTaskID    int
}

// BaselineTaskDef is one row of the catalog task table, scoped to no
// product until the Instance Expander materializes it per product.
type BaselineTaskDef struct {
	CatalogID       int
	DurationMinutes int
	BaseTeam        string
	Skill           string
	Headcount       int
	Predecessors    []int
}

// TaskInstance is a globally unique, concrete unit of work: a
// production task scoped to one product, a late-part or rework task
// that may have no natural product, or a quality/customer inspection
// attached to exactly one primary instance.
type TaskInstance struct {
	ID              string
	Kind            TaskKind
	Product         string // "" only for catalog-global late parts
	CatalogID       int    // 0 when the instance has no baseline origin
	DurationMinutes int
	Headcount       int
	Resource        ResourceKey
	PrimaryID       string     // set on QI/CC instances
	OnDock          *time.Time // set on late-part instances
	DelayDays       int        // set on late-part instances
}

// IsInspection reports whether the instance is a QI or CC sidecar.
func (t *TaskInstance) IsInspection() bool {
	return t.Kind == KindQualityInspection || t.Kind == KindCustomerInspection
}

// InspectionLinks records the QI/CC sidecars attached to one primary
// instance. Kept external to TaskInstance records so the instance
// arena stays a flat, cycle-free map.
type InspectionLinks struct {
	QualityID  string
	CustomerID string
}

// PrecedenceEdge is one edge of the dynamic dependency graph produced
// by the Dependency Weaver: a direct predecessor -> successor link,
// already threaded through any QI/CC sidecars.
type PrecedenceEdge struct {
	Predecessor string
	Successor   string
	Relation    RelationType
}

// Criticality buckets a schedule entry's slack for presentation.
type Criticality string

const (
	CriticalityCritical Criticality = "CRITICAL"
	CriticalityBuffer   Criticality = "BUFFER"
	CriticalityFlexible Criticality = "FLEXIBLE"
)

// ScheduleEntry is the solved time/resource assignment for one
// TaskInstance.
type ScheduleEntry struct {
	InstanceID  string
	StartMinute int
	EndMinute   int
	Resource    ResourceKey
	Shift       ShiftID
	Ordinal     int
	SlackHours  float64
	Criticality Criticality
	NeedsReview bool
}

// ScenarioMode selects the objective and capacity model for a run.
type ScenarioMode string

const (
	ModeBaseline ScenarioMode = "baseline" // Scenario-1: fixed capacity, minimize lateness
	ModeJoint    ScenarioMode = "joint"    // Scenario-3: jointly minimize lateness + workforce
	ModeWhatIf   ScenarioMode = "whatif"   // prioritize one product's completion
)

// RunStatus reports how the solver concluded.
type RunStatus string

const (
	StatusOptimal  RunStatus = "OPTIMAL"
	StatusFeasible RunStatus = "FEASIBLE"
	StatusFailed   RunStatus = "FAILED"
)

// ScenarioResult is the immutable snapshot handed to external readers
// after a scenario run completes.
type ScenarioResult struct {
	RunID               string
	Mode                ScenarioMode
	Status              RunStatus
	Entries             map[string]*ScheduleEntry
	MakespanDays        int
	ProductCompletion   map[string]int // minute index of last terminal end
	ProductLatenessDays map[string]int
	ResourceUtilization map[string]float64
	TotalWorkforce      int
	OnTimeRate          float64
	Predecessors        map[string][]string
	Successors          map[string][]string
	Failed              map[string]string // instanceID -> failure reason
}
