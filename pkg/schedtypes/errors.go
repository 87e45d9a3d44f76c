package schedtypes

import "fmt"

// ParseError reports a malformed CSV row. The catalog loader records
// these as warnings; it never fails a load because of them, even when
// every row of a section fails to parse.
type ParseError struct {
	Section string
	Row     int
	Field   string
	Reason  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in section %q row %d field %q: %s", e.Section, e.Row, e.Field, e.Reason)
}

// NewParseError constructs a ParseError.
func NewParseError(section string, row int, field, reason string) *ParseError {
	return &ParseError{Section: section, Row: row, Field: field, Reason: reason}
}

// UnresolvableTeam reports a task naming a resource absent from the
// capacity tables.
type UnresolvableTeam struct {
	TaskID int
	Team   string
}

func (e *UnresolvableTeam) Error() string {
	return fmt.Sprintf("task %d references unresolvable team %q", e.TaskID, e.Team)
}

// NewUnresolvableTeam constructs an UnresolvableTeam error.
func NewUnresolvableTeam(taskID int, team string) *UnresolvableTeam {
	return &UnresolvableTeam{TaskID: taskID, Team: team}
}

// DagCycle reports a cycle in the dynamic dependency graph. Fatal.
type DagCycle struct {
	Path []string
}

func (e *DagCycle) Error() string {
	return fmt.Sprintf("dependency cycle detected: %v", e.Path)
}

// NewDagCycle constructs a DagCycle error.
func NewDagCycle(path []string) *DagCycle {
	return &DagCycle{Path: path}
}

// InfeasibleCapacity reports an instance demanding more headcount than
// its resource has. Fatal at validation time.
type InfeasibleCapacity struct {
	InstanceID string
	Need       int
	Capacity   int
}

func (e *InfeasibleCapacity) Error() string {
	return fmt.Sprintf("instance %s needs %d but resource has capacity %d", e.InstanceID, e.Need, e.Capacity)
}

// NewInfeasibleCapacity constructs an InfeasibleCapacity error.
func NewInfeasibleCapacity(instanceID string, need, capacity int) *InfeasibleCapacity {
	return &InfeasibleCapacity{InstanceID: instanceID, Need: need, Capacity: capacity}
}

// HorizonExceeded reports that the calendar projection walked past the
// configured horizon cap without finding a working day.
type HorizonExceeded struct {
	HorizonDays int
}

func (e *HorizonExceeded) Error() string {
	return fmt.Sprintf("no working day found within horizon of %d days", e.HorizonDays)
}

// NewHorizonExceeded constructs a HorizonExceeded error.
func NewHorizonExceeded(horizonDays int) *HorizonExceeded {
	return &HorizonExceeded{HorizonDays: horizonDays}
}

// SolverTimeout reports the CP driver exhausting its wall-clock budget
// without a feasible solution.
type SolverTimeout struct {
	LimitSeconds int
}

func (e *SolverTimeout) Error() string {
	return fmt.Sprintf("solver exceeded %ds time limit without a solution", e.LimitSeconds)
}

// NewSolverTimeout constructs a SolverTimeout error.
func NewSolverTimeout(limitSeconds int) *SolverTimeout {
	return &SolverTimeout{LimitSeconds: limitSeconds}
}

// SolverInfeasible reports the CP driver proving no feasible solution
// exists.
type SolverInfeasible struct {
	Reason string
}

func (e *SolverInfeasible) Error() string {
	return fmt.Sprintf("solver proved infeasible: %s", e.Reason)
}

// NewSolverInfeasible constructs a SolverInfeasible error.
func NewSolverInfeasible(reason string) *SolverInfeasible {
	return &SolverInfeasible{Reason: reason}
}

// SchedulingFailure reports the heuristic scheduler giving up on one
// instance after exhausting its retries, or scheduling past the
// sanity-year cutoff.
type SchedulingFailure struct {
	InstanceID string
	Reason     string
}

func (e *SchedulingFailure) Error() string {
	return fmt.Sprintf("instance %s failed to schedule: %s", e.InstanceID, e.Reason)
}

// NewSchedulingFailure constructs a SchedulingFailure error.
func NewSchedulingFailure(instanceID, reason string) *SchedulingFailure {
	return &SchedulingFailure{InstanceID: instanceID, Reason: reason}
}
