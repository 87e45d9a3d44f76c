package scenario

import (
	"fmt"

	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
)

// Explanation reports why one scheduled instance landed where it did:
// its binding predecessor (the one whose end actually set its earliest
// start) and its resource's overall utilization in the run. Intended for
// the CLI's validate/explain surface — there is no analogue in the
// reference beyond its ad hoc print statements, so this is new,
// grounded on what the reference's priority_data already tracks per
// task (slack_hours, criticality, scheduled_start/end).
type Explanation struct {
	InstanceID           string
	ScheduledStart       int
	ScheduledEnd         int
	Resource             string
	BindingPredecessor   string // "" if nothing constrained the start
	BindingPredecessorEnd int
	SlackHours           float64
	Criticality          schedtypes.Criticality
	ResourceUtilization  float64 // this resource's overall utilization in the run, if computed
}

// Explain builds an Explanation for one instance id against an
// already-annotated ScenarioResult (i.e. one returned by Run, not a
// raw solver/heuristic result).
func (c *Controller) Explain(result *schedtypes.ScenarioResult, instanceID string) (*Explanation, error) {
	entry, ok := result.Entries[instanceID]
	if !ok {
		return nil, fmt.Errorf("instance %s has no schedule entry in this result", instanceID)
	}

	exp := &Explanation{
		InstanceID:          instanceID,
		ScheduledStart:      entry.StartMinute,
		ScheduledEnd:        entry.EndMinute,
		Resource:            entry.Resource.String(),
		SlackHours:          entry.SlackHours,
		Criticality:         entry.Criticality,
		ResourceUtilization: result.ResourceUtilization[entry.Resource.String()],
	}

	bestEnd := -1
	for _, predID := range result.Predecessors[instanceID] {
		predEntry := result.Entries[predID]
		if predEntry == nil {
			continue
		}
		if predEntry.EndMinute > bestEnd {
			bestEnd = predEntry.EndMinute
			exp.BindingPredecessor = predID
			exp.BindingPredecessorEnd = predEntry.EndMinute
		}
	}

	return exp, nil
}
