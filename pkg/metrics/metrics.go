// Package metrics computes the read-only measures a ScenarioResult is
// judged by: makespan in working days, per-product lateness, per-task
// slack, and per-resource utilization. Grounded on
// original_source/src/scheduler/metrics.py's calculate_makespan,
// calculate_lateness_metrics, calculate_slack_time and
// calculate_team_utilization.
package metrics

import (
	"strings"
	"time"

	"github.com/jaredv/focus-scheduler/pkg/calendar"
	"github.com/jaredv/focus-scheduler/pkg/catalog"
	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
)

// UnscheduledSentinelDays is returned by Makespan when at least one
// instance has no schedule entry, mirroring the reference's 999999
// sentinel.
const UnscheduledSentinelDays = 999999

// Makespan returns the number of working days spanned by the earliest
// scheduled start and the latest scheduled end, or
// UnscheduledSentinelDays if fewer instances have an entry than
// totalInstances. Completeness is counted by distinct instance (via
// baseID, which folds "---partN" ids into their instance), not by raw
// entry count, so two entries for one instance cannot mask a genuinely
// unscheduled instance elsewhere.
func Makespan(result *schedtypes.ScenarioResult, totalInstances int) int {
	if len(result.Entries) == 0 {
		return 0
	}
	scheduled := map[string]bool{}
	for id := range result.Entries {
		scheduled[baseID(id)] = true
	}
	if len(scheduled) < totalInstances {
		return UnscheduledSentinelDays
	}

	minStart, maxEnd := -1, -1
	for _, e := range result.Entries {
		if minStart == -1 || e.StartMinute < minStart {
			minStart = e.StartMinute
		}
		if e.EndMinute > maxEnd {
			maxEnd = e.EndMinute
		}
	}
	return calendar.WorkingDaysBetween(minStart, maxEnd)
}

// ProductLateness is one product's completion vs. delivery comparison.
type ProductLateness struct {
	Product            string
	DeliveryDate       time.Time
	ProjectedCompletion time.Time
	LatenessDays       int
	OnTime             bool
	TotalTasks         int
}

// Lateness computes ProductLateness for every product line, mirroring
// calculate_lateness_metrics: products with no scheduled tasks get the
// sentinel lateness and are reported not-on-time.
func Lateness(result *schedtypes.ScenarioResult, cat *catalog.Catalog, instances map[string]*schedtypes.TaskInstance, startDate time.Time) map[string]ProductLateness {
	out := map[string]ProductLateness{}

	cals := map[string]*calendar.Calendar{}
	calendarFor := func(product string) *calendar.Calendar {
		if c, ok := cals[product]; ok {
			return c
		}
		p := cat.Products[product]
		var holidays map[string]bool
		if p != nil {
			holidays = p.Holidays
		}
		c := calendar.New(startDate, holidays, 0)
		cals[product] = c
		return c
	}

	taskCount := map[string]int{}
	lastEnd := map[string]int{}
	hasAny := map[string]bool{}
	for id, e := range result.Entries {
		inst := instances[baseID(id)]
		if inst == nil {
			continue
		}
		taskCount[inst.Product]++
		hasAny[inst.Product] = true
		if e.EndMinute > lastEnd[inst.Product] {
			lastEnd[inst.Product] = e.EndMinute
		}
	}

	for name, p := range cat.Products {
		if !hasAny[name] {
			out[name] = ProductLateness{
				Product:      name,
				DeliveryDate: p.DeliveryDate,
				LatenessDays: UnscheduledSentinelDays,
				OnTime:       false,
			}
			continue
		}
		completion := calendarFor(name).MinutesToDate(lastEnd[name])
		latenessDays := int(completion.Sub(p.DeliveryDate).Hours() / 24)
		out[name] = ProductLateness{
			Product:             name,
			DeliveryDate:        p.DeliveryDate,
			ProjectedCompletion: completion,
			LatenessDays:        latenessDays,
			OnTime:              latenessDays <= 0,
			TotalTasks:          taskCount[name],
		}
	}
	return out
}

// baseID strips a "---partN" split suffix.
func baseID(id string) string {
	if i := strings.Index(id, "---part"); i >= 0 {
		return id[:i]
	}
	return id
}

// slackCapHours bounds reported slack so a missing successor chain
// doesn't read as literally infinite; mirrors the reference's "more
// than a year of slack seems wrong" sanity check.
const slackCapHours = 365 * 24

// Slack computes, for one instance, the hours of play between its
// scheduled end and the latest it could have ended without delaying
// either its earliest successor or (absent successors) the product's
// delivery date.
func Slack(instanceID string, result *schedtypes.ScenarioResult, instances map[string]*schedtypes.TaskInstance, cat *catalog.Catalog, startDate time.Time) float64 {
	id := baseID(instanceID)
	entry := result.Entries[id]
	if entry == nil {
		return slackCapHours
	}
	inst := instances[id]
	if inst == nil {
		return slackCapHours
	}

	successors := result.Successors[id]
	if len(successors) == 0 {
		p := cat.Products[inst.Product]
		if p == nil {
			return slackCapHours
		}
		c := calendar.New(startDate, p.Holidays, 0)
		dueIdx, err := c.DateToMinutes(p.DeliveryDate)
		if err != nil {
			return slackCapHours
		}
		hours := float64(dueIdx-entry.EndMinute) / 60
		return clampSlack(hours)
	}

	earliestSuccStart := -1
	for _, succID := range successors {
		if succEntry := result.Entries[succID]; succEntry != nil {
			if earliestSuccStart == -1 || succEntry.StartMinute < earliestSuccStart {
				earliestSuccStart = succEntry.StartMinute
			}
		}
	}
	if earliestSuccStart == -1 {
		return slackCapHours
	}
	hours := float64(earliestSuccStart-entry.EndMinute) / 60
	return clampSlack(hours)
}

func clampSlack(hours float64) float64 {
	if hours < 0 {
		hours = 0
	}
	if hours > slackCapHours {
		return slackCapHours
	}
	return hours
}

// Criticality buckets a slack value: CRITICAL under 2 days, BUFFER
// under 5 days, FLEXIBLE otherwise.
func Criticality(slackHours float64) schedtypes.Criticality {
	switch {
	case slackHours < 48:
		return schedtypes.CriticalityCritical
	case slackHours < 120:
		return schedtypes.CriticalityBuffer
	default:
		return schedtypes.CriticalityFlexible
	}
}

// Utilization computes, per resource, the fraction of (capacity ×
// working minutes over the makespan) actually consumed by entries
// assigned to it, clamped to 1.0. Mirrors calculate_team_utilization.
func Utilization(result *schedtypes.ScenarioResult, instances map[string]*schedtypes.TaskInstance, capacity map[string]int, makespanMinutes int) map[string]float64 {
	consumed := map[string]int{}
	for id, e := range result.Entries {
		inst := instances[baseID(id)]
		if inst == nil {
			continue
		}
		duration := e.EndMinute - e.StartMinute
		consumed[e.Resource.String()] += duration * inst.Headcount
	}

	out := map[string]float64{}
	for name, cap := range capacity {
		if cap <= 0 || makespanMinutes <= 0 {
			out[name] = 0
			continue
		}
		available := float64(cap * makespanMinutes)
		u := float64(consumed[name]) / available
		if u > 1 {
			u = 1
		}
		out[name] = u
	}
	return out
}
