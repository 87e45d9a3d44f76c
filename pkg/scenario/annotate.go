package scenario

import (
	"sort"

	"github.com/jaredv/focus-scheduler/pkg/metrics"
	"github.com/jaredv/focus-scheduler/pkg/obs"
	"github.com/jaredv/focus-scheduler/pkg/schedtypes"
)

// annotate fills in each ScheduleEntry's slack/criticality and assigns
// the presentation priority ordinals, mirroring scenario_1's
// priority_data construction: sort by (scheduled_start, slack_hours),
// then number sequentially starting at 1.
func (c *Controller) annotate(result *schedtypes.ScenarioResult, opts RunOptions) {
	for id, entry := range result.Entries {
		slack := metrics.Slack(id, result, c.instances, c.cat, opts.StartDate)
		entry.SlackHours = slack
		entry.Criticality = metrics.Criticality(slack)
	}

	ids := make([]string, 0, len(result.Entries))
	for id := range result.Entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := result.Entries[ids[i]], result.Entries[ids[j]]
		if a.StartMinute != b.StartMinute {
			return a.StartMinute < b.StartMinute
		}
		return a.SlackHours < b.SlackHours
	})
	for i, id := range ids {
		result.Entries[id].Ordinal = i + 1
	}

	result.MakespanDays = metrics.Makespan(result, len(c.instances))
	if capacity := combinedCapacity(c.cat); len(capacity) > 0 {
		result.ResourceUtilization = metrics.Utilization(result, c.instances, capacity, result.MakespanDays*8*60)
	}
}

// recordMetrics publishes the run's outcome to the Prometheus
// collectors the rest of the service scrapes.
func (c *Controller) recordMetrics(result *schedtypes.ScenarioResult, opts RunOptions) {
	outcome := "success"
	if result.Status == schedtypes.StatusFailed {
		outcome = "failed"
	}
	obs.ScenarioRunsTotal.WithLabelValues(string(opts.Mode), outcome).Inc()
	obs.MakespanDays.WithLabelValues(string(opts.Mode)).Set(float64(result.MakespanDays))
	obs.TotalWorkforce.WithLabelValues(string(opts.Mode)).Set(float64(result.TotalWorkforce))

	for product, days := range result.ProductLatenessDays {
		obs.ProductLatenessDays.WithLabelValues(product).Set(float64(days))
	}
	for resource, ratio := range result.ResourceUtilization {
		obs.ResourceUtilization.WithLabelValues(resource).Set(ratio)
	}
	for _, reason := range result.Failed {
		obs.SchedulingFailuresTotal.WithLabelValues(string(opts.Mode), reason).Inc()
	}
}
