// Package obs exposes the scheduler's Prometheus metrics.
package obs

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Catalog metrics
	CatalogTasksTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "focus_catalog_tasks_total",
			Help: "Total number of baseline catalog task definitions loaded",
		},
	)

	CatalogWarningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "focus_catalog_warnings_total",
			Help: "Total number of non-fatal row warnings during catalog load, by section",
		},
		[]string{"section"},
	)

	InstancesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "focus_instances_total",
			Help: "Total number of task instances after expansion, by kind",
		},
		[]string{"kind"},
	)

	// Scenario / solver metrics
	ScenarioRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "focus_scenario_runs_total",
			Help: "Total number of scenario runs by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	SolverDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "focus_solver_duration_seconds",
			Help:    "Wall-clock time spent in the CP solver or heuristic scheduler",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 90, 120},
		},
		[]string{"mode", "engine"},
	)

	SchedulingFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "focus_scheduling_failures_total",
			Help: "Total number of task instances that could not be scheduled",
		},
		[]string{"mode", "reason"},
	)

	// Result metrics
	MakespanDays = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "focus_makespan_working_days",
			Help: "Makespan of the last scenario run, in working days",
		},
		[]string{"mode"},
	)

	ProductLatenessDays = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "focus_product_lateness_days",
			Help: "Lateness of a product line in the last scenario run, in working days",
		},
		[]string{"product"},
	)

	ResourceUtilization = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "focus_resource_utilization_ratio",
			Help: "Fraction of capacity-minutes consumed by a resource key over the makespan",
		},
		[]string{"resource_key"},
	)

	TotalWorkforce = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "focus_total_workforce",
			Help: "Sum of optimized per-resource capacity in the last joint-optimize run",
		},
		[]string{"mode"},
	)
)

func init() {
	prometheus.MustRegister(
		CatalogTasksTotal,
		CatalogWarningsTotal,
		InstancesTotal,
		ScenarioRunsTotal,
		SolverDuration,
		SchedulingFailuresTotal,
		MakespanDays,
		ProductLatenessDays,
		ResourceUtilization,
		TotalWorkforce,
	)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures elapsed wall-clock time for a single operation.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time into a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Observer) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
