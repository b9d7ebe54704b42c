// Package metrics exposes the coordination substrate's Prometheus
// metrics: the ambient observability surface every process in the
// teacher's stack carries, independent of the HTTP/dashboard surface
// spec.md places out of scope.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TasksClaimedTotal counts successful claims, labeled by role and stage.
	TasksClaimedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chief",
		Name:      "tasks_claimed_total",
		Help:      "Total tasks claimed by an agent, by role and stage.",
	}, []string{"role", "stage"})

	// TasksCompletedTotal counts successful task completions.
	TasksCompletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chief",
		Name:      "tasks_completed_total",
		Help:      "Total tasks completed, by stage.",
	}, []string{"stage"})

	// TasksFailedTotal counts task failures.
	TasksFailedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chief",
		Name:      "tasks_failed_total",
		Help:      "Total tasks failed, by stage.",
	}, []string{"stage"})

	// StalledTasksRecoveredTotal counts stalled-lease recoveries.
	StalledTasksRecoveredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chief",
		Name:      "stalled_tasks_recovered_total",
		Help:      "Total tasks reset to pending after exceeding the stalled lease.",
	})

	// DedupHitsTotal counts Scout detections resolved as duplicates.
	DedupHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chief",
		Name:      "dedup_hits_total",
		Help:      "Total Scout detections matched to an existing story by the memory similarity gate.",
	})

	// SweepDuration observes how long one orchestrator sweep takes.
	SweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "chief",
		Name:      "sweep_duration_seconds",
		Help:      "Duration of one orchestrator sweep cycle.",
		Buckets:   prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(
		TasksClaimedTotal,
		TasksCompletedTotal,
		TasksFailedTotal,
		StalledTasksRecoveredTotal,
		DedupHitsTotal,
		SweepDuration,
	)
}

// Handler returns the HTTP handler serving the registered metrics in
// the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
