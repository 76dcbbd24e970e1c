package executor

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// JobsTotal counts finished jobs by kind and terminal status
	JobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topoplan_jobs_total",
			Help: "Total number of jobs finished, by kind and status (done, failed, skipped)",
		},
		[]string{"kind", "status"},
	)

	// JobsInFlight tracks the number of jobs currently executing
	JobsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "topoplan_jobs_in_flight",
			Help: "Number of jobs currently executing",
		},
	)

	// JobDurationSeconds observes wall-clock job execution time
	JobDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "topoplan_job_duration_seconds",
			Help:    "Wall-clock job execution time in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
		[]string{"kind"},
	)
)

func init() {
	// Register metrics with the default registry
	prometheus.MustRegister(JobsTotal)
	prometheus.MustRegister(JobsInFlight)
	prometheus.MustRegister(JobDurationSeconds)
}
