package schedulerloop

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// wakeCauseTotal tracks which of {notify, timer, safety_timeout,
	// immediate} woke the loop, so operators can tell a healthy NOTIFY-driven
	// deployment from one silently falling back to safety-timeout
	// polling.
	wakeCauseTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_wake_cause_total",
		Help: "Scheduler loop wakeups by cause (notify, timer, safety_timeout, immediate)",
	}, []string{"cause"})

	dispatchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_dispatched_total",
		Help: "Rows dispatched by outcome (published, dead_lettered, retried)",
	}, []string{"outcome"})

	claimBatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduler_claim_batch_size",
		Help:    "Number of rows claimed per DISPATCH pass",
		Buckets: prometheus.LinearBuckets(0, 5, 10),
	})

	loopIterationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduler_loop_iteration_seconds",
		Help:    "Wall time for one QUERY-WAIT-DISPATCH-MARK iteration",
		Buckets: prometheus.DefBuckets,
	})

	queryErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_query_errors_total",
		Help: "Errors encountered during QUERY/DISPATCH by classification",
	}, []string{"kind"})
)
