package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricTasksEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taxi",
		Name:      "queue_tasks_enqueued_total",
		Help:      "Total number of tasks enqueued",
	})
	metricTasksPulled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taxi",
		Name:      "queue_tasks_pulled_total",
		Help:      "Total number of tasks pulled and leased",
	})
	metricTasksAcked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taxi",
		Name:      "queue_tasks_acked_total",
		Help:      "Total number of tasks acknowledged and deleted",
	})
	metricTasksRedelivered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taxi",
		Name:      "queue_tasks_redelivered_total",
		Help:      "Total number of tasks requeued after lease expiry",
	})
)
