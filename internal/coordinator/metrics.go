package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricTasksProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taxi",
		Name:      "coordinator_tasks_processed_total",
		Help:      "Total number of tasks processed and acknowledged",
	})
	metricTaskFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taxi",
		Name:      "coordinator_task_failures_total",
		Help:      "Total number of tasks abandoned to lease-expiry redelivery",
	})
	metricTasksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taxi",
		Name:      "coordinator_tasks_created_total",
		Help:      "Total number of tasks created and enqueued",
	})
)
