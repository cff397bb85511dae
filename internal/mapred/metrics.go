package mapred

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRecordsMapped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taxi",
		Name:      "mapred_records_mapped_total",
		Help:      "Total number of records mapped into an aggregate",
	})
	metricRecordsInvalid = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taxi",
		Name:      "mapred_records_invalid_total",
		Help:      "Total number of records dropped as unparsable or unlocatable",
	})
	metricPoolRuns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taxi",
		Name:      "mapred_pool_runs_total",
		Help:      "Total number of map-reduce pool runs",
	})
	metricPoolFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taxi",
		Name:      "mapred_pool_failures_total",
		Help:      "Total number of pool runs that returned an error",
	})
)
