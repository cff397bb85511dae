package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricMerges = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taxi",
		Name:      "store_merges_total",
		Help:      "Total number of aggregates merged into the store",
	})
	metricMergesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taxi",
		Name:      "store_merges_skipped_total",
		Help:      "Merges skipped because their commit token was already applied",
	})
)
