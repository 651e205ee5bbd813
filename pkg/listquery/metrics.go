package listquery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for list controllers.
var (
	listFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetdash_list_fetches_total",
		Help: "Total list fetches by list and outcome (success, error, stale)",
	}, []string{"list", "outcome"})

	listFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fleetdash_list_fetch_duration_seconds",
		Help:    "List fetch duration in seconds by list",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"list"})

	listResetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetdash_list_resets_total",
		Help: "Total filter or page size resets by list",
	}, []string{"list"})

	listItems = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fleetdash_list_items",
		Help: "Number of items currently held by a list",
	}, []string{"list"})
)

const (
	outcomeSuccess = "success"
	outcomeError   = "error"
	outcomeStale   = "stale"
)
