// Package metrics defines the Prometheus collectors of the API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stac_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stac_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stac_api_active_requests",
			Help: "Number of requests being served",
		},
	)

	// StoreOperationDuration is labelled with the store driver and the
	// operation, such as "list_items" or "update_collection".
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stac_store_operation_duration_seconds",
			Help:    "Duration of store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"driver", "operation"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stac_store_errors_total",
			Help: "Total number of failed store operations",
		},
		[]string{"driver", "operation"},
	)

	// TxnRetries counts transactions restarted after a write conflict.
	TxnRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stac_store_txn_retries_total",
			Help: "Total number of store transactions retried after a conflict",
		},
		[]string{"driver"},
	)

	AssetChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stac_asset_checks_total",
			Help: "Object storage checks of asset files by result",
		},
		[]string{"result"},
	)
)

// RecordAPIRequest records one served request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest moves the active request gauge.
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// ObserveStore records the duration and outcome of a store operation.
func ObserveStore(driver, operation string, start time.Time, err error) {
	StoreOperationDuration.WithLabelValues(driver, operation).Observe(time.Since(start).Seconds())
	if err != nil {
		StoreErrors.WithLabelValues(driver, operation).Inc()
	}
}
