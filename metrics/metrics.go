// Package metrics defines the prometheus metrics of the batch service
// and provides functions for recording them.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// ResultSuccess labels batch requests answered with a multipart response
	ResultSuccess = "success"
	// ResultRejected labels batch requests that could not be parsed or were too large
	ResultRejected = "rejected"

	// MethodOther labels parts with a method outside the standard HTTP methods
	MethodOther = "OTHER"
)

// part methods come from client input, only these are used as label values
var knownMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodConnect: true,
	http.MethodOptions: true,
	http.MethodTrace:   true,
}

var (
	batchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_requests_total",
			Help: "Total number of batch requests received",
		},
		[]string{"result"},
	)
	batchPartsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_parts_total",
			Help: "Total number of batch parts dispatched",
		},
		[]string{"method", "status_class"},
	)
	batchRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "batch_request_duration_seconds",
			Help:    "Duration of batch requests in seconds, all parts included",
			Buckets: prometheus.DefBuckets,
		},
	)
	batchPartsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "batch_parts_in_flight",
			Help: "Current number of batch parts being dispatched",
		},
	)
)

func init() {
	prometheus.MustRegister(batchRequestsTotal)
	prometheus.MustRegister(batchPartsTotal)
	prometheus.MustRegister(batchRequestDuration)
	prometheus.MustRegister(batchPartsInFlight)
}

func RecordBatch(result string, durationSeconds float64) {
	batchRequestsTotal.WithLabelValues(result).Inc()
	batchRequestDuration.Observe(durationSeconds)
}

func RecordPartStart() {
	batchPartsInFlight.Inc()
}

func RecordPartFinish(method string, status int) {
	batchPartsInFlight.Dec()
	batchPartsTotal.WithLabelValues(MethodLabel(method), StatusClass(status)).Inc()
}

// MethodLabel returns method if it is a standard HTTP method, MethodOther otherwise
func MethodLabel(method string) string {
	if knownMethods[method] {
		return method
	}
	return MethodOther
}

// StatusClass returns the class of an HTTP status, e.g. "2xx".
// Statuses outside 100-599 are "unknown".
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
