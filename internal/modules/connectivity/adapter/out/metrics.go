package out

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "connviewer_upstream_request_duration_seconds",
		Help:    "Latency of annotation service requests by endpoint",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	upstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connviewer_upstream_errors_total",
		Help: "Failed annotation service requests by endpoint",
	}, []string{"endpoint"})
	queryCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connviewer_query_cache_lookups_total",
		Help: "Materialized query cache lookups by result (hit, miss)",
	}, []string{"result"})
)
