package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestDuration tracks handler latency by route pattern.
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "formulatag_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
	}, []string{"method", "route", "status"})

	// annotationOps counts store operations by kind and result.
	annotationOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formulatag_annotation_ops_total",
		Help: "Annotation store operations by operation and result",
	}, []string{"operation", "result"})

	// annotatedNodes tracks the size of saved annotation maps.
	annotatedNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "formulatag_annotation_map_nodes",
		Help:    "Number of nodes per saved annotation map",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
)
