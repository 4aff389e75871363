package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedwatch_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "path", "status_code"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedwatch_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Graph API reads, by detection step and response status
	GraphRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedwatch_graph_requests_total",
			Help: "Total number of Graph API reads by step and status code",
		},
		[]string{"step", "status_code"},
	)

	// Feed configuration checks by outcome: valid, invalid, error
	FeedConfigChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedwatch_feed_config_checks_total",
			Help: "Total number of feed configuration validity checks by result",
		},
		[]string{"result"},
	)

	FeedConfigValid = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedwatch_feed_config_valid",
			Help: "1 when the last feed configuration check found a valid feed, 0 otherwise",
		},
	)

	// Tracker summary runs by outcome and sink deliveries
	TrackerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedwatch_tracker_runs_total",
			Help: "Total number of feed config tracker info runs by result",
		},
		[]string{"result"},
	)

	TrackerEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedwatch_tracker_events_total",
			Help: "Total number of tracker events delivered to sinks",
		},
		[]string{"sink", "status"},
	)

	FeedGenerationProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedwatch_feed_generation_progress_percent",
			Help: "Progress of the running feed generation job as last read",
		},
	)
)
