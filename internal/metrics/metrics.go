// Package metrics provides Prometheus instrumentation for Lostify: HTTP
// traffic, match computation and the live post feed.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blackmichael/lostify/internal/domain"
)

var (
	// HTTPRequestsTotal counts handled requests by route pattern and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lostify_http_requests_total",
		Help: "Total number of HTTP requests handled",
	}, []string{"route", "status"})

	// HTTPRequestDuration records request latency in seconds.
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lostify_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	// MatchDuration records how long one my-matches computation takes.
	MatchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lostify_match_duration_seconds",
		Help:    "Time spent computing matches for a user",
		Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	// MatchesReturned records the number of matches returned per request.
	MatchesReturned = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lostify_matches_returned",
		Help:    "Number of matches returned per my-matches request",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
	})

	// PostEvents counts post writes by event ("created", "updated",
	// "resolved", "deleted") and post type.
	PostEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lostify_post_events_total",
		Help: "Total number of post events published",
	}, []string{"event", "type"})

	// LiveClients tracks the current number of live feed websocket clients.
	LiveClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lostify_live_clients",
		Help: "Current number of connected live feed clients",
	})

	// RateLimited counts rejected requests by rule.
	RateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lostify_rate_limited_total",
		Help: "Total number of requests rejected by rate limiting",
	}, []string{"rule"})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		MatchDuration,
		MatchesReturned,
		PostEvents,
		LiveClients,
		RateLimited,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// EventCounter counts published post events. It implements
// domain.EventPublisher.
type EventCounter struct{}

var _ domain.EventPublisher = EventCounter{}

// PublishPostEvent implements domain.EventPublisher.
func (EventCounter) PublishPostEvent(_ context.Context, event domain.PostEvent) error {
	PostEvents.WithLabelValues(string(event.Type), string(event.Post.Type)).Inc()
	return nil
}
