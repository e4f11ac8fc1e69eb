package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// InvitesIssued counts invite tokens generated.
	InvitesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hearthd_invites_issued_total",
		Help: "Number of invite tokens issued.",
	})

	// InvitesConsumed counts invite consumption attempts by outcome.
	InvitesConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearthd_invites_consumed_total",
		Help: "Number of invite consumption attempts by outcome.",
	}, []string{"outcome"})

	// SuccessorsSpawned counts recurring task successors created on
	// completion.
	SuccessorsSpawned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hearthd_task_successors_spawned_total",
		Help: "Number of successor task items created by the rollover engine.",
	})

	// FamiliesBootstrapped counts default families seeded for first-login
	// profiles.
	FamiliesBootstrapped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hearthd_families_bootstrapped_total",
		Help: "Number of default families created for profiles with no memberships.",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hearthd_http_request_duration_seconds",
		Help:    "HTTP request latency by method, route and status code.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Handler returns the /metrics handler for the metrics listener.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records one HTTP request observation.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
