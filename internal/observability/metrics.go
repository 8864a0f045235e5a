// README: Prometheus collectors shared by the dialog, booking and HTTP layers.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DialogTurns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripchat_dialog_turns_total",
		Help: "Dialog turns handled, by the route the turn was dispatched to",
	}, []string{"route"})

	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripchat_bookings_created_total",
		Help: "Bookings written to the booking store",
	})

	CityResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripchat_city_resolutions_total",
		Help: "Dialog turns that proposed a city, by outcome (committed or candidate)",
	}, []string{"outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tripchat_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
