package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wardbook",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wardbook",
			Name:      "bookings_created_total",
			Help:      "Bookings accepted by admission control, by kind.",
		},
		[]string{"kind"},
	)

	admissionConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wardbook",
			Name:      "admission_conflicts_total",
			Help:      "Creations refused because an active booking already existed.",
		},
		[]string{"kind"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wardbook",
			Name:      "booking_transitions_total",
			Help:      "Accepted booking mutations by kind and audit action.",
		},
		[]string{"kind", "action"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingsCreated, admissionConflicts, transitions)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncBookingCreated(kind string) {
	bookingsCreated.WithLabelValues(kind).Inc()
}

func IncAdmissionConflict(kind string) {
	admissionConflicts.WithLabelValues(kind).Inc()
}

func IncTransition(kind, action string) {
	transitions.WithLabelValues(kind, action).Inc()
}
