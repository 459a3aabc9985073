package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_created_total",
			Help: "Bookings created, per event",
		},
		[]string{"event_id"},
	)

	bookingsClosed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_closed_total",
			Help: "Bookings leaving PENDING, by terminal status",
		},
		[]string{"status"},
	)

	paymentsSettled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_settled_total",
			Help: "Payments reaching a terminal status",
		},
		[]string{"status"},
	)

	inventoryAvailable = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "inventory_available_tickets",
			Help: "Tickets neither sold nor held, per event",
		},
		[]string{"event_id"},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hold_sweep_duration_seconds",
			Help:    "Duration of one expiry sweep",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	sweepExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hold_sweep_expired_total",
			Help: "Bookings expired by the sweeper",
		},
	)
)

func RecordBookingCreated(eventID string) {
	bookingsCreated.WithLabelValues(eventID).Inc()
}

func RecordBookingClosed(status string) {
	bookingsClosed.WithLabelValues(status).Inc()
}

func RecordPaymentSettled(status string) {
	paymentsSettled.WithLabelValues(status).Inc()
}

func SetInventoryAvailable(eventID string, available int64) {
	inventoryAvailable.WithLabelValues(eventID).Set(float64(available))
}

func ObserveSweepDuration(seconds float64) {
	sweepDuration.Observe(seconds)
}

func RecordSweepExpired(n int) {
	sweepExpired.Add(float64(n))
}
