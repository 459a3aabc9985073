package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vogiaan1904/ticketbottle-booking/config"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

func NewRouter(h *HTTPHandler, cfg config.JWTConfig, l logger.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Caller identity is required for everything that touches a
		// booking; provider callbacks and read-only probes are exempt.
		r.Group(func(r chi.Router) {
			r.Use(Identity(cfg.Secret, l))

			r.Post("/bookings", h.CreateBooking)
			r.Get("/bookings", h.ListBookings)
			r.Get("/bookings/{bookingId}", h.GetBooking)
			r.Post("/bookings/{bookingId}/cancel", h.CancelBooking)
			r.Get("/bookings/{bookingId}/payment", h.GetBookingPayment)

			r.Post("/payments", h.InitiatePayment)
			r.Get("/payments/{paymentId}", h.GetPayment)
		})

		r.Post("/payments/callback", h.PaymentCallback)
		r.Post("/payments/{paymentId}/simulate", h.SimulatePaymentResult)
		r.Get("/events/{eventId}/inventory", h.GetInventory)
		r.Get("/sweeper/status", h.GetSweeperStatus)
	})

	return r
}
