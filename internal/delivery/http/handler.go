package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vogiaan1904/ticketbottle-booking/internal/service"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

type HTTPHandler struct {
	bookingService   service.BookingService
	paymentService   service.PaymentService
	inventoryService service.InventoryService
	sweeper          service.HoldSweeper
	logger           logger.Logger
	validator        *validator.Validate
}

func NewHTTPHandler(
	bookingService service.BookingService,
	paymentService service.PaymentService,
	inventoryService service.InventoryService,
	sweeper service.HoldSweeper,
	logger logger.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		bookingService:   bookingService,
		paymentService:   paymentService,
		inventoryService: inventoryService,
		sweeper:          sweeper,
		logger:           logger,
		validator:        validator.New(),
	}
}

// HealthCheck handles health check requests
func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"service": "booking-service",
		"version": "1.0.0",
	}
	h.respondJSON(w, http.StatusOK, response)
}

// CreateBooking reserves tickets and opens a payment window.
func (h *HTTPHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	input := service.CreateBookingInput{
		UserID:     UserIDFromContext(r.Context()),
		EventID:    req.EventID,
		TicketType: req.TicketType,
		Quantity:   req.Quantity,
	}

	if err := h.validator.Struct(input); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	booking, err := h.bookingService.Create(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidQuantity):
			h.respondError(w, http.StatusBadRequest, "Quantity is out of range", err)
		case errors.Is(err, service.ErrSoldOut):
			h.respondError(w, http.StatusConflict, "Not enough tickets available", err)
		case errors.Is(err, service.ErrEventNotFound):
			h.respondError(w, http.StatusNotFound, "Event not found", err)
		default:
			h.logger.Error(r.Context(), "Failed to create booking", "error", err)
			h.respondError(w, http.StatusInternalServerError, "Failed to create booking", err)
		}
		return
	}

	h.respondJSON(w, http.StatusCreated, booking)
}

// GetBooking handles booking lookups.
func (h *HTTPHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	if bookingID == "" {
		h.respondError(w, http.StatusBadRequest, "Booking ID is required", nil)
		return
	}

	booking, err := h.bookingService.Get(r.Context(), bookingID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			h.respondError(w, http.StatusNotFound, "Booking not found", err)
		default:
			h.logger.Error(r.Context(), "Failed to get booking", "error", err, "booking_id", bookingID)
			h.respondError(w, http.StatusInternalServerError, "Failed to get booking", err)
		}
		return
	}

	h.respondJSON(w, http.StatusOK, booking)
}

// ListBookings returns the caller's bookings.
func (h *HTTPHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookingService.ListByUser(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		h.logger.Error(r.Context(), "Failed to list bookings", "error", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to list bookings", err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": bookings,
	})
}

// CancelBooking releases the caller's hold.
func (h *HTTPHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	if bookingID == "" {
		h.respondError(w, http.StatusBadRequest, "Booking ID is required", nil)
		return
	}

	booking, err := h.bookingService.Cancel(r.Context(), bookingID, UserIDFromContext(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			h.respondError(w, http.StatusNotFound, "Booking not found", err)
		case errors.Is(err, service.ErrInvalidTransition):
			h.respondError(w, http.StatusConflict, "Booking can no longer be cancelled", err)
		default:
			h.logger.Error(r.Context(), "Failed to cancel booking", "error", err, "booking_id", bookingID)
			h.respondError(w, http.StatusInternalServerError, "Failed to cancel booking", err)
		}
		return
	}

	h.respondJSON(w, http.StatusOK, booking)
}

// InitiatePayment starts a payment attempt for a booking.
func (h *HTTPHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req initiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	input := service.InitiatePaymentInput{
		BookingID:  req.BookingID,
		UserID:     UserIDFromContext(r.Context()),
		UpiID:      req.UpiID,
		CouponCode: req.CouponCode,
	}

	if err := h.validator.Struct(input); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	out, err := h.paymentService.Initiate(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			h.respondError(w, http.StatusNotFound, "Booking not found", err)
		case errors.Is(err, service.ErrBookingNotPayable):
			h.respondError(w, http.StatusConflict, "Booking cannot accept a payment", err)
		case errors.Is(err, service.ErrPaymentInFlight):
			h.respondError(w, http.StatusConflict, "A payment attempt is already in progress", err)
		case errors.Is(err, service.ErrEventNotFound):
			h.respondError(w, http.StatusNotFound, "Event not found", err)
		case errors.Is(err, service.ErrProviderUnavailable):
			h.respondError(w, http.StatusServiceUnavailable, "Payment provider is unavailable", err)
		default:
			h.logger.Error(r.Context(), "Failed to initiate payment", "error", err)
			h.respondError(w, http.StatusInternalServerError, "Failed to initiate payment", err)
		}
		return
	}

	h.respondJSON(w, http.StatusCreated, out)
}

// GetPayment handles payment lookups.
func (h *HTTPHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentId")
	if paymentID == "" {
		h.respondError(w, http.StatusBadRequest, "Payment ID is required", nil)
		return
	}

	payment, err := h.paymentService.Get(r.Context(), paymentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			h.respondError(w, http.StatusNotFound, "Payment not found", err)
		default:
			h.logger.Error(r.Context(), "Failed to get payment", "error", err, "payment_id", paymentID)
			h.respondError(w, http.StatusInternalServerError, "Failed to get payment", err)
		}
		return
	}

	h.respondJSON(w, http.StatusOK, payment)
}

// GetBookingPayment returns the latest payment attempt for a booking.
func (h *HTTPHandler) GetBookingPayment(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	if bookingID == "" {
		h.respondError(w, http.StatusBadRequest, "Booking ID is required", nil)
		return
	}

	payment, err := h.paymentService.GetByBooking(r.Context(), bookingID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			h.respondError(w, http.StatusNotFound, "Payment not found", err)
		default:
			h.logger.Error(r.Context(), "Failed to get payment", "error", err, "booking_id", bookingID)
			h.respondError(w, http.StatusInternalServerError, "Failed to get payment", err)
		}
		return
	}

	h.respondJSON(w, http.StatusOK, payment)
}

// PaymentCallback receives the provider's terminal verdict over HTTP. It
// goes through the same idempotent path as the payment.result consumer.
func (h *HTTPHandler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	var req paymentCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.applyProviderResult(w, r, service.ProviderResultInput{
		PaymentID:         req.PaymentID,
		ProviderPaymentID: req.ProviderPaymentID,
		Status:            req.Status,
	})
}

// SimulatePaymentResult lets a test harness force an outcome for a pending
// payment: POST /payments/{paymentId}/simulate?status=SUCCESS|FAILED.
func (h *HTTPHandler) SimulatePaymentResult(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentId")
	if paymentID == "" {
		h.respondError(w, http.StatusBadRequest, "Payment ID is required", nil)
		return
	}

	status := r.URL.Query().Get("status")

	h.applyProviderResult(w, r, service.ProviderResultInput{
		PaymentID:         paymentID,
		ProviderPaymentID: "SIM-" + paymentID,
		Status:            status,
	})
}

func (h *HTTPHandler) applyProviderResult(w http.ResponseWriter, r *http.Request, input service.ProviderResultInput) {
	if err := h.validator.Struct(input); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	if err := h.paymentService.HandleProviderResult(r.Context(), input); err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			h.respondError(w, http.StatusNotFound, "Payment not found", err)
		default:
			h.logger.Error(r.Context(), "Failed to apply payment result", "error", err)
			h.respondError(w, http.StatusInternalServerError, "Failed to apply payment result", err)
		}
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"payment_id": input.PaymentID,
		"status":     input.Status,
	})
}

// GetInventory returns the event's ledger snapshot.
func (h *HTTPHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	if eventID == "" {
		h.respondError(w, http.StatusBadRequest, "Event ID is required", nil)
		return
	}

	snapshot, err := h.inventoryService.Snapshot(r.Context(), eventID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			h.respondError(w, http.StatusNotFound, "Event not found", err)
		default:
			h.logger.Error(r.Context(), "Failed to get inventory", "error", err, "event_id", eventID)
			h.respondError(w, http.StatusInternalServerError, "Failed to get inventory", err)
		}
		return
	}

	h.respondJSON(w, http.StatusOK, snapshot)
}

// GetSweeperStatus exposes the expiry sweeper's counters.
func (h *HTTPHandler) GetSweeperStatus(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.sweeper.GetStatus())
}

// Request shapes

type createBookingRequest struct {
	EventID    string `json:"event_id"`
	TicketType string `json:"ticket_type"`
	Quantity   int    `json:"quantity"`
}

type initiatePaymentRequest struct {
	BookingID  string `json:"booking_id"`
	UpiID      string `json:"upi_id"`
	CouponCode string `json:"coupon_code"`
}

type paymentCallbackRequest struct {
	PaymentID         string `json:"payment_id"`
	ProviderPaymentID string `json:"provider_payment_id"`
	Status            string `json:"status"`
}

// Helper functions

func (h *HTTPHandler) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error(context.Background(), "Failed to encode JSON response", "error", err)
	}
}

func (h *HTTPHandler) respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	response := map[string]interface{}{
		"error": message,
		"code":  statusCode,
	}

	if err != nil {
		h.logger.Debug(context.Background(), "Error response", "message", message, "error", err.Error())
	}

	h.respondJSON(w, statusCode, response)
}
