package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
)

type CreateBookingInput struct {
	UserID     string `json:"user_id" validate:"required"`
	EventID    string `json:"event_id" validate:"required"`
	TicketType string `json:"ticket_type"`
	Quantity   int    `json:"quantity" validate:"required,gte=1"`
}

type ConfirmBookingInput struct {
	BookingID string
	PaymentID string
}

type InitiatePaymentInput struct {
	BookingID  string `json:"booking_id" validate:"required"`
	UserID     string `json:"user_id" validate:"required"`
	UpiID      string `json:"upi_id"`
	CouponCode string `json:"coupon_code"`
}

type InitiatePaymentOutput struct {
	Payment *models.Payment `json:"payment"`
	// Amount after coupon evaluation; zero means the booking was confirmed
	// without touching the provider.
	ChargedAmount decimal.Decimal `json:"charged_amount"`
}

type ProviderResultInput struct {
	PaymentID         string `json:"payment_id" validate:"required"`
	ProviderPaymentID string `json:"provider_payment_id"`
	Status            string `json:"status" validate:"required,oneof=SUCCESS FAILED"`
}

type InventorySnapshotOutput struct {
	EventID   string `json:"event_id"`
	Total     int64  `json:"total"`
	Sold      int64  `json:"sold"`
	Held      int64  `json:"held"`
	Available int64  `json:"available"`
}

type SweeperStatus struct {
	IsRunning    bool      `json:"is_running"`
	StartedAt    time.Time `json:"started_at,omitempty"`
	LastSweep    time.Time `json:"last_sweep,omitempty"`
	TotalExpired int64     `json:"total_expired"`
	ErrorCount   int64     `json:"error_count"`
}
