package kafka

import "time"

// Events published BY the booking service

type BookingCreatedEvent struct {
	BookingID  string    `json:"booking_id"`
	UserID     string    `json:"user_id"`
	EventID    string    `json:"event_id"`
	TicketType string    `json:"ticket_type"`
	Quantity   int       `json:"quantity"`
	HoldExpiry time.Time `json:"hold_expiry"`
	Timestamp  time.Time `json:"timestamp"`
}

type BookingConfirmedEvent struct {
	BookingID string    `json:"booking_id"`
	UserID    string    `json:"user_id"`
	EventID   string    `json:"event_id"`
	PaymentID string    `json:"payment_id"`
	Quantity  int       `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

type BookingClosedEvent struct {
	BookingID string    `json:"booking_id"`
	UserID    string    `json:"user_id"`
	EventID   string    `json:"event_id"`
	Quantity  int       `json:"quantity"`
	Reason    string    `json:"reason"` // user_cancelled, hold_expired
	Timestamp time.Time `json:"timestamp"`
}

type PaymentSettledEvent struct {
	PaymentID         string    `json:"payment_id"`
	BookingID         string    `json:"booking_id"`
	UserID            string    `json:"user_id"`
	Amount            string    `json:"amount"`
	Currency          string    `json:"currency"`
	Status            string    `json:"status"`
	ProviderPaymentID string    `json:"provider_payment_id,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// Events consumed BY the booking service (from the payment provider bridge)

type PaymentResultEvent struct {
	PaymentID         string    `json:"payment_id"`
	ProviderPaymentID string    `json:"provider_payment_id"`
	Status            string    `json:"status"` // SUCCESS or FAILED
	Timestamp         time.Time `json:"timestamp"`
}
