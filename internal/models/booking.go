package models

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusExpired   BookingStatus = "EXPIRED"
)

// bookingTransitions is the only set of legal status transitions. Every
// status write goes through CanTransition; anything outside this table is
// rejected.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending: {
		BookingStatusConfirmed,
		BookingStatusCancelled,
		BookingStatusExpired,
	},
}

func CanTransition(from, to BookingStatus) bool {
	for _, allowed := range bookingTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type Booking struct {
	ID            string        `json:"id" redis:"id"`
	UserID        string        `json:"user_id" redis:"user_id"`
	EventID       string        `json:"event_id" redis:"event_id"`
	TicketType    string        `json:"ticket_type" redis:"ticket_type"`
	Quantity      int           `json:"quantity" redis:"quantity"`
	Status        BookingStatus `json:"status" redis:"status"`
	HoldToken     string        `json:"-" redis:"hold_token"`
	HoldExpiry    time.Time     `json:"hold_expiry" redis:"-"`
	PaymentID     string        `json:"payment_id,omitempty" redis:"payment_id"`
	PaymentStatus PaymentStatus `json:"payment_status,omitempty" redis:"payment_status"`
	CreatedAt     time.Time     `json:"created_at" redis:"-"`
	UpdatedAt     time.Time     `json:"updated_at" redis:"-"`
}

func (b *Booking) IsTerminal() bool {
	return b.Status == BookingStatusConfirmed ||
		b.Status == BookingStatusCancelled ||
		b.Status == BookingStatusExpired
}

func (b *Booking) HoldExpired(now time.Time) bool {
	return now.After(b.HoldExpiry)
}

// Payable reports whether a payment may be initiated against this booking.
func (b *Booking) Payable(now time.Time) bool {
	return b.Status == BookingStatusPending && !b.HoldExpired(now)
}
