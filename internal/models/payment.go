package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed
}

type Payment struct {
	ID                string          `json:"id" redis:"id"`
	BookingID         string          `json:"booking_id" redis:"booking_id"`
	UserID            string          `json:"user_id" redis:"user_id"`
	Amount            decimal.Decimal `json:"amount" redis:"-"`
	Currency          string          `json:"currency" redis:"currency"`
	Status            PaymentStatus   `json:"status" redis:"status"`
	UpiID             string          `json:"upi_id,omitempty" redis:"upi_id"`
	CouponCode        string          `json:"coupon_code,omitempty" redis:"coupon_code"`
	ProviderPaymentID string          `json:"provider_payment_id,omitempty" redis:"provider_payment_id"`
	CreatedAt         time.Time       `json:"created_at" redis:"-"`
	UpdatedAt         time.Time       `json:"updated_at" redis:"-"`
}
