// Package provider is the boundary to the external payment gateway. The core
// only ever talks to the Provider interface; results come back asynchronously
// through the payment callback endpoint or the payment.result topic.
package provider

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vogiaan1904/ticketbottle-booking/config"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

type InitiateRequest struct {
	PaymentID string          `json:"payment_id"`
	BookingID string          `json:"booking_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	UpiID     string          `json:"upi_id,omitempty"`
}

type InitiateResponse struct {
	Accepted   bool   `json:"accepted"`
	ProviderID string `json:"provider_id,omitempty"`
}

type Provider interface {
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error)
	Name() string
}

// New creates a provider instance by configured name.
func New(cfg config.PaymentConfig, l logger.Logger) (Provider, error) {
	switch cfg.Provider {
	case "simulated":
		return NewSimulated(l), nil
	default:
		return nil, fmt.Errorf("unsupported payment provider: %s", cfg.Provider)
	}
}
