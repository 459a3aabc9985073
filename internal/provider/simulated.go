package provider

import (
	"context"

	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

// simulated accepts every initiation and never produces a result on its own.
// Outcomes are delivered on demand through the simulate endpoint or by
// publishing to the payment.result topic, which lets tests and development
// environments force SUCCESS or FAILED at will.
type simulated struct {
	l logger.Logger
}

func NewSimulated(l logger.Logger) Provider {
	return &simulated{l: l}
}

func (p *simulated) Name() string {
	return "simulated"
}

func (p *simulated) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	p.l.Infof(ctx, "Simulated provider accepted payment",
		"payment_id", req.PaymentID,
		"amount", req.Amount.String(),
		"currency", req.Currency,
	)

	return &InitiateResponse{Accepted: true}, nil
}
