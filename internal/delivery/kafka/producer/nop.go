package producer

import (
	"context"

	kafka "github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

// nopProducer is wired when Kafka is disabled; events are dropped after a
// debug log so the services don't need to care.
type nopProducer struct {
	l logger.Logger
}

func NewNopProducer(l logger.Logger) Producer {
	return &nopProducer{l: l}
}

func (p *nopProducer) PublishBookingCreated(ctx context.Context, event kafka.BookingCreatedEvent) error {
	p.l.Debugf(ctx, "Kafka disabled, dropping event", "topic", kafka.TopicBookingCreated)
	return nil
}

func (p *nopProducer) PublishBookingConfirmed(ctx context.Context, event kafka.BookingConfirmedEvent) error {
	p.l.Debugf(ctx, "Kafka disabled, dropping event", "topic", kafka.TopicBookingConfirmed)
	return nil
}

func (p *nopProducer) PublishBookingCancelled(ctx context.Context, event kafka.BookingClosedEvent) error {
	p.l.Debugf(ctx, "Kafka disabled, dropping event", "topic", kafka.TopicBookingCancelled)
	return nil
}

func (p *nopProducer) PublishBookingExpired(ctx context.Context, event kafka.BookingClosedEvent) error {
	p.l.Debugf(ctx, "Kafka disabled, dropping event", "topic", kafka.TopicBookingExpired)
	return nil
}

func (p *nopProducer) PublishPaymentSucceeded(ctx context.Context, event kafka.PaymentSettledEvent) error {
	p.l.Debugf(ctx, "Kafka disabled, dropping event", "topic", kafka.TopicPaymentSucceeded)
	return nil
}

func (p *nopProducer) PublishPaymentFailed(ctx context.Context, event kafka.PaymentSettledEvent) error {
	p.l.Debugf(ctx, "Kafka disabled, dropping event", "topic", kafka.TopicPaymentFailed)
	return nil
}

func (p *nopProducer) Close() error {
	return nil
}
