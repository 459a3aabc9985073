package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"

	kafka "github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

type Producer interface {
	PublishBookingCreated(ctx context.Context, event kafka.BookingCreatedEvent) error
	PublishBookingConfirmed(ctx context.Context, event kafka.BookingConfirmedEvent) error
	PublishBookingCancelled(ctx context.Context, event kafka.BookingClosedEvent) error
	PublishBookingExpired(ctx context.Context, event kafka.BookingClosedEvent) error
	PublishPaymentSucceeded(ctx context.Context, event kafka.PaymentSettledEvent) error
	PublishPaymentFailed(ctx context.Context, event kafka.PaymentSettledEvent) error
	Close() error
}

type implProducer struct {
	l    logger.Logger
	prod sarama.SyncProducer
}

func NewProducer(prod sarama.SyncProducer, l logger.Logger) Producer {
	return &implProducer{
		l:    l,
		prod: prod,
	}
}

func (p *implProducer) PublishBookingCreated(ctx context.Context, event kafka.BookingCreatedEvent) error {
	event.Timestamp = time.Now()
	val, err := json.Marshal(event)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.PublishBookingCreated: %v", err)
		return err
	}

	// Partition by event_id so per-event consumers see bookings in order.
	return p.publish(ctx, kafka.TopicBookingCreated, event.EventID, val)
}

func (p *implProducer) PublishBookingConfirmed(ctx context.Context, event kafka.BookingConfirmedEvent) error {
	event.Timestamp = time.Now()
	val, err := json.Marshal(event)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.PublishBookingConfirmed: %v", err)
		return err
	}

	return p.publish(ctx, kafka.TopicBookingConfirmed, event.EventID, val)
}

func (p *implProducer) PublishBookingCancelled(ctx context.Context, event kafka.BookingClosedEvent) error {
	event.Timestamp = time.Now()
	val, err := json.Marshal(event)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.PublishBookingCancelled: %v", err)
		return err
	}

	return p.publish(ctx, kafka.TopicBookingCancelled, event.EventID, val)
}

func (p *implProducer) PublishBookingExpired(ctx context.Context, event kafka.BookingClosedEvent) error {
	event.Timestamp = time.Now()
	val, err := json.Marshal(event)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.PublishBookingExpired: %v", err)
		return err
	}

	return p.publish(ctx, kafka.TopicBookingExpired, event.EventID, val)
}

func (p *implProducer) PublishPaymentSucceeded(ctx context.Context, event kafka.PaymentSettledEvent) error {
	event.Timestamp = time.Now()
	val, err := json.Marshal(event)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.PublishPaymentSucceeded: %v", err)
		return err
	}

	return p.publish(ctx, kafka.TopicPaymentSucceeded, event.BookingID, val)
}

func (p *implProducer) PublishPaymentFailed(ctx context.Context, event kafka.PaymentSettledEvent) error {
	event.Timestamp = time.Now()
	val, err := json.Marshal(event)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.PublishPaymentFailed: %v", err)
		return err
	}

	return p.publish(ctx, kafka.TopicPaymentFailed, event.BookingID, val)
}

func (p *implProducer) publish(ctx context.Context, topic, key string, val []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(val),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("timestamp"),
				Value: []byte(time.Now().Format(time.RFC3339)),
			},
		},
	}

	if _, _, err := p.prod.SendMessage(msg); err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.publish: %v", err)
		return err
	}

	return nil
}

func (p *implProducer) Close() error {
	if err := p.prod.Close(); err != nil {
		return err
	}

	return nil
}
