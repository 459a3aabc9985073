package consumer

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"

	"github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-booking/internal/service"
)

func (c *Consumer) HandlePaymentResult(ctx context.Context, message *sarama.ConsumerMessage) error {
	c.l.Info(ctx, "HandlePaymentResult consumed")

	var e kafka.PaymentResultEvent
	if err := json.Unmarshal(message.Value, &e); err != nil {
		c.l.Error(ctx, "delivery.kafka.consumer.HandlePaymentResult: %v", err)
		return err
	}

	if err := c.pmSvc.HandleProviderResult(ctx, service.ProviderResultInput{
		PaymentID:         e.PaymentID,
		ProviderPaymentID: e.ProviderPaymentID,
		Status:            e.Status,
	}); err != nil {
		c.l.Error(ctx, "delivery.kafka.consumer.HandlePaymentResult: %v", err)
		return err
	}

	return nil
}
