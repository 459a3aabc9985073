package kafka

import (
	"fmt"

	"github.com/IBM/sarama"
)

const defaultClientID = "ticketbottle-booking"

type ProducerConfig struct {
	Brokers      []string
	ClientID     string
	RetryMax     int
	RequiredAcks int
}

// NewProducer builds a synchronous producer: booking lifecycle events are
// published inline with the request, so delivery failures surface to the
// caller instead of a background error channel.
func NewProducer(cfg ProducerConfig) (sarama.SyncProducer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.ClientID = cfg.ClientID
	if saramaCfg.ClientID == "" {
		saramaCfg.ClientID = defaultClientID
	}
	saramaCfg.Producer.RequiredAcks = sarama.RequiredAcks(cfg.RequiredAcks)
	saramaCfg.Producer.Retry.Max = cfg.RetryMax
	saramaCfg.Producer.Return.Successes = true

	prod, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking event producer: %w", err)
	}

	return prod, nil
}
