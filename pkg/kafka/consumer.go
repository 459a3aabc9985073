package kafka

import (
	"fmt"

	"github.com/IBM/sarama"
)

type ConsumerConfig struct {
	Brokers  []string
	ClientID string
	GroupID  string
}

// NewConsumer builds the consumer group that receives provider payment
// results. Offsets start at newest: a replay of historical results would be
// rejected by the payment CAS anyway.
func NewConsumer(cfg ConsumerConfig) (sarama.ConsumerGroup, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.ClientID = cfg.ClientID
	if saramaCfg.ClientID == "" {
		saramaCfg.ClientID = defaultClientID
	}
	saramaCfg.Version = sarama.V2_8_0_0
	saramaCfg.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	saramaCfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaCfg.Consumer.Return.Errors = true

	consGroup, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment result consumer group: %w", err)
	}

	return consGroup, nil
}
