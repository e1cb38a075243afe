package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/JonFloz/P3-31899312/internal/stores/kafka"
)

// KafkaPublisher emits order events to the broker.
type KafkaPublisher struct {
	k *kafka.Conf
}

func NewKafkaPublisher(k *kafka.Conf) *KafkaPublisher {
	return &KafkaPublisher{k: k}
}

func (p *KafkaPublisher) PublishOrderCompleted(ctx context.Context, order Order) error {
	event := kafka.OrderCompletedEvent{
		OrderID:       order.ID,
		UserID:        order.UserID,
		TotalAmount:   order.TotalAmount.StringFixed(2),
		TransactionID: order.TransactionID,
		CreatedAt:     order.CreatedAt,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}
	key := []byte(strconv.FormatInt(order.ID, 10))
	return p.k.ProduceMessage(ctx, kafka.TopicOrderCompleted, key, data)
}
