package repository

import (
	"context"
	"fmt"

	"TradePilot/internal/domain/models"
	"TradePilot/internal/domain/repository"
	pkgkafka "TradePilot/pkg/kafka"
)

// KafkaEventPublisher pushes executed-trade events to a Kafka topic,
// keyed by symbol so downstream consumers see per-pair ordering.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

var _ repository.EventPublisher = (*KafkaEventPublisher)(nil)

func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishTrade(ctx context.Context, t *models.Trade) error {
	if t == nil {
		return fmt.Errorf("trade is nil")
	}
	return p.producer.Publish(ctx, p.topic, []byte(t.Symbol), map[string]interface{}{
		"id":         t.ID,
		"account_id": t.AccountID,
		"symbol":     t.Symbol,
		"side":       string(t.Side),
		"size":       t.Size,
		"price":      t.Price,
		"strategy":   t.Strategy,
		"confidence": t.Confidence,
		"order_id":   t.OrderID,
		"status":     t.Status,
		"created_at": t.CreatedAt.Unix(),
	})
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
