package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/techstore-demo/server/internal/storefront/model"
	logx "github.com/techstore-demo/server/pkg/logger"
)

// OrderPublisher hands confirmed orders to downstream fulfilment.
type OrderPublisher interface {
	PublishOrder(ctx context.Context, profileID string, order *model.Order) error
}

// OrderMessage is the payload written to the orders queue.
type OrderMessage struct {
	OrderNumber string            `json:"order_number"`
	ProfileID   string            `json:"profile_id"`
	Email       string            `json:"email"`
	Items       []model.CartEntry `json:"items"`
	Total       string            `json:"total"`
	PlacedAt    time.Time         `json:"placed_at"`
}

// Channel is the subset of *amqp.Channel used for publishing.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type AMQPPublisher struct {
	ch    Channel
	queue string
}

func NewAMQPPublisher(ch Channel, queue string) *AMQPPublisher {
	return &AMQPPublisher{ch: ch, queue: queue}
}

func (p *AMQPPublisher) PublishOrder(ctx context.Context, profileID string, order *model.Order) error {
	body, err := json.Marshal(OrderMessage{
		OrderNumber: order.Number,
		ProfileID:   profileID,
		Email:       order.Email,
		Items:       order.Entries,
		Total:       order.Total.StringFixed(2),
		PlacedAt:    order.PlacedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal order message: %w", err)
	}

	if err := p.ch.PublishWithContext(ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    order.Number,
			Timestamp:    order.PlacedAt,
			Body:         body,
		},
	); err != nil {
		logx.Error().Err(err).Str("order", order.Number).Str("queue", p.queue).Msg("failed to publish order")
		return fmt.Errorf("publish order %s: %w", order.Number, err)
	}

	logx.Info().Str("order", order.Number).Str("queue", p.queue).Int("items", len(order.Entries)).Msg("order published")
	return nil
}

// LogPublisher only logs orders; used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) PublishOrder(_ context.Context, profileID string, order *model.Order) error {
	logx.Info().
		Str("order", order.Number).
		Str("profile", profileID).
		Str("total", order.Total.StringFixed(2)).
		Int("items", len(order.Entries)).
		Msg("order confirmed")
	return nil
}

var (
	_ OrderPublisher = (*AMQPPublisher)(nil)
	_ OrderPublisher = LogPublisher{}
)
