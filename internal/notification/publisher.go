package notification

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"foodshare_web/internal/models"
)

// EventMeta 是事件信封的共通欄位
type EventMeta struct {
	ID            string    `json:"id"`
	CorrelationID string    `json:"correlation_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NotificationEvent 是發佈到訊息佇列的通知事件，
// 供外部的推播或統計服務訂閱
type NotificationEvent struct {
	Meta       EventMeta                 `json:"meta"`
	Type       models.NotificationType   `json:"type"`
	Status     models.NotificationStatus `json:"status"`
	ItemID     uint                      `json:"item_id"`
	ProviderID uint                      `json:"provider_id"`
	CharityID  uint                      `json:"charity_id"`
	Message    string                    `json:"message"`
	ExpiresAt  *time.Time                `json:"expires_at,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, key string, event NotificationEvent) error
	Close() error
}

type rmqPublisher struct {
	conn     *amqp091.Connection
	exchange string
}

// NewPublisher 連線到 RabbitMQ 並宣告 topic exchange
func NewPublisher(url, exchange string) (Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(
		exchange, "topic", true, false, false, false, nil,
	); err != nil {
		conn.Close()
		return nil, err
	}

	return &rmqPublisher{
		conn:     conn,
		exchange: exchange,
	}, nil
}

func (r *rmqPublisher) Publish(ctx context.Context, key string, event NotificationEvent) error {
	ch, err := r.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if event.Meta.ID == "" {
		event.Meta.ID = uuid.NewString()
	}
	if event.Meta.CorrelationID == "" {
		event.Meta.CorrelationID = uuid.NewString()
	}
	if event.Meta.OccurredAt.IsZero() {
		event.Meta.OccurredAt = time.Now()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(
		ctx, r.exchange, key, false, false,
		amqp091.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp091.Persistent,
			MessageId:     event.Meta.ID,
			CorrelationId: event.Meta.CorrelationID,
			Timestamp:     time.Now(),
			Body:          body,
		},
	)
	if err == nil {
		log.Printf("published %s to %s", key, r.exchange)
	}
	return err
}

func (r *rmqPublisher) Close() error {
	return r.conn.Close()
}
