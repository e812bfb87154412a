package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// EngagementPayload announces that a lead's engagement facts changed
// (a follow-up made contact). Consumed by the scoring worker.
type EngagementPayload struct {
	UserID       string `json:"user_id"`
	LeadID       string `json:"lead_id"`
	FollowUpID   string `json:"follow_up_id"`
	Status       string `json:"status"`
	EmailSent    bool   `json:"email_sent"`
	WhatsAppSent bool   `json:"whatsapp_sent"`
	Origin       string `json:"origin"`
}

type RabbitMQProducer struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewProducer(conn *amqp.Connection, ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{
		Conn: conn,
		Ch:   ch,
	}
}

func (p *RabbitMQProducer) PublishEngagement(ctx context.Context, payload EngagementPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshalling engagement payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publishing to RabbitMQ: %w", err)
	}

	return nil
}
