package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// LeadRescorer recomputes and persists a lead's score. Implemented by
// the rescore usecase; the worker stays decoupled from the database.
type LeadRescorer interface {
	Rescore(ctx context.Context, leadID string, now time.Time) error
}

type Worker struct {
	Channel  *amqp.Channel
	Rescorer LeadRescorer
}

func NewWorker(ch *amqp.Channel, rescorer LeadRescorer) *Worker {
	return &Worker{
		Channel:  ch,
		Rescorer: rescorer,
	}
}

func (w *Worker) Start(queueName string) {
	msgs, err := w.Channel.Consume(
		queueName, // queue
		"",        // consumer
		false,     // auto-ack (manual is safer)
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		log.Fatalf("❌ Failed to register RabbitMQ consumer: %s", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var payload EngagementPayload
			if err := json.Unmarshal(d.Body, &payload); err != nil {
				log.Printf("❌ [WORKER] Invalid JSON: %s", err)
				// Poison message. Reject without requeue so it goes to
				// the DLQ instead of blocking the queue.
				d.Nack(false, false)
				continue
			}

			log.Printf("📥 [WORKER] Engagement event for lead %s (origin: %s)", payload.LeadID, payload.Origin)

			if err := w.processMessage(context.Background(), payload); err != nil {
				log.Printf("❌ [WORKER] Rescore failed for lead %s: %s", payload.LeadID, err)
				d.Nack(false, false)
			} else {
				d.Ack(false)
			}
		}
	}()

	log.Printf(" [*] Scoring worker waiting on queue '%s'", queueName)
	<-forever
}

func (w *Worker) processMessage(ctx context.Context, payload EngagementPayload) error {
	if payload.LeadID == "" {
		// Nothing to score; ack and move on.
		log.Printf("⚠️ [WORKER] Engagement event without lead id, skipping")
		return nil
	}
	return w.Rescorer.Rescore(ctx, payload.LeadID, time.Now())
}
