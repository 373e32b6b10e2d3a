package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DocumentEvent announces a document lifecycle change on the event queue.
type DocumentEvent struct {
	Type       string    `json:"type"`
	DocumentID string    `json:"document_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type EventPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewEventPublisher(conn *amqp.Connection, queueName string) *EventPublisher {
	return &EventPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *EventPublisher) PublishDocumentEvent(ctx context.Context, eventType, documentID string) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		p.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}

	payload, err := json.Marshal(DocumentEvent{
		Type:       eventType,
		DocumentID: documentID,
		OccurredAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal document event failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish document event failed: %w", err)
	}
	return nil
}
