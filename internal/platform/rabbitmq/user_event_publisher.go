package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"loginify/internal/model"
)

type UserEventPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewUserEventPublisher(conn *amqp.Connection, queueName string) *UserEventPublisher {
	return &UserEventPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *UserEventPublisher) Publish(ctx context.Context, event model.UserEvent) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := DeclareQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal user event failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         event.Type,
			Timestamp:    event.OccurredAt,
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish user event failed: %w", err)
	}
	return nil
}

// DeclareQueue declares the durable queue shared by the publisher and the
// consuming worker so both sides agree on its arguments.
func DeclareQueue(ch *amqp.Channel, queueName string) error {
	_, err := ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue %s failed: %w", queueName, err)
	}
	return nil
}
