package queue

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// AMQPQueue maps topics to durable RabbitMQ queues on the default exchange.
type AMQPQueue struct {
	conn *amqp.Connection
	log  *zap.Logger

	mu sync.Mutex
	ch *amqp.Channel
}

func DialAMQP(url string, log *zap.Logger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	return &AMQPQueue{conn: conn, ch: ch, log: log}, nil
}

func declare(ch *amqp.Channel, topic string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		topic,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
}

// Publish JSON-encodes payload as a persistent message.
func (a *AMQPQueue) Publish(topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	q, err := declare(a.ch, topic)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", topic, err)
	}
	return a.ch.Publish("", q.Name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// Subscribe consumes topic on a dedicated channel. The handler receives the
// raw message body; a handler error requeues the delivery once, after
// which it is dropped.
func (a *AMQPQueue) Subscribe(topic string, handler func(payload any) error) error {
	ch, err := a.conn.Channel()
	if err != nil {
		return fmt.Errorf("open consumer channel: %w", err)
	}
	q, err := declare(ch, topic)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", topic, err)
	}
	msgs, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	go func() {
		for d := range msgs {
			if err := handler(d.Body); err != nil {
				a.log.Warn("handler failed", zap.String("topic", topic), zap.Bool("redelivered", d.Redelivered), zap.Error(err))
				_ = d.Nack(false, !d.Redelivered)
				continue
			}
			_ = d.Ack(false)
		}
		a.log.Info("consumer stopped", zap.String("topic", topic))
	}()
	return nil
}

func (a *AMQPQueue) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	_ = a.ch.Close()
	return a.conn.Close()
}
