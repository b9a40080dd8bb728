// Package notify publishes best-effort wakeup messages over RabbitMQ so the
// worker can process freshly enqueued items without waiting for the next
// tick. Losing a wakeup is harmless; the batch pass is idempotent and runs
// on its own cadence anyway.
package notify

import (
	"encoding/json"

	"github.com/streadway/amqp"
)

// QueueTicks is the worker's queue-pass trigger queue; SchedulerTicks the
// scheduler-pass trigger queue.
const (
	QueueTicks     = "queue_ticks"
	SchedulerTicks = "dispatch_ticks"
)

type Publisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewPublisher(url, queueName string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch, queue: queueName}, nil
}

func (p *Publisher) Publish(payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.ch.Publish(
		"",      // exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func (p *Publisher) Close() error {
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
