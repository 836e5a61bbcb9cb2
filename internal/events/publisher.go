package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"task_tracker/internal/observability"
	"task_tracker/internal/task"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const publishTimeout = 5 * time.Second

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher sends task events as persistent JSON messages to one queue on
// the default exchange.
type Publisher struct {
	mu      sync.Mutex
	ch      Channel
	queue   string
	metrics *observability.Metrics
}

func NewPublisher(ch Channel, queue string, metrics *observability.Metrics) *Publisher {
	return &Publisher{
		ch:      ch,
		queue:   queue,
		metrics: metrics,
	}
}

func (p *Publisher) Publish(ctx context.Context, event task.Event) (err error) {
	defer func() { p.metrics.ObservePublish(p.queue, err) }()

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode task event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(
		ctx,
		"",      // exchange
		p.queue, // routing key (queue name)
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         string(event.Type),
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish task event: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"queue":   p.queue,
		"event":   event.Type,
		"task_id": event.TaskID,
	}).Debug("Task event published")

	return nil
}
