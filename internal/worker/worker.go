package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"task_tracker/internal/observability"
	"task_tracker/internal/task"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Worker consumes task notifications from one queue.
type Worker struct {
	id      int
	queue   string
	metrics *observability.Metrics
}

func New(id int, queue string, metrics *observability.Metrics) *Worker {
	return &Worker{id: id, queue: queue, metrics: metrics}
}

// Start opens a channel on conn and processes deliveries until ctx is done
// or the broker closes the channel.
func (w *Worker) Start(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("worker %d failed to open channel: %w", w.id, err)
	}
	defer ch.Close()

	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("worker %d failed to set QoS: %w", w.id, err)
	}

	msgs, err := ch.Consume(
		w.queue,
		fmt.Sprintf("task-events-worker-%d", w.id),
		false, // manual ACK
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("worker %d failed to start consuming messages: %w", w.id, err)
	}

	logrus.WithFields(logrus.Fields{
		"worker": w.id,
		"queue":  w.queue,
	}).Info("Worker started")

	w.Process(ctx, msgs)
	return nil
}

// Process handles deliveries one at a time. Malformed or unknown events are
// dropped without requeue since retrying cannot fix them.
func (w *Worker) Process(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			logrus.WithField("worker", w.id).Info("Worker stopping")
			return
		case msg, ok := <-msgs:
			if !ok {
				logrus.WithField("worker", w.id).Warn("Delivery channel closed")
				return
			}
			w.handle(&msg)
		}
	}
}

func (w *Worker) handle(msg *amqp.Delivery) {
	var event task.Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		logrus.WithError(err).WithField("worker", w.id).Error("Invalid task event payload")
		w.metrics.ObserveConsumed(w.queue, "invalid")
		_ = msg.Nack(false, false)
		return
	}

	w.metrics.ObserveConsumed(w.queue, string(event.Type))

	if err := handleEvent(&event, w.id); err != nil {
		logrus.WithError(err).WithField("worker", w.id).Error("Failed to handle task event")
		_ = msg.Nack(false, false)
		return
	}

	if err := msg.Ack(false); err != nil {
		logrus.WithError(err).WithField("worker", w.id).Warn("Failed to ack task event")
	}
}
