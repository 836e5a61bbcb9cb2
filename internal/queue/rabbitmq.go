package queue

import (
	"context"
	"fmt"
	"task_tracker/internal/config"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const maxConnectRetries = 5

// SetupRabbitMQ dials the broker, retrying with a linear backoff while it
// comes up.
func SetupRabbitMQ(ctx context.Context, rabbitMQCfg *config.RabbitMQConfig) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error

	for i := 0; i < maxConnectRetries; i++ {
		conn, err = amqp.Dial(rabbitMQCfg.URL)
		if err == nil {
			break
		}

		logrus.WithError(err).WithFields(logrus.Fields{
			"attempt":     i + 1,
			"max_retries": maxConnectRetries,
		}).Warn("Failed to connect to RabbitMQ")

		if i == maxConnectRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * time.Second):
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxConnectRetries, err)
	}

	logrus.Info("RabbitMQ connection established successfully")
	return conn, nil
}

func CreateChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	return ch, nil
}

// QueueDeclarer is the part of *amqp.Channel DeclareQueue needs.
type QueueDeclarer interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
}

func DeclareQueue(ch QueueDeclarer, queueName string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("failed to declare queue: %w", err)
	}

	return q, nil
}
