package task

import (
	"context"
	"time"
)

type EventType string

const (
	EventCreated EventType = "task.created"
	EventUpdated EventType = "task.updated"
	EventDeleted EventType = "task.deleted"
)

// Event notifies downstream consumers that a task changed.
type Event struct {
	Type       EventType `json:"type"`
	TaskID     string    `json:"task_id"`
	Owner      string    `json:"owner"`
	Actor      string    `json:"actor"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, Event) error { return nil }
