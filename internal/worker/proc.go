package worker

import (
	"fmt"
	"task_tracker/internal/task"

	"github.com/sirupsen/logrus"
)

func handleEvent(event *task.Event, workerID int) error {
	if event.TaskID == "" {
		return fmt.Errorf("event %s has no task id", event.Type)
	}

	switch event.Type {
	case task.EventCreated:
		return processCreated(event, workerID)
	case task.EventUpdated:
		return processUpdated(event, workerID)
	case task.EventDeleted:
		return processDeleted(event, workerID)
	default:
		return fmt.Errorf("unknown event type: %s", event.Type)
	}
}

func eventLogger(event *task.Event, workerID int) *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"worker":  workerID,
		"task_id": event.TaskID,
		"owner":   event.Owner,
		"actor":   event.Actor,
	})
}

func processCreated(event *task.Event, workerID int) error {
	eventLogger(event, workerID).WithField("status", event.Status).Info("Task created")
	return nil
}

func processUpdated(event *task.Event, workerID int) error {
	entry := eventLogger(event, workerID).WithField("status", event.Status)
	if event.Actor != event.Owner {
		entry.Info("Task updated by another user")
		return nil
	}
	entry.Info("Task updated")
	return nil
}

func processDeleted(event *task.Event, workerID int) error {
	eventLogger(event, workerID).Info("Task deleted")
	return nil
}
