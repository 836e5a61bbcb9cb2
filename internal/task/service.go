package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"task_tracker/internal/apperr"
	"task_tracker/internal/clock"
	"task_tracker/internal/observability"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultStatus = "pending"

	maxTitleLength       = 256
	maxDescriptionLength = 10000
	maxStatusLength      = 64
)

type TaskServiceInterface interface {
	CreateTask(ctx context.Context, actor Actor, input CreateInput) (*Task, error)
	GetTask(ctx context.Context, actor Actor, id string) (*Task, error)
	UpdateTask(ctx context.Context, actor Actor, id string, input UpdateInput) (*Task, error)
	DeleteTask(ctx context.Context, actor Actor, id string) error
	ListTasks(ctx context.Context, actor Actor) ([]*Task, error)
}

// TaskService enforces ownership on every task operation. A task that exists
// but belongs to someone else is reported exactly like a missing one.
//
// Update and delete read then write without a version check, so concurrent
// writers to the same task race and the last write wins.
type TaskService struct {
	repo      TaskRepositoryInterface
	clock     clock.Clock
	publisher EventPublisher
	metrics   *observability.Metrics
	newID     func() string
}

func NewTaskService(repo TaskRepositoryInterface, clk clock.Clock, publisher EventPublisher, metrics *observability.Metrics) *TaskService {
	if clk == nil {
		clk = clock.Real()
	}
	if publisher == nil {
		publisher = noopPublisher{}
	}

	return &TaskService{
		repo:      repo,
		clock:     clk,
		publisher: publisher,
		metrics:   metrics,
		newID:     uuid.NewString,
	}
}

func (s *TaskService) CreateTask(ctx context.Context, actor Actor, input CreateInput) (task *Task, err error) {
	defer func() { s.metrics.ObserveTaskOperation("create", err) }()

	if err := checkActor(actor); err != nil {
		return nil, err
	}
	if err := validateTitle(input.Title); err != nil {
		return nil, err
	}
	if err := validateText("description", input.Description, maxDescriptionLength); err != nil {
		return nil, err
	}

	status := input.Status
	if strings.TrimSpace(status) == "" {
		status = DefaultStatus
	}
	if err := validateText("status", status, maxStatusLength); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	task = &Task{
		ID:          s.newID(),
		Title:       input.Title,
		Description: input.Description,
		Status:      status,
		Username:    actor.Username,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, task); err != nil {
		logrus.WithError(err).WithField("username", actor.Username).Error("Failed to create task")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"task_id":  task.ID,
		"username": task.Username,
	}).Info("Task created")

	s.publish(ctx, EventCreated, actor, task)
	return task, nil
}

func (s *TaskService) GetTask(ctx context.Context, actor Actor, id string) (task *Task, err error) {
	defer func() { s.metrics.ObserveTaskOperation("get", err) }()

	return s.authorizedTask(ctx, actor, id)
}

func (s *TaskService) UpdateTask(ctx context.Context, actor Actor, id string, input UpdateInput) (task *Task, err error) {
	defer func() { s.metrics.ObserveTaskOperation("update", err) }()

	if err := validateUpdate(input); err != nil {
		return nil, err
	}

	current, err := s.authorizedTask(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	updated := *current
	if input.Title != nil {
		updated.Title = *input.Title
	}
	if input.Description != nil {
		updated.Description = *input.Description
	}
	if input.Status != nil {
		updated.Status = *input.Status
	}

	now := s.clock.Now().UTC()
	if now.Before(current.UpdatedAt) {
		now = current.UpdatedAt
	}
	updated.UpdatedAt = now

	if err := s.repo.Replace(ctx, &updated); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			// deleted between read and write
			return nil, ErrTaskNotFound
		}
		logrus.WithError(err).WithField("task_id", id).Error("Failed to update task")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"task_id": updated.ID,
		"actor":   actor.Username,
	}).Info("Task updated")

	s.publish(ctx, EventUpdated, actor, &updated)
	return &updated, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, actor Actor, id string) (err error) {
	defer func() { s.metrics.ObserveTaskOperation("delete", err) }()

	task, err := s.authorizedTask(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteByID(ctx, task.ID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return ErrTaskNotFound
		}
		logrus.WithError(err).WithField("task_id", id).Error("Failed to delete task")
		return err
	}

	logrus.WithFields(logrus.Fields{
		"task_id": task.ID,
		"actor":   actor.Username,
	}).Info("Task deleted")

	s.publish(ctx, EventDeleted, actor, task)
	return nil
}

// ListTasks returns every task for admins and only the actor's own tasks
// otherwise. Order is whatever the store returns.
func (s *TaskService) ListTasks(ctx context.Context, actor Actor) (tasks []*Task, err error) {
	defer func() { s.metrics.ObserveTaskOperation("list", err) }()

	if err := checkActor(actor); err != nil {
		return nil, err
	}

	if actor.IsAdmin() {
		tasks, err = s.repo.List(ctx)
	} else {
		tasks, err = s.repo.ListByUsername(ctx, actor.Username)
	}
	if err != nil {
		return nil, err
	}

	visible := make([]*Task, 0, len(tasks))
	for _, t := range tasks {
		if actor.CanAccess(t) {
			visible = append(visible, t)
		}
	}

	return visible, nil
}

// authorizedTask loads id and applies the ownership policy shared by get,
// update and delete.
func (s *TaskService) authorizedTask(ctx context.Context, actor Actor, id string) (*Task, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, ErrTaskNotFound
	}

	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	if !actor.CanAccess(task) {
		logrus.WithFields(logrus.Fields{
			"task_id": id,
			"actor":   actor.Username,
		}).Debug("Task hidden from non-owner")
		return nil, ErrTaskNotFound
	}

	return task, nil
}

func (s *TaskService) publish(ctx context.Context, eventType EventType, actor Actor, task *Task) {
	event := Event{
		Type:       eventType,
		TaskID:     task.ID,
		Owner:      task.Username,
		Actor:      actor.Username,
		Status:     task.Status,
		OccurredAt: s.clock.Now().UTC(),
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"task_id": task.ID,
			"event":   eventType,
		}).Warn("Failed to publish task event")
	}
}

func checkActor(actor Actor) error {
	if actor.Username == "" {
		return fmt.Errorf("%w: missing actor", apperr.ErrUnauthenticated)
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", apperr.ErrValidation)
	}
	return validateText("title", title, maxTitleLength)
}

func validateText(field, value string, max int) error {
	if len(value) > max {
		return fmt.Errorf("%w: %s must be at most %d characters", apperr.ErrValidation, field, max)
	}
	return nil
}

func validateUpdate(input UpdateInput) error {
	if input.Title != nil {
		if err := validateTitle(*input.Title); err != nil {
			return err
		}
	}
	if input.Description != nil {
		if err := validateText("description", *input.Description, maxDescriptionLength); err != nil {
			return err
		}
	}
	if input.Status != nil {
		if strings.TrimSpace(*input.Status) == "" {
			return fmt.Errorf("%w: status must not be blank", apperr.ErrValidation)
		}
		if err := validateText("status", *input.Status, maxStatusLength); err != nil {
			return err
		}
	}
	return nil
}
