package task

import (
	"context"
	"sync"
)

// fakeRepository is an in-memory TaskRepositoryInterface. Setting err makes
// every call fail with it.
type fakeRepository struct {
	mu    sync.Mutex
	tasks map[string]Task
	err   error
	calls map[string]int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		tasks: map[string]Task{},
		calls: map[string]int{},
	}
}

func (r *fakeRepository) record(op string) error {
	r.calls[op]++
	return r.err
}

func (r *fakeRepository) Insert(ctx context.Context, task *Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("insert"); err != nil {
		return err
	}
	r.tasks[task.ID] = *task
	return nil
}

func (r *fakeRepository) GetByID(ctx context.Context, id string) (*Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("get"); err != nil {
		return nil, err
	}
	t, ok := r.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return &t, nil
}

func (r *fakeRepository) Replace(ctx context.Context, task *Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("replace"); err != nil {
		return err
	}
	if _, ok := r.tasks[task.ID]; !ok {
		return ErrTaskNotFound
	}
	r.tasks[task.ID] = *task
	return nil
}

func (r *fakeRepository) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("delete"); err != nil {
		return err
	}
	if _, ok := r.tasks[id]; !ok {
		return ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *fakeRepository) List(ctx context.Context) ([]*Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("list"); err != nil {
		return nil, err
	}
	tasks := make([]*Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		t := t
		tasks = append(tasks, &t)
	}
	return tasks, nil
}

func (r *fakeRepository) ListByUsername(ctx context.Context, username string) ([]*Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("list_by_username"); err != nil {
		return nil, err
	}
	var tasks []*Task
	for _, t := range r.tasks {
		if t.Username == username {
			t := t
			tasks = append(tasks, &t)
		}
	}
	return tasks, nil
}

func (r *fakeRepository) stored(id string) (Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	return t, ok
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}
