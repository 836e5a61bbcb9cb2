package worker

import (
	"context"
	"encoding/json"
	"sync"
	"task_tracker/internal/observability"
	"task_tracker/internal/task"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAcknowledger records how each delivery tag was settled.
type fakeAcknowledger struct {
	mu      sync.Mutex
	acked   []uint64
	nacked  []uint64
	requeue []bool
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = append(a.nacked, tag)
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func delivery(t *testing.T, ack amqp.Acknowledger, tag uint64, body any) amqp.Delivery {
	t.Helper()
	var raw []byte
	switch b := body.(type) {
	case []byte:
		raw = b
	default:
		var err error
		raw, err = json.Marshal(b)
		require.NoError(t, err)
	}
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: tag, Body: raw}
}

func TestProcess(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	w := New(1, "task_events", metrics)
	ack := &fakeAcknowledger{}

	msgs := make(chan amqp.Delivery, 4)
	msgs <- delivery(t, ack, 1, task.Event{Type: task.EventCreated, TaskID: "t-1", Owner: "alice", Actor: "alice"})
	msgs <- delivery(t, ack, 2, task.Event{Type: task.EventUpdated, TaskID: "t-1", Owner: "alice", Actor: "root"})
	msgs <- delivery(t, ack, 3, []byte("not json"))
	msgs <- delivery(t, ack, 4, task.Event{Type: "task.archived", TaskID: "t-1"})
	close(msgs)

	w.Process(context.Background(), msgs)

	assert.Equal(t, []uint64{1, 2}, ack.acked)
	assert.Equal(t, []uint64{3, 4}, ack.nacked)
	assert.Equal(t, []bool{false, false}, ack.requeue)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.QueueMessagesConsumed.WithLabelValues("task_events", "task.created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.QueueMessagesConsumed.WithLabelValues("task_events", "task.updated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.QueueMessagesConsumed.WithLabelValues("task_events", "invalid")))
}

func TestProcess_StopsOnContextCancel(t *testing.T) {
	w := New(1, "task_events", nil)
	msgs := make(chan amqp.Delivery)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Process(ctx, msgs)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Process did not return after cancel")
	}
}

func TestHandleEvent(t *testing.T) {
	tests := []struct {
		name    string
		event   task.Event
		wantErr bool
	}{
		{"created", task.Event{Type: task.EventCreated, TaskID: "t"}, false},
		{"updated", task.Event{Type: task.EventUpdated, TaskID: "t"}, false},
		{"deleted", task.Event{Type: task.EventDeleted, TaskID: "t"}, false},
		{"unknown type", task.Event{Type: "task.moved", TaskID: "t"}, true},
		{"missing task id", task.Event{Type: task.EventCreated}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handleEvent(&tt.event, 1)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
