package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftlabs/weft/pkg/channels/gochannel"
	"github.com/weftlabs/weft/pkg/events"
	"github.com/weftlabs/weft/pkg/log"
)

func newTestBus(t *testing.T) EventBus {
	t.Helper()

	publisher, subscriber, err := gochannel.CreateTestChannel(watermill.NewSlogLogger(log.WithModule("test")))
	require.NoError(t, err)

	bus := NewWatermillEventBus(publisher, subscriber)

	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	bus := newTestBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	bus := newTestBus(t)

	received := make(chan *events.ExecutionStarted, 1)

	err := bus.Handle(events.ExecutionStartedEvent, func(_ context.Context, event any) error {
		started, ok := event.(*events.ExecutionStarted)
		require.True(t, ok)

		received <- started

		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Subscribe(t.Context()))

	started := events.ExecutionStarted{
		BaseEvent: events.BaseEvent{
			ID:         bus.GenerateID(),
			Type:       events.ExecutionStartedEvent,
			Timestamp:  time.Now().UTC(),
			WorkflowID: "wf-1",
		},
		ExecutionID:  "exec-1",
		WorkflowName: "Bus Test Workflow",
	}

	require.NoError(t, bus.Publish(t.Context(), "wf-1", started))

	select {
	case event := <-received:
		assert.Equal(t, "exec-1", event.ExecutionID)
		assert.Equal(t, "wf-1", event.WorkflowID)
		assert.Equal(t, events.ExecutionStartedEvent, event.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestWatermillEventBus_UnhandledTypeIsIgnored(t *testing.T) {
	bus := newTestBus(t)

	received := make(chan any, 2)

	err := bus.Handle(events.ExecutionCompletedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Subscribe(t.Context()))

	failed := events.ExecutionFailed{
		BaseEvent: events.BaseEvent{
			ID:         bus.GenerateID(),
			Type:       events.ExecutionFailedEvent,
			Timestamp:  time.Now().UTC(),
			WorkflowID: "wf-1",
		},
		ExecutionID: "exec-1",
	}

	// No handler is registered for failures, so this must not reach the
	// completion handler.
	require.NoError(t, bus.Publish(t.Context(), "wf-1", failed))

	completed := events.ExecutionCompleted{
		BaseEvent: events.BaseEvent{
			ID:         bus.GenerateID(),
			Type:       events.ExecutionCompletedEvent,
			Timestamp:  time.Now().UTC(),
			WorkflowID: "wf-1",
		},
		ExecutionID: "exec-1",
		Status:      "completed",
	}

	require.NoError(t, bus.Publish(t.Context(), "wf-1", completed))

	select {
	case event := <-received:
		completedEvent, ok := event.(*events.ExecutionCompleted)
		require.True(t, ok)
		assert.Equal(t, "exec-1", completedEvent.ExecutionID)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}

	assert.Empty(t, received)
}
