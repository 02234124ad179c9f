package events

import (
	"context"
	"errors"
	"testing"
)

func TestNoOpPublisher(t *testing.T) {
	pub := &NoOpPublisher{}
	err := pub.PublishDispatched(context.Background(), &TaskDispatchedEvent{
		ID:    "e1",
		Agent: "sales_agent",
		Task:  "sales_outreach",
		OK:    true,
	})
	if err != nil {
		t.Errorf("events:publisher_test - expected no error, got %v", err)
	}
}

func TestCallbackPublisher(t *testing.T) {
	var captured *TaskDispatchedEvent

	pub := NewCallbackPublisher(func(_ context.Context, event *TaskDispatchedEvent) error {
		captured = event
		return nil
	})

	event := &TaskDispatchedEvent{
		ID:        "e2",
		Agent:     "jobs_agent",
		Task:      "job_search",
		OK:        false,
		Error:     "invalid payload field 'count': must be a non-negative integer",
		Timestamp: "2025-01-01T00:00:00Z",
	}

	if err := pub.PublishDispatched(context.Background(), event); err != nil {
		t.Errorf("events:publisher_test - expected no error, got %v", err)
	}
	if captured == nil {
		t.Fatal("events:publisher_test - expected callback to be called")
	}
	if captured.Agent != "jobs_agent" || captured.OK {
		t.Errorf("events:publisher_test - captured = %+v", captured)
	}
}

func TestCallbackPublisher_PropagatesError(t *testing.T) {
	want := errors.New("broker down")
	pub := NewCallbackPublisher(func(context.Context, *TaskDispatchedEvent) error { return want })
	if err := pub.PublishDispatched(context.Background(), &TaskDispatchedEvent{}); !errors.Is(err, want) {
		t.Errorf("events:publisher_test - err = %v, want %v", err, want)
	}
}
