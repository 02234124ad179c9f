package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	commsserver "github.com/nats-io/nats-server/v2/server"
	comms "github.com/nats-io/nats.go"
)

const commsTestPrefix = "events:comms_publisher_integration_test"

// startTestServer starts an in-process NATS server on a random port.
func startTestServer(t *testing.T) (*comms.Conn, func()) {
	t.Helper()

	opts := &commsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	}

	ns, err := commsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("%s - failed to create server: %v", commsTestPrefix, err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatalf("%s - server failed to start", commsTestPrefix)
	}

	nc, err := comms.Connect(ns.ClientURL(), comms.Timeout(5*time.Second))
	if err != nil {
		ns.Shutdown()
		t.Fatalf("%s - failed to connect: %v", commsTestPrefix, err)
	}

	cleanup := func() {
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	}

	return nc, cleanup
}

func subscribeEvents(t *testing.T, nc *comms.Conn, subject string) chan *TaskDispatchedEvent {
	t.Helper()
	received := make(chan *TaskDispatchedEvent, 4)
	sub, err := nc.Subscribe(subject, func(msg *comms.Msg) {
		var event TaskDispatchedEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			t.Errorf("%s - failed to unmarshal: %v", commsTestPrefix, err)
			return
		}
		received <- &event
	})
	if err != nil {
		t.Fatalf("%s - failed to subscribe to %s: %v", commsTestPrefix, subject, err)
	}
	t.Cleanup(func() { _ = sub.Unsubscribe() })
	return received
}

func waitEvent(t *testing.T, ch chan *TaskDispatchedEvent, what string) *TaskDispatchedEvent {
	t.Helper()
	select {
	case got := <-ch:
		return got
	case <-time.After(5 * time.Second):
		t.Fatalf("%s - timeout waiting for %s event", commsTestPrefix, what)
		return nil
	}
}

func TestCommsPublisher_PublishesToAgentAndGlobalSubjects(t *testing.T) {
	nc, cleanup := startTestServer(t)
	defer cleanup()

	agentCh := subscribeEvents(t, nc, "orchestrator.dispatched.sales_agent")
	globalCh := subscribeEvents(t, nc, "orchestrator.dispatched")
	wildcardCh := subscribeEvents(t, nc, "orchestrator.dispatched.>")

	publisher := NewCommsPublisher(nc, nil)
	event := &TaskDispatchedEvent{
		ID:        "evt-1",
		Agent:     "sales_agent",
		Task:      "sales_outreach",
		OK:        true,
		Timestamp: "2025-01-01T00:00:00Z",
	}
	if err := publisher.PublishDispatched(context.Background(), event); err != nil {
		t.Fatalf("%s - PublishDispatched failed: %v", commsTestPrefix, err)
	}
	_ = nc.Flush()

	got := waitEvent(t, agentCh, "per-agent")
	if got.ID != "evt-1" || got.Task != "sales_outreach" || !got.OK {
		t.Errorf("%s - per-agent event = %+v", commsTestPrefix, got)
	}
	if got := waitEvent(t, globalCh, "global"); got.Agent != "sales_agent" {
		t.Errorf("%s - global event agent = %q", commsTestPrefix, got.Agent)
	}
	waitEvent(t, wildcardCh, "wildcard")
}

func TestCommsPublisher_FailureFieldsPreserved(t *testing.T) {
	nc, cleanup := startTestServer(t)
	defer cleanup()

	globalCh := subscribeEvents(t, nc, "orchestrator.dispatched")
	publisher := NewCommsPublisher(nc, nil)

	event := &TaskDispatchedEvent{
		ID:        "evt-2",
		Agent:     "health_agent",
		Task:      "health_appointment",
		OK:        false,
		Error:     "invalid payload field 'date': want YYYY-MM-DD",
		Timestamp: "2025-06-15T12:30:00Z",
	}
	if err := publisher.PublishDispatched(context.Background(), event); err != nil {
		t.Fatalf("%s - PublishDispatched failed: %v", commsTestPrefix, err)
	}
	_ = nc.Flush()

	got := waitEvent(t, globalCh, "global")
	if got.OK || got.Error != event.Error || got.Timestamp != event.Timestamp {
		t.Errorf("%s - event = %+v, want %+v", commsTestPrefix, got, event)
	}
}

func TestCommsPublisher_CustomGlobalSubject(t *testing.T) {
	nc, cleanup := startTestServer(t)
	defer cleanup()

	customSubject := "custom.orchestrator.events"
	customCh := subscribeEvents(t, nc, customSubject)
	publisher := NewCommsPublisher(nc, &CommsPublisherOpts{GlobalSubject: customSubject})

	if err := publisher.PublishDispatched(context.Background(), &TaskDispatchedEvent{ID: "evt-3", Agent: "legal_agent"}); err != nil {
		t.Fatalf("%s - PublishDispatched failed: %v", commsTestPrefix, err)
	}
	_ = nc.Flush()

	if got := waitEvent(t, customCh, "custom"); got.ID != "evt-3" {
		t.Errorf("%s - ID = %q, want evt-3", commsTestPrefix, got.ID)
	}
}

func TestNewCommsPublisher_DefaultSubject(t *testing.T) {
	for _, opts := range []*CommsPublisherOpts{nil, {GlobalSubject: ""}} {
		publisher := NewCommsPublisher(nil, opts)
		if publisher.globalSubject != "orchestrator.dispatched" {
			t.Errorf("%s - globalSubject = %q, want orchestrator.dispatched", commsTestPrefix, publisher.globalSubject)
		}
	}
}

func TestCommsPublisher_ClosedConnection(t *testing.T) {
	nc, cleanup := startTestServer(t)
	defer cleanup()

	publisher := NewCommsPublisher(nc, nil)
	nc.Close()
	if err := publisher.PublishDispatched(context.Background(), &TaskDispatchedEvent{ID: "evt-4", Agent: "a"}); err == nil {
		t.Errorf("%s - expected error publishing on a closed connection", commsTestPrefix)
	}
}
