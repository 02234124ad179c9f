package events

import (
	"context"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/agent-orchestrator/pkg/commsutil"
)

const commsPublisherLogPrefix = "events:comms_publisher"

// CommsPublisherOpts configures CommsPublisher. Nil or zero values use defaults.
type CommsPublisherOpts struct {
	// GlobalSubject overrides the subject every dispatch event is published to.
	GlobalSubject string
}

// CommsPublisher publishes dispatch events to COMMS subjects.
type CommsPublisher struct {
	nc            *comms.Conn
	globalSubject string
}

// NewCommsPublisher creates a new CommsPublisher. Pass nil for opts to use defaults.
func NewCommsPublisher(nc *comms.Conn, opts *CommsPublisherOpts) *CommsPublisher {
	globalSubject := commsutil.SubjectDispatched
	if opts != nil && opts.GlobalSubject != "" {
		globalSubject = opts.GlobalSubject
	}
	return &CommsPublisher{nc: nc, globalSubject: globalSubject}
}

// PublishDispatched publishes a TaskDispatchedEvent to the per-agent subject
// and then to the global subject.
func (p *CommsPublisher) PublishDispatched(_ context.Context, event *TaskDispatchedEvent) error {
	data, err := commsutil.EncodePayload(event)
	if err != nil {
		return fmt.Errorf("%s - failed to encode event: %w", commsPublisherLogPrefix, err)
	}

	agentSubject := commsutil.BuildDispatchedSubject(event.Agent)
	if err := p.nc.Publish(agentSubject, data); err != nil {
		return fmt.Errorf("%s - failed to publish to %s: %w", commsPublisherLogPrefix, agentSubject, err)
	}

	if err := p.nc.Publish(p.globalSubject, data); err != nil {
		return fmt.Errorf("%s - failed to publish to %s: %w", commsPublisherLogPrefix, p.globalSubject, err)
	}

	slog.Debug(fmt.Sprintf("%s - Published dispatch event %s for %s/%s", commsPublisherLogPrefix, event.ID, event.Agent, event.Task))
	return nil
}
