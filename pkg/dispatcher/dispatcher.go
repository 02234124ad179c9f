package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/morezero/agent-orchestrator/pkg/agent"
	"github.com/morezero/agent-orchestrator/pkg/audit"
	"github.com/morezero/agent-orchestrator/pkg/events"
	"github.com/morezero/agent-orchestrator/pkg/registry"
)

const logPrefix = "dispatcher:dispatch"

const defaultAuditTimeout = 5 * time.Second

// Config holds dispatcher configuration.
type Config struct {
	// AuditTimeout bounds each audit append.
	AuditTimeout time.Duration
}

// NewDispatcherParams holds the dependencies of a Dispatcher.
type NewDispatcherParams struct {
	Registry  *registry.Registry
	Sink      audit.Sink
	Publisher events.EventPublisher
	Config    Config
	// Now overrides the clock used for audit timestamps.
	Now func() time.Time
}

// Dispatcher resolves a task to its agent, runs it, audits the result and
// publishes a dispatch event.
type Dispatcher struct {
	registry  *registry.Registry
	sink      audit.Sink
	publisher events.EventPublisher
	config    Config
	now       func() time.Time
}

// NewDispatcher creates a new Dispatcher. A nil sink or publisher is replaced with a no-op.
func NewDispatcher(params NewDispatcherParams) *Dispatcher {
	cfg := params.Config
	if cfg.AuditTimeout <= 0 {
		cfg.AuditTimeout = defaultAuditTimeout
	}

	sink := params.Sink
	if sink == nil {
		sink = audit.NoOpSink{}
	}
	pub := params.Publisher
	if pub == nil {
		pub = &events.NoOpPublisher{}
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}

	return &Dispatcher{
		registry:  params.Registry,
		sink:      sink,
		publisher: pub,
		config:    cfg,
		now:       now,
	}
}

// PostTask routes the task called name to its agent and returns the result.
// Only a blank name is an error; an unknown task and any agent fault come
// back as a failed Result.
func (d *Dispatcher) PostTask(ctx context.Context, name string, payload map[string]any) (*agent.Result, error) {
	if strings.TrimSpace(name) == "" {
		return nil, registry.NewRegistryError(registry.CodeInvalidTask, "task name is empty")
	}

	a, ok := d.registry.Resolve(name)
	if !ok {
		slog.Warn(fmt.Sprintf("%s - No agent for task", logPrefix), "task", name)
		res := agent.Failuref("no agent for task '%s'", name)
		return &res, nil
	}

	task := agent.Task{Name: name, Payload: payload}.Clone()
	// The agent may edit its copy in place; the audit trail keeps the request as received.
	received := task.Clone()
	started := d.now()
	res := invoke(ctx, a, task).Normalize(fmt.Sprintf("agent %s reported failure for task '%s'", a.Name(), name))

	slog.Info(fmt.Sprintf("%s - Dispatched task", logPrefix),
		"task", name, "agent", a.Name(), "ok", res.OK, "duration", d.now().Sub(started))

	entry := audit.NewEntry(a.Name(), name, received.Payload, res, d.now())
	d.appendAudit(ctx, entry)
	d.publish(ctx, entry)

	return &res, nil
}

// Dispatch runs a decoded COMMS request and wraps the outcome in a response envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, req *TaskRequest) *TaskResponse {
	slog.Debug(fmt.Sprintf("%s - name=%s id=%s", logPrefix, req.Name, req.ID))

	res, err := d.PostTask(ctx, req.Name, req.Payload)
	if err != nil {
		return errorResponse(req.ID, err)
	}
	return &TaskResponse{ID: req.ID, OK: res.OK, Data: res.Data, Error: res.Error}
}

// DispatchRaw decodes a COMMS message body and dispatches it.
func (d *Dispatcher) DispatchRaw(ctx context.Context, data []byte) *TaskResponse {
	req, err := ParseTaskRequest(data)
	if err != nil {
		return errorResponse("", err)
	}
	return d.Dispatch(ctx, req)
}

func (d *Dispatcher) appendAudit(ctx context.Context, e audit.Entry) {
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.config.AuditTimeout)
	defer cancel()
	if err := d.sink.Append(actx, e); err != nil {
		slog.Error(fmt.Sprintf("%s - Audit append failed: %v", logPrefix, err),
			"entry", e.ID, "agent", e.Agent, "task", e.Task)
	}
}

func (d *Dispatcher) publish(ctx context.Context, e audit.Entry) {
	event := &events.TaskDispatchedEvent{
		ID:        e.ID,
		Agent:     e.Agent,
		Task:      e.Task,
		OK:        e.Result.OK,
		Error:     e.Result.Error,
		Timestamp: e.Timestamp,
	}
	if err := d.publisher.PublishDispatched(ctx, event); err != nil {
		slog.Error(fmt.Sprintf("%s - Dispatch event publish failed: %v", logPrefix, err), "entry", e.ID)
	}
}

// invoke runs the agent, converting a returned error or a panic into a failed Result.
// An agent that no longer declares the task is not called.
func invoke(ctx context.Context, a agent.Agent, task agent.Task) (res agent.Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error(fmt.Sprintf("%s - Agent panicked: %v", logPrefix, r),
				"agent", a.Name(), "task", task.Name, "stack", string(debug.Stack()))
			res = agent.Failure(fmt.Sprint(r))
		}
	}()

	if !agent.Handles(a, task.Name) {
		slog.Warn(fmt.Sprintf("%s - Agent no longer declares task", logPrefix), "agent", a.Name(), "task", task.Name)
		return agent.Unsupported(a.Name(), task.Name)
	}

	res, err := a.Handle(ctx, task)
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - Agent returned error: %v", logPrefix, err), "agent", a.Name(), "task", task.Name)
		return agent.Failure(err.Error())
	}
	return res
}

func errorResponse(id string, err error) *TaskResponse {
	resp := &TaskResponse{ID: id, OK: false, Data: map[string]any{}, Error: err.Error()}
	var re *registry.RegistryError
	if errors.As(err, &re) {
		resp.Code = re.Code
		resp.Error = re.Message
	}
	return resp
}
