// Package agent defines the task/result value types and the capability
// contract every orchestrator agent implements.
package agent

import (
	"context"
	"fmt"
	"maps"
	"slices"
)

// Task is a named request with an opaque payload.
type Task struct {
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload"`
}

// Result is the normalized outcome of a dispatch.
type Result struct {
	OK    bool           `json:"ok"`
	Data  map[string]any `json:"data"`
	Error string         `json:"error,omitempty"`
}

// Agent is a named handler for a fixed set of task names.
type Agent interface {
	// Name is the unique identifier of the agent within a registry.
	Name() string
	// TaskNames lists the task names the agent handles. Implementations
	// return a fresh slice; the set never changes after construction.
	TaskNames() []string
	// Handle computes the result for a task. A returned error (or a panic)
	// is treated as an agent fault by the dispatcher.
	Handle(ctx context.Context, task Task) (Result, error)
}

// Metadata describes an agent for marketplace listings.
type Metadata struct {
	Description string  `json:"description" yaml:"description"`
	Version     string  `json:"version,omitempty" yaml:"version,omitempty"`
	Pricing     Pricing `json:"pricing" yaml:"pricing"`
}

// Pricing is the marketplace price point of an agent.
type Pricing struct {
	Tier string  `json:"tier" yaml:"tier"`
	Rate float64 `json:"rate" yaml:"rate"`
}

// Describer is implemented by agents that publish marketplace metadata.
type Describer interface {
	Describe() Metadata
}

// Success builds an ok result carrying data.
func Success(data map[string]any) Result {
	if data == nil {
		data = map[string]any{}
	}
	return Result{OK: true, Data: data}
}

// Failure builds a failed result with the given message.
func Failure(message string) Result {
	return Result{OK: false, Data: map[string]any{}, Error: message}
}

// Failuref builds a failed result with a formatted message.
func Failuref(format string, args ...any) Result {
	return Failure(fmt.Sprintf(format, args...))
}

// Unsupported is the failure an agent returns for a task outside its set.
func Unsupported(agentName, taskName string) Result {
	return Failuref("unsupported task '%s' for agent %s", taskName, agentName)
}

// Handles reports whether a declares taskName.
func Handles(a Agent, taskName string) bool {
	return slices.Contains(a.TaskNames(), taskName)
}

// Normalize enforces the Result invariants: ok results carry no error,
// failed results always carry one, and data is never nil.
func (r Result) Normalize(fallbackError string) Result {
	if r.Data == nil {
		r.Data = map[string]any{}
	}
	if r.OK {
		r.Error = ""
		return r
	}
	if r.Error == "" {
		r.Error = fallbackError
	}
	return r
}

// Clone returns a copy of the task with its own payload map.
func (t Task) Clone() Task {
	payload := maps.Clone(t.Payload)
	if payload == nil {
		payload = map[string]any{}
	}
	return Task{Name: t.Name, Payload: payload}
}
