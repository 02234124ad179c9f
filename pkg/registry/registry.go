package registry

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/morezero/agent-orchestrator/pkg/agent"
	"github.com/morezero/agent-orchestrator/pkg/semver"
)

const logPrefix = "registry:registry"

// Registry maps task names to the single agent that claims each one.
// It is populated at startup and read-only afterwards, so lookups take no lock.
type Registry struct {
	agents []agent.Agent
	byName map[string]agent.Agent
	routes map[string]string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]agent.Agent),
		routes: make(map[string]string),
	}
}

// Register adds an agent and claims its task names. A rejected agent leaves
// the registry unchanged.
func (r *Registry) Register(a agent.Agent) error {
	if a == nil {
		return NewRegistryError(CodeInvalidAgent, "agent is nil")
	}
	name := a.Name()
	if strings.TrimSpace(name) == "" {
		return NewRegistryError(CodeInvalidAgent, "agent name is empty")
	}
	if _, exists := r.byName[name]; exists {
		return &RegistryError{
			Code:    CodeDuplicateAgent,
			Message: fmt.Sprintf("agent %s is already registered", name),
			Details: map[string]string{"agent": name},
		}
	}

	tasks, err := uniqueTasks(name, a.TaskNames())
	if err != nil {
		return err
	}
	if d, ok := a.(agent.Describer); ok {
		if v := d.Describe().Version; v != "" && !semver.ValidateVersion(v) {
			return &RegistryError{
				Code:    CodeInvalidAgent,
				Message: fmt.Sprintf("agent %s declares invalid version %q", name, v),
				Details: map[string]string{"agent": name, "version": v},
			}
		}
	}

	for _, t := range tasks {
		if owner, claimed := r.routes[t]; claimed {
			return &RegistryError{
				Code:    CodeDuplicateRoute,
				Message: fmt.Sprintf("task '%s' is already handled by %s", t, owner),
				Details: RouteConflict{Task: t, Owner: owner, Claimant: name},
			}
		}
	}

	for _, t := range tasks {
		if !semver.ValidateIdentifier(t) {
			slog.Warn(fmt.Sprintf("%s - Task name is not a plain identifier", logPrefix), "agent", name, "task", t)
		}
		r.routes[t] = name
	}
	r.byName[name] = a
	r.agents = append(r.agents, a)

	slog.Debug(fmt.Sprintf("%s - Registered agent", logPrefix), "agent", name, "tasks", tasks)
	return nil
}

// RegisterAll registers agents in order, stopping at the first error.
func (r *Registry) RegisterAll(agents ...agent.Agent) error {
	for _, a := range agents {
		if err := r.Register(a); err != nil {
			return err
		}
	}
	return nil
}

// Resolve returns the agent that handles taskName.
func (r *Registry) Resolve(taskName string) (agent.Agent, bool) {
	owner, ok := r.routes[taskName]
	if !ok {
		return nil, false
	}
	return r.byName[owner], true
}

// Routes returns a copy of the routing table.
func (r *Registry) Routes() map[string]string {
	return maps.Clone(r.routes)
}

// ListAgents returns the registered agents in registration order.
func (r *Registry) ListAgents() []agent.Agent {
	return slices.Clone(r.agents)
}

// Describe returns name and task list for each agent in registration order.
func (r *Registry) Describe() []AgentInfo {
	out := make([]AgentInfo, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, AgentInfo{Name: a.Name(), Tasks: a.TaskNames()})
	}
	return out
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	return len(r.agents)
}

func uniqueTasks(agentName string, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, &RegistryError{
			Code:    CodeInvalidAgent,
			Message: fmt.Sprintf("agent %s handles no tasks", agentName),
			Details: map[string]string{"agent": agentName},
		}
	}
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			return nil, &RegistryError{
				Code:    CodeInvalidAgent,
				Message: fmt.Sprintf("agent %s declares an empty task name", agentName),
				Details: map[string]string{"agent": agentName},
			}
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out, nil
}
