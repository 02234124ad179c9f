package agents

import (
	"context"

	"github.com/morezero/agent-orchestrator/pkg/agent"
	"github.com/morezero/agent-orchestrator/pkg/synth"
)

const (
	// JobsAgentName is the registry name of the jobs agent.
	JobsAgentName = "jobs_agent"
	// TaskJobSearch returns job listings.
	TaskJobSearch = "job_search"

	defaultJobCount = 3
	maxJobCount     = 100
)

// JobsAgent returns synthetic job listings.
type JobsAgent struct {
	base
	gen *synth.Generator
}

// NewJobsAgent creates a jobs agent.
func NewJobsAgent(gen *synth.Generator) *JobsAgent {
	return &JobsAgent{
		base: base{
			name:  JobsAgentName,
			tasks: []string{TaskJobSearch},
			meta: agent.Metadata{
				Description: "Searches job listings matching a candidate profile",
				Version:     "1.0.0",
				Pricing:     agent.Pricing{Tier: "free", Rate: 0},
			},
		},
		gen: gen,
	}
}

// Handle implements agent.Agent.
func (a *JobsAgent) Handle(_ context.Context, task agent.Task) (agent.Result, error) {
	if task.Name != TaskJobSearch {
		return agent.Unsupported(a.name, task.Name), nil
	}
	count, err := agent.Payload(task.Payload).Count("count", defaultJobCount)
	if err != nil {
		return agent.Result{}, err
	}
	if count > maxJobCount {
		return agent.Result{}, &agent.ValidationError{Field: "count", Message: "must not exceed 100"}
	}
	return agent.Success(map[string]any{"jobs": a.gen.Jobs(count)}), nil
}
