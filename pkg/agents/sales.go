package agents

import (
	"context"
	"slices"
	"sync"

	"github.com/morezero/agent-orchestrator/pkg/agent"
	"github.com/morezero/agent-orchestrator/pkg/synth"
)

const (
	// SalesAgentName is the registry name of the sales agent.
	SalesAgentName = "sales_agent"
	// TaskSalesOutreach contacts the highest scoring leads.
	TaskSalesOutreach = "sales_outreach"

	leadBookSize         = 10
	defaultOutreachCount = 3
)

// SalesAgent prioritises leads by score and marks the top ones contacted.
type SalesAgent struct {
	base

	mu    sync.Mutex
	leads []synth.Lead
}

// NewSalesAgent creates a sales agent with a fresh lead book.
func NewSalesAgent(gen *synth.Generator) *SalesAgent {
	return &SalesAgent{
		base: base{
			name:  SalesAgentName,
			tasks: []string{TaskSalesOutreach},
			meta: agent.Metadata{
				Description: "Prioritises leads by score and sends tailored outreach",
				Version:     "1.0.0",
				Pricing:     agent.Pricing{Tier: "pro", Rate: 49},
			},
		},
		leads: gen.Leads(leadBookSize),
	}
}

// Handle implements agent.Agent.
func (a *SalesAgent) Handle(_ context.Context, task agent.Task) (agent.Result, error) {
	if task.Name != TaskSalesOutreach {
		return agent.Unsupported(a.name, task.Name), nil
	}
	count, err := agent.Payload(task.Payload).Count("count", defaultOutreachCount)
	if err != nil {
		return agent.Result{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	order := make([]int, len(a.leads))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(x, y int) int {
		return a.leads[y].Score - a.leads[x].Score
	})
	if count > len(order) {
		count = len(order)
	}

	contacted := make([]synth.Lead, 0, count)
	for _, idx := range order[:count] {
		a.leads[idx].Status = "contacted"
		contacted = append(contacted, a.leads[idx])
	}
	return agent.Success(map[string]any{"contacted_leads": contacted}), nil
}

// Leads returns a snapshot of the lead book.
func (a *SalesAgent) Leads() []synth.Lead {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.leads)
}
