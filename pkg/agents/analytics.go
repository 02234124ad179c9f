package agents

import (
	"context"

	"github.com/morezero/agent-orchestrator/pkg/agent"
)

const (
	// AnalyticsAgentName is the registry name of the analytics agent.
	AnalyticsAgentName = "analytics_agent"
	// TaskAnalyticsReport aggregates sales and support figures.
	TaskAnalyticsReport = "analytics_report"
)

// AnalyticsAgent aggregates figures from the sales and support agents it
// was constructed with. It reads their books directly rather than going
// through the registry.
type AnalyticsAgent struct {
	base
	sales   *SalesAgent
	support *SupportAgent
}

// NewAnalyticsAgent creates an analytics agent over the given agents.
func NewAnalyticsAgent(sales *SalesAgent, support *SupportAgent) *AnalyticsAgent {
	return &AnalyticsAgent{
		base: base{
			name:  AnalyticsAgentName,
			tasks: []string{TaskAnalyticsReport},
			meta: agent.Metadata{
				Description: "Tracks outreach and support metrics and generates reports",
				Version:     "1.0.0",
				Pricing:     agent.Pricing{Tier: "pro", Rate: 29},
			},
		},
		sales:   sales,
		support: support,
	}
}

// Handle implements agent.Agent.
func (a *AnalyticsAgent) Handle(_ context.Context, task agent.Task) (agent.Result, error) {
	if task.Name != TaskAnalyticsReport {
		return agent.Unsupported(a.name, task.Name), nil
	}
	leads := a.sales.Leads()
	contacted := 0
	for _, l := range leads {
		if l.Status == "contacted" {
			contacted++
		}
	}
	open := 0
	for _, t := range a.support.Tickets() {
		if t.Status == "open" {
			open++
		}
	}
	return agent.Success(map[string]any{
		"contacted_leads": contacted,
		"total_leads":     len(leads),
		"open_tickets":    open,
	}), nil
}
