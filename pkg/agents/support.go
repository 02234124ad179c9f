package agents

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/morezero/agent-orchestrator/pkg/agent"
	"github.com/morezero/agent-orchestrator/pkg/synth"
)

const (
	// SupportAgentName is the registry name of the support agent.
	SupportAgentName = "support_agent"
	// TaskSupportSummary summarises open tickets.
	TaskSupportSummary = "support_summary"

	ticketBookSize = 5
)

// Suggestion is a canned response for one ticket.
type Suggestion struct {
	ID       int    `json:"id"`
	Response string `json:"response"`
}

// SupportAgent summarises support tickets and suggests responses.
type SupportAgent struct {
	base

	mu      sync.Mutex
	tickets []synth.Ticket
}

// NewSupportAgent creates a support agent with a fresh ticket book.
func NewSupportAgent(gen *synth.Generator) *SupportAgent {
	return &SupportAgent{
		base: base{
			name:  SupportAgentName,
			tasks: []string{TaskSupportSummary},
			meta: agent.Metadata{
				Description: "Summarises support tickets and drafts responses",
				Version:     "1.0.0",
				Pricing:     agent.Pricing{Tier: "starter", Rate: 19},
			},
		},
		tickets: gen.Tickets(ticketBookSize),
	}
}

// Handle implements agent.Agent.
func (a *SupportAgent) Handle(_ context.Context, task agent.Task) (agent.Result, error) {
	if task.Name != TaskSupportSummary {
		return agent.Unsupported(a.name, task.Name), nil
	}
	tickets := a.Tickets()

	summary := make(map[string]int)
	suggestions := make([]Suggestion, 0, len(tickets))
	for _, t := range tickets {
		summary[t.Category]++
		if t.Status != "open" {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			ID:       t.ID,
			Response: fmt.Sprintf("Hello, regarding your issue '%s', our team is investigating.", t.Issue),
		})
	}
	return agent.Success(map[string]any{"summary": summary, "suggestions": suggestions}), nil
}

// Tickets returns a snapshot of the ticket book.
func (a *SupportAgent) Tickets() []synth.Ticket {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.tickets)
}
