// Package agents contains the built-in agent variants served by the orchestrator.
package agents

import (
	"slices"

	"github.com/morezero/agent-orchestrator/pkg/agent"
	"github.com/morezero/agent-orchestrator/pkg/synth"
)

// base carries the identity shared by every built-in agent.
type base struct {
	name  string
	tasks []string
	meta  agent.Metadata
}

// Name implements agent.Agent.
func (b *base) Name() string { return b.name }

// TaskNames implements agent.Agent.
func (b *base) TaskNames() []string { return slices.Clone(b.tasks) }

// Describe implements agent.Describer.
func (b *base) Describe() agent.Metadata { return b.meta }

// Defaults builds the built-in agent set in registration order, drawing
// synthetic data from gen.
func Defaults(gen *synth.Generator) []agent.Agent {
	sales := NewSalesAgent(gen)
	support := NewSupportAgent(gen)
	return []agent.Agent{
		sales,
		support,
		NewAnalyticsAgent(sales, support),
		NewJobsAgent(gen),
		NewHealthAgent(gen),
		NewLegalAgent(gen),
	}
}
