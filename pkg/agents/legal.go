package agents

import (
	"context"

	"github.com/morezero/agent-orchestrator/pkg/agent"
	"github.com/morezero/agent-orchestrator/pkg/synth"
)

const (
	// LegalAgentName is the registry name of the legal agent.
	LegalAgentName = "legal_agent"
	// TaskLegalSearch lists lawyers.
	TaskLegalSearch = "legal_search"
	// TaskLegalAppointment books a consultation with a lawyer.
	TaskLegalAppointment = "legal_appointment"

	defaultLegalApptDate = "2025-09-20"
)

// LegalAgent searches lawyers and books consultations.
type LegalAgent struct {
	base
	gen *synth.Generator
}

// NewLegalAgent creates a legal agent.
func NewLegalAgent(gen *synth.Generator) *LegalAgent {
	return &LegalAgent{
		base: base{
			name:  LegalAgentName,
			tasks: []string{TaskLegalSearch, TaskLegalAppointment},
			meta: agent.Metadata{
				Description: "Finds lawyers and books legal consultations",
				Version:     "1.0.0",
				Pricing:     agent.Pricing{Tier: "starter", Rate: 15},
			},
		},
		gen: gen,
	}
}

// Handle implements agent.Agent.
func (a *LegalAgent) Handle(_ context.Context, task agent.Task) (agent.Result, error) {
	p := agent.Payload(task.Payload)
	switch task.Name {
	case TaskLegalSearch:
		return agent.Success(map[string]any{"lawyers": a.gen.Lawyers(practitionerCount)}), nil
	case TaskLegalAppointment:
		id, err := p.Int("lawyer_id", defaultPractitionerID)
		if err != nil {
			return agent.Result{}, err
		}
		date, err := p.Date("date", defaultLegalApptDate)
		if err != nil {
			return agent.Result{}, err
		}
		return agent.Success(map[string]any{
			"appointment": map[string]any{"lawyer_id": id, "date": date},
		}), nil
	default:
		return agent.Unsupported(a.name, task.Name), nil
	}
}
