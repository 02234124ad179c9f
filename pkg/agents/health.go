package agents

import (
	"context"

	"github.com/morezero/agent-orchestrator/pkg/agent"
	"github.com/morezero/agent-orchestrator/pkg/synth"
)

const (
	// HealthAgentName is the registry name of the health agent.
	HealthAgentName = "health_agent"
	// TaskHealthSearch lists doctors.
	TaskHealthSearch = "health_search"
	// TaskHealthAppointment books a doctor appointment.
	TaskHealthAppointment = "health_appointment"

	practitionerCount     = 5
	defaultPractitionerID = 1
	defaultHealthApptDate = "2025-09-15"
)

// HealthAgent searches doctors and books appointments.
type HealthAgent struct {
	base
	gen *synth.Generator
}

// NewHealthAgent creates a health agent.
func NewHealthAgent(gen *synth.Generator) *HealthAgent {
	return &HealthAgent{
		base: base{
			name:  HealthAgentName,
			tasks: []string{TaskHealthSearch, TaskHealthAppointment},
			meta: agent.Metadata{
				Description: "Finds doctors and books health appointments",
				Version:     "1.0.0",
				Pricing:     agent.Pricing{Tier: "starter", Rate: 9},
			},
		},
		gen: gen,
	}
}

// Handle implements agent.Agent.
func (a *HealthAgent) Handle(_ context.Context, task agent.Task) (agent.Result, error) {
	p := agent.Payload(task.Payload)
	switch task.Name {
	case TaskHealthSearch:
		return agent.Success(map[string]any{"doctors": a.gen.Doctors(practitionerCount)}), nil
	case TaskHealthAppointment:
		id, err := p.Int("doctor_id", defaultPractitionerID)
		if err != nil {
			return agent.Result{}, err
		}
		date, err := p.Date("date", defaultHealthApptDate)
		if err != nil {
			return agent.Result{}, err
		}
		return agent.Success(map[string]any{
			"appointment": map[string]any{"doctor_id": id, "date": date},
		}), nil
	default:
		return agent.Unsupported(a.name, task.Name), nil
	}
}
