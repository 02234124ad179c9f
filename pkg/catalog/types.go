// Package catalog loads the marketplace catalog that describes registered agents.
package catalog

import (
	"fmt"
	"sort"

	"github.com/morezero/agent-orchestrator/pkg/agent"
	"github.com/morezero/agent-orchestrator/pkg/semver"
)

// Catalog is the root marketplace document. Agents maps agent name to the
// metadata that overrides what the agent declares about itself.
type Catalog struct {
	Name        string                    `yaml:"name" json:"name"`
	Version     string                    `yaml:"version" json:"version"`
	Description string                    `yaml:"description,omitempty" json:"description,omitempty"`
	Agents      map[string]agent.Metadata `yaml:"agents" json:"agents"`
}

// Listing is one marketplace entry.
type Listing struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Version     string        `json:"version"`
	Pricing     agent.Pricing `json:"pricing"`
}

// Validate checks catalog and per-agent versions.
func (c *Catalog) Validate() error {
	if c.Version != "" && !semver.ValidateVersion(c.Version) {
		return fmt.Errorf("%s - catalog version %q is not a semantic version", logPrefix, c.Version)
	}
	names := make([]string, 0, len(c.Agents))
	for name := range c.Agents {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m := c.Agents[name]
		if m.Version != "" && !semver.ValidateVersion(m.Version) {
			return fmt.Errorf("%s - agent %s version %q is not a semantic version", logPrefix, name, m.Version)
		}
		if m.Pricing.Rate < 0 {
			return fmt.Errorf("%s - agent %s has negative rate", logPrefix, name)
		}
	}
	return nil
}

// Lookup returns the catalog entry for an agent.
func (c *Catalog) Lookup(name string) (agent.Metadata, bool) {
	if c == nil {
		return agent.Metadata{}, false
	}
	m, ok := c.Agents[name]
	return m, ok
}

// UnknownAgents returns catalog entries that name no registered agent, sorted.
func (c *Catalog) UnknownAgents(registered []string) []string {
	known := make(map[string]bool, len(registered))
	for _, n := range registered {
		known[n] = true
	}
	var out []string
	for name := range c.Agents {
		if !known[name] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
