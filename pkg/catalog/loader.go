package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/morezero/agent-orchestrator/pkg/agent"
	"github.com/morezero/agent-orchestrator/pkg/semver"
)

const logPrefix = "catalog:loader"

// EnvCatalogFile names the environment variable holding the catalog path.
const EnvCatalogFile = "ORCHESTRATOR_CATALOG_FILE"

// LoadCatalog loads the catalog from file paths or environment.
// It tries paths in order: first any paths passed in, then ORCHESTRATOR_CATALOG_FILE,
// then config/catalog.yaml and catalog.yaml. Unreadable or invalid files are
// skipped with a warning; when none load, the default catalog is returned.
func LoadCatalog(paths ...string) *Catalog {
	all := make([]string, 0, len(paths)+3)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv(EnvCatalogFile); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, "config/catalog.yaml", "catalog.yaml")

	for _, p := range all {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		cat, err := Parse(data)
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - Failed to load catalog file %s: %v", logPrefix, p, err))
			continue
		}
		slog.Info(fmt.Sprintf("%s - Loaded catalog from %s", logPrefix, p), "agents", len(cat.Agents))
		return MergeCatalogs(GetDefaultCatalog(), cat)
	}

	slog.Info(fmt.Sprintf("%s - Using default catalog", logPrefix))
	return GetDefaultCatalog()
}

// Parse decodes and validates a YAML catalog. Unknown fields are rejected.
func Parse(data []byte) (*Catalog, error) {
	var cat Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s - parse catalog: %w", logPrefix, err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// GetDefaultCatalog returns the built-in catalog. It carries no overrides,
// so listings show what each agent declares.
func GetDefaultCatalog() *Catalog {
	return &Catalog{
		Name:        "agent-orchestrator-marketplace",
		Version:     "1.0.0",
		Description: "Agents available through the task orchestrator",
		Agents:      map[string]agent.Metadata{},
	}
}

// MergeCatalogs merges an override catalog into a base catalog. Agent entries
// are overlaid field by field, so an override may set only pricing.
func MergeCatalogs(base, override *Catalog) *Catalog {
	merged := *base
	merged.Agents = maps.Clone(base.Agents)
	if merged.Agents == nil {
		merged.Agents = make(map[string]agent.Metadata)
	}
	if override == nil {
		return &merged
	}
	if override.Name != "" {
		merged.Name = override.Name
	}
	if override.Version != "" {
		merged.Version = override.Version
	}
	if override.Description != "" {
		merged.Description = override.Description
	}
	for name, m := range override.Agents {
		merged.Agents[name] = overlay(merged.Agents[name], m)
	}
	return &merged
}

// Listings projects agents, in the order given, to marketplace listings.
// Catalog entries override what each agent declares through agent.Describer.
func Listings(agents []agent.Agent, cat *Catalog) []Listing {
	out := make([]Listing, 0, len(agents))
	for _, a := range agents {
		var meta agent.Metadata
		if d, ok := a.(agent.Describer); ok {
			meta = d.Describe()
		}
		if entry, ok := cat.Lookup(a.Name()); ok {
			meta = overlay(meta, entry)
		}
		out = append(out, Listing{
			Name:        a.Name(),
			Description: meta.Description,
			Version:     meta.Version,
			Pricing:     meta.Pricing,
		})
	}
	return out
}

// FilterByVersion keeps listings whose version satisfies rangeStr.
// An empty range keeps everything; an invalid range is an error.
func FilterByVersion(listings []Listing, rangeStr string) ([]Listing, error) {
	m, err := semver.NewMatcher(rangeStr)
	if err != nil {
		return nil, err
	}
	out := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if m.Match(l.Version) {
			out = append(out, l)
		}
	}
	return out, nil
}

func overlay(base, over agent.Metadata) agent.Metadata {
	if over.Description != "" {
		base.Description = over.Description
	}
	if over.Version != "" {
		base.Version = over.Version
	}
	if over.Pricing.Tier != "" || over.Pricing.Rate != 0 {
		base.Pricing = over.Pricing
	}
	return base
}
