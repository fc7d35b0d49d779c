package scenario

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"vanet-sim/internal/config"
	"vanet-sim/internal/detect"
)

// Scenario is a named preset laid over the simulation configuration.
// Nil sections leave the configuration untouched.
type Scenario struct {
	Name           string                `yaml:"name,omitempty"`
	Description    string                `yaml:"description,omitempty"`
	Region         *config.Region        `yaml:"region,omitempty"`
	Maritime       *config.Maritime      `yaml:"maritime,omitempty"`
	Vehicles       *config.Population    `yaml:"vehicles,omitempty"`
	Vessels        *config.Population    `yaml:"vessels,omitempty"`
	Thresholds     *config.Thresholds    `yaml:"thresholds,omitempty"`
	CollisionIndex detect.CollisionIndex `yaml:"collision_index,omitempty"`
	HazardZones    []config.Zone         `yaml:"hazard_zones,omitempty"`
}

// Load reads a YAML scenario definition from disk.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return &s, nil
}

// Lookup resolves a built-in preset by name, falling back to a YAML file
// at that path.
func Lookup(nameOrPath string) (*Scenario, error) {
	if s, ok := BuiltIn()[nameOrPath]; ok {
		return &s, nil
	}
	if _, err := os.Stat(nameOrPath); err != nil {
		return nil, fmt.Errorf("unknown scenario %q (built-in: %v)", nameOrPath, Names())
	}
	return Load(nameOrPath)
}

// Names lists the built-in presets in sorted order.
func Names() []string {
	var out []string
	for n := range BuiltIn() {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Apply lays s over cfg and re-validates the result. Hazard zones from the
// scenario are appended to those already configured.
func (s *Scenario) Apply(cfg *config.SimulationConfig) error {
	if s.Region != nil {
		cfg.Region = *s.Region
	}
	if s.Maritime != nil {
		cfg.Maritime = *s.Maritime
	}
	if s.Vehicles != nil {
		cfg.Vehicles = *s.Vehicles
	}
	if s.Vessels != nil {
		cfg.Vessels = *s.Vessels
	}
	if s.Thresholds != nil {
		cfg.Thresholds = *s.Thresholds
	}
	if s.CollisionIndex != "" {
		cfg.CollisionIndex = s.CollisionIndex
	}
	cfg.HazardZones = append(cfg.HazardZones, s.HazardZones...)
	if s.Name != "" {
		cfg.Scenario = s.Name
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	return nil
}
