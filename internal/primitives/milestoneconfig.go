package primitives

import (
	"errors"
	"fmt"
)

// Milestone spaces.
const (
	ConfigurationSpace = "cspace"
	OperationalSpace   = "opspace"
)

// Milestone statuses.
const (
	StatusValid          = "valid"
	StatusInvalid        = "invalid"
	StatusTaskConsistent = "task_consistent"
)

// MilestoneConfig defines a milestone.
type MilestoneConfig struct {
	Name    string    `json:"name" yaml:"name"`
	Space   string    `json:"space,omitempty" yaml:"space,omitempty"` // cspace (default) or opspace
	Target  []float64 `json:"target" yaml:"target"`
	Epsilon []float64 `json:"epsilon,omitempty" yaml:"epsilon,omitempty"` // one value broadcasts
	Status  string    `json:"status,omitempty" yaml:"status,omitempty"`
}

// NewMilestoneConfig creates a configuration-space milestone.
func NewMilestoneConfig(name string, target ...float64) *MilestoneConfig {
	return &MilestoneConfig{Name: name, Target: target}
}

// WithEpsilon sets the convergence tolerance.
func (m *MilestoneConfig) WithEpsilon(eps ...float64) *MilestoneConfig {
	m.Epsilon = eps
	return m
}

// WithSpace sets the milestone space.
func (m *MilestoneConfig) WithSpace(space string) *MilestoneConfig {
	m.Space = space
	return m
}

// Validate checks the milestone fields.
func (m *MilestoneConfig) Validate() error {
	if m.Name == "" {
		return errors.New("milestone name is required")
	}
	if len(m.Target) == 0 {
		return errors.New("target is required")
	}
	switch m.Space {
	case "", ConfigurationSpace:
	case OperationalSpace:
		if len(m.Target) != 3 && len(m.Target) != 6 {
			return fmt.Errorf("opspace target needs 3 or 6 values, got %d", len(m.Target))
		}
	default:
		return fmt.Errorf("invalid space %q", m.Space)
	}
	if len(m.Epsilon) > 1 && len(m.Epsilon) != len(m.Target) {
		return fmt.Errorf("epsilon has %d values for a %d-dimensional target", len(m.Epsilon), len(m.Target))
	}
	for i, e := range m.Epsilon {
		if e <= 0 {
			return fmt.Errorf("epsilon %d must be positive, got %g", i, e)
		}
	}
	switch m.Status {
	case "", StatusValid, StatusInvalid, StatusTaskConsistent:
	default:
		return fmt.Errorf("invalid status %q", m.Status)
	}
	return nil
}
