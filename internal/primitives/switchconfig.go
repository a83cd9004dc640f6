package primitives

import (
	"errors"
	"fmt"
)

// Condition types.
const (
	ConditionClock         = "clock"
	ConditionSensor        = "sensor"
	ConditionConfiguration = "configuration"
	ConditionExpr          = "expr"
)

// SwitchConfig defines the control switch of an edge.
type SwitchConfig struct {
	Policy     string            `json:"policy,omitempty" yaml:"policy,omitempty"` // all (default) or any
	Conditions []ConditionConfig `json:"conditions" yaml:"conditions"`
}

// Validate checks the policy and every condition.
func (s *SwitchConfig) Validate() error {
	switch s.Policy {
	case "", "all", "any":
	default:
		return fmt.Errorf("invalid policy %q", s.Policy)
	}
	for i := range s.Conditions {
		if err := s.Conditions[i].Validate(); err != nil {
			return fmt.Errorf("condition %d (%s): %w", i, s.Conditions[i].Type, err)
		}
	}
	return nil
}

// ConditionConfig defines a jump condition. Which fields apply depends on
// Type.
type ConditionConfig struct {
	Type string `json:"type" yaml:"type"`

	// clock
	After    float64 `json:"after,omitempty" yaml:"after,omitempty"`
	Absolute bool    `json:"absolute,omitempty" yaml:"absolute,omitempty"`

	// sensor
	Key   string  `json:"key,omitempty" yaml:"key,omitempty"`
	Op    string  `json:"op,omitempty" yaml:"op,omitempty"`
	Value float64 `json:"value,omitempty" yaml:"value,omitempty"`
	Latch bool    `json:"latch,omitempty" yaml:"latch,omitempty"`

	// configuration
	Target  []float64 `json:"target,omitempty" yaml:"target,omitempty"`
	Epsilon float64   `json:"epsilon,omitempty" yaml:"epsilon,omitempty"`

	// expr
	Expr string `json:"expr,omitempty" yaml:"expr,omitempty"`
}

// Validate checks the fields required by Type. Unknown types are accepted
// here and resolved against the registry at compile time.
func (c *ConditionConfig) Validate() error {
	switch c.Type {
	case "":
		return errors.New("condition type is required")
	case ConditionClock:
		if c.After < 0 {
			return fmt.Errorf("after must be non-negative, got %g", c.After)
		}
	case ConditionSensor:
		if c.Key == "" {
			return errors.New("sensor condition requires key")
		}
		switch c.Op {
		case ">", ">=", "<", "<=", "==", "!=":
		default:
			return fmt.Errorf("invalid operator %q", c.Op)
		}
	case ConditionConfiguration:
		if len(c.Target) == 0 {
			return errors.New("configuration condition requires target")
		}
		if c.Epsilon <= 0 {
			return fmt.Errorf("epsilon must be positive, got %g", c.Epsilon)
		}
	case ConditionExpr:
		if c.Expr == "" {
			return errors.New("expr condition requires expr")
		}
	}
	return nil
}
