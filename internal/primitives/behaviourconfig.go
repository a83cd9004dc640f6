package primitives

import (
	"errors"
	"fmt"
)

// Controller categories accepted for goal controllers.
const (
	CategoryJoint        = "joint"
	CategoryDisplacement = "displacement"
	CategoryOrientation  = "orientation"
	CategoryTransform    = "transform"
)

// BehaviourConfig defines an edge and the controller set it owns.
type BehaviourConfig struct {
	Parent        string           `json:"parent" yaml:"parent"`
	Child         string           `json:"child" yaml:"child"`
	Weight        float64          `json:"weight,omitempty" yaml:"weight,omitempty"`
	MaxVelocity   float64          `json:"max_velocity,omitempty" yaml:"max_velocity,omitempty"`
	MinTime       float64          `json:"min_time,omitempty" yaml:"min_time,omitempty"`
	UpdateAllowed bool             `json:"update_allowed,omitempty" yaml:"update_allowed,omitempty"`
	ControlSet    ControlSetConfig `json:"control_set" yaml:"control_set"`
	Switch        *SwitchConfig    `json:"switch,omitempty" yaml:"switch,omitempty"`
}

// NewBehaviourConfig creates an edge definition from parent to child.
func NewBehaviourConfig(parent, child string, controllers ...ControllerConfig) *BehaviourConfig {
	return &BehaviourConfig{
		Parent:     parent,
		Child:      child,
		ControlSet: ControlSetConfig{Controllers: controllers},
	}
}

// Validate checks the behaviour fields and its controller set.
func (b *BehaviourConfig) Validate() error {
	if b.Parent == "" {
		return errors.New("parent is required")
	}
	if b.Child == "" {
		return errors.New("child is required")
	}
	if b.MaxVelocity < 0 {
		return fmt.Errorf("max_velocity must be non-negative, got %g", b.MaxVelocity)
	}
	if b.MinTime < 0 {
		return fmt.Errorf("min_time must be non-negative, got %g", b.MinTime)
	}
	if err := b.ControlSet.Validate(); err != nil {
		return fmt.Errorf("control set: %w", err)
	}
	if b.Switch != nil {
		if err := b.Switch.Validate(); err != nil {
			return fmt.Errorf("switch: %w", err)
		}
	}
	return nil
}

// ControlSetConfig defines a controller set. Type selects the registered
// set factory ("sum" when empty).
type ControlSetConfig struct {
	Type        string             `json:"type,omitempty" yaml:"type,omitempty"`
	Dim         int                `json:"dim,omitempty" yaml:"dim,omitempty"`
	Controllers []ControllerConfig `json:"controllers" yaml:"controllers"`
}

// Validate checks the set and every controller; names must be unique.
func (c *ControlSetConfig) Validate() error {
	if c.Dim < 0 {
		return fmt.Errorf("dim must be non-negative, got %d", c.Dim)
	}
	seen := make(map[string]bool, len(c.Controllers))
	for i := range c.Controllers {
		ctrl := &c.Controllers[i]
		if err := ctrl.Validate(); err != nil {
			return fmt.Errorf("controller %d (%s): %w", i, ctrl.Name, err)
		}
		if seen[ctrl.Name] {
			return fmt.Errorf("duplicate controller %q", ctrl.Name)
		}
		seen[ctrl.Name] = true
	}
	return nil
}

// ControllerConfig defines one controller. Type selects the registered
// controller factory; Params carries factory-specific settings.
type ControllerConfig struct {
	Name     string         `json:"name" yaml:"name"`
	Type     string         `json:"type" yaml:"type"`
	Category string         `json:"category,omitempty" yaml:"category,omitempty"`
	Goal     bool           `json:"goal,omitempty" yaml:"goal,omitempty"`
	Kp       float64        `json:"kp,omitempty" yaml:"kp,omitempty"`
	Kv       float64        `json:"kv,omitempty" yaml:"kv,omitempty"`
	Offset   int            `json:"offset,omitempty" yaml:"offset,omitempty"`
	Priority int            `json:"priority,omitempty" yaml:"priority,omitempty"`
	Params   map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Validate checks the controller fields.
func (c *ControllerConfig) Validate() error {
	if c.Name == "" {
		return errors.New("controller name is required")
	}
	if c.Type == "" {
		return errors.New("controller type is required")
	}
	switch c.Category {
	case "":
		if c.Goal {
			return errors.New("goal controller requires a category")
		}
	case CategoryJoint, CategoryDisplacement, CategoryOrientation, CategoryTransform:
	default:
		return fmt.Errorf("invalid category %q", c.Category)
	}
	if c.Kp < 0 || c.Kv < 0 {
		return fmt.Errorf("gains must be non-negative, got kp=%g kv=%g", c.Kp, c.Kv)
	}
	if c.Offset < 0 {
		return fmt.Errorf("offset must be non-negative, got %d", c.Offset)
	}
	return nil
}
