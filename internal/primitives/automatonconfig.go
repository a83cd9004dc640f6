package primitives

import (
	"errors"
	"fmt"
)

// AutomatonConfig is the complete definition of an automaton.
type AutomatonConfig struct {
	Version    string             `json:"version,omitempty" yaml:"version,omitempty"`
	Name       string             `json:"name" yaml:"name"`
	Start      string             `json:"start" yaml:"start"`
	Period     float64            `json:"period,omitempty" yaml:"period,omitempty"` // seconds; 0 uses the compiler default
	Milestones []*MilestoneConfig `json:"milestones" yaml:"milestones"`
	Behaviours []*BehaviourConfig `json:"behaviours" yaml:"behaviours"`
}

// Validate validates the entire definition:
// - Non-empty name and start
// - Unique, individually valid milestones, start among them
// - Individually valid behaviours whose endpoints exist
// - No orphaned milestones (all reachable from start)
func (a *AutomatonConfig) Validate() error {
	if a.Name == "" {
		return errors.New("automaton name is required")
	}
	if a.Start == "" {
		return errors.New("start milestone is required")
	}
	if len(a.Milestones) == 0 {
		return errors.New("milestones are required and cannot be empty")
	}
	if a.Period < 0 {
		return fmt.Errorf("period must be non-negative, got %g", a.Period)
	}

	byName := make(map[string]*MilestoneConfig, len(a.Milestones))
	for i, m := range a.Milestones {
		if m == nil {
			return fmt.Errorf("milestone %d is nil", i)
		}
		if err := m.Validate(); err != nil {
			return fmt.Errorf("milestone %q validation failed: %w", m.Name, err)
		}
		if _, dup := byName[m.Name]; dup {
			return fmt.Errorf("duplicate milestone %q", m.Name)
		}
		byName[m.Name] = m
	}
	if _, ok := byName[a.Start]; !ok {
		return fmt.Errorf("start milestone %q not found in milestones", a.Start)
	}

	for i, b := range a.Behaviours {
		if b == nil {
			return fmt.Errorf("behaviour %d is nil", i)
		}
		if err := b.Validate(); err != nil {
			return fmt.Errorf("behaviour %d (%s->%s) validation failed: %w", i, b.Parent, b.Child, err)
		}
		if _, ok := byName[b.Parent]; !ok {
			return fmt.Errorf("behaviour %d: unknown parent milestone %q", i, b.Parent)
		}
		if _, ok := byName[b.Child]; !ok {
			return fmt.Errorf("behaviour %d: unknown child milestone %q", i, b.Child)
		}
	}

	visited := a.reachable()
	for _, m := range a.Milestones {
		if !visited[m.Name] {
			return fmt.Errorf("orphaned milestone %q (not reachable from start %q)", m.Name, a.Start)
		}
	}
	return nil
}

// reachable marks milestones reachable from start over behaviours.
func (a *AutomatonConfig) reachable() map[string]bool {
	out := make(map[string][]string)
	for _, b := range a.Behaviours {
		out[b.Parent] = append(out[b.Parent], b.Child)
	}
	visited := map[string]bool{a.Start: true}
	queue := []string{a.Start}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, next := range out[name] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return visited
}

// FindMilestone returns the milestone with the given name.
func (a *AutomatonConfig) FindMilestone(name string) (*MilestoneConfig, error) {
	for _, m := range a.Milestones {
		if m.Name == name {
			return m, nil
		}
	}
	return nil, fmt.Errorf("milestone %q not found", name)
}
