package hybridx

import (
	"errors"
	"fmt"
)

// AutomatonBuilder provides a fluent API for constructing automata by
// milestone name. Behaviours may reference milestones declared later; all
// errors are reported by Build.
type AutomatonBuilder struct {
	name       string
	start      string
	milestones []*Milestone
	behaviours []*BehaviourBuilder
	errs       []error
}

// BehaviourBuilder configures one edge of an AutomatonBuilder.
type BehaviourBuilder struct {
	parent, child string
	set           ControllerSet
	opts          []BehaviourOption
	entries       []ControllerEntry
}

// NewAutomatonBuilder creates a builder for an automaton starting at start.
func NewAutomatonBuilder(name, start string) *AutomatonBuilder {
	return &AutomatonBuilder{name: name, start: start}
}

// Milestone declares a milestone.
func (b *AutomatonBuilder) Milestone(name string, target []float64, opts ...MilestoneOption) *AutomatonBuilder {
	b.milestones = append(b.milestones, NewMilestone(name, target, opts...))
	return b
}

// Behaviour declares an edge from parent to child owning set.
func (b *AutomatonBuilder) Behaviour(parent, child string, set ControllerSet, opts ...BehaviourOption) *BehaviourBuilder {
	bb := &BehaviourBuilder{parent: parent, child: child, set: set, opts: opts}
	b.behaviours = append(b.behaviours, bb)
	return bb
}

// Goal adds goal controllers to the edge.
func (bb *BehaviourBuilder) Goal(cs ...Controller) *BehaviourBuilder {
	for _, c := range cs {
		bb.entries = append(bb.entries, ControllerEntry{Controller: c, Goal: true})
	}
	return bb
}

// Controller adds controllers that receive no goals.
func (bb *BehaviourBuilder) Controller(cs ...Controller) *BehaviourBuilder {
	for _, c := range cs {
		bb.entries = append(bb.entries, ControllerEntry{Controller: c})
	}
	return bb
}

// With appends behaviour options.
func (bb *BehaviourBuilder) With(opts ...BehaviourOption) *BehaviourBuilder {
	bb.opts = append(bb.opts, opts...)
	return bb
}

// Build validates the configuration and constructs the Automaton.
func (b *AutomatonBuilder) Build() (*Automaton, error) {
	a := NewAutomaton(b.name)
	errs := append([]error(nil), b.errs...)
	for _, m := range b.milestones {
		if err := a.AddMilestone(m); err != nil {
			errs = append(errs, err)
		}
	}
	for _, bb := range b.behaviours {
		if err := b.buildBehaviour(a, bb); err != nil {
			errs = append(errs, fmt.Errorf("behaviour %s->%s: %w", bb.parent, bb.child, err))
		}
	}
	if err := a.SetStart(b.start); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		if err := a.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return a, nil
}

func (b *AutomatonBuilder) buildBehaviour(a *Automaton, bb *BehaviourBuilder) error {
	parent, ok := a.Milestone(bb.parent)
	if !ok {
		return fmt.Errorf("parent %q: %w", bb.parent, ErrUnknownMilestone)
	}
	child, ok := a.Milestone(bb.child)
	if !ok {
		return fmt.Errorf("child %q: %w", bb.child, ErrUnknownMilestone)
	}
	mb, err := NewMotionBehaviour(parent, child, bb.set, bb.opts...)
	if err != nil {
		return err
	}
	if len(bb.entries) > 0 {
		if err := mb.AddControllers(bb.entries...); err != nil {
			return err
		}
	}
	return a.AddBehaviour(mb)
}
