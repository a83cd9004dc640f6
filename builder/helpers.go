// Package builder provides shortcuts for automata that are plain sequences
// of joint-space motions.
package builder

import (
	"fmt"
	"slices"

	"github.com/comalice/hybridx"
	"github.com/comalice/hybridx/control"
)

// JointSet returns an empty set and an interpolated joint controller named
// "joint". Register the controller as a goal of the behaviour owning the set.
func JointSet(period float64, opts ...control.Option) (*control.Set, *control.Interpolated) {
	return TaskSet(hybridx.CategoryJoint, period, opts...)
}

// TaskSet is JointSet for any category. The controller is named after it.
func TaskSet(category hybridx.Category, period float64, opts ...control.Option) (*control.Set, *control.Interpolated) {
	return control.NewSet(period, 0), control.NewInterpolated(string(category), category, period, opts...)
}

// HoldSet returns a set that holds the configuration measured on its first
// compute.
func HoldSet(period float64, opts ...control.Option) *control.Set {
	set := control.NewSet(period, 0)
	// cannot fail on an empty set
	_ = set.AddController(control.NewHold("hold", period, opts...))
	return set
}

// Option configures Chain.
type Option func(*chain)

type chain struct {
	names     []string
	gains     []control.Option
	milestone []hybridx.MilestoneOption
	behaviour []hybridx.BehaviourOption
}

// Names overrides the milestone names. The last one is always the goal.
func Names(names ...string) Option {
	return func(c *chain) { c.names = names }
}

// Gains sets the gains of every controller.
func Gains(kp, kv float64) Option {
	return func(c *chain) { c.gains = append(c.gains, control.WithGains(kp, kv)) }
}

// Milestones applies opts to every milestone.
func Milestones(opts ...hybridx.MilestoneOption) Option {
	return func(c *chain) { c.milestone = append(c.milestone, opts...) }
}

// Behaviours applies opts to every behaviour.
func Behaviours(opts ...hybridx.BehaviourOption) Option {
	return func(c *chain) { c.behaviour = append(c.behaviour, opts...) }
}

// Chain builds an automaton that visits targets in order with one joint
// behaviour per leg. Milestones are named start, m1, m2, ... and goal.
func Chain(name string, period float64, targets [][]float64, opts ...Option) (*hybridx.Automaton, error) {
	if len(targets) < 2 {
		return nil, fmt.Errorf("chain %q needs at least two targets, got %d", name, len(targets))
	}
	c := &chain{}
	for _, opt := range opts {
		opt(c)
	}
	names := slices.Clone(c.names)
	if names == nil {
		names = defaultNames(len(targets))
	}
	if len(names) != len(targets) {
		return nil, fmt.Errorf("chain %q has %d names for %d targets", name, len(names), len(targets))
	}
	names[len(names)-1] = hybridx.GoalMilestoneName

	b := hybridx.NewAutomatonBuilder(name, names[0])
	for i, target := range targets {
		b.Milestone(names[i], target, c.milestone...)
	}
	for i := 1; i < len(names); i++ {
		set, ctrl := JointSet(period, c.gains...)
		b.Behaviour(names[i-1], names[i], set, c.behaviour...).Goal(ctrl)
	}
	return b.Build()
}

func defaultNames(n int) []string {
	names := make([]string, n)
	names[0] = "start"
	for i := 1; i < n; i++ {
		names[i] = fmt.Sprintf("m%d", i)
	}
	return names
}
