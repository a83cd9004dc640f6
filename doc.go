// Package hybridx models a robot motion task as a hybrid automaton.
//
// Nodes of the graph are milestones (target configurations with a
// convergence test) and edges are motion behaviours (a controller set that
// drives the robot from the parent milestone toward the child milestone).
// A DecisionCriterion picks the next behaviour to run; the realtime package
// drives the graph from a fixed-period control loop and hot-swaps whole
// automata without stopping it.
//
// # Example
//
//	b := hybridx.NewAutomatonBuilder("pick", "start")
//	b.Milestone("start", []float64{0, 0, 0})
//	b.Milestone("goal", []float64{1, 0, 0})
//	b.Behaviour("start", "goal", set, hybridx.WithMaxVelocity(0.2))
//	ha, err := b.Build()
//
// Control laws are not defined here. A ControllerSet is an opaque strategy
// that turns robot state into a command vector; see the control package for
// a reference implementation.
package hybridx
