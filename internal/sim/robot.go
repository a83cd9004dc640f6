// Package sim provides a simulated robot for running automata without
// hardware.
package sim

import (
	"fmt"
	"slices"
	"sync"

	"github.com/comalice/hybridx"
)

// Robot is a point mass per degree of freedom driven by force commands and
// integrated with semi-implicit Euler once per applied command. The first
// three coordinates are the end-effector position and, when present, the
// next three are its roll, pitch and yaw.
type Robot struct {
	mu      sync.Mutex
	dt      float64
	mass    float64
	damping float64
	limit   float64
	q, qdot []float64
	last    []float64
	applied uint64
}

// Option configures a Robot.
type Option func(*Robot)

// WithMass sets the mass of every coordinate (default: 1).
func WithMass(m float64) Option {
	return func(r *Robot) { r.mass = m }
}

// WithDamping adds viscous damping.
func WithDamping(d float64) Option {
	return func(r *Robot) { r.damping = d }
}

// WithCommandLimit rejects commands whose magnitude exceeds limit in any
// coordinate. Zero disables the check.
func WithCommandLimit(limit float64) Option {
	return func(r *Robot) { r.limit = limit }
}

// WithInitial sets the initial configuration.
func WithInitial(q ...float64) Option {
	return func(r *Robot) { copy(r.q, q) }
}

// NewRobot creates a robot with dof coordinates, at rest at the origin,
// advancing dt seconds per command.
func NewRobot(dof int, dt float64, opts ...Option) *Robot {
	r := &Robot{
		dt:   dt,
		mass: 1,
		q:    make([]float64, dof),
		qdot: make([]float64, dof),
		last: make([]float64, dof),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Robot) Configuration() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.q)
}

func (r *Robot) Velocity() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.qdot)
}

// ApplyCommand integrates one period under cmd. A short command leaves the
// remaining coordinates unforced; a long or out-of-limit one is rejected
// and the robot coasts.
func (r *Robot) ApplyCommand(cmd []float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if len(cmd) > len(r.q) {
		err = fmt.Errorf("command has %d values, robot has %d: %w", len(cmd), len(r.q), hybridx.ErrDimensionMismatch)
	} else if r.limit > 0 {
		for i, u := range cmd {
			if u > r.limit || u < -r.limit {
				err = fmt.Errorf("command %d is %g, limit %g", i, u, r.limit)
				break
			}
		}
	}
	clear(r.last)
	if err == nil {
		copy(r.last, cmd)
	}
	for i := range r.q {
		acc := (r.last[i] - r.damping*r.qdot[i]) / r.mass
		r.qdot[i] += acc * r.dt
		r.q[i] += r.qdot[i] * r.dt
	}
	r.applied++
	return err
}

// EndEffectorPose implements hybridx.PoseSensor.
func (r *Robot) EndEffectorPose() hybridx.Pose {
	r.mu.Lock()
	defer r.mu.Unlock()
	var p hybridx.Pose
	copy(p.Position[:], r.q)
	var rpy [3]float64
	if len(r.q) > 3 {
		copy(rpy[:], r.q[3:])
	}
	p.Orientation = hybridx.QuaternionFromRPY(rpy[0], rpy[1], rpy[2])
	return p
}

// LastCommand returns the command integrated by the last ApplyCommand.
func (r *Robot) LastCommand() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.last)
}

// Commands returns the number of commands applied.
func (r *Robot) Commands() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applied
}

// Reset moves the robot to q at rest.
func (r *Robot) Reset(q ...float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.q)
	copy(r.q, q)
	clear(r.qdot)
	clear(r.last)
}
