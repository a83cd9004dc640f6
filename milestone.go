package hybridx

import (
	"fmt"
	"math"
	"slices"
)

// GoalMilestoneName is the reserved name of the terminal milestone. Reaching
// it pauses the scheduler.
const GoalMilestoneName = "goal"

// DefaultEpsilon is the per-dimension convergence tolerance used when a
// milestone is created without one.
const DefaultEpsilon = 0.1

// MilestoneStatus is bookkeeping attached to a milestone; it has no effect on
// control.
type MilestoneStatus int

const (
	StatusValid MilestoneStatus = iota
	StatusInvalid
	StatusTaskConsistent
)

func (s MilestoneStatus) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusInvalid:
		return "invalid"
	case StatusTaskConsistent:
		return "task_consistent"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Space selects what a milestone's target is compared against.
type Space string

const (
	// ConfigurationSpace targets are joint configurations.
	ConfigurationSpace Space = "cspace"
	// OperationalSpace targets are end-effector positions, optionally
	// followed by roll, pitch and yaw.
	OperationalSpace Space = "opspace"
)

// Milestone is a graph vertex: a target configuration and a convergence test.
// The target is fixed at construction.
type Milestone struct {
	id      int
	owner   *Automaton
	name    string
	space   Space
	target  []float64
	epsilon []float64
	status  MilestoneStatus
}

// MilestoneOption configures a Milestone at construction.
type MilestoneOption func(*Milestone)

// WithEpsilon sets the convergence tolerance. A single value applies to every
// dimension.
func WithEpsilon(eps ...float64) MilestoneOption {
	return func(m *Milestone) { m.epsilon = slices.Clone(eps) }
}

// WithSpace sets the milestone space (default ConfigurationSpace).
func WithSpace(s Space) MilestoneOption {
	return func(m *Milestone) { m.space = s }
}

// WithStatus sets the initial status.
func WithStatus(s MilestoneStatus) MilestoneOption {
	return func(m *Milestone) { m.status = s }
}

// NewMilestone creates a milestone. target is copied.
func NewMilestone(name string, target []float64, opts ...MilestoneOption) *Milestone {
	m := &Milestone{
		name:    name,
		space:   ConfigurationSpace,
		target:  slices.Clone(target),
		epsilon: []float64{DefaultEpsilon},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Milestone) ID() int      { return m.id }
func (m *Milestone) Name() string { return m.name }
func (m *Milestone) Space() Space { return m.space }
func (m *Milestone) Dim() int     { return len(m.target) }

// Automaton returns the automaton m belongs to, nil if none.
func (m *Milestone) Automaton() *Automaton { return m.owner }

// IsGoal reports whether m is the terminal milestone.
func (m *Milestone) IsGoal() bool { return m.name == GoalMilestoneName }

// Configuration returns a copy of the target.
func (m *Milestone) Configuration() []float64 { return slices.Clone(m.target) }

// Epsilon returns a copy of the tolerance as configured.
func (m *Milestone) Epsilon() []float64 { return slices.Clone(m.epsilon) }

func (m *Milestone) Status() MilestoneStatus     { return m.status }
func (m *Milestone) SetStatus(s MilestoneStatus) { m.status = s }

func (m *Milestone) String() string {
	return fmt.Sprintf("%s%v", m.name, m.target)
}

// HasConverged reports whether the robot reached the target. It is false
// while p.Elapsed < p.TimeToConverge, whatever the error, so a motion is never
// declared finished at its very start.
func (m *Milestone) HasConverged(s State, p Progress) bool {
	if len(m.target) == 0 || p.Elapsed < p.TimeToConverge {
		return false
	}
	errs, ok := m.errors(s)
	if !ok {
		return false
	}
	for i, e := range errs {
		if e > m.tolerance(i) {
			return false
		}
	}
	return true
}

// Error returns the absolute per-dimension error between s and the target.
func (m *Milestone) Error(s State) ([]float64, error) {
	errs, ok := m.errors(s)
	if !ok {
		return nil, fmt.Errorf("milestone %q: %w", m.name, ErrDimensionMismatch)
	}
	return errs, nil
}

func (m *Milestone) errors(s State) ([]float64, bool) {
	switch m.space {
	case OperationalSpace:
		return m.opSpaceErrors(s)
	default:
		if len(s.Configuration) != len(m.target) {
			return nil, false
		}
		errs := make([]float64, len(m.target))
		for i, v := range m.target {
			errs[i] = math.Abs(s.Configuration[i] - v)
		}
		return errs, true
	}
}

func (m *Milestone) opSpaceErrors(s State) ([]float64, bool) {
	if len(m.target) != 3 && len(m.target) != 6 {
		return nil, false
	}
	errs := make([]float64, len(m.target))
	pos := s.Position()
	for i := 0; i < 3; i++ {
		errs[i] = math.Abs(pos[i] - m.target[i])
	}
	if len(m.target) == 6 {
		r, p, y := RPY(s.Orientation())
		for i, v := range [3]float64{r, p, y} {
			errs[3+i] = math.Abs(wrapAngle(v - m.target[3+i]))
		}
	}
	return errs, true
}

func (m *Milestone) tolerance(i int) float64 {
	switch {
	case len(m.epsilon) == 0:
		return DefaultEpsilon
	case i < len(m.epsilon):
		return m.epsilon[i]
	default:
		return m.epsilon[len(m.epsilon)-1]
	}
}
