package hybridx

import (
	"fmt"
	"reflect"
	"slices"
)

// Automaton is the motion graph: milestones connected by motion behaviours.
// It is built off the control goroutine and handed to the scheduler whole;
// after submission it must not be mutated by anyone but the scheduler.
type Automaton struct {
	name    string
	version string

	milestones []*Milestone
	byName     map[string]*Milestone
	behaviours []*MotionBehaviour
	outgoing   map[*Milestone][]*MotionBehaviour
	sets       map[ControllerSet]*MotionBehaviour
	start      *Milestone
}

// NewAutomaton returns an empty automaton.
func NewAutomaton(name string) *Automaton {
	return &Automaton{
		name:     name,
		byName:   make(map[string]*Milestone),
		outgoing: make(map[*Milestone][]*MotionBehaviour),
		sets:     make(map[ControllerSet]*MotionBehaviour),
	}
}

func (a *Automaton) Name() string { return a.name }

// Version is the content hash of the definition the automaton was compiled
// from, empty for automata built in code.
func (a *Automaton) Version() string { return a.version }

// SetVersion records the definition hash.
func (a *Automaton) SetVersion(v string) { a.version = v }

// AddMilestone adds m. Names are unique and a milestone belongs to one
// automaton.
func (a *Automaton) AddMilestone(m *Milestone) error {
	if m == nil {
		return ErrNilMilestone
	}
	if m.owner != nil {
		return fmt.Errorf("milestone %q already belongs to automaton %q", m.name, m.owner.name)
	}
	if _, dup := a.byName[m.name]; dup {
		return fmt.Errorf("milestone %q: %w", m.name, ErrDuplicateMilestone)
	}
	m.owner = a
	m.id = len(a.milestones)
	a.milestones = append(a.milestones, m)
	a.byName[m.name] = m
	return nil
}

// AddBehaviour adds b. Both endpoints must already be milestones of a and its
// ControllerSet must not be owned by another behaviour. Behaviours get
// sequential IDs in insertion order.
func (a *Automaton) AddBehaviour(b *MotionBehaviour) error {
	if b == nil {
		return fmt.Errorf("add behaviour: nil behaviour")
	}
	if b.owner != nil {
		return fmt.Errorf("behaviour %s already belongs to automaton %q", b, b.owner.name)
	}
	if b.parent.owner != a {
		return fmt.Errorf("behaviour %s parent %q: %w", b, b.parent.name, ErrUnknownMilestone)
	}
	if b.child.owner != a {
		return fmt.Errorf("behaviour %s child %q: %w", b, b.child.name, ErrUnknownMilestone)
	}
	if !reflect.TypeOf(b.set).Comparable() {
		return fmt.Errorf("behaviour %s: controller set %T is not a pointer type", b, b.set)
	}
	if other, shared := a.sets[b.set]; shared {
		return fmt.Errorf("behaviour %s shares its set with %s: %w", b, other, ErrSharedControllerSet)
	}
	b.owner = a
	b.id = len(a.behaviours)
	a.behaviours = append(a.behaviours, b)
	a.outgoing[b.parent] = append(a.outgoing[b.parent], b)
	a.sets[b.set] = b
	return nil
}

// SetStart selects the start milestone by name.
func (a *Automaton) SetStart(name string) error {
	m, ok := a.byName[name]
	if !ok {
		return fmt.Errorf("start %q: %w", name, ErrUnknownMilestone)
	}
	a.start = m
	return nil
}

// Start returns the start milestone, nil if unset.
func (a *Automaton) Start() *Milestone { return a.start }

// Milestone looks a milestone up by name.
func (a *Automaton) Milestone(name string) (*Milestone, bool) {
	m, ok := a.byName[name]
	return m, ok
}

// Goal returns the terminal milestone, nil if the graph has none.
func (a *Automaton) Goal() *Milestone { return a.byName[GoalMilestoneName] }

// Milestones returns the milestones in insertion order.
func (a *Automaton) Milestones() []*Milestone { return slices.Clone(a.milestones) }

// Behaviours returns the behaviours in ID order.
func (a *Automaton) Behaviours() []*MotionBehaviour { return slices.Clone(a.behaviours) }

// Outgoing returns the behaviours leaving m.
func (a *Automaton) Outgoing(m *Milestone) []*MotionBehaviour {
	return slices.Clone(a.outgoing[m])
}

// Behaviour returns the first edge from parent to child, by name.
func (a *Automaton) Behaviour(parent, child string) (*MotionBehaviour, bool) {
	p, ok := a.byName[parent]
	if !ok {
		return nil, false
	}
	for _, b := range a.outgoing[p] {
		if b.child.name == child {
			return b, true
		}
	}
	return nil, false
}

// Validate checks that the automaton can be run: a start milestone is set
// and every behaviour shares one control period.
func (a *Automaton) Validate() error {
	if a.start == nil {
		return ErrNoStart
	}
	for _, b := range a.behaviours[min(1, len(a.behaviours)):] {
		if !SamePeriod(b.period, a.behaviours[0].period) {
			return fmt.Errorf("behaviour %s (dt=%g, automaton dt=%g): %w", b, b.period, a.behaviours[0].period, ErrPeriodMismatch)
		}
	}
	return nil
}

// Period returns the common control period, 0 when the graph has no edges.
func (a *Automaton) Period() float64 {
	if len(a.behaviours) == 0 {
		return 0
	}
	return a.behaviours[0].period
}

// Unreachable lists milestones that cannot be reached from the start.
func (a *Automaton) Unreachable() []string {
	if a.start == nil {
		return nil
	}
	seen := map[*Milestone]bool{a.start: true}
	queue := []*Milestone{a.start}
	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		for _, b := range a.outgoing[m] {
			if !seen[b.child] {
				seen[b.child] = true
				queue = append(queue, b.child)
			}
		}
	}
	var out []string
	for _, m := range a.milestones {
		if !seen[m] {
			out = append(out, m.name)
		}
	}
	return out
}
