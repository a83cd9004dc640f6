// Package control provides a reference ControllerSet and two controllers:
// an interpolating PD tracker that accepts goals and a position hold.
package control

import (
	"fmt"
	"slices"
	"sort"

	"github.com/comalice/hybridx"
)

// Term is implemented by controllers that contribute to the set command.
// AddCommand adds the controller's contribution into out.
type Term interface {
	AddCommand(t float64, s hybridx.State, out []float64)
}

// Set sums the contributions of its active controllers, highest priority
// first. It implements hybridx.ControllerSet.
type Set struct {
	period      float64
	dim         int
	controllers []hybridx.Controller
	names       map[string]bool
	out         []float64
}

// NewSet creates an empty set. dim is the command length; zero uses the
// length of the measured configuration.
func NewSet(period float64, dim int) *Set {
	return &Set{period: period, dim: dim, names: make(map[string]bool)}
}

func (cs *Set) Period() float64 { return cs.period }
func (cs *Set) Dim() int        { return cs.dim }

// AddController adds c. It rejects nil controllers, period mismatches and
// duplicate names.
func (cs *Set) AddController(c hybridx.Controller) error {
	if c == nil {
		return hybridx.ErrNilController
	}
	if !hybridx.SamePeriod(c.Period(), cs.period) {
		return fmt.Errorf("controller %q (dt=%g, set dt=%g): %w", c.Name(), c.Period(), cs.period, hybridx.ErrPeriodMismatch)
	}
	if cs.names[c.Name()] {
		return fmt.Errorf("controller %q: %w", c.Name(), hybridx.ErrDuplicateController)
	}
	cs.names[c.Name()] = true
	cs.controllers = append(cs.controllers, c)
	sort.SliceStable(cs.controllers, func(i, j int) bool {
		return cs.controllers[i].Priority() > cs.controllers[j].Priority()
	})
	return nil
}

// Controllers returns the controllers in evaluation order.
func (cs *Set) Controllers() []hybridx.Controller { return slices.Clone(cs.controllers) }

func (cs *Set) Activate() {
	for _, c := range cs.controllers {
		c.Activate()
	}
}

func (cs *Set) Deactivate() {
	for _, c := range cs.controllers {
		c.Deactivate()
	}
}

// Compute returns the summed command. The returned slice is reused by the
// next call.
func (cs *Set) Compute(t float64, s hybridx.State) []float64 {
	n := cs.dim
	if n == 0 {
		n = len(s.Configuration)
	}
	if cap(cs.out) < n {
		cs.out = make([]float64, n)
	}
	cs.out = cs.out[:n]
	clear(cs.out)
	for _, c := range cs.controllers {
		if !c.Active() {
			continue
		}
		if term, ok := c.(Term); ok {
			term.AddCommand(t, s, cs.out)
		}
	}
	return cs.out
}

// Clone returns a set with cloned, inactive controllers.
func (cs *Set) Clone() hybridx.ControllerSet {
	out := NewSet(cs.period, cs.dim)
	for _, c := range cs.controllers {
		cc := c.Clone()
		out.names[cc.Name()] = true
		out.controllers = append(out.controllers, cc)
	}
	return out
}
