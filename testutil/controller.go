// Package testutil provides instrumented controllers and systems for tests
// that assert on how the runtime drives them.
package testutil

import (
	"slices"
	"sync/atomic"

	"github.com/comalice/hybridx"
)

// Counters records lifecycle calls. Safe for concurrent reads.
type Counters struct {
	Activations   atomic.Int64
	Deactivations atomic.Int64
	Goals         atomic.Int64
	Refreshes     atomic.Int64
	Computes      atomic.Int64
}

// Reset zeroes every counter.
func (c *Counters) Reset() {
	c.Activations.Store(0)
	c.Deactivations.Store(0)
	c.Goals.Store(0)
	c.Refreshes.Store(0)
	c.Computes.Store(0)
}

// Controller is a GoalController that records every call and commands a
// constant output.
type Controller struct {
	*Counters
	name     string
	category hybridx.Category
	period   float64
	priority int
	active   bool

	// Output is added to the command by Set.Compute.
	Output   []float64
	goal     []float64
	duration float64
}

// NewController creates a joint controller with its own counters.
func NewController(name string, period float64) *Controller {
	return &Controller{
		Counters: &Counters{},
		name:     name,
		category: hybridx.CategoryJoint,
		period:   period,
	}
}

// WithCategory sets the goal category.
func (c *Controller) WithCategory(cat hybridx.Category) *Controller {
	c.category = cat
	return c
}

// WithPriority sets the priority.
func (c *Controller) WithPriority(p int) *Controller {
	c.priority = p
	return c
}

func (c *Controller) Name() string                   { return c.name }
func (c *Controller) Period() float64                { return c.period }
func (c *Controller) Priority() int                  { return c.priority }
func (c *Controller) Active() bool                   { return c.active }
func (c *Controller) GoalCategory() hybridx.Category { return c.category }
func (c *Controller) Goal() []float64                { return c.goal }
func (c *Controller) Duration() float64              { return c.duration }

func (c *Controller) Activate() {
	c.active = true
	c.Activations.Add(1)
}

func (c *Controller) Deactivate() {
	c.active = false
	c.Deactivations.Add(1)
}

func (c *Controller) SetGoal(goal []float64, duration float64) {
	c.goal = slices.Clone(goal)
	c.duration = duration
	c.Goals.Add(1)
}

// Refresh counts the refreshes the behaviour requests before computing.
func (c *Controller) Refresh(hybridx.System) { c.Refreshes.Add(1) }

// Clone shares the counters with c, so tests can count calls made on
// copies.
func (c *Controller) Clone() hybridx.Controller {
	cp := *c
	cp.active = false
	cp.goal = slices.Clone(c.goal)
	cp.Output = slices.Clone(c.Output)
	return &cp
}

// AddCommand adds Output to out, making the controller a control.Set term.
func (c *Controller) AddCommand(_ float64, _ hybridx.State, out []float64) {
	c.Computes.Add(1)
	for i := 0; i < min(len(out), len(c.Output)); i++ {
		out[i] += c.Output[i]
	}
}
