package control

import (
	"math"
	"slices"

	"github.com/comalice/hybridx"
)

// Option configures a controller.
type Option func(*base)

// WithGains sets the proportional and derivative gains.
func WithGains(kp, kv float64) Option {
	return func(b *base) { b.kp, b.kv = kp, kv }
}

// WithOffset places the controller's output at offset within the command.
func WithOffset(offset int) Option {
	return func(b *base) { b.offset = offset }
}

// WithPriority sets the evaluation priority; higher runs first.
func WithPriority(p int) Option {
	return func(b *base) { b.priority = p }
}

type base struct {
	name     string
	period   float64
	priority int
	kp, kv   float64
	offset   int
	active   bool
}

func (b *base) Name() string    { return b.name }
func (b *base) Period() float64 { return b.period }
func (b *base) Priority() int   { return b.priority }
func (b *base) Active() bool    { return b.active }
func (b *base) Offset() int     { return b.offset }

// Gains returns the proportional and derivative gains.
func (b *base) Gains() (kp, kv float64) { return b.kp, b.kv }

func newBase(name string, period float64, opts []Option) base {
	b := base{name: name, period: period, kp: 100, kv: 20}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// Interpolated tracks a rest-to-rest cubic reference toward its goal with a
// PD law. Its clock advances by one period per compute, starting at zero on
// activation and on every new goal.
type Interpolated struct {
	base
	category hybridx.Category
	strategy hybridx.GoalStrategy

	from, to []float64
	duration float64
	tau      float64
	desired  []float64
	prev     []float64
}

// NewInterpolated creates an inactive interpolating controller for category.
func NewInterpolated(name string, category hybridx.Category, period float64, opts ...Option) *Interpolated {
	return &Interpolated{
		base:     newBase(name, period, opts),
		category: category,
		strategy: hybridx.DefaultGoalStrategies()[category],
	}
}

func (c *Interpolated) GoalCategory() hybridx.Category { return c.category }

// Activate arms the controller. Without a goal it holds the first measured
// value.
func (c *Interpolated) Activate() {
	c.active = true
	c.prev = nil
	c.desired = nil
}

func (c *Interpolated) Deactivate() { c.active = false }

// SetGoal restarts interpolation from the current reference, or from the
// next measurement when there is none yet.
func (c *Interpolated) SetGoal(goal []float64, duration float64) {
	if c.desired != nil {
		c.from = slices.Clone(c.desired)
	} else {
		c.from = nil
	}
	c.to = slices.Clone(goal)
	c.duration = duration
	c.tau = 0
	if duration <= 0 {
		c.from = slices.Clone(goal)
	}
}

// Goal returns the current goal.
func (c *Interpolated) Goal() []float64 { return slices.Clone(c.to) }

// Duration returns the interpolation time of the current goal.
func (c *Interpolated) Duration() float64 { return c.duration }

// Desired returns the reference of the last compute.
func (c *Interpolated) Desired() []float64 { return slices.Clone(c.desired) }

func (c *Interpolated) AddCommand(_ float64, s hybridx.State, out []float64) {
	x, xdot := c.measure(s)
	if c.from == nil {
		c.from = slices.Clone(x)
	}
	if c.to == nil {
		c.to = slices.Clone(x)
	}
	n := min(len(c.to), len(c.from), len(x))
	if cap(c.desired) < n {
		c.desired = make([]float64, n)
	}
	c.desired = c.desired[:n]

	ratio, rate := 1.0, 0.0
	if c.duration > 0 && c.tau < c.duration {
		r := c.tau / c.duration
		ratio = 3*r*r - 2*r*r*r
		rate = (6*r - 6*r*r) / c.duration
	}
	for i := 0; i < n; i++ {
		delta := c.diff(c.to[i], c.from[i])
		c.desired[i] = c.from[i] + delta*ratio
		e := c.diff(c.desired[i], x[i])
		edot := delta*rate - xdot[i]
		if j := c.offset + i; j < len(out) {
			out[j] += c.kp*e + c.kv*edot
		}
	}
	c.tau += c.period
}

// measure returns the value and rate the controller acts on.
func (c *Interpolated) measure(s hybridx.State) (x, xdot []float64) {
	switch {
	case c.category == hybridx.CategoryJoint || c.strategy == nil:
		x = s.Configuration
		xdot = s.Velocity
	default:
		x = c.strategy.Measure(s)
		xdot = make([]float64, len(x))
		if c.prev != nil && c.period > 0 {
			for i := range x {
				if i < len(c.prev) {
					xdot[i] = c.diff(x[i], c.prev[i]) / c.period
				}
			}
		}
		c.prev = slices.Clone(x)
	}
	if len(xdot) < len(x) {
		xdot = append(slices.Clone(xdot), make([]float64, len(x)-len(xdot))...)
	}
	return x, xdot
}

func (c *Interpolated) diff(a, b float64) float64 {
	if c.category == hybridx.CategoryOrientation {
		return wrap(a - b)
	}
	return a - b
}

func (c *Interpolated) Clone() hybridx.Controller {
	return &Interpolated{base: c.base.inactive(), category: c.category, strategy: c.strategy}
}

func (b base) inactive() base {
	b.active = false
	return b
}

func wrap(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// Hold servos to the value measured on the first compute after activation.
type Hold struct {
	base
	target []float64
}

// NewHold creates an inactive hold controller.
func NewHold(name string, period float64, opts ...Option) *Hold {
	return &Hold{base: newBase(name, period, opts)}
}

func (c *Hold) Activate() {
	c.active = true
	c.target = nil
}

func (c *Hold) Deactivate() { c.active = false }

func (c *Hold) Desired() []float64 { return slices.Clone(c.target) }

func (c *Hold) AddCommand(_ float64, s hybridx.State, out []float64) {
	if c.target == nil {
		c.target = slices.Clone(s.Configuration)
	}
	for i, q := range s.Configuration {
		if i >= len(c.target) {
			break
		}
		var qdot float64
		if i < len(s.Velocity) {
			qdot = s.Velocity[i]
		}
		if j := c.offset + i; j < len(out) {
			out[j] += c.kp*(c.target[i]-q) - c.kv*qdot
		}
	}
}

func (c *Hold) Clone() hybridx.Controller {
	return &Hold{base: c.base.inactive()}
}
