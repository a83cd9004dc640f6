package hybridx

import (
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
)

// MotionBehaviour is a graph edge: it owns one ControllerSet and drives the
// robot from the parent milestone toward the child milestone.
//
// Lifecycle: Inactive -> Active (Activate) -> Converged or Superseded ->
// Inactive (Deactivate). All methods except the constructors and accessors
// are meant for the single control goroutine.
type MotionBehaviour struct {
	id     int
	owner  *Automaton
	parent *Milestone
	child  *Milestone
	weight float64

	set      ControllerSet
	goal     map[string]bool
	onDemand []Refresher
	period   float64

	elapsed        float64
	timeToConverge float64
	interp         Interpolation
	updateAllowed  bool
	active         bool

	sw         *ControlSwitch
	strategies GoalStrategies
	defaults   InterpolationDefaults
}

// BehaviourOption configures a MotionBehaviour at construction.
type BehaviourOption func(*MotionBehaviour)

// WithWeight sets the weight used by decision criteria.
func WithWeight(w float64) BehaviourOption {
	return func(b *MotionBehaviour) { b.weight = w }
}

// WithMaxVelocity bounds the interpolation velocity.
func WithMaxVelocity(v float64) BehaviourOption {
	return func(b *MotionBehaviour) { b.interp.MaxVelocity = v }
}

// WithMinTime sets the minimum interpolation time in seconds.
func WithMinTime(t float64) BehaviourOption {
	return func(b *MotionBehaviour) { b.interp.MinTime = t }
}

// WithUpdateAllowed marks the behaviour as retargetable in place.
func WithUpdateAllowed(allowed bool) BehaviourOption {
	return func(b *MotionBehaviour) { b.updateAllowed = allowed }
}

// WithSwitch attaches the control switch gating traversal of this edge.
func WithSwitch(sw *ControlSwitch) BehaviourOption {
	return func(b *MotionBehaviour) { b.sw = sw }
}

// WithGoalStrategies replaces the goal-injection strategies.
func WithGoalStrategies(gs GoalStrategies) BehaviourOption {
	return func(b *MotionBehaviour) { b.strategies = maps.Clone(gs) }
}

// WithInterpolationDefaults replaces the per-category defaults.
func WithInterpolationDefaults(d InterpolationDefaults) BehaviourOption {
	return func(b *MotionBehaviour) { b.defaults = maps.Clone(d) }
}

// ControllerEntry pairs a controller with its goal flag for AddControllers.
type ControllerEntry struct {
	Controller Controller
	Goal       bool
}

// NewMotionBehaviour creates an inactive behaviour from parent to child. The
// behaviour takes ownership of set; its period becomes the behaviour period
// and every controller already in it must share that period.
func NewMotionBehaviour(parent, child *Milestone, set ControllerSet, opts ...BehaviourOption) (*MotionBehaviour, error) {
	if parent == nil || child == nil {
		return nil, ErrNilMilestone
	}
	if isNil(set) {
		return nil, ErrNilControllerSet
	}
	b := &MotionBehaviour{
		parent:     parent,
		child:      child,
		set:        set,
		goal:       make(map[string]bool),
		period:     set.Period(),
		strategies: DefaultGoalStrategies(),
		defaults:   DefaultInterpolation(),
	}
	for _, opt := range opts {
		opt(b)
	}
	for _, c := range set.Controllers() {
		if isNil(c) {
			return nil, ErrNilController
		}
		if !SamePeriod(c.Period(), b.period) {
			return nil, fmt.Errorf("controller %q (dt=%g, behaviour dt=%g): %w", c.Name(), c.Period(), b.period, ErrPeriodMismatch)
		}
		b.goal[c.Name()] = false
		if r, ok := c.(Refresher); ok {
			b.onDemand = append(b.onDemand, r)
		}
	}
	return b, nil
}

// AddController adds one controller. See AddControllers.
func (b *MotionBehaviour) AddController(c Controller, goal bool) error {
	return b.AddControllers(ControllerEntry{Controller: c, Goal: goal})
}

// AddControllers validates every entry before adding any of them: a nil
// controller, a period mismatch, a duplicate name or a goal controller whose
// category cannot drive the child milestone rejects the whole batch.
func (b *MotionBehaviour) AddControllers(entries ...ControllerEntry) error {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		c := e.Controller
		if isNil(c) {
			return ErrNilController
		}
		if !SamePeriod(c.Period(), b.period) {
			return fmt.Errorf("controller %q (dt=%g, behaviour dt=%g): %w", c.Name(), c.Period(), b.period, ErrPeriodMismatch)
		}
		if _, dup := b.goal[c.Name()]; dup || seen[c.Name()] {
			return fmt.Errorf("controller %q: %w", c.Name(), ErrDuplicateController)
		}
		seen[c.Name()] = true
		if e.Goal {
			if _, err := b.goalTarget(c, b.child); err != nil {
				return err
			}
		}
	}
	for _, e := range entries {
		c := e.Controller
		c.Deactivate()
		if err := b.set.AddController(c); err != nil {
			return fmt.Errorf("add controller %q: %w", c.Name(), err)
		}
		b.goal[c.Name()] = e.Goal
		if r, ok := c.(Refresher); ok {
			b.onDemand = append(b.onDemand, r)
		}
	}
	return nil
}

// goalTarget resolves the strategy for a goal controller and extracts its
// target from m.
func (b *MotionBehaviour) goalTarget(c Controller, m *Milestone) ([]float64, error) {
	gc, ok := c.(GoalController)
	if !ok {
		return nil, fmt.Errorf("controller %q cannot take goals", c.Name())
	}
	strat, ok := b.strategies[gc.GoalCategory()]
	if !ok {
		return nil, fmt.Errorf("controller %q: no goal strategy for category %q", c.Name(), gc.GoalCategory())
	}
	target, err := strat.Target(m.target)
	if err != nil {
		return nil, fmt.Errorf("controller %q toward %q: %w", c.Name(), m.name, err)
	}
	return target, nil
}

// Activate re-arms every controller (deactivate, then activate) and pushes
// the child milestone into the goal controllers with a freshly computed
// time-to-converge.
func (b *MotionBehaviour) Activate(s State) {
	for _, c := range b.set.Controllers() {
		if c.Active() {
			c.Deactivate()
		}
		c.Activate()
	}
	b.elapsed = 0
	b.timeToConverge = b.pushGoals(s)
	b.active = true
}

// Deactivate deactivates all owned controllers. No-op when inactive.
func (b *MotionBehaviour) Deactivate() {
	if !b.active {
		return
	}
	b.set.Deactivate()
	b.active = false
}

// Update refreshes on-demand controllers, computes the command and advances
// the elapsed time by one period. Call at most once per tick.
func (b *MotionBehaviour) Update(t float64, s State, sys System) []float64 {
	for _, r := range b.onDemand {
		r.Refresh(sys)
	}
	cmd := b.set.Compute(t, s)
	b.elapsed += b.period
	return cmd
}

// UpdateControllers retargets the running controllers toward other's child
// without a deactivate/activate cycle. Both behaviours must allow updates and
// every goal controller must be able to drive other's child.
func (b *MotionBehaviour) UpdateControllers(other *MotionBehaviour, s State) error {
	if other == nil {
		return fmt.Errorf("update controllers: nil behaviour")
	}
	if !b.updateAllowed || !other.updateAllowed {
		return ErrUpdateNotAllowed
	}
	for name, goal := range b.goal {
		if !goal {
			continue
		}
		if _, err := b.goalTarget(b.controller(name), other.child); err != nil {
			return err
		}
	}
	b.parent, b.child = other.parent, other.child
	b.interp = other.interp
	b.elapsed = 0
	b.timeToConverge = b.pushGoals(s)
	return nil
}

// Rebind moves the behaviour onto other's endpoints without touching the
// controllers. Used when other restates the current goal.
func (b *MotionBehaviour) Rebind(other *MotionBehaviour) {
	if other == nil {
		return
	}
	b.parent, b.child = other.parent, other.child
}

// Wait freezes the goal controllers at the measured state. It returns false
// when updates are not allowed.
func (b *MotionBehaviour) Wait(s State) bool {
	if !b.updateAllowed {
		return false
	}
	for _, gc := range b.goalControllers() {
		strat := b.strategies[gc.GoalCategory()]
		gc.SetGoal(slices.Clone(strat.Measure(s)), 0)
	}
	b.timeToConverge = 0
	return true
}

// pushGoals computes the interpolation time once and pushes the child target
// into every goal controller with it.
func (b *MotionBehaviour) pushGoals(s State) float64 {
	t := b.calculateInterpolationTime(s)
	for _, gc := range b.goalControllers() {
		target, err := b.goalTarget(gc, b.child)
		if err != nil {
			continue
		}
		gc.SetGoal(slices.Clone(target), t)
	}
	return t
}

// calculateInterpolationTime returns the largest time any goal controller
// needs to reach the child milestone.
func (b *MotionBehaviour) calculateInterpolationTime(s State) float64 {
	var t float64
	for _, gc := range b.goalControllers() {
		cat := gc.GoalCategory()
		strat := b.strategies[cat]
		target, err := b.goalTarget(gc, b.child)
		if err != nil {
			continue
		}
		t = math.Max(t, strat.RequiredTime(strat.Measure(s), target, b.interp, b.defaults[cat]))
	}
	return t
}

func (b *MotionBehaviour) goalControllers() []GoalController {
	var out []GoalController
	for _, c := range b.set.Controllers() {
		if !b.goal[c.Name()] {
			continue
		}
		if gc, ok := c.(GoalController); ok {
			out = append(out, gc)
		}
	}
	return out
}

func (b *MotionBehaviour) controller(name string) Controller {
	for _, c := range b.set.Controllers() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// Clone returns an inactive deep copy with its own ControllerSet. The copy
// belongs to no automaton.
func (b *MotionBehaviour) Clone() *MotionBehaviour {
	c := *b
	c.id = 0
	c.owner = nil
	c.active = false
	c.elapsed = 0
	c.set = b.set.Clone()
	c.goal = maps.Clone(b.goal)
	c.onDemand = nil
	for _, ctrl := range c.set.Controllers() {
		if r, ok := ctrl.(Refresher); ok {
			c.onDemand = append(c.onDemand, r)
		}
	}
	if b.sw != nil {
		c.sw = b.sw.Clone()
	}
	c.strategies = maps.Clone(b.strategies)
	c.defaults = maps.Clone(b.defaults)
	return &c
}

func (b *MotionBehaviour) ID() int                 { return b.id }
func (b *MotionBehaviour) Parent() *Milestone      { return b.parent }
func (b *MotionBehaviour) Child() *Milestone       { return b.child }
func (b *MotionBehaviour) Weight() float64         { return b.weight }
func (b *MotionBehaviour) Period() float64         { return b.period }
func (b *MotionBehaviour) Elapsed() float64        { return b.elapsed }
func (b *MotionBehaviour) TimeToConverge() float64 { return b.timeToConverge }
func (b *MotionBehaviour) IsUpdateAllowed() bool   { return b.updateAllowed }
func (b *MotionBehaviour) IsActive() bool          { return b.active }
func (b *MotionBehaviour) Switch() *ControlSwitch  { return b.sw }

// Interpolation returns the timing constraints of the edge.
func (b *MotionBehaviour) Interpolation() Interpolation { return b.interp }

// ControllerSet returns the owned set. Callers must not hand it to another
// behaviour.
func (b *MotionBehaviour) ControllerSet() ControllerSet { return b.set }

// IsGoalController reports the goal flag of the named controller.
func (b *MotionBehaviour) IsGoalController(name string) bool { return b.goal[name] }

// Progress returns elapsed time and time-to-converge.
func (b *MotionBehaviour) Progress() Progress {
	return Progress{Elapsed: b.elapsed, TimeToConverge: b.timeToConverge}
}

// Goal returns a copy of the child milestone's configuration.
func (b *MotionBehaviour) Goal() []float64 { return b.child.Configuration() }

// GoalDistance is the Euclidean distance between the goals of b and other,
// +Inf when their dimensions differ.
func (b *MotionBehaviour) GoalDistance(other *MotionBehaviour) float64 {
	d, _ := Distance(b.child.target, other.child.target)
	return d
}

// Error returns target minus measured value for every goal controller,
// concatenated in controller order.
func (b *MotionBehaviour) Error(s State) []float64 {
	var out []float64
	for _, gc := range b.goalControllers() {
		strat := b.strategies[gc.GoalCategory()]
		target, err := b.goalTarget(gc, b.child)
		if err != nil {
			continue
		}
		cur := strat.Measure(s)
		for i, v := range target {
			if i < len(cur) {
				out = append(out, v-cur[i])
			}
		}
	}
	return out
}

// Desired concatenates the references of controllers exposing one.
func (b *MotionBehaviour) Desired() []float64 {
	var out []float64
	for _, c := range b.set.Controllers() {
		if rp, ok := c.(ReferenceProvider); ok {
			out = append(out, rp.Desired()...)
		}
	}
	return out
}

func (b *MotionBehaviour) String() string {
	return fmt.Sprintf("%s->%s", b.parent.name, b.child.name)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
