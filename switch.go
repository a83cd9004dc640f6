package hybridx

import (
	"fmt"
	"math"
	"slices"
)

// ConditionEnv is what a JumpCondition sees when it is evaluated.
type ConditionEnv struct {
	// T is the scheduler time in seconds.
	T float64
	// Elapsed is the active behaviour's time since activation.
	Elapsed float64
	State   State
}

// JumpCondition is a predicate gating traversal of an edge.
type JumpCondition interface {
	Holds(env ConditionEnv) bool
}

// ConditionFunc adapts a function to JumpCondition.
type ConditionFunc func(env ConditionEnv) bool

func (f ConditionFunc) Holds(env ConditionEnv) bool { return f(env) }

// Policy combines the conditions of a ControlSwitch.
type Policy int

const (
	// All requires every condition to hold.
	All Policy = iota
	// Any requires at least one condition to hold.
	Any
)

func (p Policy) String() string {
	if p == Any {
		return "any"
	}
	return "all"
}

// ParsePolicy accepts "all", "any" and the empty string (all).
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "all":
		return All, nil
	case "any":
		return Any, nil
	default:
		return All, fmt.Errorf("unknown switch policy %q", s)
	}
}

// ControlSwitch decides whether an edge may be taken. A switch with no
// conditions is always traversable.
type ControlSwitch struct {
	policy     Policy
	conditions []JumpCondition
}

// NewControlSwitch creates a switch combining conds with policy.
func NewControlSwitch(policy Policy, conds ...JumpCondition) *ControlSwitch {
	return &ControlSwitch{policy: policy, conditions: slices.Clone(conds)}
}

func (sw *ControlSwitch) Policy() Policy { return sw.policy }

// Conditions returns the switch conditions in evaluation order.
func (sw *ControlSwitch) Conditions() []JumpCondition { return slices.Clone(sw.conditions) }

// Add appends a condition.
func (sw *ControlSwitch) Add(c JumpCondition) {
	sw.conditions = append(sw.conditions, c)
}

// Traversable evaluates the conditions. Every condition is evaluated so that
// latching conditions observe every tick.
func (sw *ControlSwitch) Traversable(env ConditionEnv) bool {
	if sw == nil || len(sw.conditions) == 0 {
		return true
	}
	every, some := true, false
	for _, c := range sw.conditions {
		if c.Holds(env) {
			some = true
		} else {
			every = false
		}
	}
	if sw.policy == Any {
		return some
	}
	return every
}

// Reset clears latched conditions.
func (sw *ControlSwitch) Reset() {
	for _, c := range sw.conditions {
		if r, ok := c.(interface{ Reset() }); ok {
			r.Reset()
		}
	}
}

// Clone copies the switch. Conditions implementing Clone() JumpCondition are
// copied; the rest are shared.
func (sw *ControlSwitch) Clone() *ControlSwitch {
	out := &ControlSwitch{policy: sw.policy, conditions: make([]JumpCondition, len(sw.conditions))}
	for i, c := range sw.conditions {
		if cl, ok := c.(interface{ Clone() JumpCondition }); ok {
			out.conditions[i] = cl.Clone()
		} else {
			out.conditions[i] = c
		}
	}
	return out
}

// ClockCondition holds once the active behaviour has run for After seconds,
// or once the scheduler clock passed After when Absolute is set.
type ClockCondition struct {
	After    float64
	Absolute bool
}

func (c ClockCondition) Holds(env ConditionEnv) bool {
	if c.Absolute {
		return env.T >= c.After
	}
	return env.Elapsed >= c.After
}

// Comparison is a relational operator for SensorThreshold.
type Comparison string

const (
	Greater      Comparison = ">"
	GreaterEqual Comparison = ">="
	Less         Comparison = "<"
	LessEqual    Comparison = "<="
	Equal        Comparison = "=="
	NotEqual     Comparison = "!="
)

// Valid reports whether c is a known operator.
func (c Comparison) Valid() bool {
	switch c {
	case Greater, GreaterEqual, Less, LessEqual, Equal, NotEqual:
		return true
	}
	return false
}

func (c Comparison) apply(a, b float64) bool {
	switch c {
	case Greater:
		return a > b
	case GreaterEqual:
		return a >= b
	case Less:
		return a < b
	case LessEqual:
		return a <= b
	case Equal:
		return a == b
	case NotEqual:
		return a != b
	}
	return false
}

// SensorThreshold compares a numeric blackboard entry against Value. A
// missing or non-numeric entry does not hold. With Latch set, the condition
// keeps holding after it first held until Reset.
type SensorThreshold struct {
	Key   string
	Op    Comparison
	Value float64
	Latch bool

	latched bool
}

func (c *SensorThreshold) Holds(env ConditionEnv) bool {
	if c.latched {
		return true
	}
	v, ok := SensorFloat(env.State.Sensors, c.Key)
	if !ok || !c.Op.apply(v, c.Value) {
		return false
	}
	if c.Latch {
		c.latched = true
	}
	return true
}

func (c *SensorThreshold) Reset() { c.latched = false }

func (c *SensorThreshold) Clone() JumpCondition {
	cp := *c
	cp.latched = false
	return &cp
}

// ConfigurationCondition holds while the measured configuration is within
// Epsilon (Euclidean) of Target.
type ConfigurationCondition struct {
	Target  []float64
	Epsilon float64
}

func (c ConfigurationCondition) Holds(env ConditionEnv) bool {
	d, ok := Distance(env.State.Configuration, c.Target)
	return ok && d <= c.Epsilon
}

// SensorFloat reads key from a sensor snapshot as a float64. Booleans map to
// 0 and 1.
func SensorFloat(sensors map[string]any, key string) (float64, bool) {
	v, ok := sensors[key]
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x)
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
