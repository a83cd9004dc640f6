package core

import (
	"fmt"
	"slices"

	"github.com/comalice/hybridx"
	"github.com/comalice/hybridx/control"
	"github.com/comalice/hybridx/internal/extensibility"
	"github.com/comalice/hybridx/internal/primitives"
)

// Describe converts an automaton built from the built-in types back into a
// definition. Compiling the result yields an equivalent graph.
func Describe(a *hybridx.Automaton) (*primitives.AutomatonConfig, error) {
	cfg := &primitives.AutomatonConfig{
		Version: a.Version(),
		Name:    a.Name(),
		Period:  a.Period(),
	}
	if s := a.Start(); s != nil {
		cfg.Start = s.Name()
	}
	for _, m := range a.Milestones() {
		mc := &primitives.MilestoneConfig{
			Name:    m.Name(),
			Target:  m.Configuration(),
			Epsilon: m.Epsilon(),
		}
		if m.Space() == hybridx.OperationalSpace {
			mc.Space = primitives.OperationalSpace
		}
		if m.Status() != hybridx.StatusValid {
			mc.Status = m.Status().String()
		}
		cfg.Milestones = append(cfg.Milestones, mc)
	}
	for _, b := range a.Behaviours() {
		bc, err := describeBehaviour(b)
		if err != nil {
			return nil, fmt.Errorf("behaviour %s: %w", b, err)
		}
		cfg.Behaviours = append(cfg.Behaviours, bc)
	}
	return cfg, nil
}

func describeBehaviour(b *hybridx.MotionBehaviour) (*primitives.BehaviourConfig, error) {
	ip := b.Interpolation()
	bc := &primitives.BehaviourConfig{
		Parent:        b.Parent().Name(),
		Child:         b.Child().Name(),
		Weight:        b.Weight(),
		MaxVelocity:   ip.MaxVelocity,
		MinTime:       ip.MinTime,
		UpdateAllowed: b.IsUpdateAllowed(),
	}
	set, ok := b.ControllerSet().(*control.Set)
	if !ok {
		return nil, fmt.Errorf("controller set %T: %w", b.ControllerSet(), ErrUnknownType)
	}
	bc.ControlSet = primitives.ControlSetConfig{Type: "sum", Dim: set.Dim()}
	for _, c := range set.Controllers() {
		cc, err := describeController(c)
		if err != nil {
			return nil, err
		}
		cc.Goal = b.IsGoalController(c.Name())
		bc.ControlSet.Controllers = append(bc.ControlSet.Controllers, cc)
	}
	if sw := b.Switch(); sw != nil {
		sc := &primitives.SwitchConfig{Policy: sw.Policy().String()}
		for _, cond := range sw.Conditions() {
			cc, err := describeCondition(cond)
			if err != nil {
				return nil, err
			}
			sc.Conditions = append(sc.Conditions, cc)
		}
		bc.Switch = sc
	}
	return bc, nil
}

func describeController(c hybridx.Controller) (primitives.ControllerConfig, error) {
	cc := primitives.ControllerConfig{Name: c.Name(), Priority: c.Priority()}
	switch ctrl := c.(type) {
	case *control.Interpolated:
		cc.Type = "interpolated"
		cc.Category = string(ctrl.GoalCategory())
		cc.Kp, cc.Kv = ctrl.Gains()
		cc.Offset = ctrl.Offset()
	case *control.Hold:
		cc.Type = "hold"
		cc.Kp, cc.Kv = ctrl.Gains()
		cc.Offset = ctrl.Offset()
	default:
		return cc, fmt.Errorf("controller %q (%T): %w", c.Name(), c, ErrUnknownType)
	}
	return cc, nil
}

func describeCondition(c hybridx.JumpCondition) (primitives.ConditionConfig, error) {
	switch cond := c.(type) {
	case hybridx.ClockCondition:
		return primitives.ConditionConfig{Type: primitives.ConditionClock, After: cond.After, Absolute: cond.Absolute}, nil
	case *hybridx.SensorThreshold:
		return primitives.ConditionConfig{
			Type:  primitives.ConditionSensor,
			Key:   cond.Key,
			Op:    string(cond.Op),
			Value: cond.Value,
			Latch: cond.Latch,
		}, nil
	case hybridx.ConfigurationCondition:
		return primitives.ConditionConfig{
			Type:    primitives.ConditionConfiguration,
			Target:  slices.Clone(cond.Target),
			Epsilon: cond.Epsilon,
		}, nil
	case *extensibility.ExprCondition:
		return primitives.ConditionConfig{Type: primitives.ConditionExpr, Expr: cond.Source()}, nil
	default:
		return primitives.ConditionConfig{}, fmt.Errorf("condition %T: %w", c, ErrUnknownType)
	}
}
