package core

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/comalice/hybridx"
	"github.com/comalice/hybridx/internal/extensibility"
	"github.com/comalice/hybridx/internal/primitives"
)

// Option configures a Compiler.
type Option func(*Compiler)

// WithRegistry sets the type registry (default: DefaultRegistry).
func WithRegistry(r Registry) Option {
	return func(c *Compiler) { c.registry = r }
}

// WithPeriod sets the control period in seconds. Definitions that state a
// different period are rejected.
func WithPeriod(seconds float64) Option {
	return func(c *Compiler) { c.period = seconds }
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) { c.log = l }
}

// WithInterpolationDefaults sets the per-category interpolation defaults
// given to every compiled behaviour.
func WithInterpolationDefaults(d hybridx.InterpolationDefaults) Option {
	return func(c *Compiler) { c.defaults = d }
}

// WithExprCache sets the cache expr conditions compile through. Ignored
// when WithRegistry is given.
func WithExprCache(cache *extensibility.ProgramCache) Option {
	return func(c *Compiler) { c.exprCache = cache }
}

// WithEpsilon sets the convergence tolerance of milestones that state none.
func WithEpsilon(eps float64) Option {
	return func(c *Compiler) { c.epsilon = eps }
}

// Compiler turns AutomatonConfig definitions into automata.
type Compiler struct {
	registry Registry
	period   float64
	epsilon  float64
	log      *slog.Logger
	defaults hybridx.InterpolationDefaults

	exprCache *extensibility.ProgramCache
}

// NewCompiler creates a compiler.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = DefaultRegistry(c.log, c.exprCache)
	}
	return c
}

// CompileBytes decodes a YAML or JSON definition and compiles it. Its
// signature matches realtime.Parser.
func (c *Compiler) CompileBytes(ctx context.Context, data []byte) (*hybridx.Automaton, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var cfg primitives.AutomatonConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode definition: %w", err)
	}
	return c.Compile(&cfg)
}

// Compile validates cfg and builds the automaton. Nothing is returned on
// error.
func (c *Compiler) Compile(cfg *primitives.AutomatonConfig) (*hybridx.Automaton, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid definition: %w", err)
	}
	period, err := c.resolvePeriod(cfg)
	if err != nil {
		return nil, err
	}

	a := hybridx.NewAutomaton(cfg.Name)
	a.SetVersion(primitives.ComputeVersion(cfg))
	for _, mc := range cfg.Milestones {
		if err := a.AddMilestone(c.compileMilestone(mc)); err != nil {
			return nil, err
		}
	}
	for i, bc := range cfg.Behaviours {
		b, err := c.compileBehaviour(a, bc, period)
		if err != nil {
			return nil, fmt.Errorf("behaviour %d (%s->%s): %w", i, bc.Parent, bc.Child, err)
		}
		if err := a.AddBehaviour(b); err != nil {
			return nil, err
		}
	}
	if err := a.SetStart(cfg.Start); err != nil {
		return nil, err
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	c.log.Debug("automaton compiled", "automaton", cfg.Name, "version", a.Version(),
		"milestones", len(cfg.Milestones), "behaviours", len(cfg.Behaviours))
	return a, nil
}

func (c *Compiler) resolvePeriod(cfg *primitives.AutomatonConfig) (float64, error) {
	switch {
	case cfg.Period > 0 && c.period > 0 && !hybridx.SamePeriod(cfg.Period, c.period):
		return 0, fmt.Errorf("definition period %g, runtime period %g: %w", cfg.Period, c.period, hybridx.ErrPeriodMismatch)
	case cfg.Period > 0:
		return cfg.Period, nil
	case c.period > 0:
		return c.period, nil
	default:
		return 0, fmt.Errorf("definition %q has no period and no default is configured", cfg.Name)
	}
}

func (c *Compiler) compileMilestone(mc *primitives.MilestoneConfig) *hybridx.Milestone {
	opts := []hybridx.MilestoneOption{hybridx.WithStatus(parseStatus(mc.Status))}
	if mc.Space == primitives.OperationalSpace {
		opts = append(opts, hybridx.WithSpace(hybridx.OperationalSpace))
	}
	if len(mc.Epsilon) > 0 {
		opts = append(opts, hybridx.WithEpsilon(mc.Epsilon...))
	} else if c.epsilon > 0 {
		opts = append(opts, hybridx.WithEpsilon(c.epsilon))
	}
	return hybridx.NewMilestone(mc.Name, mc.Target, opts...)
}

func parseStatus(s string) hybridx.MilestoneStatus {
	switch s {
	case primitives.StatusInvalid:
		return hybridx.StatusInvalid
	case primitives.StatusTaskConsistent:
		return hybridx.StatusTaskConsistent
	default:
		return hybridx.StatusValid
	}
}

func (c *Compiler) compileBehaviour(a *hybridx.Automaton, bc *primitives.BehaviourConfig, period float64) (*hybridx.MotionBehaviour, error) {
	parent, _ := a.Milestone(bc.Parent)
	child, _ := a.Milestone(bc.Child)

	setType := bc.ControlSet.Type
	if setType == "" {
		setType = "sum"
	}
	newSet, err := c.registry.Set(setType)
	if err != nil {
		return nil, err
	}
	set, err := newSet(bc.ControlSet, period)
	if err != nil {
		return nil, err
	}

	entries := make([]hybridx.ControllerEntry, 0, len(bc.ControlSet.Controllers))
	for _, cc := range bc.ControlSet.Controllers {
		newCtrl, err := c.registry.Controller(cc.Type)
		if err != nil {
			return nil, err
		}
		ctrl, err := newCtrl(cc, period)
		if err != nil {
			return nil, err
		}
		entries = append(entries, hybridx.ControllerEntry{Controller: ctrl, Goal: cc.Goal})
	}

	opts := []hybridx.BehaviourOption{
		hybridx.WithWeight(bc.Weight),
		hybridx.WithMaxVelocity(bc.MaxVelocity),
		hybridx.WithMinTime(bc.MinTime),
		hybridx.WithUpdateAllowed(bc.UpdateAllowed),
	}
	if c.defaults != nil {
		opts = append(opts, hybridx.WithInterpolationDefaults(c.defaults))
	}
	if bc.Switch != nil {
		sw, err := c.compileSwitch(bc.Switch)
		if err != nil {
			return nil, err
		}
		opts = append(opts, hybridx.WithSwitch(sw))
	}

	b, err := hybridx.NewMotionBehaviour(parent, child, set, opts...)
	if err != nil {
		return nil, err
	}
	if err := b.AddControllers(entries...); err != nil {
		return nil, err
	}
	return b, nil
}

func (c *Compiler) compileSwitch(sc *primitives.SwitchConfig) (*hybridx.ControlSwitch, error) {
	policy, err := hybridx.ParsePolicy(sc.Policy)
	if err != nil {
		return nil, err
	}
	sw := hybridx.NewControlSwitch(policy)
	for i, cc := range sc.Conditions {
		newCond, err := c.registry.Condition(cc.Type)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
		cond, err := newCond(cc)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
		sw.Add(cond)
	}
	return sw, nil
}
