// Package core compiles automaton definitions into runnable automata and
// describes automata back into definitions.
package core

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/comalice/hybridx"
	"github.com/comalice/hybridx/control"
	"github.com/comalice/hybridx/internal/extensibility"
	"github.com/comalice/hybridx/internal/primitives"
)

// ErrUnknownType is returned for controller, set or condition types that
// have no registered factory.
var ErrUnknownType = errors.New("unknown type")

// ControllerFactory builds a controller for the given control period.
type ControllerFactory func(cfg primitives.ControllerConfig, period float64) (hybridx.Controller, error)

// SetFactory builds an empty controller set for the given control period.
type SetFactory func(cfg primitives.ControlSetConfig, period float64) (hybridx.ControllerSet, error)

// ConditionFactory builds a jump condition.
type ConditionFactory func(cfg primitives.ConditionConfig) (hybridx.JumpCondition, error)

// Registry resolves definition type names to factories.
type Registry interface {
	Controller(typ string) (ControllerFactory, error)
	Set(typ string) (SetFactory, error)
	Condition(typ string) (ConditionFactory, error)
}

// MapRegistry is a Registry backed by maps. Safe for concurrent use.
type MapRegistry struct {
	mu          sync.RWMutex
	controllers map[string]ControllerFactory
	sets        map[string]SetFactory
	conditions  map[string]ConditionFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *MapRegistry {
	return &MapRegistry{
		controllers: make(map[string]ControllerFactory),
		sets:        make(map[string]SetFactory),
		conditions:  make(map[string]ConditionFactory),
	}
}

// DefaultRegistry returns a registry with the built-in types:
// controllers "interpolated" and "hold", set "sum", conditions "clock",
// "sensor", "configuration" and "expr". Expr conditions compile through
// cache; a nil cache gets a registry-private one.
func DefaultRegistry(log *slog.Logger, cache *extensibility.ProgramCache) *MapRegistry {
	if cache == nil {
		cache, _ = extensibility.NewProgramCache(extensibility.DefaultExprCacheSize)
	}
	r := NewRegistry()
	r.RegisterController("interpolated", func(cfg primitives.ControllerConfig, period float64) (hybridx.Controller, error) {
		return control.NewInterpolated(cfg.Name, hybridx.Category(cfg.Category), period, controlOptions(cfg)...), nil
	})
	r.RegisterController("hold", func(cfg primitives.ControllerConfig, period float64) (hybridx.Controller, error) {
		if cfg.Goal {
			return nil, fmt.Errorf("hold controller %q cannot take goals", cfg.Name)
		}
		return control.NewHold(cfg.Name, period, controlOptions(cfg)...), nil
	})
	r.RegisterSet("sum", func(cfg primitives.ControlSetConfig, period float64) (hybridx.ControllerSet, error) {
		return control.NewSet(period, cfg.Dim), nil
	})
	r.RegisterCondition(primitives.ConditionClock, func(cfg primitives.ConditionConfig) (hybridx.JumpCondition, error) {
		return hybridx.ClockCondition{After: cfg.After, Absolute: cfg.Absolute}, nil
	})
	r.RegisterCondition(primitives.ConditionSensor, func(cfg primitives.ConditionConfig) (hybridx.JumpCondition, error) {
		op := hybridx.Comparison(cfg.Op)
		if !op.Valid() {
			return nil, fmt.Errorf("sensor condition: invalid operator %q", cfg.Op)
		}
		return &hybridx.SensorThreshold{Key: cfg.Key, Op: op, Value: cfg.Value, Latch: cfg.Latch}, nil
	})
	r.RegisterCondition(primitives.ConditionConfiguration, func(cfg primitives.ConditionConfig) (hybridx.JumpCondition, error) {
		return hybridx.ConfigurationCondition{Target: cfg.Target, Epsilon: cfg.Epsilon}, nil
	})
	r.RegisterCondition(primitives.ConditionExpr, func(cfg primitives.ConditionConfig) (hybridx.JumpCondition, error) {
		return extensibility.NewExprCondition(cfg.Expr, cache, log)
	})
	return r
}

func controlOptions(cfg primitives.ControllerConfig) []control.Option {
	opts := []control.Option{control.WithOffset(cfg.Offset), control.WithPriority(cfg.Priority)}
	if cfg.Kp > 0 || cfg.Kv > 0 {
		opts = append(opts, control.WithGains(cfg.Kp, cfg.Kv))
	}
	return opts
}

// RegisterController registers f under typ, replacing any previous factory.
func (r *MapRegistry) RegisterController(typ string, f ControllerFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.controllers[typ] = f
}

// RegisterSet registers f under typ.
func (r *MapRegistry) RegisterSet(typ string, f SetFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets[typ] = f
}

// RegisterCondition registers f under typ.
func (r *MapRegistry) RegisterCondition(typ string, f ConditionFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conditions[typ] = f
}

func (r *MapRegistry) Controller(typ string) (ControllerFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if f, ok := r.controllers[typ]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("controller %q: %w", typ, ErrUnknownType)
}

func (r *MapRegistry) Set(typ string) (SetFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if f, ok := r.sets[typ]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("control set %q: %w", typ, ErrUnknownType)
}

func (r *MapRegistry) Condition(typ string) (ConditionFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if f, ok := r.conditions[typ]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("condition %q: %w", typ, ErrUnknownType)
}

// Types lists the registered type names per kind, sorted.
func (r *MapRegistry) Types() (controllers, sets, conditions []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for k := range r.controllers {
		controllers = append(controllers, k)
	}
	for k := range r.sets {
		sets = append(sets, k)
	}
	for k := range r.conditions {
		conditions = append(conditions, k)
	}
	sort.Strings(controllers)
	sort.Strings(sets)
	sort.Strings(conditions)
	return controllers, sets, conditions
}
