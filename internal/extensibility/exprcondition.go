package extensibility

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/comalice/hybridx"
)

// DefaultExprCacheSize is the default number of compiled programs kept.
const DefaultExprCacheSize = 256

// ProgramCache shares compiled expression programs between conditions,
// keyed by source. Safe for concurrent use.
type ProgramCache struct {
	mu  sync.Mutex
	lru *lru.Cache[string, *vm.Program]
}

// NewProgramCache creates a cache holding up to size programs.
func NewProgramCache(size int) (*ProgramCache, error) {
	c, err := lru.New[string, *vm.Program](size)
	if err != nil {
		return nil, fmt.Errorf("expr program cache: %w", err)
	}
	return &ProgramCache{lru: c}, nil
}

// Len returns the number of cached programs.
func (c *ProgramCache) Len() int { return c.lru.Len() }

func (c *ProgramCache) compile(source string) (*vm.Program, error) {
	if c == nil {
		return compile(source)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.lru.Get(source); ok {
		return p, nil
	}
	p, err := compile(source)
	if err != nil {
		return nil, err
	}
	c.lru.Add(source, p)
	return p, nil
}

// ExprEnv is the environment expressions are evaluated in.
type ExprEnv struct {
	T        float64        `expr:"t"`
	Elapsed  float64        `expr:"elapsed"`
	Q        []float64      `expr:"q"`
	Qdot     []float64      `expr:"qdot"`
	Position []float64      `expr:"position"`
	Sensors  map[string]any `expr:"sensors"`
}

// ExprCondition is a jump condition written in expr-lang, for example
// `sensors.force > 5 && elapsed > 1`. The expression is compiled when the
// condition is created, never on the control loop.
type ExprCondition struct {
	source  string
	program *vm.Program
	log     *slog.Logger

	failing bool
}

var _ hybridx.JumpCondition = (*ExprCondition)(nil)

// NewExprCondition compiles source, reusing a program from cache when it
// holds one. A nil cache compiles every time.
func NewExprCondition(source string, cache *ProgramCache, log *slog.Logger) (*ExprCondition, error) {
	if source == "" {
		return nil, fmt.Errorf("expr condition: empty expression")
	}
	if log == nil {
		log = slog.Default()
	}
	program, err := cache.compile(source)
	if err != nil {
		return nil, fmt.Errorf("expr condition %q: %w", source, err)
	}
	return &ExprCondition{source: source, program: program, log: log}, nil
}

func compile(source string) (*vm.Program, error) {
	return expr.Compile(source, expr.Env(ExprEnv{}), expr.AsBool())
}

// Source returns the expression text.
func (c *ExprCondition) Source() string { return c.source }

// Holds runs the program. Runtime errors count as false and are logged
// once until the expression evaluates again.
func (c *ExprCondition) Holds(env hybridx.ConditionEnv) bool {
	out, err := expr.Run(c.program, ExprEnv{
		T:        env.T,
		Elapsed:  env.Elapsed,
		Q:        env.State.Configuration,
		Qdot:     env.State.Velocity,
		Position: env.State.Position(),
		Sensors:  env.State.Sensors,
	})
	if err != nil {
		if !c.failing {
			c.log.Error("expr condition evaluation failed", "expression", c.source, "error", err)
		}
		c.failing = true
		return false
	}
	c.failing = false
	b, _ := out.(bool)
	return b
}

// Clone shares the compiled program.
func (c *ExprCondition) Clone() hybridx.JumpCondition {
	return &ExprCondition{source: c.source, program: c.program, log: c.log}
}
