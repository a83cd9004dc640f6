package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/comalice/hybridx"
	"github.com/comalice/hybridx/control"
)

var (
	ErrQueueFull    = errors.New("hand-off queue full")
	ErrNotRunning   = errors.New("scheduler not running")
	ErrRunning      = errors.New("scheduler already running")
	ErrNoParser     = errors.New("no definition parser configured")
	ErrNilAutomaton = errors.New("nil automaton")
)

// Config configures the scheduler.
type Config struct {
	Period          time.Duration // Fixed control period (default: 1ms)
	QueueMode       QueueMode     // Hand-off policy (default: Replace)
	MaxPending      int           // Queue bound in Append mode (default: 16)
	Workers         int           // Definition parser workers (default: 2)
	JobBuffer       int           // Pending definitions before SubmitDefinition fails (default: 16)
	UpdateThreshold float64       // Goal distance under which a switch is a no-op (default: 0.01)
	StartPaused     bool          // Begin with transitions paused
	ServoDisabled   bool          // Begin applying zero commands
}

func (c Config) withDefaults() Config {
	if c.Period <= 0 {
		c.Period = time.Millisecond
	}
	if c.MaxPending <= 0 {
		c.MaxPending = 16
	}
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.JobBuffer <= 0 {
		c.JobBuffer = 16
	}
	if c.UpdateThreshold <= 0 {
		c.UpdateThreshold = 0.01
	}
	return c
}

// Parser turns a serialized automaton definition into an Automaton. It runs
// on a worker goroutine, never on the control loop.
type Parser func(ctx context.Context, data []byte) (*hybridx.Automaton, error)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// WithCriterion sets the initial decision criterion (default: LocalCriterion).
func WithCriterion(c hybridx.DecisionCriterion) Option {
	return func(s *Scheduler) { s.SetDecisionCriterion(c) }
}

// WithBlackboard exposes bb to jump conditions as State.Sensors.
func WithBlackboard(bb *hybridx.Blackboard) Option {
	return func(s *Scheduler) { s.blackboard = bb }
}

// WithPublisher publishes a snapshot after every tick.
func WithPublisher(p Publisher) Option {
	return func(s *Scheduler) { s.publisher = p }
}

// WithParser enables SubmitDefinition.
func WithParser(p Parser) Option {
	return func(s *Scheduler) { s.parse = p }
}

// WithIdleSet replaces the controller set run before any automaton is
// adopted. The default set commands zero.
func WithIdleSet(set hybridx.ControllerSet) Option {
	return func(s *Scheduler) { s.idleSet = set }
}

type criterionBox struct{ c hybridx.DecisionCriterion }

// Scheduler runs the fixed-period control tick and hot-swaps automata
// submitted from other goroutines.
//
// The active automaton and behaviour are owned by the control goroutine.
// Everything else is safe for concurrent use.
type Scheduler struct {
	sys    hybridx.System
	cfg    Config
	period float64
	log    *slog.Logger

	servo     atomic.Bool
	active    atomic.Bool
	criterion atomic.Pointer[criterionBox]
	queue     *handoff
	latest    atomic.Pointer[Snapshot]
	tickNum   atomic.Uint64

	// control goroutine only
	automaton *hybridx.Automaton
	// edge is the graph edge the scheduler stands on, nil while idle or
	// right after an adoption. run is the scheduler's own instance that
	// executes it; graph edges are never activated or retargeted.
	edge           *hybridx.MotionBehaviour
	run            *hybridx.MotionBehaviour
	idleSet        hybridx.ControllerSet
	blackboard     *hybridx.Blackboard
	sensors        map[string]any
	sensorsVersion uint64
	zero           []float64
	applyFailing   bool

	publisher Publisher
	parse     Parser
	jobs      chan job

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
	workers *errgroup.Group

	stats struct {
		overruns, adoptions, dropped           atomic.Uint64
		hardSwitches, retargets, noOps, parses atomic.Uint64
	}
}

// NewScheduler creates a scheduler for sys. Servo and activity start
// enabled unless cfg says otherwise; until an automaton is adopted the idle
// behaviour runs.
func NewScheduler(sys hybridx.System, cfg Config, opts ...Option) (*Scheduler, error) {
	if sys == nil {
		return nil, errors.New("nil system")
	}
	cfg = cfg.withDefaults()
	s := &Scheduler{
		sys:    sys,
		cfg:    cfg,
		period: cfg.Period.Seconds(),
		log:    slog.Default(),
		queue:  newHandoff(cfg.QueueMode, cfg.MaxPending),
	}
	s.criterion.Store(&criterionBox{hybridx.LocalCriterion{}})
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "scheduler")

	if s.idleSet == nil {
		s.idleSet = control.NewSet(s.period, 0)
	}
	idle, err := hybridx.NewMotionBehaviour(
		hybridx.NewMilestone("idle", nil),
		hybridx.NewMilestone("idle", nil),
		s.idleSet,
	)
	if err != nil {
		return nil, fmt.Errorf("idle behaviour: %w", err)
	}
	if !hybridx.SamePeriod(idle.Period(), s.period) {
		return nil, fmt.Errorf("idle set (dt=%g, scheduler dt=%g): %w", idle.Period(), s.period, hybridx.ErrPeriodMismatch)
	}
	s.run = idle
	idle.Activate(hybridx.ReadState(sys))

	s.servo.Store(!cfg.ServoDisabled)
	s.active.Store(!cfg.StartPaused)
	return s, nil
}

// Start begins tick-based execution and the definition workers.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.stopped = make(chan struct{})
	s.jobs = make(chan job, s.cfg.JobBuffer)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < s.cfg.Workers; i++ {
		g.Go(func() error { return s.worker(gctx, s.jobs) })
	}
	s.workers = g

	go s.tickLoop(ctx, s.stopped)
	s.log.Info("scheduler started", "period", s.cfg.Period, "queue", s.cfg.QueueMode, "workers", s.cfg.Workers)
	return nil
}

// Stop stops the tick loop and the workers and waits for them to exit.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return ErrNotRunning
	}
	s.cancel()
	<-s.stopped
	err := s.workers.Wait()
	s.cancel, s.jobs, s.workers = nil, nil, nil
	s.log.Info("scheduler stopped", "ticks", s.tickNum.Load())
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return err
}

// tickLoop is the main tick execution loop
func (s *Scheduler) tickLoop(ctx context.Context, stopped chan struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(s.cfg.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			n := s.tickNum.Load()
			func() {
				defer func() {
					if r := recover(); r != nil {
						s.log.Error("tick panicked", "tick", n, "panic", r)
					}
				}()
				s.Step(float64(n) * s.period)
			}()
			if time.Since(start) > s.cfg.Period {
				s.stats.overruns.Add(1)
			}
		}
	}
}

// SetServoEnabled turns command output on or off. While off, zero commands
// are applied.
func (s *Scheduler) SetServoEnabled(on bool) { s.servo.Store(on) }

// ServoEnabled reports the servo flag.
func (s *Scheduler) ServoEnabled() bool { return s.servo.Load() }

// SetActive resumes or pauses transitions. The scheduler pauses itself on
// reaching the goal milestone.
func (s *Scheduler) SetActive(on bool) {
	if s.active.Swap(on) != on {
		s.log.Info("scheduler activity changed", "active", on)
	}
}

// Active reports whether transitions are evaluated.
func (s *Scheduler) Active() bool { return s.active.Load() }

// SetDecisionCriterion replaces the decision criterion. Nil restores
// LocalCriterion. Takes effect on the next tick.
func (s *Scheduler) SetDecisionCriterion(c hybridx.DecisionCriterion) {
	if c == nil {
		c = hybridx.LocalCriterion{}
	}
	s.criterion.Store(&criterionBox{c})
}

// SubmitAutomaton queues a complete automaton for adoption.
func (s *Scheduler) SubmitAutomaton(a *hybridx.Automaton) error {
	if a == nil {
		return ErrNilAutomaton
	}
	if err := a.Validate(); err != nil {
		return fmt.Errorf("automaton %q: %w", a.Name(), err)
	}
	if p := a.Period(); p > 0 && !hybridx.SamePeriod(p, s.period) {
		return fmt.Errorf("automaton %q (dt=%g, scheduler dt=%g): %w", a.Name(), p, s.period, hybridx.ErrPeriodMismatch)
	}
	dropped, err := s.queue.push(a)
	if err != nil {
		return fmt.Errorf("automaton %q: %w", a.Name(), err)
	}
	if dropped > 0 {
		s.stats.dropped.Add(uint64(dropped))
		s.log.Debug("discarded pending automata", "count", dropped, "replacement", a.Name())
	}
	return nil
}

// Pending returns the number of automata waiting for adoption.
func (s *Scheduler) Pending() int { return s.queue.len() }

// Snapshot returns the telemetry of the last tick.
func (s *Scheduler) Snapshot() (Snapshot, bool) {
	p := s.latest.Load()
	if p == nil {
		return Snapshot{}, false
	}
	return *p, true
}

// TickNumber returns the number of completed ticks.
func (s *Scheduler) TickNumber() uint64 { return s.tickNum.Load() }

// Period returns the control period in seconds.
func (s *Scheduler) Period() float64 { return s.period }

// Stats returns the cumulative counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Ticks:        s.tickNum.Load(),
		Overruns:     s.stats.overruns.Load(),
		Adoptions:    s.stats.adoptions.Load(),
		Dropped:      s.stats.dropped.Load(),
		HardSwitches: s.stats.hardSwitches.Load(),
		Retargets:    s.stats.retargets.Load(),
		NoOps:        s.stats.noOps.Load(),
		ParseErrors:  s.stats.parses.Load(),
	}
}
