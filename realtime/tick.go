package realtime

import (
	"github.com/comalice/hybridx"
)

// Step runs one control tick at time t. The tick loop calls it once per
// period; simulations and tests may call it directly instead of Start, but
// never concurrently with a running loop.
func (s *Scheduler) Step(t float64) {
	tick := s.tickNum.Load()
	defer s.tickNum.Add(1)

	// Phase 1: Read state
	st := hybridx.ReadState(s.sys)
	st.Sensors = s.sensorSnapshot()

	// Phase 2: Command
	cmd := s.command(t, st)

	// Phases 3-8: Transitions
	s.transition(t, st)

	snap := s.snapshot(tick, t, st, cmd)
	s.latest.Store(&snap)
	if s.publisher != nil {
		s.publisher.Publish(snap)
	}
}

// command computes and applies the command of the active behaviour, or a
// zero command while the servo is off.
func (s *Scheduler) command(t float64, st hybridx.State) []float64 {
	var cmd []float64
	if s.servo.Load() {
		cmd = s.run.Update(t, st, s.sys)
	} else {
		cmd = s.zeroCommand(len(st.Configuration))
	}
	if err := s.sys.ApplyCommand(cmd); err != nil {
		if !s.applyFailing {
			s.log.Error("apply command failed", "behaviour", s.run.String(), "error", err)
		}
		s.applyFailing = true
	} else if s.applyFailing {
		s.log.Info("apply command recovered")
		s.applyFailing = false
	}
	return cmd
}

func (s *Scheduler) zeroCommand(n int) []float64 {
	if cap(s.zero) < n {
		s.zero = make([]float64, n)
	}
	s.zero = s.zero[:n]
	clear(s.zero)
	return s.zero
}

// transition adopts a pending automaton or checks convergence, then asks
// the decision criterion where to go from the resulting query milestone.
func (s *Scheduler) transition(t float64, st hybridx.State) {
	if !s.active.Load() {
		return
	}

	var (
		query   *hybridx.Milestone
		changed bool
	)
	if a, ok := s.queue.tryPop(); ok {
		s.adopt(a)
		query, changed = a.Start(), true
	} else if s.automaton == nil {
		return
	} else if s.edge == nil {
		// Still running the idle behaviour or one of a replaced graph.
		query, changed = s.automaton.Start(), true
	} else if child := s.edge.Child(); child.HasConverged(st, s.run.Progress()) {
		if child.IsGoal() {
			s.active.Store(false)
			s.log.Info("goal reached", "automaton", s.automaton.Name(), "t", t)
			return
		}
		query, changed = child, true
	} else {
		query, changed = s.edge.Parent(), false
	}

	next := s.criterion.Load().c.Next(hybridx.Query{
		From:      query,
		Automaton: s.automaton,
		Changed:   changed,
		T:         t,
		Elapsed:   s.run.Elapsed(),
		State:     st,
	})
	if next == nil || next == s.edge {
		return
	}
	s.switchTo(next, st)
}

// adopt makes a the current automaton. The running instance keeps driving
// the robot until the criterion picks an edge of a.
func (s *Scheduler) adopt(a *hybridx.Automaton) {
	prev := "none"
	if s.automaton != nil {
		prev = s.automaton.Name()
	}
	s.automaton = a
	s.edge = nil
	s.stats.adoptions.Add(1)
	s.log.Info("automaton adopted", "automaton", a.Name(), "version", a.Version(), "previous", prev)
}

// switchTo moves control to the graph edge next: a no-op when both allow
// updates and restate the same goal, an in-place retarget of the running
// instance when they allow updates, otherwise a hard switch onto a fresh
// instance of next. The graph edge itself is never mutated.
func (s *Scheduler) switchTo(next *hybridx.MotionBehaviour, st hybridx.State) {
	cur := s.run
	if cur.IsUpdateAllowed() && next.IsUpdateAllowed() {
		if cur.GoalDistance(next) < s.cfg.UpdateThreshold {
			// Controllers keep their goals; only the endpoints follow so
			// the instance holds nothing of a replaced graph.
			cur.Rebind(next)
			s.edge = next
			s.stats.noOps.Add(1)
			return
		}
		err := cur.UpdateControllers(next, st)
		if err == nil {
			s.edge = next
			s.stats.retargets.Add(1)
			s.log.Debug("behaviour retargeted", "behaviour", cur.String(), "ttc", cur.TimeToConverge())
			return
		}
		s.log.Debug("retarget rejected, switching", "from", cur.String(), "to", next.String(), "error", err)
	}
	run := next.Clone()
	cur.Deactivate()
	run.Activate(st)
	s.run, s.edge = run, next
	s.stats.hardSwitches.Add(1)
	s.log.Debug("behaviour switched", "from", cur.String(), "to", next.String(), "ttc", run.TimeToConverge())
}

// sensorSnapshot copies the blackboard only when it changed.
func (s *Scheduler) sensorSnapshot() map[string]any {
	if s.blackboard == nil {
		return nil
	}
	if v := s.blackboard.Version(); v != s.sensorsVersion || s.sensors == nil {
		s.sensors, s.sensorsVersion = s.blackboard.Snapshot()
	}
	return s.sensors
}
