package realtime

import (
	"slices"

	"github.com/comalice/hybridx"
)

// Snapshot is the read-only telemetry of one tick.
type Snapshot struct {
	Tick          uint64    `json:"tick"`
	T             float64   `json:"t"`
	Command       []float64 `json:"command"`
	Configuration []float64 `json:"configuration"`
	Velocity      []float64 `json:"velocity"`
	Desired       []float64 `json:"desired,omitempty"`
	// Position is the end-effector position, when the system reports a pose.
	Position []float64 `json:"position,omitempty"`

	Automaton      string  `json:"automaton,omitempty"`
	Version        string  `json:"version,omitempty"`
	Behaviour      string  `json:"behaviour"`
	Parent         string  `json:"parent"`
	Child          string  `json:"child"`
	Elapsed        float64 `json:"elapsed"`
	TimeToConverge float64 `json:"time_to_converge"`

	Servo  bool `json:"servo"`
	Active bool `json:"active"`
}

// Publisher receives a snapshot after every tick. Publish is called from
// the control goroutine and must not block.
type Publisher interface {
	Publish(Snapshot)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Snapshot)

func (f PublisherFunc) Publish(s Snapshot) { f(s) }

// Stats are cumulative scheduler counters.
type Stats struct {
	Ticks        uint64
	Overruns     uint64
	Adoptions    uint64
	Dropped      uint64
	HardSwitches uint64
	Retargets    uint64
	NoOps        uint64
	ParseErrors  uint64
}

func (s *Scheduler) snapshot(tick uint64, t float64, st hybridx.State, cmd []float64) Snapshot {
	b := s.run
	snap := Snapshot{
		Tick:           tick,
		T:              t,
		Command:        slices.Clone(cmd),
		Configuration:  slices.Clone(st.Configuration),
		Velocity:       slices.Clone(st.Velocity),
		Desired:        b.Desired(),
		Behaviour:      b.String(),
		Parent:         b.Parent().Name(),
		Child:          b.Child().Name(),
		Elapsed:        b.Elapsed(),
		TimeToConverge: b.TimeToConverge(),
		Servo:          s.servo.Load(),
		Active:         s.active.Load(),
	}
	if st.Pose != nil {
		snap.Position = slices.Clone(st.Pose.Position[:])
	}
	if s.automaton != nil {
		snap.Automaton = s.automaton.Name()
		snap.Version = s.automaton.Version()
	}
	return snap
}
