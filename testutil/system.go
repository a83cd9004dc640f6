package testutil

import (
	"errors"
	"slices"
	"sync"

	"github.com/comalice/hybridx"
)

// ErrRejected is returned by System.ApplyCommand while Reject is set.
var ErrRejected = errors.New("command rejected")

// System is a hybridx.System whose state only changes when a test says so.
// It records every command it receives.
type System struct {
	mu       sync.Mutex
	q, qdot  []float64
	commands [][]float64
	reject   bool
}

// NewSystem creates a system at configuration q with zero velocity.
func NewSystem(q ...float64) *System {
	return &System{q: slices.Clone(q), qdot: make([]float64, len(q))}
}

func (s *System) Configuration() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.q)
}

func (s *System) Velocity() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.qdot)
}

func (s *System) ApplyCommand(cmd []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, slices.Clone(cmd))
	if s.reject {
		return ErrRejected
	}
	return nil
}

// Set moves the system to q.
func (s *System) Set(q ...float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.q = slices.Clone(q)
	if len(s.qdot) != len(q) {
		s.qdot = make([]float64, len(q))
	}
}

// Reject makes ApplyCommand fail until called with false.
func (s *System) Reject(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reject = on
}

// Commands returns every command received so far.
func (s *System) Commands() [][]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.commands)
}

// LastCommand returns the most recent command, or nil.
func (s *System) LastCommand() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.commands) == 0 {
		return nil
	}
	return s.commands[len(s.commands)-1]
}

var _ hybridx.System = (*System)(nil)
