package testutil

import (
	"testing"

	"github.com/comalice/hybridx"
	"github.com/comalice/hybridx/control"
)

func TestController_InSet(t *testing.T) {
	set := control.NewSet(0.01, 2)
	c := NewController("c", 0.01)
	c.Output = []float64{1, 2}
	if err := set.AddController(c); err != nil {
		t.Fatalf("AddController failed: %v", err)
	}

	set.Activate()
	cmd := set.Compute(0, hybridx.State{Configuration: []float64{0, 0}})
	if cmd[0] != 1 || cmd[1] != 2 {
		t.Errorf("command = %v, want [1 2]", cmd)
	}
	set.Deactivate()

	if got := c.Activations.Load(); got != 1 {
		t.Errorf("Activations = %d, want 1", got)
	}
	if got := c.Deactivations.Load(); got != 1 {
		t.Errorf("Deactivations = %d, want 1", got)
	}
	if got := c.Computes.Load(); got != 1 {
		t.Errorf("Computes = %d, want 1", got)
	}
}

func TestController_CloneSharesCounters(t *testing.T) {
	c := NewController("c", 0.01)
	cp := c.Clone().(*Controller)
	cp.Activate()
	cp.SetGoal([]float64{1}, 2)

	if c.Active() {
		t.Error("clone activation leaked into original")
	}
	if c.Activations.Load() != 1 || c.Goals.Load() != 1 {
		t.Error("clone calls not counted")
	}
	c.Reset()
	if c.Activations.Load() != 0 {
		t.Error("Reset did not zero counters")
	}
}

func TestSystem_RecordsCommands(t *testing.T) {
	s := NewSystem(1, 2)
	if err := s.ApplyCommand([]float64{3}); err != nil {
		t.Fatal(err)
	}
	s.Reject(true)
	if err := s.ApplyCommand([]float64{4}); err != ErrRejected {
		t.Errorf("expected ErrRejected, got %v", err)
	}
	if n := len(s.Commands()); n != 2 {
		t.Errorf("got %d commands, want 2", n)
	}
	if s.LastCommand()[0] != 4 {
		t.Errorf("LastCommand = %v", s.LastCommand())
	}
}
