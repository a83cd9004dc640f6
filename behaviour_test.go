package hybridx_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/hybridx"
	"github.com/comalice/hybridx/control"
	"github.com/comalice/hybridx/testutil"
)

const dt = 0.01

func newEdge(t *testing.T, from, to []float64, opts ...hybridx.BehaviourOption) (*hybridx.MotionBehaviour, *testutil.Controller) {
	t.Helper()
	b, err := hybridx.NewMotionBehaviour(
		hybridx.NewMilestone("from", from),
		hybridx.NewMilestone("to", to),
		control.NewSet(dt, 0), opts...)
	require.NoError(t, err)
	c := testutil.NewController("pd", dt)
	require.NoError(t, b.AddController(c, true))
	return b, c
}

func TestMotionBehaviour_ActivateDeactivate(t *testing.T) {
	b, c := newEdge(t, []float64{0}, []float64{0.6}, hybridx.WithMaxVelocity(0.2))
	s := hybridx.State{Configuration: []float64{0}}

	b.Activate(s)
	assert.True(t, b.IsActive())
	assert.True(t, c.Active())
	assert.Equal(t, int64(1), c.Activations.Load())
	assert.Equal(t, []float64{0.6}, c.Goal())
	// 6 * 0.6 / (4 * 0.2)
	assert.InDelta(t, 4.5, b.TimeToConverge(), 1e-9)
	assert.InDelta(t, 4.5, c.Duration(), 1e-9)

	// activating an active behaviour re-arms its controllers
	b.Activate(s)
	assert.Equal(t, int64(1), c.Deactivations.Load())
	assert.Equal(t, int64(2), c.Activations.Load())

	b.Deactivate()
	b.Deactivate()
	assert.False(t, b.IsActive())
	assert.False(t, c.Active())
	assert.Equal(t, int64(2), c.Deactivations.Load(), "second Deactivate is a no-op")
}

func TestMotionBehaviour_SharedDuration(t *testing.T) {
	b, err := hybridx.NewMotionBehaviour(
		hybridx.NewMilestone("from", nil),
		hybridx.NewMilestone("to", []float64{1, 0, 0, 0, 0, 0}),
		control.NewSet(dt, 0), hybridx.WithMaxVelocity(0.5))
	require.NoError(t, err)
	joint := testutil.NewController("joint", dt)
	disp := testutil.NewController("disp", dt).WithCategory(hybridx.CategoryDisplacement)
	require.NoError(t, b.AddControllers(
		hybridx.ControllerEntry{Controller: joint, Goal: true},
		hybridx.ControllerEntry{Controller: disp, Goal: true},
	))

	b.Activate(hybridx.State{Configuration: []float64{0, 0, 0, 0, 0, 0}})
	assert.InDelta(t, 3, b.TimeToConverge(), 1e-9)
	assert.Equal(t, joint.Duration(), disp.Duration())
	assert.Equal(t, []float64{1, 0, 0}, disp.Goal())
}

func TestMotionBehaviour_Update(t *testing.T) {
	b, c := newEdge(t, []float64{0, 0}, []float64{1, 1})
	c.Output = []float64{1, -1}
	sys := testutil.NewSystem(0, 0)
	b.Activate(hybridx.ReadState(sys))

	cmd := b.Update(0, hybridx.ReadState(sys), sys)
	assert.Equal(t, []float64{1, -1}, cmd)
	assert.InDelta(t, dt, b.Elapsed(), 1e-12)
	assert.Equal(t, int64(1), c.Refreshes.Load())
	assert.Equal(t, []float64{1, 1}, b.Error(hybridx.State{Configuration: []float64{0, 0}}))
}

func TestMotionBehaviour_AddControllersAtomic(t *testing.T) {
	tests := []struct {
		name    string
		entries []hybridx.ControllerEntry
		err     error
	}{
		{"nil controller", []hybridx.ControllerEntry{
			{Controller: testutil.NewController("a", dt), Goal: true},
			{Controller: nil},
		}, hybridx.ErrNilController},
		{"typed nil", []hybridx.ControllerEntry{
			{Controller: testutil.NewController("a", dt)},
			{Controller: (*testutil.Controller)(nil)},
		}, hybridx.ErrNilController},
		{"period mismatch", []hybridx.ControllerEntry{
			{Controller: testutil.NewController("a", dt), Goal: true},
			{Controller: testutil.NewController("b", 2 * dt)},
		}, hybridx.ErrPeriodMismatch},
		{"duplicate in batch", []hybridx.ControllerEntry{
			{Controller: testutil.NewController("a", dt)},
			{Controller: testutil.NewController("a", dt)},
		}, hybridx.ErrDuplicateController},
		{"unreachable goal", []hybridx.ControllerEntry{
			{Controller: testutil.NewController("a", dt)},
			{Controller: testutil.NewController("b", dt).WithCategory(hybridx.CategoryTransform), Goal: true},
		}, hybridx.ErrDimensionMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := control.NewSet(dt, 0)
			b, err := hybridx.NewMotionBehaviour(
				hybridx.NewMilestone("from", []float64{0}),
				hybridx.NewMilestone("to", []float64{1}),
				set)
			require.NoError(t, err)

			err = b.AddControllers(tt.entries...)
			assert.ErrorIs(t, err, tt.err)
			assert.Empty(t, set.Controllers(), "batch partially applied")
		})
	}
}

func TestNewMotionBehaviour_Errors(t *testing.T) {
	m := hybridx.NewMilestone("m", []float64{0})
	_, err := hybridx.NewMotionBehaviour(nil, m, control.NewSet(dt, 0))
	assert.ErrorIs(t, err, hybridx.ErrNilMilestone)
	_, err = hybridx.NewMotionBehaviour(m, m, nil)
	assert.ErrorIs(t, err, hybridx.ErrNilControllerSet)
	_, err = hybridx.NewMotionBehaviour(m, m, (*control.Set)(nil))
	assert.ErrorIs(t, err, hybridx.ErrNilControllerSet)
}

func TestMotionBehaviour_UpdateControllers(t *testing.T) {
	a, c := newEdge(t, []float64{0}, []float64{1}, hybridx.WithUpdateAllowed(true))
	b, _ := newEdge(t, []float64{1}, []float64{2}, hybridx.WithUpdateAllowed(true), hybridx.WithMaxVelocity(0.1))
	s := hybridx.State{Configuration: []float64{0.5}}

	a.Activate(s)
	a.Update(0, s, testutil.NewSystem(0.5))
	c.Reset()

	require.NoError(t, a.UpdateControllers(b, s))
	assert.Zero(t, c.Activations.Load(), "no activation on update")
	assert.Zero(t, c.Deactivations.Load(), "no deactivation on update")
	assert.Equal(t, int64(1), c.Goals.Load())
	assert.Equal(t, []float64{2}, c.Goal())
	assert.Same(t, b.Child(), a.Child())
	assert.Same(t, b.Parent(), a.Parent())
	assert.Zero(t, a.Elapsed())
	// 6 * 1.5 / (4 * 0.1)
	assert.InDelta(t, 22.5, a.TimeToConverge(), 1e-9)
	assert.True(t, c.Active())
}

func TestMotionBehaviour_UpdateNotAllowed(t *testing.T) {
	a, _ := newEdge(t, []float64{0}, []float64{1}, hybridx.WithUpdateAllowed(true))
	b, _ := newEdge(t, []float64{1}, []float64{2})
	err := a.UpdateControllers(b, hybridx.State{Configuration: []float64{0}})
	if !errors.Is(err, hybridx.ErrUpdateNotAllowed) {
		t.Fatalf("expected ErrUpdateNotAllowed, got %v", err)
	}
	if a.Child().Name() != "to" || a.Goal()[0] != 1 {
		t.Error("rejected update changed the behaviour")
	}
}

func TestMotionBehaviour_Wait(t *testing.T) {
	a, c := newEdge(t, []float64{0}, []float64{1}, hybridx.WithUpdateAllowed(true))
	s := hybridx.State{Configuration: []float64{0.3}}
	a.Activate(s)

	require.True(t, a.Wait(s))
	assert.Equal(t, []float64{0.3}, c.Goal())
	assert.Zero(t, c.Duration())
	assert.Zero(t, a.TimeToConverge())

	fixed, _ := newEdge(t, []float64{0}, []float64{1})
	assert.False(t, fixed.Wait(s))
}

func TestMotionBehaviour_GoalDistance(t *testing.T) {
	a, _ := newEdge(t, []float64{0}, []float64{1, 1})
	b, _ := newEdge(t, []float64{0}, []float64{1, 1.005})
	c, _ := newEdge(t, []float64{0}, []float64{1})

	assert.InDelta(t, 0.005, a.GoalDistance(b), 1e-12)
	assert.True(t, a.GoalDistance(c) > 1e300, "mismatched dimensions are infinitely far")
}

func TestMotionBehaviour_Clone(t *testing.T) {
	a, c := newEdge(t, []float64{0}, []float64{1},
		hybridx.WithSwitch(hybridx.NewControlSwitch(hybridx.All, &hybridx.SensorThreshold{Key: "f", Op: hybridx.Greater, Latch: true})))
	a.Activate(hybridx.State{Configuration: []float64{0}})

	cp := a.Clone()
	assert.False(t, cp.IsActive())
	assert.NotSame(t, a.ControllerSet(), cp.ControllerSet())
	assert.NotSame(t, a.Switch(), cp.Switch())
	assert.True(t, cp.IsGoalController("pd"))
	assert.Nil(t, cp.Parent().Automaton())
	assert.True(t, c.Active(), "original untouched")
}
