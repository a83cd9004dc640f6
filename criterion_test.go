package hybridx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/hybridx"
	"github.com/comalice/hybridx/control"
)

// diamond: start -> {left, right} -> goal, plus a direct start -> goal edge
// guarded by a sensor.
func diamond(t *testing.T, leftW, rightW, directW float64) *hybridx.Automaton {
	t.Helper()
	set := func() *control.Set { return control.NewSet(dt, 0) }
	b := hybridx.NewAutomatonBuilder("diamond", "start")
	b.Milestone("start", []float64{0}).
		Milestone("left", []float64{-1}).
		Milestone("right", []float64{1}).
		Milestone("goal", []float64{2})
	b.Behaviour("start", "left", set(), hybridx.WithWeight(leftW))
	b.Behaviour("start", "right", set(), hybridx.WithWeight(rightW))
	b.Behaviour("left", "goal", set(), hybridx.WithWeight(1))
	b.Behaviour("right", "goal", set(), hybridx.WithWeight(5))
	b.Behaviour("start", "goal", set(), hybridx.WithWeight(directW),
		hybridx.WithSwitch(hybridx.NewControlSwitch(hybridx.All,
			&hybridx.SensorThreshold{Key: "clear", Op: hybridx.Equal, Value: 1})))
	a, err := b.Build()
	require.NoError(t, err)
	return a
}

func query(a *hybridx.Automaton, from string, sensors map[string]any) hybridx.Query {
	m, _ := a.Milestone(from)
	return hybridx.Query{From: m, Automaton: a, Changed: true, State: hybridx.State{Sensors: sensors}}
}

func TestLocalCriterion(t *testing.T) {
	a := diamond(t, 1, 3, 10)
	next := hybridx.LocalCriterion{}.Next(query(a, "start", nil))
	require.NotNil(t, next)
	assert.Equal(t, "start->right", next.String(), "highest traversable weight")

	next = hybridx.LocalCriterion{}.Next(query(a, "start", map[string]any{"clear": true}))
	assert.Equal(t, "start->goal", next.String(), "guarded edge opens")

	assert.Nil(t, hybridx.LocalCriterion{}.Next(query(a, "goal", nil)), "no outgoing edges")
	assert.Nil(t, hybridx.LocalCriterion{}.Next(hybridx.Query{}))
}

func TestLocalCriterion_TieBreak(t *testing.T) {
	a := diamond(t, 2, 2, 0)
	next := hybridx.LocalCriterion{}.Next(query(a, "start", nil))
	assert.Equal(t, "start->left", next.String(), "lowest id wins ties")
}

func TestGoalDirectedCriterion(t *testing.T) {
	// costs: via left 1+1, via right 3+5
	a := diamond(t, 1, 3, 10)
	c := hybridx.GoalDirectedCriterion{}
	assert.Equal(t, "start->left", c.Next(query(a, "start", nil)).String())

	// the direct edge costs 10 > 2
	assert.Equal(t, "start->left", c.Next(query(a, "start", map[string]any{"clear": 1})).String())

	cheapDirect := hybridx.GoalDirectedCriterion{Cost: func(b *hybridx.MotionBehaviour) float64 {
		if b.Child().IsGoal() && b.Parent().Name() == "start" {
			return 0.5
		}
		return b.Weight()
	}}
	assert.Equal(t, "start->goal", cheapDirect.Next(query(a, "start", map[string]any{"clear": 1})).String())
}

func TestGoalDirectedCriterion_FallsBack(t *testing.T) {
	b := hybridx.NewAutomatonBuilder("nogoal", "a")
	b.Milestone("a", []float64{0}).Milestone("b", []float64{1}).Milestone("c", []float64{2})
	b.Behaviour("a", "b", control.NewSet(dt, 0), hybridx.WithWeight(1))
	b.Behaviour("a", "c", control.NewSet(dt, 0), hybridx.WithWeight(2))
	a, err := b.Build()
	require.NoError(t, err)

	next := hybridx.GoalDirectedCriterion{}.Next(query(a, "a", nil))
	assert.Equal(t, "a->c", next.String())
}

func TestCriterionFunc(t *testing.T) {
	var seen hybridx.Query
	c := hybridx.CriterionFunc(func(q hybridx.Query) *hybridx.MotionBehaviour {
		seen = q
		return nil
	})
	c.Next(hybridx.Query{T: 3})
	assert.Equal(t, 3.0, seen.T)
}
